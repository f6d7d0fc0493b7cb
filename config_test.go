package repoboard

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
web:
  address: "127.0.0.1:9000"
database:
  path: "/var/lib/repoboard/data.db"
github:
  token: "ghp_testtoken"
  repositories:
    - owner/alpha
    - owner/beta
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Web.Address != "127.0.0.1:9000" {
		t.Fatalf("unexpected address %q", cfg.Web.Address)
	}
	if cfg.Database.Path != "/var/lib/repoboard/data.db" {
		t.Fatalf("unexpected database path %q", cfg.Database.Path)
	}
	if cfg.GitHub.Token != "ghp_testtoken" {
		t.Fatalf("unexpected token %q", cfg.GitHub.Token)
	}
	if len(cfg.GitHub.Repositories) != 2 || cfg.GitHub.Repositories[1] != "owner/beta" {
		t.Fatalf("unexpected repositories %v", cfg.GitHub.Repositories)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `github: {}`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Web.Address != ":8000" {
		t.Fatalf("expected default address, got %q", cfg.Web.Address)
	}
	if cfg.Database.Path != "repoboard.db" {
		t.Fatalf("expected default database path, got %q", cfg.Database.Path)
	}
}

func TestLoadConfigMalformedRepository(t *testing.T) {
	path := writeConfig(t, `
github:
  repositories:
    - justaname
`)
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), `malformed repository "justaname"`) {
		t.Fatalf("expected malformed repository error, got %v", err)
	}
}

func TestLoadConfigTokenFromEnv(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ghp_fromenv")
	path := writeConfig(t, `github: {}`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.GitHub.Token != "ghp_fromenv" {
		t.Fatalf("expected token from environment, got %q", cfg.GitHub.Token)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := writeConfig(t, "web: [not: a: mapping")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
}

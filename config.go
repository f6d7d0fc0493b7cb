package repoboard

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk YAML configuration.
type Config struct {
	Web struct {
		Address string `yaml:"address"`
	} `yaml:"web"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	GitHub struct {
		Token        string   `yaml:"token"`
		Repositories []string `yaml:"repositories"` // "owner/name"
	} `yaml:"github"`
}

// LoadConfig reads and validates the configuration file at path. The
// GitHub token can also come from the GITHUB_TOKEN environment variable
// to keep it out of the file.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Web.Address == "" {
		cfg.Web.Address = ":8000"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "repoboard.db"
	}
	for _, r := range cfg.GitHub.Repositories {
		owner, name, ok := strings.Cut(r, "/")
		if !ok || owner == "" || name == "" {
			return nil, fmt.Errorf("malformed repository %q in config: want owner/name", r)
		}
	}
	if cfg.GitHub.Token == "" {
		cfg.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	}
	return &cfg, nil
}

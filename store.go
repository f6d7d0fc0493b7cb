package repoboard

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Partition names, one ordered key space per record type.
var (
	bucketIssues       = []byte("issues")
	bucketPullRequests = []byte("pull_requests")
	bucketDiscussions  = []byte("discussions")
)

// minKey is the smallest possible record key. Range scans with no lower
// bound start here.
var minKey = []byte{0x00}

// Database is the embedded ordered key-value store holding synced GitHub
// records. Keys are display keys ("owner/repo#number"), values are
// JSON-encoded records. Safe for concurrent readers; each scan runs inside
// its own read transaction and sees a stable snapshot.
type Database struct {
	db *bolt.DB
}

// OpenDatabase opens (or creates) the store file at path and ensures all
// partitions exist.
func OpenDatabase(path string) (*Database, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketIssues, bucketPullRequests, bucketDiscussions} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create partitions: %w", err)
	}
	return &Database{db: db}, nil
}

// Close releases the store file.
func (d *Database) Close() error { return d.db.Close() }

// recordKey renders the display key used both as the storage key and as
// the cursor payload.
func recordKey(owner, repo string, number int) []byte {
	return fmt.Appendf(nil, "%s/%s#%d", owner, repo, number)
}

// parseKey splits a storage key back into its owner/repo/number parts.
func parseKey(key []byte) (owner, repo string, number int, err error) {
	s := string(key)
	slash := strings.Index(s, "/")
	hash := strings.LastIndex(s, "#")
	if slash <= 0 || hash <= slash+1 {
		return "", "", 0, fmt.Errorf("malformed key %q", s)
	}
	number, err = strconv.Atoi(s[hash+1:])
	if err != nil {
		return "", "", 0, fmt.Errorf("malformed key %q: %w", s, err)
	}
	return s[:slash], s[slash+1 : hash], number, nil
}

// get returns the raw value under key, or nil when absent.
func (d *Database) get(bucket, key []byte) ([]byte, error) {
	var raw []byte
	err := d.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucket).Get(key); v != nil {
			raw = make([]byte, len(v))
			copy(raw, v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", key, err)
	}
	return raw, nil
}

// delete removes the record under key. Missing keys are not an error.
func (d *Database) delete(bucket, key []byte) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Delete(key)
	})
}

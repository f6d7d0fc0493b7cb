package repoboard

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Issue is a GitHub issue record. Owner, Repo and Number live in the
// storage key, not the stored value; the decoder fills them back in.
type Issue struct {
	Owner     string     `json:"-"`
	Repo      string     `json:"-"`
	Number    int        `json:"-"`
	Title     string     `json:"title"`
	Author    string     `json:"author"`
	Body      string     `json:"body"`
	State     string     `json:"state"` // OPEN, CLOSED
	Assignees []string   `json:"assignees,omitempty"`
	Labels    []string   `json:"labels,omitempty"`
	URL       string     `json:"url"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

// DisplayKey renders the canonical "owner/repo#number" form.
func (i Issue) DisplayKey() string {
	return fmt.Sprintf("%s/%s#%d", i.Owner, i.Repo, i.Number)
}

// decodeIssue rebuilds an Issue from its raw key/value pair.
func decodeIssue(key, value []byte) (Issue, error) {
	owner, repo, number, err := parseKey(key)
	if err != nil {
		return Issue{}, fmt.Errorf("invalid key in database: %w", err)
	}
	var issue Issue
	if err := json.Unmarshal(value, &issue); err != nil {
		return Issue{}, fmt.Errorf("invalid value in database for key %q: %w", key, err)
	}
	issue.Owner, issue.Repo, issue.Number = owner, repo, number
	return issue, nil
}

// InsertIssues upserts the given issues under owner/repo.
func (d *Database) InsertIssues(owner, repo string, issues []Issue) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketIssues)
		for _, issue := range issues {
			raw, err := json.Marshal(issue)
			if err != nil {
				return fmt.Errorf("encode issue #%d: %w", issue.Number, err)
			}
			if err := b.Put(recordKey(owner, repo, issue.Number), raw); err != nil {
				return err
			}
		}
		return nil
	})
}

// ScanIssues returns a bidirectional iterator over [lo, hi) of the issues
// partition.
func (d *Database) ScanIssues(lo, hi []byte) (*Range[Issue], error) {
	return rangeScan(d, bucketIssues, lo, hi, decodeIssue)
}

// GetIssue fetches a single issue by its coordinates. ok is false when
// the issue is not in the store.
func (d *Database) GetIssue(owner, repo string, number int) (Issue, bool, error) {
	key := recordKey(owner, repo, number)
	raw, err := d.get(bucketIssues, key)
	if err != nil || raw == nil {
		return Issue{}, false, err
	}
	issue, err := decodeIssue(key, raw)
	if err != nil {
		return Issue{}, false, err
	}
	return issue, true, nil
}

// DeleteIssue removes an issue record; missing records are not an error.
func (d *Database) DeleteIssue(owner, repo string, number int) error {
	return d.delete(bucketIssues, recordKey(owner, repo, number))
}

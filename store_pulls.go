package repoboard

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// PullRequest is a GitHub pull request record stored in the pull_requests
// partition.
type PullRequest struct {
	Owner     string     `json:"-"`
	Repo      string     `json:"-"`
	Number    int        `json:"-"`
	Title     string     `json:"title"`
	Author    string     `json:"author"`
	State     string     `json:"state"` // OPEN, CLOSED, MERGED
	Assignees []string   `json:"assignees,omitempty"`
	Reviewers []string   `json:"reviewers,omitempty"`
	URL       string     `json:"url"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	MergedAt  *time.Time `json:"merged_at,omitempty"`
}

// DisplayKey renders the canonical "owner/repo#number" form.
func (p PullRequest) DisplayKey() string {
	return fmt.Sprintf("%s/%s#%d", p.Owner, p.Repo, p.Number)
}

func decodePullRequest(key, value []byte) (PullRequest, error) {
	owner, repo, number, err := parseKey(key)
	if err != nil {
		return PullRequest{}, fmt.Errorf("invalid key in database: %w", err)
	}
	var pr PullRequest
	if err := json.Unmarshal(value, &pr); err != nil {
		return PullRequest{}, fmt.Errorf("invalid value in database for key %q: %w", key, err)
	}
	pr.Owner, pr.Repo, pr.Number = owner, repo, number
	return pr, nil
}

// InsertPullRequests upserts the given pull requests under owner/repo.
func (d *Database) InsertPullRequests(owner, repo string, prs []PullRequest) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPullRequests)
		for _, pr := range prs {
			raw, err := json.Marshal(pr)
			if err != nil {
				return fmt.Errorf("encode pull request #%d: %w", pr.Number, err)
			}
			if err := b.Put(recordKey(owner, repo, pr.Number), raw); err != nil {
				return err
			}
		}
		return nil
	})
}

// ScanPullRequests returns a bidirectional iterator over [lo, hi) of the
// pull_requests partition.
func (d *Database) ScanPullRequests(lo, hi []byte) (*Range[PullRequest], error) {
	return rangeScan(d, bucketPullRequests, lo, hi, decodePullRequest)
}

// GetPullRequest fetches a single pull request by its coordinates.
func (d *Database) GetPullRequest(owner, repo string, number int) (PullRequest, bool, error) {
	key := recordKey(owner, repo, number)
	raw, err := d.get(bucketPullRequests, key)
	if err != nil || raw == nil {
		return PullRequest{}, false, err
	}
	pr, err := decodePullRequest(key, raw)
	if err != nil {
		return PullRequest{}, false, err
	}
	return pr, true, nil
}

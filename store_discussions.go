package repoboard

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Discussion is a GitHub discussion record stored in the discussions
// partition.
type Discussion struct {
	Owner      string    `json:"-"`
	Repo       string    `json:"-"`
	Number     int       `json:"-"`
	Title      string    `json:"title"`
	Author     string    `json:"author"`
	Body       string    `json:"body"`
	URL        string    `json:"url"`
	Category   string    `json:"category"`
	IsAnswered bool      `json:"is_answered"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DisplayKey renders the canonical "owner/repo#number" form.
func (d Discussion) DisplayKey() string {
	return fmt.Sprintf("%s/%s#%d", d.Owner, d.Repo, d.Number)
}

func decodeDiscussion(key, value []byte) (Discussion, error) {
	owner, repo, number, err := parseKey(key)
	if err != nil {
		return Discussion{}, fmt.Errorf("invalid key in database: %w", err)
	}
	var disc Discussion
	if err := json.Unmarshal(value, &disc); err != nil {
		return Discussion{}, fmt.Errorf("invalid value in database for key %q: %w", key, err)
	}
	disc.Owner, disc.Repo, disc.Number = owner, repo, number
	return disc, nil
}

// InsertDiscussions upserts the given discussions under owner/repo.
func (d *Database) InsertDiscussions(owner, repo string, discussions []Discussion) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDiscussions)
		for _, disc := range discussions {
			raw, err := json.Marshal(disc)
			if err != nil {
				return fmt.Errorf("encode discussion #%d: %w", disc.Number, err)
			}
			if err := b.Put(recordKey(owner, repo, disc.Number), raw); err != nil {
				return err
			}
		}
		return nil
	})
}

// ScanDiscussions returns a bidirectional iterator over [lo, hi) of the
// discussions partition.
func (d *Database) ScanDiscussions(lo, hi []byte) (*Range[Discussion], error) {
	return rangeScan(d, bucketDiscussions, lo, hi, decodeDiscussion)
}

// GetDiscussion fetches a single discussion by its coordinates.
func (d *Database) GetDiscussion(owner, repo string, number int) (Discussion, bool, error) {
	key := recordKey(owner, repo, number)
	raw, err := d.get(bucketDiscussions, key)
	if err != nil || raw == nil {
		return Discussion{}, false, err
	}
	disc, err := decodeDiscussion(key, raw)
	if err != nil {
		return Discussion{}, false, err
	}
	return disc, true, nil
}

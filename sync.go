package repoboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/go-github/v75/github"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// syncConcurrency bounds how many repositories are fetched at once.
const syncConcurrency = 4

// Syncer pulls issues and pull requests from the GitHub API into the
// store. One pass per call; retry policy is the caller's concern.
// Discussions have no REST listing endpoint and are inserted through the
// store API by other collaborators.
type Syncer struct {
	client  *github.Client
	db      *Database
	logger  zerolog.Logger
	limiter *rate.Limiter
	metrics *Metrics
}

// NewSyncer creates a syncer authenticated with token (anonymous when
// empty, at a much lower API quota).
func NewSyncer(token string, db *Database, logger zerolog.Logger, metrics *Metrics) *Syncer {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return &Syncer{
		client: client,
		db:     db,
		logger: logger,
		// Stay well under the secondary rate limits.
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		metrics: metrics,
	}
}

// Sync fetches all given repositories ("owner/name") concurrently.
func (sy *Syncer) Sync(ctx context.Context, repositories []string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(syncConcurrency)
	for _, full := range repositories {
		g.Go(func() error {
			owner, name, ok := strings.Cut(full, "/")
			if !ok {
				return fmt.Errorf("malformed repository %q: want owner/name", full)
			}
			if err := sy.syncRepository(ctx, owner, name); err != nil {
				return fmt.Errorf("sync %s: %w", full, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (sy *Syncer) syncRepository(ctx context.Context, owner, name string) error {
	issues, err := sy.syncIssues(ctx, owner, name)
	if err != nil {
		return err
	}
	pulls, err := sy.syncPullRequests(ctx, owner, name)
	if err != nil {
		return err
	}
	sy.metrics.RecordSyncRun(issues + pulls)
	sy.logger.Info().
		Str("repo", owner+"/"+name).
		Int("issues", issues).
		Int("pulls", pulls).
		Msg("synced repository")
	return nil
}

func (sy *Syncer) syncIssues(ctx context.Context, owner, name string) (int, error) {
	opts := &github.IssueListByRepoOptions{
		State:       "all",
		ListOptions: github.ListOptions{PerPage: 100},
	}
	total := 0
	for {
		if err := sy.limiter.Wait(ctx); err != nil {
			return total, err
		}
		ghIssues, resp, err := sy.client.Issues.ListByRepo(ctx, owner, name, opts)
		if err != nil {
			return total, fmt.Errorf("list issues: %w", err)
		}
		page := make([]Issue, 0, len(ghIssues))
		for _, gi := range ghIssues {
			// The issues listing includes pull requests; those come from
			// the pulls endpoint instead.
			if gi.IsPullRequest() {
				continue
			}
			page = append(page, issueFromGitHub(gi))
		}
		if err := sy.db.InsertIssues(owner, name, page); err != nil {
			return total, err
		}
		total += len(page)
		if resp.NextPage == 0 {
			return total, nil
		}
		opts.ListOptions.Page = resp.NextPage
	}
}

func (sy *Syncer) syncPullRequests(ctx context.Context, owner, name string) (int, error) {
	opts := &github.PullRequestListOptions{
		State:       "all",
		ListOptions: github.ListOptions{PerPage: 100},
	}
	total := 0
	for {
		if err := sy.limiter.Wait(ctx); err != nil {
			return total, err
		}
		ghPulls, resp, err := sy.client.PullRequests.List(ctx, owner, name, opts)
		if err != nil {
			return total, fmt.Errorf("list pull requests: %w", err)
		}
		page := make([]PullRequest, 0, len(ghPulls))
		for _, gp := range ghPulls {
			page = append(page, pullRequestFromGitHub(gp))
		}
		if err := sy.db.InsertPullRequests(owner, name, page); err != nil {
			return total, err
		}
		total += len(page)
		if resp.NextPage == 0 {
			return total, nil
		}
		opts.Page = resp.NextPage
	}
}

// issueFromGitHub maps a GitHub API issue to a store record. Owner, repo
// and number end up in the storage key.
func issueFromGitHub(gi *github.Issue) Issue {
	issue := Issue{
		Number:    gi.GetNumber(),
		Title:     gi.GetTitle(),
		Author:    gi.GetUser().GetLogin(),
		Body:      gi.GetBody(),
		State:     strings.ToUpper(gi.GetState()),
		URL:       gi.GetHTMLURL(),
		CreatedAt: gi.GetCreatedAt().Time,
		UpdatedAt: gi.GetUpdatedAt().Time,
	}
	for _, a := range gi.Assignees {
		issue.Assignees = append(issue.Assignees, a.GetLogin())
	}
	for _, l := range gi.Labels {
		issue.Labels = append(issue.Labels, l.GetName())
	}
	if gi.ClosedAt != nil {
		closed := gi.ClosedAt.Time
		issue.ClosedAt = &closed
	}
	return issue
}

// pullRequestFromGitHub maps a GitHub API pull request to a store record.
// The list endpoint never sets Merged, so the merged timestamp decides
// the state.
func pullRequestFromGitHub(gp *github.PullRequest) PullRequest {
	pr := PullRequest{
		Number:    gp.GetNumber(),
		Title:     gp.GetTitle(),
		Author:    gp.GetUser().GetLogin(),
		State:     strings.ToUpper(gp.GetState()),
		URL:       gp.GetHTMLURL(),
		CreatedAt: gp.GetCreatedAt().Time,
		UpdatedAt: gp.GetUpdatedAt().Time,
	}
	if gp.MergedAt != nil {
		merged := gp.MergedAt.Time
		pr.MergedAt = &merged
		pr.State = "MERGED"
	}
	for _, a := range gp.Assignees {
		pr.Assignees = append(pr.Assignees, a.GetLogin())
	}
	for _, r := range gp.RequestedReviewers {
		pr.Reviewers = append(pr.Reviewers, r.GetLogin())
	}
	return pr
}

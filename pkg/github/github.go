// Package github implements the collaboration-platform collaborator on
// top of the GitHub REST API.
package github

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/go-github/v69/github"
	"golang.org/x/oauth2"

	"github.com/sgaunet/auto-land/internal/logger"
	"github.com/sgaunet/auto-land/internal/security"
	"github.com/sgaunet/auto-land/pkg/orchestrator"
)

const (
	maxRunsPerPage   = 100
	maxLogRedirects  = 4
	logDownloadLimit = 512 << 20 // 512 MiB per archive

	// Transient snapshot fetches retry on a short constant interval.
	snapshotRetryInterval = 2 * time.Second
	snapshotRetries       = 2
)

// Client wraps the GitHub API for one pull request.
type Client struct {
	client   *github.Client
	download *http.Client
	owner    string
	repo     string
	number   int
	log      logger.Logger
}

// NewClient creates a client authenticated with token. For hosts other
// than github.com the enterprise API endpoints are derived from the host.
func NewClient(token security.SecureToken, host string) (*Client, error) {
	if token.IsEmpty() {
		return nil, errTokenRequired
	}

	ctx := context.Background()
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token.Value()},
	)
	tc := oauth2.NewClient(ctx, ts)
	client := github.NewClient(tc)

	if host != "" && host != "github.com" {
		baseURL := fmt.Sprintf("https://%s/api/v3/", host)
		uploadURL := fmt.Sprintf("https://%s/api/uploads/", host)
		enterprise, err := client.WithEnterpriseURLs(baseURL, uploadURL)
		if err != nil {
			return nil, fmt.Errorf("failed to configure enterprise host %s: %w", host, err)
		}
		client = enterprise
	}

	return &Client{
		client: client,
		// Log archives are served from pre-signed URLs; the download
		// client must not attach the Authorization header.
		download: &http.Client{Timeout: 2 * time.Minute},
		log:      logger.NoLogger(),
	}, nil
}

// SetLogger sets the logger used by the client.
func (c *Client) SetLogger(log logger.Logger) {
	c.log = log
}

// SetPullRequest binds the client to one pull request and validates that
// the repository exists.
func (c *Client) SetPullRequest(ctx context.Context, owner, repo string, number int) error {
	c.owner = owner
	c.repo = repo
	c.number = number

	_, _, err := c.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return fmt.Errorf("failed to get repository information: %w", err)
	}

	c.log.Debug("GitHub repository set", "owner", owner, "repo", repo, "pr", number)
	return nil
}

// DefaultBranch returns the repository's trunk branch name.
func (c *Client) DefaultBranch(ctx context.Context) (string, error) {
	repo, _, err := c.client.Repositories.Get(ctx, c.owner, c.repo)
	if err != nil {
		return "", fmt.Errorf("failed to get repository information: %w", err)
	}
	return repo.GetDefaultBranch(), nil
}

// PullRequest fetches a fresh snapshot of the bound pull request.
// Transient API failures are retried on a short constant interval.
func (c *Client) PullRequest(ctx context.Context) (*orchestrator.PullRequestSnapshot, error) {
	var pr *github.PullRequest

	operation := func() error {
		var err error
		pr, _, err = c.client.PullRequests.Get(ctx, c.owner, c.repo, c.number)
		return err
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(snapshotRetryInterval), snapshotRetries), ctx)
	if err := backoff.Retry(operation, bo); err != nil {
		return nil, fmt.Errorf("failed to get pull request: %w", err)
	}

	return &orchestrator.PullRequestSnapshot{
		Owner:          c.owner,
		Repo:           c.repo,
		Number:         c.number,
		Title:          pr.GetTitle(),
		Merged:         pr.GetMerged(),
		Mergeable:      pr.Mergeable,
		MergeableState: orchestrator.MergeableState(pr.GetMergeableState()),
		HeadSHA:        pr.GetHead().GetSHA(),
		HeadBranch:     pr.GetHead().GetRef(),
	}, nil
}

// ListRuns returns every workflow run recorded for the commit.
func (c *Client) ListRuns(ctx context.Context, headSHA string) ([]orchestrator.CheckRun, error) {
	var all []orchestrator.CheckRun
	opts := &github.ListWorkflowRunsOptions{
		HeadSHA:     headSHA,
		ListOptions: github.ListOptions{PerPage: maxRunsPerPage},
	}

	for {
		runs, resp, err := c.client.Actions.ListRepositoryWorkflowRuns(ctx, c.owner, c.repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list workflow runs: %w", err)
		}

		for _, run := range runs.WorkflowRuns {
			all = append(all, orchestrator.CheckRun{
				ID:         run.GetID(),
				Name:       run.GetName(),
				HeadSHA:    run.GetHeadSHA(),
				Status:     run.GetStatus(),
				Conclusion: run.GetConclusion(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	c.log.Debug("Workflow runs listed", "commit", headSHA, "count", len(all))
	return all, nil
}

// RunLogs downloads the log archive of one workflow run.
func (c *Client) RunLogs(ctx context.Context, runID int64) ([]byte, error) {
	logsURL, _, err := c.client.Actions.GetWorkflowRunLogs(ctx, c.owner, c.repo, runID, maxLogRedirects)
	if err != nil {
		return nil, fmt.Errorf("failed to get log archive URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, logsURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build log download request: %w", err)
	}

	resp, err := c.download.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download log archive: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", errLogDownloadFailed, resp.StatusCode)
	}

	archive, err := io.ReadAll(io.LimitReader(resp.Body, logDownloadLimit))
	if err != nil {
		return nil, fmt.Errorf("failed to read log archive: %w", err)
	}

	return archive, nil
}

// RerunFailedJobs requests re-execution of the run's failed jobs. A 403
// from the platform maps to orchestrator.ErrRerunForbidden so the
// remediation cycle can tolerate it.
func (c *Client) RerunFailedJobs(ctx context.Context, runID int64) error {
	resp, err := c.client.Actions.RerunFailedJobsByID(ctx, c.owner, c.repo, runID)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusForbidden {
			return fmt.Errorf("%w: run %d", orchestrator.ErrRerunForbidden, runID)
		}
		return fmt.Errorf("failed to request re-run of %d: %w", runID, err)
	}
	return nil
}

// Merge issues the merge call for the bound pull request.
func (c *Client) Merge(ctx context.Context, commitTitle, mergeMethod string) error {
	options := &github.PullRequestOptions{
		CommitTitle: commitTitle,
		MergeMethod: mergeMethod, // "squash", "merge", or "rebase"
	}

	_, _, err := c.client.PullRequests.Merge(ctx, c.owner, c.repo, c.number, "", options)
	if err != nil {
		return fmt.Errorf("failed to merge pull request: %w", err)
	}

	c.log.Debug("Pull request merged", "pr", c.number, "method", mergeMethod)
	return nil
}

// Ensure Client implements the platform capability at compile time.
var _ orchestrator.PlatformAPI = (*Client)(nil)

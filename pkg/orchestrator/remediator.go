package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultMaxCheckRetries bounds re-run requests per commit.
const DefaultMaxCheckRetries = 2

// DefaultRemediationCooldown is the wait after requesting re-runs, giving
// the platform time to schedule the new runs before the next inspection.
const DefaultRemediationCooldown = 30 * time.Second

// Remediator detects failing check runs for a commit, captures their logs
// and requests re-execution, bounded by a retry budget. The attempt
// counter is keyed to the commit SHA and resets when the SHA changes,
// e.g. after a rebase.
type Remediator struct {
	api     PlatformAPI
	store   ArtifactStore
	confirm Confirmer
	log     Logger

	maxRetries int
	cooldown   time.Duration
	sleep      func(time.Duration)

	sha      string
	attempts int
}

// NewRemediator creates a Remediator with the given retry budget.
func NewRemediator(api PlatformAPI, store ArtifactStore, confirm Confirmer, log Logger, maxRetries int, cooldown time.Duration) *Remediator {
	return &Remediator{
		api:        api,
		store:      store,
		confirm:    confirm,
		log:        log,
		maxRetries: maxRetries,
		cooldown:   cooldown,
		sleep:      time.Sleep,
	}
}

// SetSleep replaces the inter-cycle wait. Used by tests.
func (r *Remediator) SetSleep(sleep func(time.Duration)) {
	r.sleep = sleep
}

// Remediate runs detection cycles for commitSHA until checks pass or the
// retry budget is spent. Log capture and re-run rejections are tolerated
// and recorded; listing failures and a declined confirmation are fatal.
func (r *Remediator) Remediate(ctx context.Context, commitSHA string) (*RemediationResult, error) {
	if commitSHA != r.sha {
		// New head commit: previous attempts no longer count.
		r.sha = commitSHA
		r.attempts = 0
	}

	result := &RemediationResult{}

	for {
		runs, err := r.api.ListRuns(ctx, commitSHA)
		if err != nil {
			return nil, fmt.Errorf("failed to list check runs: %w", err)
		}

		failing := failingRuns(runs)
		if len(failing) == 0 {
			r.log.Info("No failing check runs", "commit", commitSHA)
			result.Outcome = OutcomeResolved
			return result, nil
		}

		r.log.Warn("Failing check runs detected",
			"commit", commitSHA, "count", len(failing), "attempt", r.attempts)
		r.captureLogs(ctx, failing, result)

		if r.attempts >= r.maxRetries {
			r.log.Error("Retry budget exhausted",
				"commit", commitSHA, "attempts", r.attempts, "captured_logs", len(result.LogDirs))
			result.Outcome = OutcomeExhausted
			return result, nil
		}

		approved, err := r.confirm.Confirm(
			fmt.Sprintf("Request re-run of %d failing check(s) for %s?", len(failing), shortSHA(commitSHA)))
		if err != nil {
			return nil, fmt.Errorf("confirmation failed: %w", err)
		}
		if !approved {
			return nil, errUserAbort
		}

		for _, run := range failing {
			if err := r.api.RerunFailedJobs(ctx, run.ID); err != nil {
				// Tolerated: a rejected re-run request must not abort the cycle.
				if errors.Is(err, errRerunForbidden) {
					r.log.Warn("Re-run request forbidden", "run", run.Name, "id", run.ID)
					continue
				}
				r.log.Warn("Re-run request failed", "run", run.Name, "id", run.ID, "error", err)
				continue
			}
			r.log.Info("Re-run requested", "run", run.Name, "id", run.ID)
		}

		r.attempts++
		r.sleep(r.cooldown)
	}
}

// captureLogs persists the log archive of every failing run. Fetch
// failures are recorded and do not abort the cycle.
func (r *Remediator) captureLogs(ctx context.Context, failing []CheckRun, result *RemediationResult) {
	for _, run := range failing {
		archive, err := r.api.RunLogs(ctx, run.ID)
		if err != nil {
			r.log.Warn("Failed to download run logs", "run", run.Name, "id", run.ID, "error", err)
			continue
		}

		dir, err := r.store.SaveRunLogs(run.ID, archive)
		if err != nil {
			r.log.Warn("Failed to persist run logs", "run", run.Name, "id", run.ID, "error", err)
			continue
		}

		r.log.Info("Captured run logs", "run", run.Name, "dir", dir)
		result.LogDirs = append(result.LogDirs, dir)
	}
}

func failingRuns(runs []CheckRun) []CheckRun {
	var failing []CheckRun
	for _, run := range runs {
		if run.Failed() {
			failing = append(failing, run)
		}
	}
	return failing
}

func shortSHA(sha string) string {
	const short = 7
	if len(sha) <= short {
		return sha
	}
	return sha[:short]
}

package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/sgaunet/auto-land/internal/timeutil"
)

// Defaults for the mergeability polling loop.
const (
	DefaultMaxPollRounds = 30
	DefaultPollInterval  = 30 * time.Second
)

// Poller polls a pull request's merge-readiness, classifies each snapshot
// and drives remediation when the classification indicates failing checks.
// It terminates in one of the terminal [PollState] values; only
// [StateClean] authorizes the caller to proceed to the merge call.
type Poller struct {
	api        PlatformAPI
	remediator *Remediator
	log        Logger

	interval  time.Duration
	maxRounds int
	sleep     func(time.Duration)
}

// NewPoller creates a Poller with the given round budget.
func NewPoller(api PlatformAPI, remediator *Remediator, log Logger, interval time.Duration, maxRounds int) *Poller {
	return &Poller{
		api:        api,
		remediator: remediator,
		log:        log,
		interval:   interval,
		maxRounds:  maxRounds,
		sleep:      time.Sleep,
	}
}

// SetSleep replaces the inter-round wait. Used by tests.
func (p *Poller) SetSleep(sleep func(time.Duration)) {
	p.sleep = sleep
}

// Poll runs the state machine to a terminal state. The returned
// [RemediationResult] is non-nil when the terminal state is
// [StateExhaustedRemediation] and carries the captured log directories.
func (p *Poller) Poll(ctx context.Context) (PollState, *RemediationResult, error) {
	start := time.Now()

	for round := 0; round < p.maxRounds; round++ {
		snap, err := p.api.PullRequest(ctx)
		if err != nil {
			return StateUnknown, nil, fmt.Errorf("failed to fetch pull request: %w", err)
		}

		state := classify(snap)
		p.log.Info("Mergeability poll",
			"round", round+1,
			"state", state.String(),
			"mergeable_state", string(snap.MergeableState),
			"elapsed", timeutil.FormatDuration(time.Since(start)))

		if state == StateMergedExternally {
			return StateMergedExternally, nil, nil
		}

		if state == StateClean {
			return StateClean, nil, nil
		}

		if needsRemediation(snap) {
			result, err := p.remediator.Remediate(ctx, snap.HeadSHA)
			if err != nil {
				return state, nil, err
			}
			if result.Outcome == OutcomeExhausted {
				return StateExhaustedRemediation, result, nil
			}
		}

		p.sleep(p.interval)
	}

	p.log.Error("Mergeability never settled", "rounds", p.maxRounds)
	return StateTimedOut, nil, nil
}

// needsRemediation reports whether the snapshot calls for a remediation
// cycle: mergeability is false or still unknown and the platform blames
// blocked or unstable checks.
func needsRemediation(snap *PullRequestSnapshot) bool {
	if snap.Mergeable != nil && *snap.Mergeable {
		return false
	}
	return snap.MergeableState == MergeableStateBlocked || snap.MergeableState == MergeableStateUnstable
}

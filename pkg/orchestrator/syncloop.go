package orchestrator

import (
	"context"
	"fmt"
	"time"
)

// DefaultSyncInterval is the wait between branch sync rounds.
const DefaultSyncInterval = 60 * time.Second

// ManifestFile is the single path the merge conflict auto-resolution
// policy applies to: a conflict confined to it is resolved by taking the
// trunk's version of the file.
const ManifestFile = "package.json"

// SyncLoop repeatedly reconciles the feature branch with the trunk branch
// until a reconciliation attempt introduces nothing new. Every round that
// did introduce new content reinstalls dependencies and pushes the branch.
type SyncLoop struct {
	ws      Workspace
	pm      PackageManager
	confirm Confirmer
	log     Logger

	interval    time.Duration
	skipInstall bool
	sleep       func(time.Duration)
}

// NewSyncLoop creates a SyncLoop.
func NewSyncLoop(ws Workspace, pm PackageManager, confirm Confirmer, log Logger, interval time.Duration, skipInstall bool) *SyncLoop {
	return &SyncLoop{
		ws:          ws,
		pm:          pm,
		confirm:     confirm,
		log:         log,
		interval:    interval,
		skipInstall: skipInstall,
		sleep:       time.Sleep,
	}
}

// SetSleep replaces the inter-round wait. Used by tests.
func (s *SyncLoop) SetSleep(sleep func(time.Duration)) {
	s.sleep = sleep
}

// Run reconciles until converged. It returns ErrUnresolvableConflict when
// a merge conflicts outside the manifest-only policy and ErrUserAbort when
// the operator declines a push.
func (s *SyncLoop) Run(ctx context.Context) error {
	for {
		changed, err := s.SyncOnce(ctx)
		if err != nil {
			return err
		}

		if !changed {
			s.log.Info("Branch is up to date with trunk")
			return nil
		}

		if err := s.installAndPush(ctx); err != nil {
			return err
		}

		s.sleep(s.interval)
	}
}

// SyncOnce fetches the trunk and merges it into the feature branch,
// applying the manifest-only conflict auto-resolution policy. It reports
// whether the merge introduced new content.
func (s *SyncLoop) SyncOnce(ctx context.Context) (bool, error) {
	result, err := s.ws.MergeTrunk(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to merge trunk: %w", err)
	}

	switch result.Status {
	case MergeNoOp:
		return false, nil

	case MergeApplied:
		s.log.Info("Merged trunk into feature branch")
		return true, nil

	case MergeConflict:
		if len(result.Conflicts) == 1 && result.Conflicts[0] == ManifestFile {
			s.log.Warn("Manifest conflict, taking trunk version", "path", ManifestFile)
			if err := s.ws.ResolveManifestConflict(ctx); err != nil {
				return false, fmt.Errorf("failed to resolve manifest conflict: %w", err)
			}
			return true, nil
		}
		s.log.Error("Merge conflicts need manual resolution", "paths", result.Conflicts)
		return false, fmt.Errorf("%w: %v", errUnresolvableConflict, result.Conflicts)

	default:
		return false, fmt.Errorf("unexpected merge status %d", result.Status)
	}
}

func (s *SyncLoop) installAndPush(ctx context.Context) error {
	if !s.skipInstall {
		s.log.Info("Reinstalling dependencies")
		if err := s.pm.Install(ctx); err != nil {
			return fmt.Errorf("failed to install dependencies: %w", err)
		}
		if err := s.ws.CommitAll(ctx, "chore: update dependency lock after trunk merge"); err != nil {
			return fmt.Errorf("failed to commit lock changes: %w", err)
		}
	}

	approved, err := s.confirm.Confirm("Push synchronized branch to remote?")
	if err != nil {
		return fmt.Errorf("confirmation failed: %w", err)
	}
	if !approved {
		return errUserAbort
	}

	if err := s.ws.Push(ctx); err != nil {
		return fmt.Errorf("failed to push branch: %w", err)
	}
	s.log.Info("Pushed synchronized branch")
	return nil
}

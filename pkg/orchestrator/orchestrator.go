package orchestrator

import (
	"context"
	"fmt"

	"github.com/sgaunet/auto-land/pkg/semver"
)

// Orchestrator sequences the whole landing run: version reconciliation,
// branch synchronization, mergeability polling and the final merge call.
// It owns the terminal decision: merge, abort, or defer because another
// actor already merged.
type Orchestrator struct {
	api     PlatformAPI
	ws      Workspace
	pm      PackageManager
	confirm Confirmer
	log     Logger

	sync   *SyncLoop
	poller *Poller

	bumpType    string
	mergeMethod string
	skipInstall bool

	// taggedVersion remembers the version bumped during this run so the
	// tag-push offer names the right tag.
	taggedVersion string
}

// New creates an Orchestrator from its collaborators.
func New(
	api PlatformAPI,
	ws Workspace,
	pm PackageManager,
	confirm Confirmer,
	log Logger,
	sync *SyncLoop,
	poller *Poller,
	bumpType, mergeMethod string,
	skipInstall bool,
) *Orchestrator {
	return &Orchestrator{
		api:         api,
		ws:          ws,
		pm:          pm,
		confirm:     confirm,
		log:         log,
		sync:        sync,
		poller:      poller,
		bumpType:    bumpType,
		mergeMethod: mergeMethod,
		skipInstall: skipInstall,
	}
}

// Run drives the pull request to a terminal decision. It returns nil when
// the change was merged (by this run or externally); every failure mode
// surfaces as a wrapped sentinel from this package.
func (o *Orchestrator) Run(ctx context.Context) error {
	snap, err := o.api.PullRequest(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch pull request: %w", err)
	}
	o.log.Info("Landing pull request",
		"pr", fmt.Sprintf("%s/%s#%d", snap.Owner, snap.Repo, snap.Number),
		"head", snap.HeadBranch)

	if snap.Merged {
		o.log.Info("Pull request is already merged")
		return o.offerTagPush(ctx)
	}

	if err := o.reconcileVersions(ctx); err != nil {
		return err
	}

	if err := o.sync.Run(ctx); err != nil {
		return err
	}

	state, remediation, err := o.poller.Poll(ctx)
	if err != nil {
		return err
	}

	switch state {
	case StateClean:
		if err := o.merge(ctx, snap.Title); err != nil {
			return err
		}
		return o.offerTagPush(ctx)

	case StateMergedExternally:
		o.log.Info("Pull request was merged by another actor")
		return o.offerTagPush(ctx)

	case StateExhaustedRemediation:
		for _, dir := range remediation.LogDirs {
			o.log.Error("Captured failing check logs", "dir", dir)
		}
		return errRemediationExhausted

	case StateTimedOut:
		return errPollingTimeout

	default:
		return fmt.Errorf("%w: %s", errUnexpectedTerminal, state)
	}
}

// reconcileVersions compares the manifest versions of trunk and branch and
// performs the version bump when the branch does not already sort above
// the trunk.
func (o *Orchestrator) reconcileVersions(ctx context.Context) error {
	trunkVersion, err := o.ws.VersionFromTrunk(ctx)
	if err != nil {
		return fmt.Errorf("failed to read trunk version: %w", err)
	}
	branchVersion, err := o.ws.VersionFromBranch(ctx)
	if err != nil {
		return fmt.Errorf("failed to read branch version: %w", err)
	}

	required, err := semver.RequiresBump(trunkVersion, branchVersion)
	if err != nil {
		return err
	}
	if !required {
		o.log.Info("Version already ahead of trunk",
			"trunk", trunkVersion, "branch", branchVersion)
		return nil
	}

	predicted, err := semver.Bump(branchVersion, o.bumpType)
	if err != nil {
		return err
	}
	o.log.Info("Version bump required",
		"trunk", trunkVersion, "branch", branchVersion, "bump", o.bumpType)

	approved, err := o.confirm.Confirm(
		fmt.Sprintf("Merge trunk and bump version %s to %s?", branchVersion, predicted))
	if err != nil {
		return fmt.Errorf("confirmation failed: %w", err)
	}
	if !approved {
		return errUserAbort
	}

	// Bring the branch up to date before bumping so the bump lands on
	// current trunk content. Manifest-only conflicts resolve to trunk.
	changed, err := o.sync.SyncOnce(ctx)
	if err != nil {
		return err
	}
	if changed && !o.skipInstall {
		if err := o.pm.Install(ctx); err != nil {
			return fmt.Errorf("failed to install dependencies: %w", err)
		}
	}

	newVersion, err := o.pm.Bump(ctx, o.bumpType)
	if err != nil {
		return fmt.Errorf("failed to bump version: %w", err)
	}
	o.taggedVersion = newVersion

	if err := o.ws.CommitAll(ctx, fmt.Sprintf("chore: bump version to %s", newVersion)); err != nil {
		return fmt.Errorf("failed to commit version bump: %w", err)
	}
	if err := o.ws.Push(ctx); err != nil {
		return fmt.Errorf("failed to push version bump: %w", err)
	}

	o.log.Info("Version bumped and pushed", "version", newVersion)
	return nil
}

func (o *Orchestrator) merge(ctx context.Context, commitTitle string) error {
	approved, err := o.confirm.Confirm(fmt.Sprintf("Merge pull request (%s)?", o.mergeMethod))
	if err != nil {
		return fmt.Errorf("confirmation failed: %w", err)
	}
	if !approved {
		return errUserAbort
	}

	if err := o.api.Merge(ctx, commitTitle, o.mergeMethod); err != nil {
		return fmt.Errorf("failed to merge pull request: %w", err)
	}

	o.log.Info("Pull request merged")
	return nil
}

// offerTagPush offers to push a release tag. Unlike gate confirmations,
// declining an offer is a graceful skip, not an abort.
func (o *Orchestrator) offerTagPush(ctx context.Context) error {
	version := o.taggedVersion
	if version == "" {
		branchVersion, err := o.ws.VersionFromBranch(ctx)
		if err != nil {
			o.log.Warn("Cannot determine version for tag offer", "error", err)
			return nil
		}
		version = branchVersion
	}

	tag := "v" + version
	approved, err := o.confirm.Confirm(fmt.Sprintf("Push release tag %s?", tag))
	if err != nil {
		return fmt.Errorf("confirmation failed: %w", err)
	}
	if !approved {
		o.log.Info("Skipping release tag", "tag", tag)
		return nil
	}

	if err := o.ws.PushTag(ctx, tag); err != nil {
		return fmt.Errorf("failed to push tag: %w", err)
	}
	o.log.Info("Release tag pushed", "tag", tag)
	return nil
}

// Package fixtures provides shared test data builders.
package fixtures

import "github.com/sgaunet/auto-land/pkg/orchestrator"

// HeadSHA is the commit SHA used by the snapshot builders.
const HeadSHA = "a37f1c9d2e8b4605f3a1b2c3d4e5f60718293a4b"

func boolPtr(b bool) *bool { return &b }

func snapshot() *orchestrator.PullRequestSnapshot {
	return &orchestrator.PullRequestSnapshot{
		Owner:      "acme",
		Repo:       "widgets",
		Number:     42,
		Title:      "feat: add widget pipeline",
		HeadSHA:    HeadSHA,
		HeadBranch: "feat/widget-pipeline",
	}
}

// CleanSnapshot returns a pull request ready to merge.
func CleanSnapshot() *orchestrator.PullRequestSnapshot {
	snap := snapshot()
	snap.Mergeable = boolPtr(true)
	snap.MergeableState = orchestrator.MergeableStateClean
	return snap
}

// BlockedSnapshot returns a pull request blocked by failing checks.
func BlockedSnapshot() *orchestrator.PullRequestSnapshot {
	snap := snapshot()
	snap.Mergeable = boolPtr(false)
	snap.MergeableState = orchestrator.MergeableStateBlocked
	return snap
}

// UnstableSnapshot returns a pull request whose mergeability is still
// being computed while checks report unstable.
func UnstableSnapshot() *orchestrator.PullRequestSnapshot {
	snap := snapshot()
	snap.MergeableState = orchestrator.MergeableStateUnstable
	return snap
}

// BehindSnapshot returns a pull request whose branch is behind trunk.
func BehindSnapshot() *orchestrator.PullRequestSnapshot {
	snap := snapshot()
	snap.Mergeable = boolPtr(false)
	snap.MergeableState = orchestrator.MergeableStateBehind
	return snap
}

// MergedSnapshot returns a pull request already merged.
func MergedSnapshot() *orchestrator.PullRequestSnapshot {
	snap := snapshot()
	snap.Merged = true
	snap.MergeableState = orchestrator.MergeableStateUnknown
	return snap
}

// UnrecognizedSnapshot returns a pull request with a mergeable_state
// value this code has never seen.
func UnrecognizedSnapshot() *orchestrator.PullRequestSnapshot {
	snap := snapshot()
	snap.Mergeable = boolPtr(false)
	snap.MergeableState = orchestrator.MergeableState("quantum")
	return snap
}

// FailingRun returns a completed check run with a failure conclusion.
func FailingRun(id int64, name string) orchestrator.CheckRun {
	return orchestrator.CheckRun{
		ID:         id,
		Name:       name,
		HeadSHA:    HeadSHA,
		Status:     orchestrator.CheckStatusCompleted,
		Conclusion: orchestrator.CheckConclusionFailure,
	}
}

// PassingRun returns a completed check run with a success conclusion.
func PassingRun(id int64, name string) orchestrator.CheckRun {
	return orchestrator.CheckRun{
		ID:         id,
		Name:       name,
		HeadSHA:    HeadSHA,
		Status:     orchestrator.CheckStatusCompleted,
		Conclusion: orchestrator.CheckConclusionSuccess,
	}
}

// InProgressRun returns a check run that has not finished yet.
func InProgressRun(id int64, name string) orchestrator.CheckRun {
	return orchestrator.CheckRun{
		ID:      id,
		Name:    name,
		HeadSHA: HeadSHA,
		Status:  "in_progress",
	}
}

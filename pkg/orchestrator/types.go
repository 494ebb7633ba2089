// Package orchestrator drives a pull request from "opened" to "merged":
// it reconciles versions with the trunk branch, keeps the feature branch
// synchronized while checks run, remediates failing check runs with a
// bounded retry budget, and performs the merge once the pull request is
// provably mergeable.
package orchestrator

// MergeableState is the platform-reported classification of why a pull
// request can or cannot currently be merged.
type MergeableState string

// Known mergeable_state values. The platform may introduce new ones at
// any time; consumers must treat unrecognized values as "not yet ready".
const (
	MergeableStateClean    MergeableState = "clean"
	MergeableStateDirty    MergeableState = "dirty"
	MergeableStateBlocked  MergeableState = "blocked"
	MergeableStateBehind   MergeableState = "behind"
	MergeableStateUnstable MergeableState = "unstable"
	MergeableStateDraft    MergeableState = "draft"
	MergeableStateUnknown  MergeableState = "unknown"
	MergeableStateHasHooks MergeableState = "has_hooks"
)

// PullRequestSnapshot is an immutable view of a pull request, fetched
// fresh on every poll and discarded after classification.
type PullRequestSnapshot struct {
	Owner  string
	Repo   string
	Number int
	Title  string

	Merged bool
	// Mergeable is nil while the platform is still computing mergeability.
	Mergeable      *bool
	MergeableState MergeableState
	HeadSHA        string
	HeadBranch     string
}

// Check run status and conclusion values as reported by the platform.
const (
	CheckStatusCompleted = "completed"

	CheckConclusionSuccess   = "success"
	CheckConclusionFailure   = "failure"
	CheckConclusionTimedOut  = "timed_out"
	CheckConclusionCancelled = "cancelled"
)

// CheckRun identifies one automated check execution against a commit.
type CheckRun struct {
	ID         int64
	Name       string
	HeadSHA    string
	Status     string
	Conclusion string
}

// Failed reports whether the run completed with a failing conclusion.
func (c CheckRun) Failed() bool {
	if c.Status != CheckStatusCompleted {
		return false
	}
	switch c.Conclusion {
	case CheckConclusionFailure, CheckConclusionTimedOut, CheckConclusionCancelled:
		return true
	default:
		return false
	}
}

// Outcome is the result of one remediation invocation.
type Outcome int

const (
	// OutcomeResolved means no failing check runs remain.
	OutcomeResolved Outcome = iota
	// OutcomeExhausted means failures persisted past the retry budget.
	OutcomeExhausted
)

// String returns the outcome name.
func (o Outcome) String() string {
	if o == OutcomeResolved {
		return "resolved"
	}
	return "exhausted"
}

// RemediationResult carries the outcome of a remediation invocation and
// the directories the captured log archives were extracted to.
type RemediationResult struct {
	Outcome Outcome
	LogDirs []string
}

// MergeStatus classifies the result of merging trunk into the branch.
type MergeStatus int

const (
	// MergeNoOp means the branch already contained all trunk content.
	MergeNoOp MergeStatus = iota
	// MergeApplied means the merge introduced new commits.
	MergeApplied
	// MergeConflict means the merge stopped on conflicting paths.
	MergeConflict
)

// MergeResult describes one trunk reconciliation attempt.
type MergeResult struct {
	Status MergeStatus
	// Conflicts lists the conflicted paths when Status is MergeConflict.
	Conflicts []string
}

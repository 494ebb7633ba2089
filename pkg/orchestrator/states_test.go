package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	mergeable := true
	notMergeable := false

	tests := []struct {
		name string
		snap *PullRequestSnapshot
		want PollState
	}{
		{
			name: "merged wins over everything",
			snap: &PullRequestSnapshot{Merged: true, Mergeable: &mergeable, MergeableState: MergeableStateClean},
			want: StateMergedExternally,
		},
		{
			name: "clean requires mergeable true",
			snap: &PullRequestSnapshot{Mergeable: &mergeable, MergeableState: MergeableStateClean},
			want: StateClean,
		},
		{
			name: "clean state with mergeable false is not clean",
			snap: &PullRequestSnapshot{Mergeable: &notMergeable, MergeableState: MergeableStateClean},
			want: StateUnknown,
		},
		{
			name: "clean state with mergeable pending is not clean",
			snap: &PullRequestSnapshot{MergeableState: MergeableStateClean},
			want: StateUnknown,
		},
		{
			name: "blocked",
			snap: &PullRequestSnapshot{Mergeable: &notMergeable, MergeableState: MergeableStateBlocked},
			want: StateBlocked,
		},
		{
			name: "behind",
			snap: &PullRequestSnapshot{Mergeable: &notMergeable, MergeableState: MergeableStateBehind},
			want: StateBehind,
		},
		{
			name: "unstable",
			snap: &PullRequestSnapshot{MergeableState: MergeableStateUnstable},
			want: StateUnstable,
		},
		{
			name: "has_hooks behaves like unstable",
			snap: &PullRequestSnapshot{MergeableState: MergeableStateHasHooks},
			want: StateUnstable,
		},
		{
			name: "draft",
			snap: &PullRequestSnapshot{MergeableState: MergeableStateDraft},
			want: StateDraft,
		},
		{
			name: "dirty",
			snap: &PullRequestSnapshot{Mergeable: &notMergeable, MergeableState: MergeableStateDirty},
			want: StateDirty,
		},
		{
			name: "unrecognized value defaults to unknown",
			snap: &PullRequestSnapshot{MergeableState: MergeableState("quantum")},
			want: StateUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.snap))
		})
	}
}

func TestPollStateTerminal(t *testing.T) {
	terminal := []PollState{StateClean, StateMergedExternally, StateExhaustedRemediation, StateTimedOut}
	for _, s := range terminal {
		assert.True(t, s.Terminal(), s.String())
	}

	waiting := []PollState{StateUnknown, StateBlocked, StateBehind, StateUnstable, StateDraft, StateDirty}
	for _, s := range waiting {
		assert.False(t, s.Terminal(), s.String())
	}
}

func TestCheckRunFailed(t *testing.T) {
	tests := []struct {
		name string
		run  CheckRun
		want bool
	}{
		{"completed failure", CheckRun{Status: CheckStatusCompleted, Conclusion: CheckConclusionFailure}, true},
		{"completed timed out", CheckRun{Status: CheckStatusCompleted, Conclusion: CheckConclusionTimedOut}, true},
		{"completed cancelled", CheckRun{Status: CheckStatusCompleted, Conclusion: CheckConclusionCancelled}, true},
		{"completed success", CheckRun{Status: CheckStatusCompleted, Conclusion: CheckConclusionSuccess}, false},
		{"still running", CheckRun{Status: "in_progress"}, false},
		{"queued", CheckRun{Status: "queued"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.run.Failed())
		})
	}
}

package orchestrator

// PollState is a state of the mergeability polling state machine.
type PollState int

// Poller states. Clean, MergedExternally, ExhaustedRemediation and
// TimedOut are terminal; every other state waits and re-polls.
const (
	StateUnknown PollState = iota
	StateBlocked
	StateBehind
	StateUnstable
	StateDraft
	StateDirty
	StateClean
	StateMergedExternally
	StateExhaustedRemediation
	StateTimedOut
)

var pollStateNames = map[PollState]string{
	StateUnknown:              "unknown",
	StateBlocked:              "blocked",
	StateBehind:               "behind",
	StateUnstable:             "unstable",
	StateDraft:                "draft",
	StateDirty:                "dirty",
	StateClean:                "clean",
	StateMergedExternally:     "merged externally",
	StateExhaustedRemediation: "remediation exhausted",
	StateTimedOut:             "timed out",
}

// String returns the state name.
func (s PollState) String() string {
	if name, ok := pollStateNames[s]; ok {
		return name
	}
	return "invalid"
}

// Terminal reports whether the state ends the polling loop.
func (s PollState) Terminal() bool {
	switch s {
	case StateClean, StateMergedExternally, StateExhaustedRemediation, StateTimedOut:
		return true
	default:
		return false
	}
}

// classify maps a snapshot to the poller state it represents. It never
// fails: states the platform introduces after this code is written land
// in the default arm and are treated as "not yet ready".
func classify(snap *PullRequestSnapshot) PollState {
	if snap.Merged {
		return StateMergedExternally
	}

	switch snap.MergeableState {
	case MergeableStateClean:
		if snap.Mergeable != nil && *snap.Mergeable {
			return StateClean
		}
		return StateUnknown
	case MergeableStateBlocked:
		return StateBlocked
	case MergeableStateBehind:
		return StateBehind
	case MergeableStateUnstable, MergeableStateHasHooks:
		return StateUnstable
	case MergeableStateDraft:
		return StateDraft
	case MergeableStateDirty:
		return StateDirty
	case MergeableStateUnknown:
		return StateUnknown
	default:
		return StateUnknown
	}
}

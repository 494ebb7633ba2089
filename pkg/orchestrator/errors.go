package orchestrator

import "errors"

// Error definitions for the merge orchestration loop.
var (
	errUserAbort            = errors.New("operator declined confirmation")
	errUnresolvableConflict = errors.New("merge conflicts require manual resolution")
	errRemediationExhausted = errors.New("check failures persisted past the retry budget")
	errPollingTimeout       = errors.New("mergeability polling exceeded the round budget")
	errRerunForbidden       = errors.New("re-run request was rejected as forbidden")
	errUnexpectedTerminal   = errors.New("polling ended in an unexpected terminal state")

	// ErrUserAbort is returned when the operator declines a gate confirmation.
	ErrUserAbort = errUserAbort
	// ErrUnresolvableConflict is returned when a merge produced conflicts
	// outside the manifest-only auto-resolution policy.
	ErrUnresolvableConflict = errUnresolvableConflict
	// ErrRemediationExhausted is returned when failing checks survived every
	// allowed re-run.
	ErrRemediationExhausted = errRemediationExhausted
	// ErrPollingTimeout is returned when the pull request never reached a
	// terminal mergeability state within the round budget.
	ErrPollingTimeout = errPollingTimeout
	// ErrRerunForbidden is reported by platform adapters when the platform
	// refuses a re-run request. It is tolerated during remediation.
	ErrRerunForbidden = errRerunForbidden
	// ErrUnexpectedTerminal is returned for terminal poll states the
	// orchestrator has no handling for.
	ErrUnexpectedTerminal = errUnexpectedTerminal
)

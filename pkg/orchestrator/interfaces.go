package orchestrator

import "context"

// PlatformAPI is the collaboration-platform capability the orchestration
// loop calls into. Implemented by [pkg/github.Client]; mock implementations
// live in testing/mocks.
type PlatformAPI interface {
	// DefaultBranch returns the repository's trunk branch name.
	DefaultBranch(ctx context.Context) (string, error)

	// PullRequest fetches a fresh snapshot of the pull request.
	PullRequest(ctx context.Context) (*PullRequestSnapshot, error)

	// ListRuns returns every check run recorded for the commit.
	ListRuns(ctx context.Context, headSHA string) ([]CheckRun, error)

	// RunLogs downloads the log archive of one check run.
	RunLogs(ctx context.Context, runID int64) ([]byte, error)

	// RerunFailedJobs requests re-execution of the run's failed jobs.
	// Returns an error wrapping ErrRerunForbidden when the platform
	// refuses the request.
	RerunFailedJobs(ctx context.Context, runID int64) error

	// Merge issues the merge call with the given commit title and
	// merge method.
	Merge(ctx context.Context, commitTitle, mergeMethod string) error
}

// Workspace is the version-control collaborator operating on the local
// working copy of the feature branch. Implemented by [pkg/git.Workspace].
type Workspace interface {
	// VersionFromTrunk reads the manifest version on the remote trunk branch.
	VersionFromTrunk(ctx context.Context) (string, error)

	// VersionFromBranch reads the manifest version in the working tree.
	VersionFromBranch(ctx context.Context) (string, error)

	// MergeTrunk fetches the trunk and merges it into the feature branch.
	MergeTrunk(ctx context.Context) (MergeResult, error)

	// ResolveManifestConflict takes the trunk's manifest, stages it and
	// commits the resolution. Only valid after MergeTrunk reported a
	// conflict confined to the manifest file.
	ResolveManifestConflict(ctx context.Context) error

	// CommitAll stages every change and commits with the given message.
	CommitAll(ctx context.Context, message string) error

	// Push pushes the feature branch to the remote.
	Push(ctx context.Context) error

	// PushTag creates the tag at the branch head and pushes it.
	PushTag(ctx context.Context, tag string) error
}

// PackageManager is the dependency-management collaborator.
// Implemented by [pkg/npm.Client].
type PackageManager interface {
	// Install updates the dependency lock and local packages.
	Install(ctx context.Context) error

	// Bump increments the manifest version by bumpType (patch, minor
	// or major) and returns the new version. It does not commit.
	Bump(ctx context.Context, bumpType string) (string, error)
}

// Confirmer gates state-mutating actions behind an operator decision.
// Satisfied by [internal/ui.PromptConfirmer] and the scripted double in
// testing/mocks.
type Confirmer interface {
	Confirm(description string) (bool, error)
}

// ArtifactStore persists captured check-run log archives.
// Satisfied by [internal/artifact.Store].
type ArtifactStore interface {
	SaveRunLogs(runID int64, archive []byte) (string, error)
}

// Logger is the logging interface used throughout the loop.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

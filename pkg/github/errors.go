package github

import "errors"

// Error definitions for GitHub API operations.
var (
	errTokenRequired     = errors.New("GITHUB_TOKEN environment variable is required")
	errLogDownloadFailed = errors.New("log archive download failed")

	// ErrTokenRequired is returned when the API credential is missing.
	ErrTokenRequired = errTokenRequired
	// ErrLogDownloadFailed is returned when the log archive endpoint does
	// not serve the archive.
	ErrLogDownloadFailed = errLogDownloadFailed
)

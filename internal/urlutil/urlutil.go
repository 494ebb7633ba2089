// Package urlutil parses pull request web URLs into their repository
// coordinates.
//
// It handles the canonical form produced by the collaboration platform:
//
//	https://<host>/<owner>/<repo>/pull/<number>
//
// A trailing slash is tolerated; anything else is rejected so that bad
// input fails before any network access happens.
package urlutil

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// prPathParts is the number of path components in a pull request URL:
// owner, repo, "pull", number.
const prPathParts = 4

var (
	errInvalidPullRequestURL = errors.New("invalid pull request URL")

	// ErrInvalidPullRequestURL is returned when a URL does not match
	// https://<host>/<owner>/<repo>/pull/<number>.
	ErrInvalidPullRequestURL = errInvalidPullRequestURL
)

// PullRequestRef identifies one pull request on the collaboration platform.
type PullRequestRef struct {
	Host   string
	Owner  string
	Repo   string
	Number int
}

// String returns the canonical web URL of the pull request.
func (r PullRequestRef) String() string {
	return fmt.Sprintf("https://%s/%s/%s/pull/%d", r.Host, r.Owner, r.Repo, r.Number)
}

// ParsePullRequestURL parses a pull request web URL.
//
// Example:
//
//	ParsePullRequestURL("https://github.com/octocat/hello/pull/42")
//	returns PullRequestRef{Host: "github.com", Owner: "octocat", Repo: "hello", Number: 42}
func ParsePullRequestURL(rawURL string) (PullRequestRef, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return PullRequestRef{}, fmt.Errorf("%w: %s", errInvalidPullRequestURL, rawURL)
	}

	if u.Scheme != "https" || u.Host == "" {
		return PullRequestRef{}, fmt.Errorf("%w: %s", errInvalidPullRequestURL, rawURL)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != prPathParts || parts[2] != "pull" {
		return PullRequestRef{}, fmt.Errorf("%w: %s", errInvalidPullRequestURL, rawURL)
	}

	if parts[0] == "" || parts[1] == "" {
		return PullRequestRef{}, fmt.Errorf("%w: %s", errInvalidPullRequestURL, rawURL)
	}

	number, err := strconv.Atoi(parts[3])
	if err != nil || number <= 0 {
		return PullRequestRef{}, fmt.Errorf("%w: %s", errInvalidPullRequestURL, rawURL)
	}

	return PullRequestRef{
		Host:   u.Host,
		Owner:  parts[0],
		Repo:   parts[1],
		Number: number,
	}, nil
}

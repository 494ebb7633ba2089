// Package semver decides whether a feature branch needs a version bump
// relative to the trunk branch.
package semver

import (
	"errors"
	"fmt"

	masterminds "github.com/Masterminds/semver/v3"
)

var (
	errMalformedVersion = errors.New("malformed semantic version")

	// ErrMalformedVersion is returned when a version string cannot be parsed.
	ErrMalformedVersion = errMalformedVersion
)

// RequiresBump reports whether the branch version must be bumped before
// merging. A bump is required iff the branch version is less than or equal
// to the trunk version under semver precedence (pre-release tags included).
func RequiresBump(trunkVersion, branchVersion string) (bool, error) {
	trunk, err := masterminds.NewVersion(trunkVersion)
	if err != nil {
		return false, fmt.Errorf("%w: %q", errMalformedVersion, trunkVersion)
	}

	branch, err := masterminds.NewVersion(branchVersion)
	if err != nil {
		return false, fmt.Errorf("%w: %q", errMalformedVersion, branchVersion)
	}

	return branch.Compare(trunk) <= 0, nil
}

// Bump returns version incremented according to bumpType, which must be
// one of "patch", "minor" or "major". Used to predict the release tag
// name before the package manager performs the actual bump.
func Bump(version, bumpType string) (string, error) {
	v, err := masterminds.NewVersion(version)
	if err != nil {
		return "", fmt.Errorf("%w: %q", errMalformedVersion, version)
	}

	var next masterminds.Version
	switch bumpType {
	case "patch":
		next = v.IncPatch()
	case "minor":
		next = v.IncMinor()
	case "major":
		next = v.IncMajor()
	default:
		return "", fmt.Errorf("%w: unknown bump type %q", errMalformedVersion, bumpType)
	}

	return next.String(), nil
}

// Package npm implements the package-manager collaborator by shelling
// out to the npm binary.
package npm

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sgaunet/auto-land/internal/logger"
	"github.com/sgaunet/auto-land/pkg/orchestrator"
)

var (
	errInvalidBumpType = errors.New("bump type must be one of patch, minor, major")

	// ErrInvalidBumpType is returned for bump types npm would reject.
	ErrInvalidBumpType = errInvalidBumpType
)

// Client runs npm commands inside one working copy.
type Client struct {
	dir string
	log logger.Logger
}

// NewClient creates a Client operating in dir.
func NewClient(dir string) *Client {
	return &Client{
		dir: dir,
		log: logger.NoLogger(),
	}
}

// SetLogger sets the logger used by the client.
func (c *Client) SetLogger(log logger.Logger) {
	c.log = log
}

// Install updates the dependency lock and local packages.
func (c *Client) Install(ctx context.Context) error {
	output, err := c.run(ctx, "install")
	if err != nil {
		return fmt.Errorf("npm install failed: %s: %w", output, err)
	}
	c.log.Debug("Dependencies installed")
	return nil
}

// Bump runs the version-bump command and returns the new version. The
// bump does not create a git commit or tag; committing is the version
// control collaborator's job.
func (c *Client) Bump(ctx context.Context, bumpType string) (string, error) {
	switch bumpType {
	case "patch", "minor", "major":
	default:
		return "", fmt.Errorf("%w: got %q", errInvalidBumpType, bumpType)
	}

	output, err := c.run(ctx, "version", bumpType, "--no-git-tag-version")
	if err != nil {
		return "", fmt.Errorf("npm version %s failed: %s: %w", bumpType, output, err)
	}

	// npm prints the new version as "vX.Y.Z" on the last line.
	version := parseBumpOutput(output)
	if version == "" {
		return "", fmt.Errorf("npm version %s produced no version: %q", bumpType, output)
	}

	c.log.Debug("Version bumped", "bump", bumpType, "version", version)
	return version, nil
}

func parseBumpOutput(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if strings.HasPrefix(line, "v") && len(line) > 1 {
			return strings.TrimPrefix(line, "v")
		}
	}
	return ""
}

func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "npm", args...)
	cmd.Dir = c.dir
	output, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(output)), err
}

// Ensure Client implements the package-manager capability at compile time.
var _ orchestrator.PackageManager = (*Client)(nil)

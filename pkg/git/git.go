// Package git implements the version-control collaborator on a local
// working copy of the feature branch.
//
// Most operations go through go-git. The three-way merge surface (merge
// with conflict detection, conflicted path listing, taking one side of a
// conflicted file) is not implemented by go-git and shells out to the git
// binary instead.
package git

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/sgaunet/auto-land/internal/logger"
	"github.com/sgaunet/auto-land/internal/security"
	"github.com/sgaunet/auto-land/pkg/orchestrator"
)

const remoteName = "origin"

var (
	errManifestNotFound = errors.New("manifest file not found")
	errNoVersionField   = errors.New("manifest has no version field")

	// ErrManifestNotFound is returned when a branch carries no manifest file.
	ErrManifestNotFound = errManifestNotFound
	// ErrNoVersionField is returned when the manifest has no version field.
	ErrNoVersionField = errNoVersionField
)

// Workspace is a local clone bound to one feature branch and its trunk.
type Workspace struct {
	repo   *gogit.Repository
	dir    string
	branch string
	trunk  string
	auth   *githttp.BasicAuth
	log    logger.Logger
}

// Clone clones remoteURL into dir and checks out branch, created from (or
// reset to) its remote-tracking counterpart.
func Clone(ctx context.Context, remoteURL, dir, branch, trunk string, token security.SecureToken) (*Workspace, error) {
	auth := &githttp.BasicAuth{Username: "git", Password: token.Value()}

	repo, err := gogit.PlainCloneContext(ctx, dir, false, &gogit.CloneOptions{
		URL:  remoteURL,
		Auth: auth,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to clone repository: %w", err)
	}

	w := &Workspace{
		repo:   repo,
		dir:    dir,
		branch: branch,
		trunk:  trunk,
		auth:   auth,
		log:    logger.NoLogger(),
	}

	if err := w.checkoutBranch(); err != nil {
		return nil, err
	}

	return w, nil
}

// Open opens an existing clone in dir. Used by tests.
func Open(dir, branch, trunk string, token security.SecureToken) (*Workspace, error) {
	repo, err := gogit.PlainOpen(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository: %w", err)
	}

	return &Workspace{
		repo:   repo,
		dir:    dir,
		branch: branch,
		trunk:  trunk,
		auth:   &githttp.BasicAuth{Username: "git", Password: token.Value()},
		log:    logger.NoLogger(),
	}, nil
}

// SetLogger sets the logger used by the workspace.
func (w *Workspace) SetLogger(log logger.Logger) {
	w.log = log
}

// Dir returns the working copy directory.
func (w *Workspace) Dir() string {
	return w.dir
}

// checkoutBranch creates the local feature branch at the remote-tracking
// head, resetting it if it already exists.
func (w *Workspace) checkoutBranch() error {
	ref, err := w.repo.Reference(plumbing.NewRemoteReferenceName(remoteName, w.branch), true)
	if err != nil {
		return fmt.Errorf("failed to resolve %s/%s: %w", remoteName, w.branch, err)
	}

	worktree, err := w.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	// The clone may already have created the local branch when it is the
	// remote's default branch.
	local := plumbing.NewBranchReferenceName(w.branch)
	_, err = w.repo.Reference(local, false)
	exists := err == nil

	if !exists {
		err = worktree.Checkout(&gogit.CheckoutOptions{
			Branch: local,
			Hash:   ref.Hash(),
			Create: true,
			Force:  true,
		})
	} else {
		err = worktree.Checkout(&gogit.CheckoutOptions{
			Branch: local,
			Force:  true,
		})
	}
	if err != nil {
		return fmt.Errorf("failed to checkout %s: %w", w.branch, err)
	}

	w.log.Debug("Checked out feature branch", "branch", w.branch, "head", ref.Hash().String())
	return nil
}

// VersionFromTrunk reads the manifest version on the remote trunk branch.
func (w *Workspace) VersionFromTrunk(_ context.Context) (string, error) {
	ref, err := w.repo.Reference(plumbing.NewRemoteReferenceName(remoteName, w.trunk), true)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s/%s: %w", remoteName, w.trunk, err)
	}

	commit, err := w.repo.CommitObject(ref.Hash())
	if err != nil {
		return "", fmt.Errorf("failed to read trunk commit: %w", err)
	}

	file, err := commit.File(orchestrator.ManifestFile)
	if err != nil {
		return "", fmt.Errorf("%w on %s", errManifestNotFound, w.trunk)
	}

	contents, err := file.Contents()
	if err != nil {
		return "", fmt.Errorf("failed to read trunk manifest: %w", err)
	}

	return parseManifestVersion([]byte(contents))
}

// VersionFromBranch reads the manifest version in the working tree.
func (w *Workspace) VersionFromBranch(_ context.Context) (string, error) {
	path := filepath.Join(w.dir, orchestrator.ManifestFile)

	data, err := os.ReadFile(path) // #nosec G304 - path is confined to the clone directory
	if err != nil {
		return "", fmt.Errorf("%w on %s", errManifestNotFound, w.branch)
	}

	return parseManifestVersion(data)
}

// parseManifestVersion extracts the version field from manifest JSON.
func parseManifestVersion(data []byte) (string, error) {
	var manifest struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return "", fmt.Errorf("failed to parse manifest: %w", err)
	}
	if manifest.Version == "" {
		return "", errNoVersionField
	}
	return manifest.Version, nil
}

// MergeTrunk fetches the remote and merges the trunk branch into the
// feature branch with --no-edit semantics.
func (w *Workspace) MergeTrunk(ctx context.Context) (orchestrator.MergeResult, error) {
	err := w.repo.FetchContext(ctx, &gogit.FetchOptions{
		RemoteName: remoteName,
		Auth:       w.auth,
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return orchestrator.MergeResult{}, fmt.Errorf("failed to fetch %s: %w", remoteName, err)
	}

	before, err := w.repo.Head()
	if err != nil {
		return orchestrator.MergeResult{}, fmt.Errorf("failed to read HEAD: %w", err)
	}

	output, mergeErr := w.runGit(ctx, "merge", "--no-edit", remoteName+"/"+w.trunk)
	if mergeErr != nil {
		conflicts, err := w.conflictedPaths(ctx)
		if err != nil {
			return orchestrator.MergeResult{}, err
		}
		if len(conflicts) == 0 {
			return orchestrator.MergeResult{}, fmt.Errorf("merge failed: %s: %w", output, mergeErr)
		}
		w.log.Debug("Merge stopped on conflicts", "paths", conflicts)
		return orchestrator.MergeResult{Status: orchestrator.MergeConflict, Conflicts: conflicts}, nil
	}

	after, err := w.repo.Head()
	if err != nil {
		return orchestrator.MergeResult{}, fmt.Errorf("failed to read HEAD: %w", err)
	}

	if before.Hash() == after.Hash() {
		return orchestrator.MergeResult{Status: orchestrator.MergeNoOp}, nil
	}
	return orchestrator.MergeResult{Status: orchestrator.MergeApplied}, nil
}

// conflictedPaths lists paths left unmerged by the last merge attempt.
func (w *Workspace) conflictedPaths(ctx context.Context) ([]string, error) {
	output, err := w.runGit(ctx, "diff", "--name-only", "--diff-filter=U")
	if err != nil {
		return nil, fmt.Errorf("failed to list conflicted paths: %s: %w", output, err)
	}
	return splitLines(output), nil
}

// ResolveManifestConflict takes the trunk's side of the manifest, stages
// it and commits the merge resolution. The commit goes through the git
// binary so the in-progress merge keeps both parents.
func (w *Workspace) ResolveManifestConflict(ctx context.Context) error {
	if output, err := w.runGit(ctx, "checkout", "--theirs", "--", orchestrator.ManifestFile); err != nil {
		return fmt.Errorf("failed to take trunk manifest: %s: %w", output, err)
	}
	if output, err := w.runGit(ctx, "add", orchestrator.ManifestFile); err != nil {
		return fmt.Errorf("failed to stage manifest: %s: %w", output, err)
	}
	if output, err := w.runGit(ctx, "commit", "--no-edit"); err != nil {
		return fmt.Errorf("failed to commit resolution: %s: %w", output, err)
	}

	w.log.Info("Committed manifest conflict resolution", "path", orchestrator.ManifestFile)
	return nil
}

// CommitAll stages every change and commits. A clean worktree is a no-op.
func (w *Workspace) CommitAll(_ context.Context, message string) error {
	worktree, err := w.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return fmt.Errorf("failed to get repository status: %w", err)
	}
	if status.IsClean() {
		return nil
	}

	if err := worktree.AddWithOptions(&gogit.AddOptions{All: true}); err != nil {
		return fmt.Errorf("failed to stage changes: %w", err)
	}

	_, err = worktree.Commit(message, &gogit.CommitOptions{
		Author: w.signature(),
	})
	if err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	w.log.Debug("Committed changes", "message", message)
	return nil
}

// Push pushes the feature branch to the remote.
func (w *Workspace) Push(ctx context.Context) error {
	err := w.repo.PushContext(ctx, &gogit.PushOptions{
		RemoteName: remoteName,
		RefSpecs: []config.RefSpec{
			config.RefSpec("refs/heads/" + w.branch + ":refs/heads/" + w.branch),
		},
		Auth: w.auth,
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to push %s: %w", w.branch, err)
	}
	return nil
}

// PushTag creates tag at the branch head and pushes it.
func (w *Workspace) PushTag(ctx context.Context, tag string) error {
	head, err := w.repo.Head()
	if err != nil {
		return fmt.Errorf("failed to read HEAD: %w", err)
	}

	if _, err := w.repo.CreateTag(tag, head.Hash(), nil); err != nil &&
		!errors.Is(err, gogit.ErrTagExists) {
		return fmt.Errorf("failed to create tag %s: %w", tag, err)
	}

	err = w.repo.PushContext(ctx, &gogit.PushOptions{
		RemoteName: remoteName,
		RefSpecs: []config.RefSpec{
			config.RefSpec("refs/tags/" + tag + ":refs/tags/" + tag),
		},
		Auth: w.auth,
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to push tag %s: %w", tag, err)
	}

	w.log.Debug("Tag pushed", "tag", tag)
	return nil
}

// runGit runs the git binary inside the working copy.
func (w *Workspace) runGit(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = w.dir
	output, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(output)), err
}

func (w *Workspace) signature() *object.Signature {
	return &object.Signature{
		Name:  "auto-land",
		Email: "auto-land@localhost",
		When:  time.Now(),
	}
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Ensure Workspace implements the version-control capability at compile time.
var _ orchestrator.Workspace = (*Workspace)(nil)

// Package main provides the entry point for the auto-land CLI tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sgaunet/auto-land/internal/artifact"
	"github.com/sgaunet/auto-land/internal/logger"
	"github.com/sgaunet/auto-land/internal/security"
	"github.com/sgaunet/auto-land/internal/ui"
	"github.com/sgaunet/auto-land/internal/urlutil"
	"github.com/sgaunet/auto-land/pkg/config"
	"github.com/sgaunet/auto-land/pkg/git"
	"github.com/sgaunet/auto-land/pkg/github"
	"github.com/sgaunet/auto-land/pkg/npm"
	"github.com/sgaunet/auto-land/pkg/orchestrator"
)

var (
	errInvalidBumpType = errors.New("bump type must be one of patch, minor, major")
	errTokenRequired   = errors.New("GITHUB_TOKEN environment variable is required")
)

var (
	logLevel  string
	assumeYes bool
	log       logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "auto-land <pull-request-url> <patch|minor|major>",
	Short: "Land a pull request once it is provably mergeable",
	Long: `auto-land automates the final stages of landing a code change: it
reconciles the branch version with trunk, keeps the feature branch
synchronized while checks run, remediates failing check runs with a
bounded retry budget, and merges once the pull request is mergeable.

Every state-mutating step is gated by an operator confirmation unless
--yes is given.`,
	Args: cobra.ExactArgs(2),
	Run: func(_ *cobra.Command, args []string) {
		if err := runAutoLand(args[0], args[1]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info",
		"Set log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false,
		"Approve every confirmation without prompting")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runAutoLand(prURL, bumpType string) error {
	log = logger.NewLogger(logLevel)
	log.Info("auto-land starting...")

	ref, err := urlutil.ParsePullRequestURL(prURL)
	if err != nil {
		return err
	}

	switch bumpType {
	case "patch", "minor", "major":
	default:
		return fmt.Errorf("%w: got %q", errInvalidBumpType, bumpType)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log.Debug("Configuration loaded", "merge_method", cfg.MergeMethod)

	// The credential is checked before any network access happens.
	token := security.NewSecureToken(os.Getenv("GITHUB_TOKEN"))
	if token.IsEmpty() {
		return errTokenRequired
	}
	log.Debug("Credential loaded", "token", token)

	ctx := context.Background()

	client, err := github.NewClient(token, ref.Host)
	if err != nil {
		return fmt.Errorf("failed to create GitHub client: %w", err)
	}
	client.SetLogger(log)

	if err := client.SetPullRequest(ctx, ref.Owner, ref.Repo, ref.Number); err != nil {
		return fmt.Errorf("failed to set pull request: %w", err)
	}

	trunk, err := client.DefaultBranch(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve trunk branch: %w", err)
	}
	log.Info("Trunk branch identified", "branch", trunk)

	snap, err := client.PullRequest(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch pull request: %w", err)
	}

	ws, err := prepareWorkspace(ctx, ref, snap, trunk, token)
	if err != nil {
		return err
	}
	ws.SetLogger(log)

	pm := npm.NewClient(ws.Dir())
	pm.SetLogger(log)

	confirmer := buildConfirmer()
	store := artifact.NewStore(filepath.Join(cfg.LogDir, uuid.NewString()))

	remediator := orchestrator.NewRemediator(client, store, confirmer, log,
		cfg.MaxCheckRetries, time.Duration(cfg.RemediationCooldownSeconds)*time.Second)
	poller := orchestrator.NewPoller(client, remediator, log,
		time.Duration(cfg.PollIntervalSeconds)*time.Second, cfg.MaxPollRounds)
	syncLoop := orchestrator.NewSyncLoop(ws, pm, confirmer, log,
		time.Duration(cfg.SyncIntervalSeconds)*time.Second, cfg.SkipInstall)

	orch := orchestrator.New(client, ws, pm, confirmer, log, syncLoop, poller,
		bumpType, cfg.MergeMethod, cfg.SkipInstall)

	if err := orch.Run(ctx); err != nil {
		return err
	}

	log.Info("auto-land completed successfully!")
	return nil
}

// prepareWorkspace clones the repository into a temporary directory and
// checks out the feature branch. When the pull request is already merged
// its branch may be gone, so the trunk is checked out instead; the run
// then only offers a tag push.
func prepareWorkspace(
	ctx context.Context,
	ref urlutil.PullRequestRef,
	snap *orchestrator.PullRequestSnapshot,
	trunk string,
	token security.SecureToken,
) (*git.Workspace, error) {
	workdir, err := os.MkdirTemp("", "auto-land-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create working directory: %w", err)
	}

	branch := snap.HeadBranch
	if snap.Merged {
		branch = trunk
	}

	remoteURL := fmt.Sprintf("https://%s/%s/%s.git", ref.Host, ref.Owner, ref.Repo)
	log.Info("Cloning repository", "url", remoteURL, "branch", branch)

	ws, err := git.Clone(ctx, remoteURL, workdir, branch, trunk, token)
	if err != nil {
		return nil, fmt.Errorf("failed to clone repository: %w", err)
	}

	return ws, nil
}

func buildConfirmer() orchestrator.Confirmer {
	if assumeYes {
		return ui.NewAutoConfirmer()
	}
	return ui.NewPromptConfirmer()
}

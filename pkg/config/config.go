// Package config handles loading and validation of user configuration.
//
// Configuration is entirely optional: every field has a default that keeps
// the tool usable with no config file at all. The file lives at
// ~/.config/auto-land/config.yml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Defaults applied when the config file is absent or a field is unset.
const (
	DefaultMergeMethod         = "squash"
	DefaultMaxCheckRetries     = 2
	DefaultMaxPollRounds       = 30
	DefaultPollIntervalSec     = 30
	DefaultSyncIntervalSec     = 60
	DefaultRemediationCooldown = 30
	DefaultLogDir              = "auto-land-logs"
)

var (
	errInvalidMergeMethod = errors.New("merge_method must be one of merge, squash, rebase")
	errInvalidRetryBudget = errors.New("max_check_retries must not be negative")
	errInvalidPollRounds  = errors.New("max_poll_rounds must be positive")
	errInvalidInterval    = errors.New("intervals must be positive")
)

// Config represents the complete configuration for auto-land.
type Config struct {
	// MergeMethod is the merge strategy passed to the platform:
	// "merge", "squash" or "rebase".
	MergeMethod string `yaml:"merge_method"`

	// MaxCheckRetries bounds re-run requests per commit during remediation.
	MaxCheckRetries int `yaml:"max_check_retries"`

	// MaxPollRounds bounds mergeability polling before giving up.
	MaxPollRounds int `yaml:"max_poll_rounds"`

	// PollIntervalSeconds is the wait between mergeability polls.
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`

	// SyncIntervalSeconds is the wait between branch sync rounds.
	SyncIntervalSeconds int `yaml:"sync_interval_seconds"`

	// RemediationCooldownSeconds is the wait after requesting re-runs,
	// giving the platform time to schedule the new runs.
	RemediationCooldownSeconds int `yaml:"remediation_cooldown_seconds"`

	// LogDir is the root directory for captured check-run logs.
	LogDir string `yaml:"log_dir"`

	// SkipInstall disables dependency reinstallation after merges.
	SkipInstall bool `yaml:"skip_install"`
}

// Load reads the configuration file from the user's home directory.
// A missing file is not an error; defaults are returned instead.
func Load() (*Config, error) {
	config := defaults()

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}

	configPath := filepath.Join(homeDir, ".config", "auto-land", "config.yml")

	// #nosec G304 - Reading config from user's home directory is intentional
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration, fills unset fields with defaults and
// validates the result.
func Parse(data []byte) (*Config, error) {
	config := defaults()

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func defaults() *Config {
	return &Config{
		MergeMethod:                DefaultMergeMethod,
		MaxCheckRetries:            DefaultMaxCheckRetries,
		MaxPollRounds:              DefaultMaxPollRounds,
		PollIntervalSeconds:        DefaultPollIntervalSec,
		SyncIntervalSeconds:        DefaultSyncIntervalSec,
		RemediationCooldownSeconds: DefaultRemediationCooldown,
		LogDir:                     DefaultLogDir,
	}
}

// applyDefaults restores defaults for fields the file left zero-valued.
// MaxCheckRetries is excluded: an explicit 0 means "never re-run".
func (c *Config) applyDefaults() {
	if c.MergeMethod == "" {
		c.MergeMethod = DefaultMergeMethod
	}
	if c.MaxPollRounds == 0 {
		c.MaxPollRounds = DefaultMaxPollRounds
	}
	if c.PollIntervalSeconds == 0 {
		c.PollIntervalSeconds = DefaultPollIntervalSec
	}
	if c.SyncIntervalSeconds == 0 {
		c.SyncIntervalSeconds = DefaultSyncIntervalSec
	}
	if c.RemediationCooldownSeconds == 0 {
		c.RemediationCooldownSeconds = DefaultRemediationCooldown
	}
	if c.LogDir == "" {
		c.LogDir = DefaultLogDir
	}
}

// Validate checks that every configured value is usable.
func (c *Config) Validate() error {
	switch c.MergeMethod {
	case "merge", "squash", "rebase":
	default:
		return fmt.Errorf("%w: got %q", errInvalidMergeMethod, c.MergeMethod)
	}

	if c.MaxCheckRetries < 0 {
		return fmt.Errorf("%w: got %d", errInvalidRetryBudget, c.MaxCheckRetries)
	}

	if c.MaxPollRounds <= 0 {
		return fmt.Errorf("%w: got %d", errInvalidPollRounds, c.MaxPollRounds)
	}

	if c.PollIntervalSeconds <= 0 || c.SyncIntervalSeconds <= 0 || c.RemediationCooldownSeconds <= 0 {
		return errInvalidInterval
	}

	return nil
}

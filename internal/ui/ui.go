package ui

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
)

// Confirmer gates state-mutating actions behind an operator decision.
type Confirmer interface {
	Confirm(description string) (bool, error)
}

// PromptConfirmer asks the operator on the terminal via an interactive prompt.
type PromptConfirmer struct{}

// NewPromptConfirmer creates a terminal-backed Confirmer.
func NewPromptConfirmer() *PromptConfirmer {
	return &PromptConfirmer{}
}

// Confirm asks the operator to approve the described action.
func (c *PromptConfirmer) Confirm(description string) (bool, error) {
	var approved bool
	prompt := &survey.Confirm{
		Message: description,
		Default: true,
	}

	if err := survey.AskOne(prompt, &approved); err != nil {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}

	return approved, nil
}

// AutoConfirmer approves every action without prompting. Used by the
// --yes flag for non-interactive runs.
type AutoConfirmer struct{}

// NewAutoConfirmer creates a Confirmer that always approves.
func NewAutoConfirmer() *AutoConfirmer {
	return &AutoConfirmer{}
}

// Confirm always approves.
func (c *AutoConfirmer) Confirm(_ string) (bool, error) {
	return true, nil
}

// Ensure both implementations satisfy Confirmer at compile time.
var (
	_ Confirmer = (*PromptConfirmer)(nil)
	_ Confirmer = (*AutoConfirmer)(nil)
)

package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run shows the dashboard until the user quits or ctx is cancelled.
func Run(ctx context.Context, deps Deps, opts ...Option) error {
	if deps.Orders == nil {
		return fmt.Errorf("order query executor is required")
	}

	program := tea.NewProgram(New(deps, opts...),
		tea.WithContext(ctx),
		tea.WithAltScreen(),
	)

	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

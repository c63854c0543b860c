package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mlefebvre/tunesync/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for library browsing and sync.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	platform := cmd.String("platform")

	if err := r.ensure(); err != nil {
		return err
	}

	if err := r.registry.Validate(platform); err != nil {
		return err
	}

	user, err := r.resolveUser(cmd)
	if err != nil {
		return err
	}

	// Redirect logs to a file to avoid interfering with TUI rendering.
	logFile, err := os.OpenFile("tunesync-tui.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()
	r.logger.SetOutput(logFile)

	model := ui.NewModel(ctx, r.engine, user.ID(), platform)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

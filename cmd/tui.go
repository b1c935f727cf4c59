package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"radarsync/internal/shared"
	"radarsync/internal/tasks"
	"radarsync/internal/ui"
)

// TUI launches the interactive terminal UI for playlist reconciliation.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized, run 'radarsync auth login'", shared.ErrServiceUnavailable)
	}
	if r.engine == nil {
		return fmt.Errorf("%w: reconcile engine not initialized", shared.ErrServiceUnavailable)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/radarsync-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	request := tasks.ReconcileRequest{
		ReferenceID:     r.config.Playlists.ReferenceID,
		TargetID:        r.config.Playlists.TargetID,
		AllowDuplicates: r.config.Playlists.AllowDuplicates,
	}

	model := ui.NewModel(ctx, r.spotify, r.engine, request)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

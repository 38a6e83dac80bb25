package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/blissify/internal/tasks"
	"github.com/desertthunder/blissify/internal/ui"
)

// runTUI follows a traversal in the live view and returns its outcome once the view exits.
//
// Logs must already be redirected to a file so they do not interfere with rendering.
func (r *Runner) runTUI(ctx context.Context, title string, run ui.RunFunc) (*tasks.Result, error) {
	model := ui.NewModel(ctx, title, run)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return nil, fmt.Errorf("error running TUI: %w", err)
	}

	result, err := model.Result()
	if result == nil && err == nil {
		return nil, fmt.Errorf("TUI exited before the run finished")
	}
	return result, err
}

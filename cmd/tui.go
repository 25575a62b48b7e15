package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/lens/internal/formatter"
	"github.com/desertthunder/lens/internal/models"
	"github.com/desertthunder/lens/internal/shared"
	"github.com/desertthunder/lens/internal/tasks"
	"github.com/desertthunder/lens/internal/ui"
)

const tuiLogPath = "./tmp/lens-tui.log"

// useFileLogger redirects logs to a file so they do not interfere with TUI rendering.
//
// Call it before building services so they share the file logger.
func (r *Runner) useFileLogger() error {
	fileLogger, err := shared.NewFileLogger(tuiLogPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)
	return nil
}

// scanTUI runs the scan behind the interactive progress view.
func (r *Runner) scanTUI(ctx context.Context, engine *tasks.ScanEngine, req tasks.ScanRequest) error {
	if engine == nil {
		return fmt.Errorf("%w: scan engine not initialized", shared.ErrServiceUnavailable)
	}

	model := ui.NewScanModel(ctx, req.SourceID, func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*models.ScanLog, error) {
		return engine.RunScan(ctx, req, progress)
	})
	p := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	log, err := model.Result()
	if log != nil {
		r.writePlain("%s\n", formatter.ScanLogDetail(log, r.now()))
	}
	return err
}

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stagekit/stagekit/internal/pipeline"
	"github.com/stagekit/stagekit/internal/ui"
)

type App struct {
	runner    *pipeline.Runner
	uiHandler *ui.Handler
}

func NewApp(runner *pipeline.Runner, uiHandler *ui.Handler) *App {
	return &App{
		runner:    runner,
		uiHandler: uiHandler,
	}
}

func (app *App) Launch(ctx context.Context) error {
	result, err := app.runner.Run(ctx)

	if app.uiHandler != nil {
		app.uiHandler.Done(err)
	}

	if result != nil {
		app.summarize(result)
	}

	if err != nil {
		return fmt.Errorf("(app) %w", err)
	}

	return nil
}

func (app *App) LaunchUI() error {
	if err := app.uiHandler.Launch(); err != nil {
		return fmt.Errorf("(app-ui) %w", err)
	}

	return nil
}

func (app *App) summarize(result *pipeline.Result) {
	slog.Info("Install summary",
		"warnings", len(result.Report.Warnings),
		"failed", len(result.Failed),
	)

	for _, m := range result.Markers {
		if !m.OK {
			slog.Warn("Marker missing after install", "name", m.Name, "path", m.Path)
		}
	}

	for _, t := range result.Toolchains {
		if !t.OK {
			slog.Warn("Toolchain directory missing after install", "dependency", t.Name, "path", t.Path)
		}
	}
}

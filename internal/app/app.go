package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/a3dk/internal/config"
	"github.com/vk/a3dk/internal/ctxlog"
	"github.com/vk/a3dk/internal/materialize"
	"github.com/vk/a3dk/internal/templates"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	project  *config.Project
	resolver *templates.Resolver
}

// NewApp is the constructor for the main application. It configures an
// isolated logger writing to logW, then loads and validates the project.
// Command output such as info and previews goes to outW.
func NewApp(ctx context.Context, outW, logW io.Writer, cfg *Config) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.")

	prj, err := loadProject(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	return &App{
		outW:    outW,
		logger:  logger,
		config:  cfg,
		project: prj,
		resolver: &templates.Resolver{
			ProjectDir: prj.Dir,
			RepoDir:    cfg.RepoDir,
			Options:    materialize.Options{Workers: cfg.Workers},
		},
	}, nil
}

// Project returns the validated project.
func (a *App) Project() *config.Project {
	return a.project
}

// withLogger attaches the application logger to ctx.
func (a *App) withLogger(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}

// requireRepo fails when no template repository was configured.
func (a *App) requireRepo() error {
	if a.config.RepoDir == "" {
		return fmt.Errorf("template repository is not set: use --repo or A3DK_REPO")
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/ivlev/compositor/internal/config"
	"github.com/ivlev/compositor/internal/document"
	"github.com/ivlev/compositor/internal/logging"
	"github.com/ivlev/compositor/internal/project"
	"github.com/ivlev/compositor/internal/source"
	"github.com/ivlev/compositor/internal/system"
)

type globalFlags struct {
	config    string
	logLevel  string
	logFormat string
	logFile   string
}

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	logger     *slog.Logger
	configErr  error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = err
			return
		}
		if c.flags.logLevel != "" {
			cfg.Logging.Level = c.flags.logLevel
		}
		if c.flags.logFormat != "" {
			cfg.Logging.Format = c.flags.logFormat
		}
		logger, err := logging.New(logging.Options{
			Level:    cfg.Logging.Level,
			Format:   cfg.Logging.Format,
			FilePath: c.flags.logFile,
		})
		if err != nil {
			c.configErr = err
			return
		}
		slog.SetDefault(logger)
		system.InitResourceLimits(logger)
		c.config, c.logger = cfg, logger
	})
	return c.config, c.configErr
}

func (c *commandContext) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}

// opener builds the media factory for a project stored at projectPath.
func (c *commandContext) opener(projectPath string) *source.DefaultOpener {
	return &source.DefaultOpener{
		DPI:      c.config.Media.DPI,
		FontSize: c.config.Media.FontSize,
		FPS:      c.config.Media.ImageFPS,
		BaseDir:  filepath.Dir(projectPath),
		Logger:   c.log(),
	}
}

// loadProject materializes the document at path and opens its media on the
// configured number of workers.
func (c *commandContext) loadProject(ctx context.Context, path string) (*project.Project, error) {
	p, err := document.Load(path,
		project.WithOpener(c.opener(path)),
		project.WithLogger(c.log()),
		project.WithDeferredLoad(),
	)
	if err != nil {
		return nil, err
	}
	if err := p.LoadMedia(ctx, c.config.Media.Workers); err != nil {
		p.Close()
		return nil, fmt.Errorf("load media: %w", err)
	}
	c.log().Debug("project loaded", "path", path, "components", len(p.Components()))
	return p, nil
}

// projectArg returns args[0], or the newest document in the project
// directory when no argument was given.
func (c *commandContext) projectArg(args []string) (string, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return args[0], nil
	}
	latest, err := system.FindLatestProject(c.config.Media.ProjectDir)
	if err != nil {
		return "", fmt.Errorf("no project given and none found in %s: %w", c.config.Media.ProjectDir, err)
	}
	c.log().Info("using latest project", "path", latest)
	return latest, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

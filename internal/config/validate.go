package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	if err := c.validateMedia(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateRender() error {
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return fmt.Errorf("render: canvas %dx%d must be positive", c.Render.Width, c.Render.Height)
	}
	if c.Render.Width%2 != 0 || c.Render.Height%2 != 0 {
		return fmt.Errorf("render: canvas %dx%d must have even dimensions for yuv420p", c.Render.Width, c.Render.Height)
	}
	if c.Render.FPS <= 0 || c.Render.FPS > 240 {
		return fmt.Errorf("render.fps: %v out of range (0, 240]", c.Render.FPS)
	}
	return nil
}

func (c *Config) validateExport() error {
	if c.Export.Quality < 0 {
		return errors.New("export.quality must not be negative")
	}
	return nil
}

func (c *Config) validateMedia() error {
	if c.Media.DPI <= 0 {
		return errors.New("media.dpi must be positive")
	}
	if c.Media.FontSize <= 0 {
		return errors.New("media.font_size must be positive")
	}
	if c.Media.ImageFPS <= 0 {
		return errors.New("media.image_fps must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unknown level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unknown format %q", c.Logging.Format)
	}
	return nil
}

package config

import (
	"fmt"
	"strings"

	"github.com/ivlev/compositor/internal/system"
)

// Normalize fills derived values: it applies the preset, lowercases
// enumerations, resolves "auto" encoders and default quality. Call it
// again after changing fields from flags.
func (c *Config) Normalize() error {
	c.Render.Preset = strings.TrimSpace(c.Render.Preset)
	if c.Render.Preset != "" {
		size, ok := Presets[c.Render.Preset]
		if !ok {
			return fmt.Errorf("render.preset: unknown preset %q", c.Render.Preset)
		}
		c.Render.Width, c.Render.Height = size[0], size[1]
	}
	if c.Media.Workers <= 0 {
		c.Media.Workers = system.DefaultWorkers()
	}
	c.Export.Encoder = strings.ToLower(strings.TrimSpace(c.Export.Encoder))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	return nil
}

// ResolveEncoder replaces "auto" (or empty) with the best H.264 encoder
// ffmpeg offers and fills the quality default for it. It runs ffmpeg, so
// it is only called right before an export.
func (c *Config) ResolveEncoder() {
	if c.Export.Encoder == "" || c.Export.Encoder == "auto" {
		c.Export.Encoder = system.BestH264Encoder()
	}
	if c.Export.Quality == 0 {
		c.Export.Quality = system.DefaultQuality(c.Export.Encoder)
	}
}

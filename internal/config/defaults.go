package config

import "github.com/ivlev/compositor/internal/system"

const (
	defaultWidth    = 1280
	defaultHeight   = 720
	defaultFPS      = 30
	defaultDPI      = 300
	defaultFontSize = 48
	defaultImageFPS = 25
)

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Render: Render{
			Width:  defaultWidth,
			Height: defaultHeight,
			FPS:    defaultFPS,
		},
		Export: Export{
			Encoder:      "auto",
			OutputDir:    "output",
			BenchmarkLog: "benchmark.log",
		},
		Media: Media{
			DPI:        defaultDPI,
			FontSize:   defaultFontSize,
			ImageFPS:   defaultImageFPS,
			Workers:    system.DefaultWorkers(),
			ProjectDir: "projects",
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}

// Presets maps preset names to canvas sizes.
var Presets = map[string][2]int{
	"16:9": {1280, 720},
	"9:16": {720, 1280},
	"4:5":  {1080, 1350},
}

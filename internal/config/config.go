// Package config loads the compositor settings from a TOML file. Command
// line flags override file values after Load.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Render holds the output canvas settings.
type Render struct {
	Width  int     `toml:"width"`
	Height int     `toml:"height"`
	FPS    float64 `toml:"fps"`
	// Preset overrides Width and Height: 16:9, 9:16 (Shorts/TikTok) or
	// 4:5 (Instagram).
	Preset string `toml:"preset"`
}

// Export holds encoder settings.
type Export struct {
	// Encoder is an ffmpeg video encoder name, or "auto" to pick the best
	// available H.264 encoder.
	Encoder      string `toml:"encoder"`
	Quality      int    `toml:"quality"` // 0 = encoder default
	OutputDir    string `toml:"output_dir"`
	PlayAudio    bool   `toml:"play_audio"`
	ShowStats    bool   `toml:"show_stats"`
	BenchmarkLog string `toml:"benchmark_log"`
}

// Media holds decoding settings for component sources.
type Media struct {
	DPI        int     `toml:"dpi"`
	FontSize   float64 `toml:"font_size"`
	ImageFPS   float64 `toml:"image_fps"` // frame rate of image-directory sequences
	Workers    int     `toml:"workers"`
	ProjectDir string  `toml:"project_dir"`
}

type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type Config struct {
	Render  Render  `toml:"render"`
	Export  Export  `toml:"export"`
	Media   Media   `toml:"media"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the per-user config location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/compositor/config.toml")
}

// Load reads the config at path, or from the default locations when path
// is empty. A missing file is not an error; defaults are used. It returns
// the resolved path and whether the file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.Normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("compositor.toml")
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

// ExpandPath resolves ~ and returns an absolute, cleaned path.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// CreateSample writes a commented sample config to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

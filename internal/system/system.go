package system

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"
)

// InitResourceLimits raises the open file limit; every video component holds
// its own decoder process pipes.
func InitResourceLimits(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		logger.Warn("read open file limit", "error", err)
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		logger.Warn("raise open file limit", "error", err)
	} else {
		logger.Debug("open file limit raised", "limit", rLimit.Cur)
	}
}

var projectExtensions = []string{".yaml", ".yml", ".json"}

// FindLatestProject returns the most recently modified project document in dir.
func FindLatestProject(dir string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() {
			continue
		}
		isProject := false
		for _, ext := range projectExtensions {
			if strings.HasSuffix(strings.ToLower(f.Name()), ext) {
				isProject = true
				break
			}
		}
		if isProject {
			info, err := f.Info()
			if err != nil {
				continue
			}
			if info.ModTime().After(latestTime) {
				latestTime = info.ModTime()
				latestFile = filepath.Join(dir, f.Name())
			}
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("no project documents found in %s", dir)
	}

	return latestFile, nil
}

// MediaInfo is the subset of ffprobe output the sources need.
type MediaInfo struct {
	Width    int
	Height   int
	Duration float64 // seconds
}

type probeOutput struct {
	Streams []struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ProbeMedia asks ffprobe for the duration and, for files with a video
// stream, the frame size.
func ProbeMedia(path string) (MediaInfo, error) {
	cmd := exec.Command("ffprobe", "-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height:format=duration",
		"-of", "json", path)
	out, err := cmd.Output()
	if err != nil {
		return MediaInfo{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return parseProbe(out)
}

func parseProbe(out []byte) (MediaInfo, error) {
	var p probeOutput
	if err := json.Unmarshal(out, &p); err != nil {
		return MediaInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	var info MediaInfo
	if len(p.Streams) > 0 {
		info.Width, info.Height = p.Streams[0].Width, p.Streams[0].Height
	}
	if p.Format.Duration != "" {
		d, err := strconv.ParseFloat(strings.TrimSpace(p.Format.Duration), 64)
		if err != nil {
			return MediaInfo{}, fmt.Errorf("parse ffprobe duration %q: %w", p.Format.Duration, err)
		}
		info.Duration = d
	}
	return info, nil
}

// hardwareEncoders are preferred over libx264 in this order.
var hardwareEncoders = []string{"h264_videotoolbox", "h264_nvenc"}

var (
	bestEncoderOnce sync.Once
	bestEncoder     string
)

// BestH264Encoder returns the first hardware H.264 encoder the local ffmpeg
// offers, or libx264. ffmpeg is asked once per process.
func BestH264Encoder() string {
	bestEncoderOnce.Do(func() {
		out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").Output()
		if err != nil {
			bestEncoder = "libx264"
			return
		}
		bestEncoder = pickEncoder(out)
	})
	return bestEncoder
}

// pickEncoder scans `ffmpeg -encoders` output. Encoder lines look like
// " V....D h264_nvenc   NVIDIA NVENC H.264 encoder".
func pickEncoder(listing []byte) string {
	available := make(map[string]bool)
	for _, line := range strings.Split(string(listing), "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && strings.HasPrefix(fields[0], "V") {
			available[fields[1]] = true
		}
	}
	for _, name := range hardwareEncoders {
		if available[name] {
			return name
		}
	}
	return "libx264"
}

// DefaultQuality maps an encoder to a sensible quality setting.
func DefaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		return 75
	case "h264_nvenc":
		return 28
	default:
		return 23
	}
}

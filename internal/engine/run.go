package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"github.com/ivlev/compositor/internal/system"
	"github.com/ivlev/compositor/internal/timecode"
)

// Progress is passed to Run's callback after every frame.
type Progress struct {
	Frame    int
	Total    int
	Fraction float64
	Position timecode.Time
	Elapsed  time.Duration
}

// Report summarizes a finished export.
type Report struct {
	Frames     int
	Elapsed    time.Duration
	RenderTime time.Duration
	WriteTime  time.Duration
	FPS        float64
	Host       system.HostStats
}

func (r Report) String() string {
	return fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Frames: %d\n"+
			"Total Time: %.2fs\n"+
			"Compositing: %.2fs\n"+
			"Encoding: %.2fs\n"+
			"Effective FPS: %.2f\n"+
			"Host: %d CPUs, memory %.1f%% used\n"+
			"----------------------------\n",
		r.Frames, r.Elapsed.Seconds(), r.RenderTime.Seconds(), r.WriteTime.Seconds(), r.FPS,
		r.Host.LogicalCPUs, r.Host.MemoryUsedPct,
	)
}

// AppendTo adds a one-line benchmark entry for input to the log at path.
func (r Report) AppendTo(path, input string) error {
	entry := fmt.Sprintf("[%s] Input: %s | Frames: %d | Total: %.2fs | Render: %.2fs | Encode: %.2fs | FPS: %.2f\n",
		time.Now().Format("2006-01-02 15:04:05"),
		filepath.Base(input),
		r.Frames,
		r.Elapsed.Seconds(),
		r.RenderTime.Seconds(),
		r.WriteTime.Seconds(),
		r.FPS,
	)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(entry); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Report returns the timing of the frames exported so far.
func (s *Session) Report() Report {
	r := Report{
		Frames:     s.current,
		RenderTime: s.renderTime,
		WriteTime:  s.writeTime,
		Host:       system.Snapshot(),
	}
	if !s.started.IsZero() {
		r.Elapsed = time.Since(s.started)
	}
	if secs := r.Elapsed.Seconds(); secs > 0 {
		r.FPS = float64(r.Frames) / secs
	}
	return r
}

// Run steps s until it finishes, fails or ctx is cancelled, calling
// onProgress (if set) after each frame. Progress is also logged, at most
// every two seconds.
func Run(ctx context.Context, s *Session, onProgress func(Progress)) (Report, error) {
	limiter := rate.NewLimiter(rate.Every(2*time.Second), 1)
	for {
		if err := ctx.Err(); err != nil {
			return s.Report(), err
		}
		more, fraction, err := s.Step()
		if err != nil {
			return s.Report(), err
		}
		p := Progress{
			Frame:    s.Current(),
			Total:    s.Total(),
			Fraction: fraction,
			Position: s.Position(),
			Elapsed:  time.Since(s.started),
		}
		if onProgress != nil {
			onProgress(p)
		}
		if limiter.Allow() {
			s.logger.Info("export progress",
				"frame", p.Frame, "total", p.Total,
				"percent", fmt.Sprintf("%.1f", fraction*100),
				"position", p.Position)
		}
		if !more {
			break
		}
	}
	report := s.Report()
	s.logger.Info("export finished",
		"frames", report.Frames,
		"elapsed", report.Elapsed.Round(time.Millisecond),
		"fps", fmt.Sprintf("%.2f", report.FPS),
		"host_cpus", report.Host.LogicalCPUs,
		"host_mem_used_pct", fmt.Sprintf("%.1f", report.Host.MemoryUsedPct),
		"buffers_reused", system.BufferStats().Reused())
	return report, nil
}

// Package audio triggers playback of Sound components. Playback is a
// side channel of the export loop: it is started when a clip becomes
// active and runs on its own, with no sample-accurate sync.
package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"

	"github.com/ivlev/compositor/internal/timecode"
)

// Player starts playback of path from offset. Play returns once playback
// has started.
type Player interface {
	Play(ctx context.Context, path string, offset timecode.Time) error
	StopAll() error
}

// Nop discards every request.
type Nop struct{}

func (Nop) Play(context.Context, string, timecode.Time) error { return nil }
func (Nop) StopAll() error                                    { return nil }

// FFPlay plays files through ffplay child processes.
type FFPlay struct {
	Binary string
	Logger *slog.Logger

	mu    sync.Mutex
	procs map[*exec.Cmd]struct{}
	wg    sync.WaitGroup
}

func NewFFPlay(logger *slog.Logger) *FFPlay {
	if logger == nil {
		logger = slog.Default()
	}
	return &FFPlay{Binary: "ffplay", Logger: logger, procs: make(map[*exec.Cmd]struct{})}
}

func (p *FFPlay) args(path string, offset timecode.Time) []string {
	args := []string{"-nodisp", "-autoexit", "-loglevel", "error"}
	if offset > 0 {
		args = append(args, "-ss", fmt.Sprintf("%.3f", offset.Seconds()))
	}
	return append(args, path)
}

func (p *FFPlay) Play(ctx context.Context, path string, offset timecode.Time) error {
	cmd := exec.CommandContext(ctx, p.Binary, p.args(path, offset)...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", p.Binary, err)
	}
	p.mu.Lock()
	p.procs[cmd] = struct{}{}
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := cmd.Wait(); err != nil {
			p.Logger.Debug("audio playback ended", "path", path, "error", err)
		}
		p.mu.Lock()
		delete(p.procs, cmd)
		p.mu.Unlock()
	}()
	return nil
}

// StopAll kills every running player and waits for them to exit.
func (p *FFPlay) StopAll() error {
	p.mu.Lock()
	var errs []error
	for cmd := range p.procs {
		if cmd.Process != nil {
			if err := cmd.Process.Kill(); err != nil && !errors.Is(err, exec.ErrNotFound) {
				errs = append(errs, err)
			}
		}
	}
	p.mu.Unlock()
	p.wg.Wait()
	return errors.Join(errs...)
}

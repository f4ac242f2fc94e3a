// Package engine drives exports: it steps the compositor across a frame
// sequence, hands each frame to an output sink and reports progress.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/ivlev/compositor/internal/audio"
	"github.com/ivlev/compositor/internal/compositor"
	"github.com/ivlev/compositor/internal/project"
	"github.com/ivlev/compositor/internal/source"
	"github.com/ivlev/compositor/internal/system"
	"github.com/ivlev/compositor/internal/timecode"
	"github.com/ivlev/compositor/internal/video"
)

// Session renders frame i at i*FrameDelta into its sink. It is driven one
// frame at a time by Step; stopping early is simply not calling Step again.
type Session struct {
	comp       *compositor.Compositor
	sink       video.FrameSink
	frameCount int
	frameDelta timecode.Time

	current int
	done    bool
	err     error

	player    audio.Player
	audioCtx  context.Context
	triggered map[string]bool
	logger    *slog.Logger

	started    time.Time
	renderTime time.Duration
	writeTime  time.Duration
}

type Option func(*Session)

// WithPlayer enables the audio side channel: Sound components are started
// once each, when the first exported frame falls inside their extent.
func WithPlayer(ctx context.Context, p audio.Player) Option {
	return func(s *Session) {
		s.player = p
		if ctx != nil {
			s.audioCtx = ctx
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// BeginExport prepares a session of frameCount frames spaced frameDelta
// apart. Nothing is rendered until the first Step.
func BeginExport(p *project.Project, frameCount int, frameDelta timecode.Time, sink video.FrameSink, opts ...Option) (*Session, error) {
	if frameCount < 0 {
		return nil, fmt.Errorf("negative frame count %d", frameCount)
	}
	if sink == nil {
		return nil, errors.New("export needs an output sink")
	}
	s := &Session{
		comp:       compositor.New(p),
		sink:       sink,
		frameCount: frameCount,
		frameDelta: frameDelta,
		player:     audio.Nop{},
		audioCtx:   context.Background(),
		triggered:  make(map[string]bool),
		logger:     p.Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// FrameCount returns the spacing between frames at fps, rounded to whole
// milliseconds, and the number of frames at that spacing needed to cover
// length. The output must be encoded at FrameRate(delta), not fps.
func FrameCount(length timecode.Time, fps float64) (int, timecode.Time) {
	if fps <= 0 {
		return 0, 0
	}
	delta := timecode.Time(math.Round(1000 / fps))
	if delta == 0 {
		delta = 1
	}
	count := int((length.Millis() + delta.Millis() - 1) / delta.Millis())
	return count, delta
}

// FrameRate is the frame rate matching a frame spacing.
func FrameRate(delta timecode.Time) float64 {
	if delta == 0 {
		return 0
	}
	return 1000 / float64(delta.Millis())
}

// Step exports the next frame. It returns (true, fraction) while frames
// remain; the call that writes the last frame finalizes the sink and
// returns (false, 1). A sink failure is returned and sticks: the session
// does not touch the sink again and every later Step returns the same
// error.
func (s *Session) Step() (bool, float64, error) {
	if s.err != nil {
		return false, s.Fraction(), s.err
	}
	if s.done {
		return false, 1, nil
	}
	if s.started.IsZero() {
		s.started = time.Now()
	}

	if s.current < s.frameCount {
		pos := s.frameDelta.Mul(uint64(s.current))
		s.comp.Seek(pos)
		s.triggerAudio(pos)

		t0 := time.Now()
		frame := s.comp.Frame()
		t1 := time.Now()
		err := s.sink.WriteFrame(frame, pos)
		s.renderTime += t1.Sub(t0)
		s.writeTime += time.Since(t1)
		system.PutImage(frame)
		if err != nil {
			s.fail(fmt.Errorf("write frame %d at %s: %w", s.current, pos, err))
			return false, s.Fraction(), s.err
		}
		s.current++
	}

	if s.current < s.frameCount {
		return true, s.Fraction(), nil
	}

	s.done = true
	if err := s.sink.Finalize(); err != nil {
		s.fail(fmt.Errorf("finalize: %w", err))
		return false, 1, s.err
	}
	return false, 1, nil
}

func (s *Session) fail(err error) {
	if !errors.Is(err, video.ErrSinkFailure) {
		err = fmt.Errorf("%w: %w", video.ErrSinkFailure, err)
	}
	s.err = err
	s.done = true
}

func (s *Session) triggerAudio(pos timecode.Time) {
	for _, c := range s.comp.Project().Components() {
		if c.Kind != source.KindSound || s.triggered[c.ID] || !c.Active(pos) {
			continue
		}
		s.triggered[c.ID] = true
		if err := s.player.Play(s.audioCtx, c.Path, pos.Sub(c.Start)); err != nil {
			s.logger.Warn("audio playback failed", "component", c.ID, "path", c.Path, "error", err)
			continue
		}
		s.logger.Debug("audio started", "component", c.ID, "position", pos)
	}
}

// Fraction is the share of frames written so far.
func (s *Session) Fraction() float64 {
	if s.frameCount == 0 {
		if s.done {
			return 1
		}
		return 0
	}
	return float64(s.current) / float64(s.frameCount)
}

func (s *Session) Current() int { return s.current }
func (s *Session) Total() int   { return s.frameCount }
func (s *Session) Err() error   { return s.err }
func (s *Session) Done() bool   { return s.done }

// Position is the timestamp of the last frame rendered.
func (s *Session) Position() timecode.Time {
	return s.comp.Position()
}

// Close stops any audio the session started.
func (s *Session) Close() error {
	return s.player.StopAll()
}

// Package project holds the timeline data model: the canvas, the ordered
// components on it and their effects, plus the create/get/update/delete
// operations the outer layers drive.
package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/compositor/internal/effects"
	"github.com/ivlev/compositor/internal/property"
	"github.com/ivlev/compositor/internal/source"
	"github.com/ivlev/compositor/internal/timecode"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidComponent = errors.New("invalid component")
)

// Project is a canvas plus an ordered set of components. It is not safe for
// concurrent use; callers must not mutate it while a render is running.
type Project struct {
	Width  int
	Height int
	Length timecode.Time

	components []*Component
	opener     source.Opener
	logger     *slog.Logger
	deferLoad  bool
}

type Option func(*Project)

// WithOpener sets the factory used to load component media.
func WithOpener(o source.Opener) Option {
	return func(p *Project) { p.opener = o }
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Project) { p.logger = l }
}

// WithDeferredLoad leaves media unopened until the first LoadMedia call.
func WithDeferredLoad() Option {
	return func(p *Project) { p.deferLoad = true }
}

func New(width, height int, length timecode.Time, opts ...Option) *Project {
	p := &Project{Width: width, Height: height, Length: length}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

func (p *Project) Opener() source.Opener { return p.opener }

func (p *Project) Logger() *slog.Logger { return p.logger }

// Components returns the components in insertion order.
func (p *Project) Components() []*Component {
	out := make([]*Component, len(p.components))
	copy(out, p.components)
	return out
}

// EffectiveLength is the larger of Length and the last component end.
func (p *Project) EffectiveLength() timecode.Time {
	l := p.Length
	for _, c := range p.components {
		if e := c.End(); e > l {
			l = e
		}
	}
	return l
}

func (p *Project) Component(id string) (*Component, error) {
	for _, c := range p.components {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, fmt.Errorf("component %q: %w", id, ErrNotFound)
}

func (p *Project) index(id string) int {
	for i, c := range p.components {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// ComponentSpec is the payload for AddComponent.
type ComponentSpec struct {
	ID      string
	Kind    source.Kind
	Start   timecode.Time
	Length  timecode.Time
	Layer   uint
	Path    string
	Text    string
	Props   property.Bag
	Base    *effects.Geometry
	Effects []effects.Effect
}

// AddComponent appends a component and loads its media. A media failure is
// logged and leaves the component without a frame source; it is not an
// error.
func (p *Project) AddComponent(spec ComponentSpec) (*Component, error) {
	c := spec.component()
	if err := p.insert(c, len(p.components)); err != nil {
		return nil, err
	}
	p.reload(c)
	return c, nil
}

func (spec ComponentSpec) component() *Component {
	c := &Component{
		ID:     spec.ID,
		Kind:   spec.Kind,
		Start:  spec.Start,
		Length: spec.Length,
		Layer:  spec.Layer,
		Path:   spec.Path,
		Text:   spec.Text,
		Props:  spec.Props.Clone(),
		Base:   effects.DefaultGeometry(),
	}
	if spec.Base != nil {
		c.Base = *spec.Base
	}
	for _, e := range spec.Effects {
		c.Effects = append(c.Effects, e.Clone())
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return c
}

// Spec returns the payload that recreates c.
func (c *Component) Spec() ComponentSpec {
	base := c.Base
	clone := c.Clone()
	return ComponentSpec{
		ID:      c.ID,
		Kind:    c.Kind,
		Start:   c.Start,
		Length:  c.Length,
		Layer:   c.Layer,
		Path:    c.Path,
		Text:    c.Text,
		Props:   clone.Props,
		Base:    &base,
		Effects: clone.Effects,
	}
}

func (p *Project) insert(c *Component, at int) error {
	if p.index(c.ID) >= 0 {
		return fmt.Errorf("%w: duplicate id %q", ErrInvalidComponent, c.ID)
	}
	if err := validateComponent(c); err != nil {
		return err
	}
	if at < 0 || at > len(p.components) {
		at = len(p.components)
	}
	p.components = append(p.components, nil)
	copy(p.components[at+1:], p.components[at:])
	p.components[at] = c
	return nil
}

func validateComponent(c *Component) error {
	if _, ok := kindOK[c.Kind]; !ok {
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidComponent, c.Kind)
	}
	if c.Kind == source.KindText {
		if c.Text == "" {
			return fmt.Errorf("%w: text component %s without text", ErrInvalidComponent, c.ID)
		}
	} else if c.Path == "" {
		return fmt.Errorf("%w: %s component %s without data path", ErrInvalidComponent, c.Kind, c.ID)
	}
	for i := range c.Effects {
		if err := c.Effects[i].Validate(); err != nil {
			return fmt.Errorf("%w: effect %d: %v", ErrInvalidComponent, i, err)
		}
	}
	return nil
}

var kindOK = map[source.Kind]struct{}{
	source.KindVideo: {}, source.KindImage: {}, source.KindText: {}, source.KindSound: {},
}

func (p *Project) reload(c *Component) {
	if p.deferLoad {
		return
	}
	if err := c.InvalidateAndReload(p.opener); err != nil {
		p.logger.Warn("component media unavailable", "component", c.ID, "kind", c.Kind, "error", err)
	}
}

// ComponentPatch changes selected fields of a component. Nil fields are
// left alone; Props entries are merged and a nil value deletes a key.
type ComponentPatch struct {
	Start  *timecode.Time
	Length *timecode.Time
	Layer  *uint
	Path   *string
	Text   *string
	Props  map[string]property.Value
	Base   *effects.Geometry
}

// UpdateComponent applies patch. Media is reloaded only when the patch
// changes the media reference or a source property.
func (p *Project) UpdateComponent(id string, patch ComponentPatch) error {
	c, err := p.Component(id)
	if err != nil {
		return err
	}
	next := c.Clone()
	if patch.Start != nil {
		next.Start = *patch.Start
	}
	if patch.Length != nil {
		next.Length = *patch.Length
	}
	if patch.Layer != nil {
		next.Layer = *patch.Layer
	}
	if patch.Path != nil {
		next.Path = *patch.Path
	}
	if patch.Text != nil {
		next.Text = *patch.Text
	}
	if patch.Base != nil {
		next.Base = *patch.Base
	}
	for k, v := range patch.Props {
		if v == nil {
			delete(next.Props, k)
			continue
		}
		if next.Props == nil {
			next.Props = property.Bag{}
		}
		next.Props[k] = v
	}
	if err := validateComponent(next); err != nil {
		return err
	}
	p.commit(c, next)
	return nil
}

// commit copies next into c, reloading media when the source changed.
func (p *Project) commit(c, next *Component) {
	reload := c.sourceChanged(next)
	media, mediaErr := c.media, c.mediaErr
	*c = *next
	c.media, c.mediaErr = media, mediaErr
	if reload {
		p.reload(c)
	}
}

// SetComponentProperty sets one named field. Timeline fields use their
// document names; everything else goes to the property bag.
func (p *Project) SetComponentProperty(id, name string, v property.Value) error {
	var patch ComponentPatch
	switch name {
	case "start_time", "length":
		t, err := property.AsTime(v)
		if err != nil {
			return fmt.Errorf("set %s: %w", name, err)
		}
		if name == "start_time" {
			patch.Start = &t
		} else {
			patch.Length = &t
		}
	case "layer_index":
		n, err := property.AsInteger(v)
		if err != nil {
			return fmt.Errorf("set %s: %w", name, err)
		}
		if n < 0 {
			return fmt.Errorf("set %s: negative layer %d", name, n)
		}
		layer := uint(n)
		patch.Layer = &layer
	case "data_path", "entity", "text":
		s, err := property.AsText(v)
		if err != nil {
			return fmt.Errorf("set %s: %w", name, err)
		}
		if name == "text" {
			patch.Text = &s
		} else {
			patch.Path = &s
		}
	default:
		patch.Props = map[string]property.Value{name: v}
	}
	return p.UpdateComponent(id, patch)
}

// RemoveComponent deletes the component and closes its media.
func (p *Project) RemoveComponent(id string) error {
	i := p.index(id)
	if i < 0 {
		return fmt.Errorf("component %q: %w", id, ErrNotFound)
	}
	c := p.components[i]
	p.components = append(p.components[:i], p.components[i+1:]...)
	if err := c.closeMedia(); err != nil {
		p.logger.Warn("close component media", "component", id, "error", err)
	}
	return nil
}

// AddEffect appends e to the component and returns its index.
func (p *Project) AddEffect(id string, e effects.Effect) (int, error) {
	c, err := p.Component(id)
	if err != nil {
		return 0, err
	}
	if err := e.Validate(); err != nil {
		return 0, err
	}
	c.Effects = append(c.Effects, e.Clone())
	return len(c.Effects) - 1, nil
}

func (p *Project) Effect(id string, index int) (effects.Effect, error) {
	c, err := p.Component(id)
	if err != nil {
		return effects.Effect{}, err
	}
	if index < 0 || index >= len(c.Effects) {
		return effects.Effect{}, fmt.Errorf("effect %d of %q: %w", index, id, ErrNotFound)
	}
	return c.Effects[index].Clone(), nil
}

// UpdateEffect sets one named value field of an effect.
func (p *Project) UpdateEffect(id string, index int, name string, v property.Value) error {
	c, err := p.Component(id)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(c.Effects) {
		return fmt.Errorf("effect %d of %q: %w", index, id, ErrNotFound)
	}
	return c.Effects[index].SetProperty(name, v)
}

// ReplaceEffect swaps the effect at index.
func (p *Project) ReplaceEffect(id string, index int, e effects.Effect) error {
	c, err := p.Component(id)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(c.Effects) {
		return fmt.Errorf("effect %d of %q: %w", index, id, ErrNotFound)
	}
	if err := e.Validate(); err != nil {
		return err
	}
	c.Effects[index] = e.Clone()
	return nil
}

func (p *Project) RemoveEffect(id string, index int) error {
	c, err := p.Component(id)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(c.Effects) {
		return fmt.Errorf("effect %d of %q: %w", index, id, ErrNotFound)
	}
	c.Effects = append(c.Effects[:index], c.Effects[index+1:]...)
	return nil
}

// LoadMedia (re)opens the media of every component using up to workers
// goroutines. Each component owns its source exclusively, so loads are
// independent. Individual failures are logged; only cancellation is
// returned. Must not run concurrently with rendering.
func (p *Project) LoadMedia(ctx context.Context, workers int) error {
	if workers <= 0 {
		workers = 1
	}
	p.deferLoad = false
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, c := range p.components {
		c := c
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p.reload(c)
			return nil
		})
	}
	return g.Wait()
}

// Close releases all media handles.
func (p *Project) Close() error {
	var errs []error
	for _, c := range p.components {
		if err := c.closeMedia(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

package document

import (
	"fmt"
	"sort"

	"github.com/ivlev/compositor/internal/effects"
	"github.com/ivlev/compositor/internal/project"
	"github.com/ivlev/compositor/internal/property"
	"github.com/ivlev/compositor/internal/source"
	"github.com/ivlev/compositor/internal/timecode"
)

// FromProject serializes p. Geometry fields equal to the defaults are
// omitted.
func FromProject(p *project.Project) *Document {
	doc := &Document{
		Width:      p.Width,
		Height:     p.Height,
		Length:     p.Length.Millis(),
		Components: make([]Component, 0, len(p.Components())),
	}
	for _, c := range p.Components() {
		doc.Components = append(doc.Components, fromComponent(c))
	}
	return doc
}

func fromComponent(c *project.Component) Component {
	out := Component{
		ID:            c.ID,
		ComponentType: c.Kind.String(),
		StartTime:     c.Start.Millis(),
		Length:        c.Length.Millis(),
		LayerIndex:    c.Layer,
		Rotation:      c.Base.Rotation,
	}
	switch c.Kind {
	case source.KindText:
		out.Text = c.Text
		out.DataPath = c.Path
	case source.KindVideo, source.KindSound:
		out.Entity = c.Path
	default:
		out.DataPath = c.Path
	}

	def := effects.DefaultGeometry()
	if c.Base.X != def.X || c.Base.Y != def.Y {
		out.Coordinate = &[2]int{c.Base.X, c.Base.Y}
	}
	if c.Base.ScaleX != def.ScaleX || c.Base.ScaleY != def.ScaleY {
		out.Scale = &[2]float64{c.Base.ScaleX, c.Base.ScaleY}
	}
	if c.Base.Alpha != def.Alpha {
		a := c.Base.Alpha
		out.Alpha = &a
	}
	if len(c.Props) > 0 {
		out.Properties = make(map[string]any, len(c.Props))
		for _, k := range c.Props.Keys() {
			out.Properties[k] = property.ToPlain(c.Props[k])
		}
	}
	for _, e := range c.Effects {
		out.Effects = append(out.Effects, fromEffect(e))
	}
	return out
}

func fromEffect(e effects.Effect) Effect {
	name := e.Type.String()
	if e.Type == effects.Unknown && e.RawType != "" {
		name = e.RawType
	}
	out := Effect{
		EffectType: name,
		Transition: e.Transition.String(),
		StartValue: e.Start,
		EndValue:   e.End,
	}
	for _, bp := range e.Breakpoints {
		out.Breakpoints = append(out.Breakpoints, Breakpoint{
			Transition: bp.Transition.String(),
			Position:   bp.Position,
			Value:      bp.Value,
		})
	}
	return out
}

// Specs converts the components into project payloads. Semantic problems
// the schema cannot express (unknown transitions, unordered breakpoints,
// missing media references, bad property values) wrap ErrMalformedProject.
func (d *Document) Specs() ([]project.ComponentSpec, error) {
	specs := make([]project.ComponentSpec, 0, len(d.Components))
	for i, c := range d.Components {
		spec, err := c.spec()
		if err != nil {
			return nil, fmt.Errorf("%w: component %d: %v", ErrMalformedProject, i, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func (c Component) spec() (project.ComponentSpec, error) {
	kind, err := source.ParseKind(c.ComponentType)
	if err != nil {
		return project.ComponentSpec{}, err
	}
	spec := project.ComponentSpec{
		ID:     c.ID,
		Kind:   kind,
		Start:  timecode.Time(c.StartTime),
		Length: timecode.Time(c.Length),
		Layer:  c.LayerIndex,
		Path:   c.DataPath,
		Text:   c.Text,
	}
	if spec.Path == "" {
		spec.Path = c.Entity
	}
	if kind == source.KindText && spec.Text == "" {
		return spec, fmt.Errorf("text component without text")
	}
	if kind != source.KindText && spec.Path == "" {
		return spec, fmt.Errorf("%s component without data_path or entity", kind)
	}

	base := effects.DefaultGeometry()
	if c.Coordinate != nil {
		base.X, base.Y = c.Coordinate[0], c.Coordinate[1]
	}
	if c.Scale != nil {
		base.ScaleX, base.ScaleY = c.Scale[0], c.Scale[1]
	}
	if c.Alpha != nil {
		base.Alpha = *c.Alpha
	}
	base.Rotation = c.Rotation
	spec.Base = &base

	if len(c.Properties) > 0 {
		spec.Props = make(property.Bag, len(c.Properties))
		keys := make([]string, 0, len(c.Properties))
		for k := range c.Properties {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v, err := property.FromPlain(c.Properties[k])
			if err != nil {
				return spec, fmt.Errorf("property %q: %w", k, err)
			}
			spec.Props[k] = v
		}
	}

	for j, de := range c.Effects {
		e, err := de.effect()
		if err != nil {
			return spec, fmt.Errorf("effect %d: %w", j, err)
		}
		spec.Effects = append(spec.Effects, e)
	}
	return spec, nil
}

func (d Effect) effect() (effects.Effect, error) {
	e := effects.Effect{
		Type:  effects.ParseType(d.EffectType),
		Start: d.StartValue,
		End:   d.EndValue,
	}
	if e.Type == effects.Unknown {
		e.RawType = d.EffectType
	}
	var err error
	if e.Transition, err = effects.ParseCurve(d.Transition); err != nil {
		return e, err
	}
	for _, bp := range d.Breakpoints {
		curve, err := effects.ParseCurve(bp.Transition)
		if err != nil {
			return e, err
		}
		e.Breakpoints = append(e.Breakpoints, effects.Breakpoint{
			Transition: curve,
			Position:   bp.Position,
			Value:      bp.Value,
		})
	}
	return e, e.Validate()
}

// Materialize builds a new project from the document and loads its media.
func (d *Document) Materialize(opts ...project.Option) (*project.Project, error) {
	p := project.New(d.Width, d.Height, timecode.Time(d.Length), opts...)
	if err := d.ApplyTo(p); err != nil {
		return nil, err
	}
	return p, nil
}

// ApplyTo replaces p's contents with the document. Components are matched
// by id, so unchanged media stays loaded. On error p is left untouched.
func (d *Document) ApplyTo(p *project.Project) error {
	specs, err := d.Specs()
	if err != nil {
		return err
	}
	if err := p.Sync(d.Width, d.Height, timecode.Time(d.Length), specs); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedProject, err)
	}
	return nil
}

// Load reads the document at path and materializes it.
func Load(path string, opts ...project.Option) (*project.Project, error) {
	doc, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := doc.Materialize(opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

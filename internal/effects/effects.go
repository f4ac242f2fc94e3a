// Package effects implements the parametric value curves attached to
// timeline components and the transforms they apply to geometry and pixels.
package effects

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/ivlev/compositor/internal/property"
)

// Type selects the property an effect drives.
type Type int

const (
	Unknown Type = iota
	CoordinateX
	CoordinateY
	Rotate
	ScaleX
	ScaleY
	Alpha
)

var typeNames = map[Type]string{
	CoordinateX: "CoordinateX",
	CoordinateY: "CoordinateY",
	Rotate:      "Rotate",
	ScaleX:      "ScaleX",
	ScaleY:      "ScaleY",
	Alpha:       "Alpha",
}

func (t Type) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return "Unknown"
}

// ParseType never fails: unrecognized names map to Unknown, which is a
// no-op when applied.
func ParseType(s string) Type {
	for t, n := range typeNames {
		if strings.EqualFold(n, strings.TrimSpace(s)) {
			return t
		}
	}
	return Unknown
}

// Breakpoint is an interior point of an effect curve.
type Breakpoint struct {
	Transition Curve
	Position   float64
	Value      float64
}

// Effect is a time-varying transform attached to a component.
type Effect struct {
	Type        Type
	Transition  Curve
	Start       float64
	End         float64
	Breakpoints []Breakpoint

	// RawType keeps the document spelling of an Unknown type so it
	// survives a save.
	RawType string
}

var (
	ErrBreakpointOrder = errors.New("effects: breakpoint positions must be strictly increasing within [0,1]")
	ErrNonFinite       = errors.New("effects: value must be finite")
)

// Validate checks the breakpoint ordering invariant and that every value
// is finite.
func (e *Effect) Validate() error {
	if !finite(e.Start) || !finite(e.End) {
		return fmt.Errorf("%w (start %v, end %v)", ErrNonFinite, e.Start, e.End)
	}
	prev := math.Inf(-1)
	for i, bp := range e.Breakpoints {
		if bp.Position < 0 || bp.Position > 1 || math.IsNaN(bp.Position) || bp.Position <= prev {
			return fmt.Errorf("%w (breakpoint %d at %v)", ErrBreakpointOrder, i, bp.Position)
		}
		if !finite(bp.Value) {
			return fmt.Errorf("%w (breakpoint %d value %v)", ErrNonFinite, i, bp.Value)
		}
		prev = bp.Position
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Value resolves the effect at progress in [0,1].
func (e *Effect) Value(progress float64) float64 {
	progress = clamp01(progress)
	if len(e.Breakpoints) == 0 {
		return lerp(e.Start, e.End, Evaluate(e.Transition, progress))
	}

	startPos, startVal := 0.0, e.Start
	endPos, endVal, curve := 1.0, e.End, e.Transition
	for _, bp := range e.Breakpoints {
		if bp.Position >= progress {
			endPos, endVal, curve = bp.Position, bp.Value, bp.Transition
			break
		}
		startPos, startVal = bp.Position, bp.Value
	}

	local := 1.0
	if den := endPos - startPos; den != 0 {
		local = clamp01((progress - startPos) / den)
	}
	return lerp(startVal, endVal, Evaluate(curve, local))
}

// Apply folds the effect into g.
func (e *Effect) Apply(g Geometry, progress float64) Geometry {
	switch e.Type {
	case CoordinateX:
		g.X += int(e.Value(progress))
	case CoordinateY:
		g.Y += int(e.Value(progress))
	case ScaleX:
		g.ScaleX *= e.Value(progress)
	case ScaleY:
		g.ScaleY *= e.Value(progress)
	case Alpha:
		g.Alpha = clampAlpha(int(float64(g.Alpha) * e.Value(progress) / 255))
	}
	return g
}

// ApplyPixels transforms the raster. Only Rotate has a raster effect.
func (e *Effect) ApplyPixels(img image.Image, progress float64) image.Image {
	if e.Type != Rotate {
		return img
	}
	return RotateImage(img, e.Value(progress))
}

// SetProperty updates a value field by name.
func (e *Effect) SetProperty(name string, v property.Value) error {
	switch name {
	case "transition":
		s, err := property.AsText(v)
		if err != nil {
			if c, cerr := property.AsChoice(v); cerr == nil {
				s, err = c.Value(), nil
			}
		}
		if err != nil {
			return fmt.Errorf("effects: set %s: %w", name, err)
		}
		c, err := ParseCurve(s)
		if err != nil {
			return err
		}
		e.Transition = c
	case "start_value":
		f, err := property.AsFloat(v)
		if err != nil {
			return fmt.Errorf("effects: set %s: %w", name, err)
		}
		if !finite(f) {
			return fmt.Errorf("effects: set %s: %w", name, ErrNonFinite)
		}
		e.Start = f
	case "end_value":
		f, err := property.AsFloat(v)
		if err != nil {
			return fmt.Errorf("effects: set %s: %w", name, err)
		}
		if !finite(f) {
			return fmt.Errorf("effects: set %s: %w", name, ErrNonFinite)
		}
		e.End = f
	case "breakpoints":
		seq, err := property.AsSequence(v)
		if err != nil {
			return fmt.Errorf("effects: set %s: %w", name, err)
		}
		bps, err := breakpointsFromSequence(seq)
		if err != nil {
			return err
		}
		next := *e
		next.Breakpoints = bps
		if err := next.Validate(); err != nil {
			return err
		}
		e.Breakpoints = bps
	default:
		return fmt.Errorf("effects: unknown property %q", name)
	}
	return nil
}

// Property returns the current value of a named field.
func (e *Effect) Property(name string) (property.Value, error) {
	switch name {
	case "transition":
		return property.NewChoice(curveOptions(), e.Transition.String())
	case "start_value":
		return property.Float(e.Start), nil
	case "end_value":
		return property.Float(e.End), nil
	case "breakpoints":
		seq := make(property.Sequence, len(e.Breakpoints))
		for i, bp := range e.Breakpoints {
			seq[i] = property.Map{
				"transition": property.Text(bp.Transition.String()),
				"position":   property.Float(bp.Position),
				"value":      property.Float(bp.Value),
			}
		}
		return seq, nil
	}
	return nil, fmt.Errorf("effects: unknown property %q", name)
}

func curveOptions() []string {
	out := make([]string, len(Curves))
	for i, c := range Curves {
		out[i] = c.String()
	}
	return out
}

func breakpointsFromSequence(seq property.Sequence) ([]Breakpoint, error) {
	bps := make([]Breakpoint, 0, len(seq))
	for i, item := range seq {
		m, err := property.AsMap(item)
		if err != nil {
			return nil, fmt.Errorf("effects: breakpoint %d: %w", i, err)
		}
		var bp Breakpoint
		if v, ok := m["transition"]; ok {
			s, err := property.AsText(v)
			if err != nil {
				return nil, fmt.Errorf("effects: breakpoint %d transition: %w", i, err)
			}
			if bp.Transition, err = ParseCurve(s); err != nil {
				return nil, err
			}
		}
		if bp.Position, err = property.AsFloat(m["position"]); err != nil {
			return nil, fmt.Errorf("effects: breakpoint %d position: %w", i, err)
		}
		if bp.Value, err = property.AsFloat(m["value"]); err != nil {
			return nil, fmt.Errorf("effects: breakpoint %d value: %w", i, err)
		}
		bps = append(bps, bp)
	}
	return bps, nil
}

// Clone returns a deep copy.
func (e Effect) Clone() Effect {
	e.Breakpoints = append([]Breakpoint(nil), e.Breakpoints...)
	return e
}

package document

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/ivlev/compositor/internal/effects"
	"github.com/ivlev/compositor/internal/project"
	"github.com/ivlev/compositor/internal/property"
	"github.com/ivlev/compositor/internal/source"
	"github.com/ivlev/compositor/internal/timecode"
)

func effectGen() gopter.Gen {
	return gopter.CombineGens(
		gen.OneConstOf(effects.CoordinateX, effects.CoordinateY, effects.Rotate, effects.ScaleX, effects.ScaleY, effects.Alpha),
		gen.OneConstOf(effects.Linear, effects.Ease, effects.EaseIn, effects.EaseOut, effects.EaseInOut),
		gen.Float64Range(-1000, 1000),
		gen.Float64Range(-1000, 1000),
		gen.IntRange(0, 3),
	).Map(func(v []interface{}) effects.Effect {
		e := effects.Effect{
			Type:       v[0].(effects.Type),
			Transition: v[1].(effects.Curve),
			Start:      v[2].(float64),
			End:        v[3].(float64),
		}
		n := v[4].(int)
		for i := 0; i < n; i++ {
			e.Breakpoints = append(e.Breakpoints, effects.Breakpoint{
				Transition: effects.Curves[i%len(effects.Curves)],
				Position:   float64(i+1) / float64(n+1),
				Value:      e.Start + float64(i),
			})
		}
		return e
	})
}

func componentGen() gopter.Gen {
	return gopter.CombineGens(
		gen.Bool(),
		gen.Identifier(),
		gen.UInt64Range(0, 100000),
		gen.UInt64Range(0, 100000),
		gen.UIntRange(0, 5),
		gen.IntRange(-500, 500),
		gen.IntRange(-500, 500),
		gen.IntRange(0, 255),
		gen.Float64Range(0.1, 4),
		gen.Float64Range(-180, 180),
		gen.SliceOfN(2, effectGen()),
	).Map(func(v []interface{}) project.ComponentSpec {
		g := effects.Geometry{
			X: v[5].(int), Y: v[6].(int),
			Alpha:    v[7].(int),
			ScaleX:   v[8].(float64),
			ScaleY:   v[8].(float64) / 2,
			Rotation: v[9].(float64),
		}
		spec := project.ComponentSpec{
			Kind:    source.KindImage,
			Path:    v[1].(string) + ".png",
			Start:   timecode.Time(v[2].(uint64)),
			Length:  timecode.Time(v[3].(uint64)),
			Layer:   v[4].(uint),
			Base:    &g,
			Props:   property.Bag{"font": property.Text("mono"), "page": property.Integer(int64(v[7].(int)))},
			Effects: v[10].([]effects.Effect),
		}
		if v[0].(bool) {
			spec.Kind, spec.Path, spec.Text = source.KindText, "", v[1].(string)
		}
		return spec
	})
}

func TestDocumentRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("serialize then deserialize preserves the project", prop.ForAll(
		func(specs []project.ComponentSpec) bool {
			p := project.New(1280, 720, 60000, project.WithOpener(stubOpener()), project.WithLogger(quietLogger()))
			for _, s := range specs {
				if _, err := p.AddComponent(s); err != nil {
					return false
				}
			}
			for _, format := range []Format{YAML, JSON} {
				data, err := Encode(FromProject(p), format)
				if err != nil {
					return false
				}
				doc, err := Decode(data, format)
				if err != nil {
					return false
				}
				q, err := doc.Materialize(project.WithOpener(stubOpener()), project.WithLogger(quietLogger()))
				if err != nil {
					return false
				}
				if !sameProject(p, q) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(componentGen()),
	))

	properties.TestingRun(t)
}

func sameProject(a, b *project.Project) bool {
	if a.Width != b.Width || a.Height != b.Height || a.Length != b.Length {
		return false
	}
	ac, bc := a.Components(), b.Components()
	if len(ac) != len(bc) {
		return false
	}
	for i := range ac {
		x, y := ac[i].Spec(), bc[i].Spec()
		if !reflect.DeepEqual(x, y) {
			return false
		}
	}
	return true
}

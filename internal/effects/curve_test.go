package effects

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurveEndpoints(t *testing.T) {
	for _, c := range Curves {
		t.Run(c.String(), func(t *testing.T) {
			assert.InDelta(t, 0, Evaluate(c, 0), 1e-2)
			assert.InDelta(t, 1, Evaluate(c, 1), 1e-2)
		})
	}
}

func TestLinearIsIdentity(t *testing.T) {
	for x := 0.0; x <= 1.0; x += 0.05 {
		assert.Equal(t, x, Evaluate(Linear, x))
	}
}

func TestCurveShapes(t *testing.T) {
	assert.InDelta(t, 0.5, Evaluate(EaseInOut, 0.5), 1e-6)
	assert.Less(t, Evaluate(EaseIn, 0.3), 0.3)
	assert.Greater(t, Evaluate(EaseOut, 0.3), 0.3)
	assert.Greater(t, Evaluate(Ease, 0.5), 0.5)
}

func TestEvaluateClampsInput(t *testing.T) {
	assert.Equal(t, 0.0, Evaluate(EaseIn, -2))
	assert.InDelta(t, 1.0, Evaluate(EaseOut, 3), 1e-9)
	assert.Equal(t, 0.0, Evaluate(Ease, math.NaN()))
}

func TestCurveStaysInRange(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("eased progress stays within [0,1]", prop.ForAll(
		func(x float64, idx int) bool {
			y := Evaluate(Curves[idx], x)
			return !math.IsNaN(y) && y >= 0 && y <= 1
		},
		gen.Float64Range(0, 1),
		gen.IntRange(0, len(Curves)-1),
	))

	properties.TestingRun(t)
}

func TestParseCurve(t *testing.T) {
	tests := map[string]Curve{
		"linear":      Linear,
		"Ease":        Ease,
		"ease-in":     EaseIn,
		"EaseOut":     EaseOut,
		"ease_in_out": EaseInOut,
	}
	for in, want := range tests {
		got, err := ParseCurve(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseCurve("bounce")
	assert.Error(t, err)
}

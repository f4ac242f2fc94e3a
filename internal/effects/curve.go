package effects

import (
	"fmt"
	"math"
	"strings"
)

// Curve is an easing function mapping linear progress to eased progress.
type Curve int

const (
	Linear Curve = iota
	Ease
	EaseIn
	EaseOut
	EaseInOut
)

var curveNames = map[Curve]string{
	Linear:    "linear",
	Ease:      "ease",
	EaseIn:    "ease-in",
	EaseOut:   "ease-out",
	EaseInOut: "ease-in-out",
}

// Curves lists every curve in declaration order.
var Curves = []Curve{Linear, Ease, EaseIn, EaseOut, EaseInOut}

func (c Curve) String() string {
	if n, ok := curveNames[c]; ok {
		return n
	}
	return fmt.Sprintf("curve(%d)", int(c))
}

// ParseCurve accepts the names produced by String, case-insensitively, as
// well as the CamelCase spellings ("EaseInOut").
func ParseCurve(s string) (Curve, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("_", "-", " ", "-").Replace(norm)
	switch norm {
	case "linear", "":
		return Linear, nil
	case "ease":
		return Ease, nil
	case "ease-in", "easein":
		return EaseIn, nil
	case "ease-out", "easeout":
		return EaseOut, nil
	case "ease-in-out", "easeinout":
		return EaseInOut, nil
	}
	return Linear, fmt.Errorf("effects: unknown transition %q", s)
}

type bezier struct {
	x1, y1, x2, y2 float64
}

var bezierPoints = map[Curve]bezier{
	Ease:      {0.25, 0.10, 0.25, 1.00},
	EaseIn:    {0.42, 0.00, 1.00, 1.00},
	EaseOut:   {0.00, 0.00, 0.58, 1.00},
	EaseInOut: {0.42, 0.00, 0.58, 1.00},
}

const (
	newtonIterations = 50
	newtonTolerance  = 0.01
)

// Evaluate maps x in [0,1] through the curve. Input outside the range is
// clamped.
func Evaluate(c Curve, x float64) float64 {
	x = clamp01(x)
	b, ok := bezierPoints[c]
	if !ok {
		return x
	}
	t := b.solveT(x)
	return cubic(t, b.y1, b.y2)
}

// solveT inverts x(t) with Newton-Raphson seeded at t=x. The coarse
// tolerance matches the reference easing tables.
func (b bezier) solveT(x float64) float64 {
	t := x
	for i := 0; i < newtonIterations; i++ {
		d := cubicDerivative(t, b.x1, b.x2)
		next := t - (cubic(t, b.x1, b.x2)-x)/d
		if math.IsNaN(next) || math.IsInf(next, 0) {
			break
		}
		delta := math.Abs(next - t)
		t = next
		if delta < newtonTolerance {
			break
		}
	}
	return clamp01(t)
}

// cubic evaluates one axis of the bezier with P0=0 and P3=1.
func cubic(t, p1, p2 float64) float64 {
	mt := 1 - t
	return 3*mt*mt*t*p1 + 3*mt*t*t*p2 + t*t*t
}

func cubicDerivative(t, p1, p2 float64) float64 {
	mt := 1 - t
	return 3*mt*mt*p1 + 6*mt*t*(p2-p1) + 3*t*t*(1-p2)
}

// lerp performs linear interpolation between a and b.
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

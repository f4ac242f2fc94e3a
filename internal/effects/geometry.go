package effects

// Geometry is the per-frame transform of a component after its effects
// have been folded in. It is recomputed on every frame query.
type Geometry struct {
	X, Y     int
	Rotation float64 // degrees
	Alpha    int     // 0..255
	ScaleX   float64
	ScaleY   float64
}

// DefaultGeometry is the identity transform.
func DefaultGeometry() Geometry {
	return Geometry{Alpha: 255, ScaleX: 1, ScaleY: 1}
}

func clampAlpha(a int) int {
	if a < 0 {
		return 0
	}
	if a > 255 {
		return 255
	}
	return a
}

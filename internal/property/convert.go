package property

import (
	"fmt"
	"image/color"
	"math"
	"sort"
	"strconv"
	"strings"
)

// FromPlain converts a decoded JSON/YAML value into a Value. Strings of the
// form "#rrggbb" or "#rrggbbaa" become colors, two-element numeric lists
// become pairs.
func FromPlain(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return nil, fmt.Errorf("property: null value")
	case bool:
		if x {
			return Integer(1), nil
		}
		return Integer(0), nil
	case int:
		return Integer(x), nil
	case int64:
		return Integer(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return Float(float64(x)), nil
		}
		return Integer(x), nil
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return Integer(int64(x)), nil
		}
		return Float(x), nil
	case string:
		if c, ok := parseHexColor(x); ok {
			return Color(c), nil
		}
		return Text(x), nil
	case []any:
		if len(x) == 2 {
			a, okA := number(x[0])
			b, okB := number(x[1])
			if okA && okB {
				return Pair{A: a, B: b}, nil
			}
		}
		seq := make(Sequence, 0, len(x))
		for i, item := range x {
			pv, err := FromPlain(item)
			if err != nil {
				return nil, fmt.Errorf("property: item %d: %w", i, err)
			}
			seq = append(seq, pv)
		}
		return seq, nil
	case map[string]any:
		m := make(Map, len(x))
		for k, item := range x {
			pv, err := FromPlain(item)
			if err != nil {
				return nil, fmt.Errorf("property: key %q: %w", k, err)
			}
			m[k] = pv
		}
		return m, nil
	}
	return nil, fmt.Errorf("property: unsupported value type %T", v)
}

// ToPlain is the inverse of FromPlain. Time values become milliseconds and
// choices become the selected option.
func ToPlain(v Value) any {
	switch x := v.(type) {
	case Integer:
		return int64(x)
	case Float:
		return float64(x)
	case Time:
		return uint64(x)
	case Text:
		return string(x)
	case Color:
		return formatHexColor(color.RGBA(x))
	case Pair:
		return []any{x.A, x.B}
	case Choice:
		return x.Value()
	case Sequence:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = ToPlain(item)
		}
		return out
	case Map:
		out := make(map[string]any, len(x))
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out[k] = ToPlain(x[k])
		}
		return out
	}
	return nil
}

func number(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

func parseHexColor(s string) (color.RGBA, bool) {
	if !strings.HasPrefix(s, "#") || (len(s) != 7 && len(s) != 9) {
		return color.RGBA{}, false
	}
	n, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	if len(s) == 7 {
		return color.RGBA{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n), A: 0xff}, true
	}
	return color.RGBA{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: uint8(n)}, true
}

func formatHexColor(c color.RGBA) string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

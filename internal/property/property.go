// Package property holds the typed values stored in component and effect
// property bags. Value is a closed sum type; callers convert with the As*
// helpers, which return a *MismatchError instead of guessing.
package property

import (
	"fmt"
	"image/color"
	"sort"
	"strings"

	"github.com/ivlev/compositor/internal/timecode"
)

type Kind int

const (
	KindInteger Kind = iota
	KindFloat
	KindTime
	KindColor
	KindPair
	KindChoice
	KindSequence
	KindMap
	KindText
)

var kindNames = [...]string{"integer", "float", "time", "color", "pair", "choice", "sequence", "map", "text"}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Value is implemented only by the types in this package.
type Value interface {
	Kind() Kind
	sealed()
}

type (
	Integer int64
	Float   float64
	Time    timecode.Time
	Text    string
	Color   color.RGBA
	Pair    struct{ A, B float64 }
	// Choice is one option out of a closed list.
	Choice struct {
		Options  []string
		Selected int
	}
	Sequence []Value
	Map      map[string]Value
)

func (Integer) Kind() Kind  { return KindInteger }
func (Float) Kind() Kind    { return KindFloat }
func (Time) Kind() Kind     { return KindTime }
func (Text) Kind() Kind     { return KindText }
func (Color) Kind() Kind    { return KindColor }
func (Pair) Kind() Kind     { return KindPair }
func (Choice) Kind() Kind   { return KindChoice }
func (Sequence) Kind() Kind { return KindSequence }
func (Map) Kind() Kind      { return KindMap }

func (Integer) sealed()  {}
func (Float) sealed()    {}
func (Time) sealed()     {}
func (Text) sealed()     {}
func (Color) sealed()    {}
func (Pair) sealed()     {}
func (Choice) sealed()   {}
func (Sequence) sealed() {}
func (Map) sealed()      {}

// Value returns the selected option, or "" when the index is out of range.
func (c Choice) Value() string {
	if c.Selected < 0 || c.Selected >= len(c.Options) {
		return ""
	}
	return c.Options[c.Selected]
}

// NewChoice selects value from options.
func NewChoice(options []string, value string) (Choice, error) {
	for i, o := range options {
		if o == value {
			return Choice{Options: options, Selected: i}, nil
		}
	}
	return Choice{}, fmt.Errorf("property: %q is not one of %s", value, strings.Join(options, ", "))
}

// MismatchError reports a conversion to the wrong kind.
type MismatchError struct {
	Want Kind
	Got  Kind
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("property: expected %s value, got %s", e.Want, e.Got)
}

func mismatch(want Kind, v Value) error {
	got := Kind(-1)
	if v != nil {
		got = v.Kind()
	}
	return &MismatchError{Want: want, Got: got}
}

// AsInteger accepts Integer, and Float values with no fractional part.
func AsInteger(v Value) (int64, error) {
	switch x := v.(type) {
	case Integer:
		return int64(x), nil
	case Float:
		if float64(x) == float64(int64(x)) {
			return int64(x), nil
		}
	}
	return 0, mismatch(KindInteger, v)
}

// AsFloat accepts Float and Integer values.
func AsFloat(v Value) (float64, error) {
	switch x := v.(type) {
	case Float:
		return float64(x), nil
	case Integer:
		return float64(x), nil
	}
	return 0, mismatch(KindFloat, v)
}

// AsTime accepts Time and non-negative Integer (milliseconds) values.
func AsTime(v Value) (timecode.Time, error) {
	switch x := v.(type) {
	case Time:
		return timecode.Time(x), nil
	case Integer:
		if x >= 0 {
			return timecode.Time(x), nil
		}
	}
	return 0, mismatch(KindTime, v)
}

func AsText(v Value) (string, error) {
	if x, ok := v.(Text); ok {
		return string(x), nil
	}
	return "", mismatch(KindText, v)
}

func AsColor(v Value) (color.RGBA, error) {
	if x, ok := v.(Color); ok {
		return color.RGBA(x), nil
	}
	return color.RGBA{}, mismatch(KindColor, v)
}

func AsPair(v Value) (Pair, error) {
	if x, ok := v.(Pair); ok {
		return x, nil
	}
	return Pair{}, mismatch(KindPair, v)
}

func AsChoice(v Value) (Choice, error) {
	if x, ok := v.(Choice); ok {
		return x, nil
	}
	return Choice{}, mismatch(KindChoice, v)
}

func AsSequence(v Value) (Sequence, error) {
	if x, ok := v.(Sequence); ok {
		return x, nil
	}
	return nil, mismatch(KindSequence, v)
}

func AsMap(v Value) (Map, error) {
	if x, ok := v.(Map); ok {
		return x, nil
	}
	return nil, mismatch(KindMap, v)
}

// Bag is a set of named values.
type Bag map[string]Value

// Clone returns a shallow copy.
func (b Bag) Clone() Bag {
	out := make(Bag, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Keys returns the names in sorted order.
func (b Bag) Keys() []string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (b Bag) Text(name, fallback string) string {
	if v, ok := b[name]; ok {
		if s, err := AsText(v); err == nil {
			return s
		}
	}
	return fallback
}

func (b Bag) Float(name string, fallback float64) float64 {
	if v, ok := b[name]; ok {
		if f, err := AsFloat(v); err == nil {
			return f
		}
	}
	return fallback
}

func (b Bag) Integer(name string, fallback int64) int64 {
	if v, ok := b[name]; ok {
		if i, err := AsInteger(v); err == nil {
			return i
		}
	}
	return fallback
}

func (b Bag) Color(name string, fallback color.RGBA) color.RGBA {
	if v, ok := b[name]; ok {
		if c, err := AsColor(v); err == nil {
			return c
		}
	}
	return fallback
}

// Equal reports whether two values hold the same kind and content.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case Sequence:
		y := b.(Sequence)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case Map:
		y := b.(Map)
		if len(x) != len(y) {
			return false
		}
		for k, v := range x {
			if !Equal(v, y[k]) {
				return false
			}
		}
		return true
	case Choice:
		return x.Value() == b.(Choice).Value()
	default:
		return a == b
	}
}

package property

import (
	"errors"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversionsRejectWrongKind(t *testing.T) {
	_, err := AsInteger(Text("12"))
	var mm *MismatchError
	require.True(t, errors.As(err, &mm))
	assert.Equal(t, KindInteger, mm.Want)
	assert.Equal(t, KindText, mm.Got)

	_, err = AsInteger(Float(1.5))
	assert.Error(t, err)

	i, err := AsInteger(Float(3))
	require.NoError(t, err)
	assert.Equal(t, int64(3), i)

	f, err := AsFloat(Integer(7))
	require.NoError(t, err)
	assert.Equal(t, 7.0, f)

	_, err = AsTime(Integer(-1))
	assert.Error(t, err)

	_, err = AsColor(nil)
	assert.Error(t, err)
}

func TestChoice(t *testing.T) {
	c, err := NewChoice([]string{"regular", "bold"}, "bold")
	require.NoError(t, err)
	assert.Equal(t, "bold", c.Value())

	_, err = NewChoice([]string{"regular"}, "mono")
	assert.Error(t, err)
}

func TestFromPlain(t *testing.T) {
	v, err := FromPlain("#ff8000")
	require.NoError(t, err)
	assert.Equal(t, Color(color.RGBA{R: 255, G: 128, A: 255}), v)

	v, err = FromPlain([]any{1.0, 2.5})
	require.NoError(t, err)
	assert.Equal(t, Pair{A: 1, B: 2.5}, v)

	v, err = FromPlain(map[string]any{"n": 4.0, "s": "x", "l": []any{"a", "b", "c"}})
	require.NoError(t, err)
	m, err := AsMap(v)
	require.NoError(t, err)
	assert.Equal(t, Integer(4), m["n"])
	assert.Equal(t, Sequence{Text("a"), Text("b"), Text("c")}, m["l"])

	_, err = FromPlain(nil)
	assert.Error(t, err)
}

func TestPlainRoundTrip(t *testing.T) {
	values := []Value{
		Integer(42),
		Float(0.5),
		Text("hello"),
		Color(color.RGBA{R: 1, G: 2, B: 3, A: 4}),
		Pair{A: 3, B: 4.5},
		Map{"k": Text("v")},
	}
	for _, v := range values {
		back, err := FromPlain(ToPlain(v))
		require.NoError(t, err)
		assert.True(t, Equal(v, back), "%v != %v", v, back)
	}
}

func TestBagAccessors(t *testing.T) {
	b := Bag{"text": Text("hi"), "size": Integer(24), "color": Color(color.RGBA{A: 255})}
	assert.Equal(t, "hi", b.Text("text", ""))
	assert.Equal(t, 24.0, b.Float("size", 0))
	assert.Equal(t, int64(9), b.Integer("missing", 9))
	assert.Equal(t, "fallback", b.Text("size", "fallback"))
	assert.Equal(t, []string{"color", "size", "text"}, b.Keys())

	clone := b.Clone()
	clone["text"] = Text("changed")
	assert.Equal(t, "hi", b.Text("text", ""))
}

package dtpayload

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFieldSet(t *testing.T) {
	fields, err := Decode(1, scenarioPayload)
	require.NoError(t, err)
	fs := NewFieldSet(fields)
	require.Equal(t, 8, fs.Len())

	year, err := fs.Uint8("Year")
	require.NoError(t, err)
	require.Equal(t, uint8(24), year)

	deg, err := fs.Float("Degrees")
	require.NoError(t, err)
	require.Equal(t, 52.0, deg)

	s, err := fs.String("Fractional_degrees")
	require.NoError(t, err)
	require.Equal(t, "91", s)

	_, err = fs.Int("Latitude")
	require.Error(t, err)
}

func TestFieldSetConversions(t *testing.T) {
	fs := NewFieldSet(map[string]any{
		"big":    300,
		"number": json.Number("17"),
		"text":   "12",
		"bad":    []int{1},
	})
	_, err := fs.Uint8("big")
	require.Error(t, err)

	n, err := fs.Int("number")
	require.NoError(t, err)
	require.Equal(t, int64(17), n)

	b, err := fs.Uint8("text")
	require.NoError(t, err)
	require.Equal(t, uint8(12), b)

	_, err = fs.Int("bad")
	require.Error(t, err)

	var empty FieldSet
	_, ok := empty.Raw("Year")
	require.False(t, ok)
}

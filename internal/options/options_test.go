package options

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseKeyHex(t *testing.T) {
	key, err := ParseKeyHex("2B7E1516 28AED2A6 ABF71588 09CF4F3C")
	require.NoError(t, err)
	require.Len(t, key, 16)
	require.Equal(t, byte(0x2B), key[0])
	require.Equal(t, byte(0x3C), key[15])
}

func TestParseKeyHexEmpty(t *testing.T) {
	key, err := ParseKeyHex("   ")
	require.NoError(t, err)
	require.Nil(t, key)
}

func TestParseKeyHexRejects(t *testing.T) {
	_, err := ParseKeyHex("ABCD")
	require.Error(t, err)
	require.Contains(t, err.Error(), "32 hex digits")

	_, err = ParseKeyHex(strings.Repeat("Z", 32))
	require.Error(t, err)
}

func TestKeysInContext(t *testing.T) {
	app := []byte{1, 2, 3}
	ctx := WithAppSKey(context.Background(), app)
	ctx = WithNwkSKey(ctx, []byte{9})

	app[0] = 42
	require.Equal(t, []byte{1, 2, 3}, AppSKey(ctx))
	require.Equal(t, []byte{9}, NwkSKey(ctx))

	require.Nil(t, AppSKey(context.Background()))
	require.Equal(t, context.Background(), WithNwkSKey(context.Background(), nil))
}

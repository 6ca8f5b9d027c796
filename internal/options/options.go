package options

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"
)

type (
	appSKeyKey struct{}
	nwkSKeyKey struct{}
)

// WithAppSKey stores a copy of the application session key inside the context.
func WithAppSKey(ctx context.Context, key []byte) context.Context {
	return withKey(ctx, appSKeyKey{}, key)
}

// AppSKey retrieves the application session key from context if present.
func AppSKey(ctx context.Context) []byte {
	return keyFrom(ctx, appSKeyKey{})
}

// WithNwkSKey stores a copy of the network session key inside the context.
func WithNwkSKey(ctx context.Context, key []byte) context.Context {
	return withKey(ctx, nwkSKeyKey{}, key)
}

// NwkSKey retrieves the network session key from context if present.
func NwkSKey(ctx context.Context) []byte {
	return keyFrom(ctx, nwkSKeyKey{})
}

func withKey(ctx context.Context, k any, key []byte) context.Context {
	if len(key) == 0 {
		return ctx
	}
	buf := make([]byte, len(key))
	copy(buf, key)
	return context.WithValue(ctx, k, buf)
}

func keyFrom(ctx context.Context, k any) []byte {
	if v := ctx.Value(k); v != nil {
		if key, ok := v.([]byte); ok {
			return key
		}
	}
	return nil
}

// ParseKeyHex validates and decodes a 32-hex-digit AES-128 session key.
func ParseKeyHex(input string) ([]byte, error) {
	if strings.TrimSpace(input) == "" {
		return nil, nil
	}
	clean := stripWhitespace(input)
	if len(clean) != 32 {
		return nil, fmt.Errorf("session key must be 32 hex digits (16 bytes), got %d", len(clean))
	}
	dst := make([]byte, 16)
	if _, err := hex.Decode(dst, []byte(clean)); err != nil {
		return nil, fmt.Errorf("invalid session key hex: %w", err)
	}
	return dst, nil
}

func stripWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

package dtpayload

import (
	"context"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/brocaar/lorawan"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/usnistgov/lpwan-iot/internal/testutil"
)

var scenarioPayload = []byte{24, 6, 15, 10, 30, 45, 52, 91}

func TestDecodeHex(t *testing.T) {
	raw := " |1806_0F0A 1E2D345B| "
	data, err := decodeHex(raw)
	require.NoError(t, err)
	require.Equal(t, scenarioPayload, data)

	data, err = decodeHex("0x18060f0a1e2d345b")
	require.NoError(t, err)
	require.Equal(t, scenarioPayload, data)
}

func TestDecodeHexOddLength(t *testing.T) {
	_, err := decodeHex("ABC")
	require.Error(t, err)
}

func TestDecode(t *testing.T) {
	fields, err := Decode(1, scenarioPayload)
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"Year":               24,
		"Month":              6,
		"Day":                15,
		"Hours":              10,
		"Minutes":            30,
		"Seconds":            45,
		"Degrees":            52,
		"Fractional_degrees": 91,
	}, fields)

	again, err := Decode(1, scenarioPayload)
	require.NoError(t, err)
	require.Equal(t, fields, again)
}

func TestDecodeOtherPorts(t *testing.T) {
	for _, port := range []int{0, 2, 3, 224, 255, -1, 256} {
		fields, err := Decode(port, scenarioPayload)
		require.NoError(t, err, "port %d", port)
		require.NotNil(t, fields, "port %d", port)
		require.Empty(t, fields, "port %d", port)
	}
}

func TestDecodeShortPayload(t *testing.T) {
	_, err := Decode(1, scenarioPayload[:5])
	require.ErrorIs(t, err, ErrInvalidPayload)
	var invalid *InvalidPayloadError
	require.True(t, errors.As(err, &invalid))
	require.Equal(t, 5, invalid.Length)
	require.Contains(t, err.Error(), "payload too short for port 1")

	fields, err := Decode(2, scenarioPayload[:5])
	require.NoError(t, err)
	require.Empty(t, fields)
}

func TestDecodeReading(t *testing.T) {
	r, ok, err := DecodeReading(1, scenarioPayload)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint8(91), r.FractionalDegrees)

	_, ok, err = DecodeReading(2, scenarioPayload)
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = DecodeReading(1, nil)
	require.ErrorIs(t, err, ErrInvalidPayload)
	require.False(t, ok)
}

func TestAnalyzeHex(t *testing.T) {
	result, err := AnalyzeHex(context.Background(), "18060F0A1E2D345B")
	require.NoError(t, err)
	require.Equal(t, "datataker", result.Driver)
	require.Equal(t, 8, result.ByteCount)
	require.Equal(t, "18060F0A1E2D345B", result.RawHex)
	require.NotNil(t, result.Uplink)

	reading, ok := result.Reading()
	require.True(t, ok)
	require.Equal(t, uint8(24), reading.Year)

	rendered := result.String()
	require.Contains(t, rendered, `"driver": "datataker"`)
	require.Contains(t, rendered, `"time": "2024-06-15T10:30:45Z"`)
	require.Contains(t, rendered, `"Fractional_degrees": 91`)
}

func TestAnalyzeHexUnknownPort(t *testing.T) {
	result, err := AnalyzeHexWithOptions(context.Background(), "18060F0A1E2D345B", AnalyzeOptions{Port: 2})
	require.NoError(t, err)
	require.Equal(t, "unknown", result.Driver)
	require.Empty(t, result.Fields)
	_, ok := result.Reading()
	require.False(t, ok)

	result, err = AnalyzeHexWithOptions(context.Background(), "18060F0A1E2D345B", AnalyzeOptions{Port: 300})
	require.NoError(t, err)
	require.Equal(t, "unknown", result.Driver)
	require.Empty(t, result.Fields)
}

func TestAnalyzeHexShort(t *testing.T) {
	result, err := AnalyzeHex(context.Background(), "1806")
	require.ErrorIs(t, err, ErrInvalidPayload)
	require.Equal(t, 2, result.ByteCount)
}

func TestAnalyzeHexRejectsBadKey(t *testing.T) {
	_, err := AnalyzeHexWithOptions(context.Background(), "18060F0A1E2D345B", AnalyzeOptions{Port: 1, AppSKeyHex: "AB"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "appskey")
}

func TestAnalyzePHY(t *testing.T) {
	appSKey := lorawan.AES128Key{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	nwkSKey := lorawan.AES128Key{16, 15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1}
	raw := testutil.BuildPHY(t, testutil.Uplink{
		DevAddr: lorawan.DevAddr{0x26, 0x02, 0x15, 0x0A},
		FCnt:    3,
		FPort:   1,
		Payload: scenarioPayload,
		AppSKey: appSKey,
		NwkSKey: nwkSKey,
	})
	input := upperHex(raw)
	ctx := context.Background()

	result, err := AnalyzeHexWithOptions(ctx, input, AnalyzeOptions{
		PHY:        true,
		AppSKeyHex: upperHex(appSKey[:]),
		NwkSKeyHex: upperHex(nwkSKey[:]),
	})
	require.NoError(t, err)
	require.Equal(t, "datataker", result.Driver)
	require.Equal(t, 52, result.Fields["Degrees"])
	require.Equal(t, "2602150a", result.Uplink.DevAddrString())
	require.Contains(t, result.String(), `"dev_addr": "2602150a"`)

	_, err = AnalyzeHexWithOptions(ctx, input, AnalyzeOptions{PHY: true})
	require.ErrorIs(t, err, ErrKeyRequired)

	_, err = AnalyzeHexWithOptions(ctx, input, AnalyzeOptions{
		PHY:        true,
		AppSKeyHex: upperHex(appSKey[:]),
		NwkSKeyHex: upperHex(appSKey[:]),
	})
	require.ErrorIs(t, err, ErrInvalidMIC)
}

func TestResultYAML(t *testing.T) {
	result, err := AnalyzeHex(context.Background(), "12090410 28001732")
	require.NoError(t, err)
	out, err := result.YAML()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	require.Equal(t, "datataker", decoded["driver"])
	fields, ok := decoded["fields"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, 23, fields["Degrees"])
	require.Equal(t, 50, fields["Fractional_degrees"])
}

func TestPorts(t *testing.T) {
	require.Equal(t, "datataker", Ports()[1])
}

func upperHex(b []byte) string {
	return strings.ToUpper(hex.EncodeToString(b))
}

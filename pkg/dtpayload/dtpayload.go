package dtpayload

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"

	"github.com/usnistgov/lpwan-iot/internal/crypto"
	"github.com/usnistgov/lpwan-iot/internal/driver"
	"github.com/usnistgov/lpwan-iot/internal/driver/datataker"
	"github.com/usnistgov/lpwan-iot/internal/frame"
	internalopts "github.com/usnistgov/lpwan-iot/internal/options"
)

const unknownDriver = "unknown"

// Reading is a decoded port 1 datalogger record.
type Reading = datataker.Reading

// InvalidPayloadError reports a payload shorter than its port's layout.
type InvalidPayloadError = datataker.InvalidPayloadError

var (
	// ErrInvalidPayload matches every InvalidPayloadError.
	ErrInvalidPayload = datataker.ErrInvalidPayload
	// ErrKeyRequired is returned for PHYPayload input without an AppSKey.
	ErrKeyRequired = crypto.ErrKeyRequired
	// ErrInvalidMIC is returned when the NwkSKey does not validate the uplink.
	ErrInvalidMIC = crypto.ErrInvalidMIC
)

// Decode is the payload decoder hook: it maps an uplink's fPort and payload
// to named integer fields. Ports without a decoder yield an empty map.
func Decode(port int, data []byte) (map[string]any, error) {
	if port < 0 || port > 255 {
		return map[string]any{}, nil
	}
	u := frame.New(uint8(port), data)
	_, fields, err := decodeUplink(context.Background(), &u)
	return fields, err
}

// DecodeReading returns the typed reading of a port 1 payload. The boolean
// is false, with a nil error, for any other port.
func DecodeReading(port int, data []byte) (Reading, bool, error) {
	if port != int(datataker.Port) {
		return Reading{}, false, nil
	}
	r, err := datataker.Decode(data)
	if err != nil {
		return Reading{}, false, err
	}
	return r, true, nil
}

// AnalyzeHex decodes a hex payload sent on the default fPort.
func AnalyzeHex(ctx context.Context, raw string) (Result, error) {
	return AnalyzeHexWithOptions(ctx, raw, AnalyzeOptions{Port: DefaultPort})
}

// AnalyzeHexWithOptions parses the input, selects a driver, and returns
// decoded data.
func AnalyzeHexWithOptions(ctx context.Context, raw string, opts AnalyzeOptions) (Result, error) {
	ctx, err := opts.toInternal(ctx)
	if err != nil {
		return Result{}, err
	}
	data, err := decodeHex(raw)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		Driver:    unknownDriver,
		RawHex:    strings.ToUpper(hex.EncodeToString(data)),
		ByteCount: len(data),
		Fields:    map[string]any{},
	}

	var u frame.Uplink
	if opts.PHY {
		u, err = frame.ParsePHY(data)
		if err != nil {
			return result, err
		}
	} else {
		if opts.Port < 0 || opts.Port > 255 {
			logrus.WithField("f_port", opts.Port).Debug("fPort out of range, nothing to decode")
			return result, nil
		}
		u = frame.New(uint8(opts.Port), data)
	}
	result.Uplink = &u

	if err := crypto.VerifyMIC(&u, internalopts.NwkSKey(ctx)); err != nil {
		return result, err
	}
	if err := crypto.Decrypt(&u, internalopts.AppSKey(ctx)); err != nil {
		return result, err
	}

	name, fields, err := decodeUplink(ctx, &u)
	if err != nil {
		return result, err
	}
	result.Driver = name
	result.Fields = fields
	return result, nil
}

func decodeUplink(ctx context.Context, u *frame.Uplink) (string, map[string]any, error) {
	drv, err := driver.Lookup(driver.Detection{FPort: u.FPort})
	if errors.Is(err, driver.ErrNoDriver) {
		logrus.WithField("f_port", u.FPort).Debug("no payload driver for fPort")
		return unknownDriver, map[string]any{}, nil
	}
	if err != nil {
		return unknownDriver, nil, err
	}
	fields, err := drv.Process(ctx, u)
	if err != nil {
		return drv.Name(), nil, fmt.Errorf("%s: %w", drv.Name(), err)
	}
	return drv.Name(), fields, nil
}

// Ports lists the fPorts with a registered payload driver.
func Ports() map[int]string {
	out := make(map[int]string)
	for det, name := range driver.Registered() {
		out[int(det.FPort)] = name
	}
	return out
}

func decodeHex(input string) ([]byte, error) {
	clean := strings.ToUpper(stripWhitespace(input))
	if strings.HasPrefix(clean, "0X") {
		clean = clean[2:]
	}
	if len(clean)%2 != 0 {
		return nil, fmt.Errorf("hex payload must contain an even number of digits, got %d", len(clean))
	}
	decoded := make([]byte, len(clean)/2)
	if _, err := hex.Decode(decoded, []byte(clean)); err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return decoded, nil
}

func stripWhitespace(s string) string {
	builder := strings.Builder{}
	builder.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) || r == '|' || r == '_' {
			continue
		}
		builder.WriteRune(r)
	}
	return builder.String()
}

package dtpayload

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/usnistgov/lpwan-iot/internal/driver/datataker"
	"github.com/usnistgov/lpwan-iot/internal/frame"
)

// Result captures the outcome of AnalyzeHex.
type Result struct {
	Driver    string
	RawHex    string
	ByteCount int
	Uplink    *frame.Uplink
	Fields    map[string]any
}

// Reading returns the typed reading when the datataker driver decoded the
// uplink.
func (r Result) Reading() (Reading, bool) {
	if r.Uplink == nil || r.Driver != (datataker.Driver{}).Name() {
		return Reading{}, false
	}
	reading, err := datataker.Decode(r.Uplink.Payload)
	if err != nil {
		return Reading{}, false
	}
	return reading, true
}

func (r Result) summary() map[string]any {
	summary := map[string]any{
		"driver":     r.Driver,
		"byte_count": r.ByteCount,
		"raw_hex":    r.RawHex,
		"fields":     r.Fields,
	}
	if u := r.Uplink; u != nil {
		summary["f_port"] = int(u.FPort)
		if u.PHY != nil {
			summary["dev_addr"] = u.DevAddrString()
			summary["fcnt"] = u.FCnt
			summary["m_type"] = fmt.Sprintf("%v", u.MType)
		}
	}
	if reading, ok := r.Reading(); ok {
		if ts, err := reading.Time(); err == nil {
			summary["time"] = ts.Format(time.RFC3339)
		}
		summary["value"] = reading.Value()
	}
	return summary
}

// String renders a human-readable representation of the result.
func (r Result) String() string {
	data, err := json.MarshalIndent(r.summary(), "", "  ")
	if err != nil {
		return fmt.Sprintf("driver: %s bytes:%d raw:%s (marshal error: %v)", r.Driver, r.ByteCount, r.RawHex, err)
	}
	return string(data)
}

// YAML renders the same summary as String in YAML.
func (r Result) YAML() (string, error) {
	data, err := yaml.Marshal(r.summary())
	if err != nil {
		return "", fmt.Errorf("marshal yaml: %w", err)
	}
	return string(data), nil
}

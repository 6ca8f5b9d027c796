package datataker

import (
	"context"

	"github.com/usnistgov/lpwan-iot/internal/driver"
	"github.com/usnistgov/lpwan-iot/internal/frame"
)

// Port is the fPort the FiPy firmware binds its uplink socket to.
const Port uint8 = 1

func init() {
	driver.Register(driver.Detection{FPort: Port}, Driver{})
}

// Driver decodes dataTaker time/temperature records relayed by the FiPy.
type Driver struct{}

var _ driver.Driver = Driver{}

// Name returns the canonical driver name.
func (Driver) Name() string { return "datataker" }

// Process returns the eight reading fields of a port 1 uplink.
func (Driver) Process(_ context.Context, u *frame.Uplink) (map[string]any, error) {
	r, err := Decode(u.Payload)
	if err != nil {
		return nil, err
	}
	return r.Fields(), nil
}

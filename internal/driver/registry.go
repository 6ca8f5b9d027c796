package driver

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/usnistgov/lpwan-iot/internal/frame"
)

// ErrNoDriver is returned by Lookup when no driver handles the fPort.
var ErrNoDriver = errors.New("driver not found")

// Detection contains the information required to select a driver.
type Detection struct {
	FPort uint8
}

// Driver processes uplinks once selected.
type Driver interface {
	Name() string
	Process(context.Context, *frame.Uplink) (map[string]any, error)
}

var (
	regMu    sync.RWMutex
	registry []registeredDriver
)

type registeredDriver struct {
	detect Detection
	driver Driver
}

// Register stores a driver/detection pair in memory.
func Register(det Detection, drv Driver) {
	regMu.Lock()
	defer regMu.Unlock()
	registry = append(registry, registeredDriver{detect: det, driver: drv})
}

// Lookup returns the first driver that matches the detection key.
func Lookup(det Detection) (Driver, error) {
	regMu.RLock()
	defer regMu.RUnlock()
	for _, rd := range registry {
		if rd.detect.FPort == det.FPort {
			return rd.driver, nil
		}
	}
	return nil, fmt.Errorf("%w for fPort %d", ErrNoDriver, det.FPort)
}

// Registered maps each detection to the name of the driver Lookup would pick.
func Registered() map[Detection]string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make(map[Detection]string, len(registry))
	for _, rd := range registry {
		if _, ok := out[rd.detect]; !ok {
			out[rd.detect] = rd.driver.Name()
		}
	}
	return out
}

// Ports returns the registered fPorts in ascending order.
func Ports() []uint8 {
	reg := Registered()
	ports := make([]uint8, 0, len(reg))
	for det := range reg {
		ports = append(ports, det.FPort)
	}
	sort.Slice(ports, func(i, j int) bool { return ports[i] < ports[j] })
	return ports
}

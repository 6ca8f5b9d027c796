package dtpayload

import (
	"context"
	"fmt"

	internalopts "github.com/usnistgov/lpwan-iot/internal/options"
)

// DefaultPort is the fPort the datalogger firmware transmits on.
const DefaultPort = 1

// AnalyzeOptions configures parsing.
type AnalyzeOptions struct {
	// Port is the fPort of a bare application payload. Ignored when PHY is
	// set, the PHYPayload carries its own FPort.
	Port int
	// PHY marks the input as a complete LoRaWAN PHYPayload.
	PHY        bool
	AppSKeyHex string
	NwkSKeyHex string
}

func (opts AnalyzeOptions) toInternal(ctx context.Context) (context.Context, error) {
	appSKey, err := internalopts.ParseKeyHex(opts.AppSKeyHex)
	if err != nil {
		return ctx, fmt.Errorf("appskey: %w", err)
	}
	nwkSKey, err := internalopts.ParseKeyHex(opts.NwkSKeyHex)
	if err != nil {
		return ctx, fmt.Errorf("nwkskey: %w", err)
	}
	ctx = internalopts.WithAppSKey(ctx, appSKey)
	ctx = internalopts.WithNwkSKey(ctx, nwkSKey)
	return ctx, nil
}

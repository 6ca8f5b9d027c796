package frame

import (
	"errors"
	"fmt"

	"github.com/brocaar/lorawan"
)

// ErrNoFPort is returned for data frames that carry no FRMPayload.
var ErrNoFPort = errors.New("uplink carries no FPort")

// Uplink is the (fPort, payload) pair handed to a payload decoder. When it was
// parsed from a full PHYPayload the LoRaWAN header fields are kept as well.
type Uplink struct {
	Raw       []byte
	FPort     uint8
	Payload   []byte
	DevAddr   lorawan.DevAddr
	FCnt      uint32
	MType     lorawan.MType
	PHY       *lorawan.PHYPayload
	Decrypted bool
}

// New builds an application-level uplink, as delivered by a network server
// after decryption.
func New(port uint8, payload []byte) Uplink {
	return Uplink{
		Raw:       payload,
		FPort:     port,
		Payload:   payload,
		Decrypted: true,
	}
}

// ParsePHY decodes a LoRaWAN 1.0 PHYPayload carrying a data uplink. The
// FRMPayload is left encrypted.
func ParsePHY(raw []byte) (Uplink, error) {
	var phy lorawan.PHYPayload
	if err := phy.UnmarshalBinary(raw); err != nil {
		return Uplink{}, fmt.Errorf("parse PHYPayload: %w", err)
	}
	switch phy.MHDR.MType {
	case lorawan.UnconfirmedDataUp, lorawan.ConfirmedDataUp:
	default:
		return Uplink{}, fmt.Errorf("unsupported message type %v", phy.MHDR.MType)
	}
	mac, ok := phy.MACPayload.(*lorawan.MACPayload)
	if !ok {
		return Uplink{}, fmt.Errorf("unexpected MACPayload type %T", phy.MACPayload)
	}
	if mac.FPort == nil {
		return Uplink{}, ErrNoFPort
	}
	payload, err := DataBytes(mac.FRMPayload)
	if err != nil {
		return Uplink{}, err
	}
	return Uplink{
		Raw:     raw,
		FPort:   *mac.FPort,
		Payload: payload,
		DevAddr: mac.FHDR.DevAddr,
		FCnt:    mac.FHDR.FCnt,
		MType:   phy.MHDR.MType,
		PHY:     &phy,
	}, nil
}

// DataBytes returns a copy of the bytes held by a FRMPayload.
func DataBytes(pl []lorawan.Payload) ([]byte, error) {
	if len(pl) == 0 {
		return []byte{}, nil
	}
	dp, ok := pl[0].(*lorawan.DataPayload)
	if !ok {
		return nil, fmt.Errorf("unexpected FRMPayload type %T", pl[0])
	}
	out := make([]byte, len(dp.Bytes))
	copy(out, dp.Bytes)
	return out, nil
}

// DevAddrString returns the device address MSB first, or an empty string for
// application-level uplinks.
func (u Uplink) DevAddrString() string {
	if u.PHY == nil {
		return ""
	}
	return u.DevAddr.String()
}

package crypto

import (
	"errors"
	"fmt"

	"github.com/brocaar/lorawan"
	"github.com/sirupsen/logrus"

	"github.com/usnistgov/lpwan-iot/internal/frame"
)

var (
	ErrKeyRequired = errors.New("encrypted uplink: AppSKey required (use --appskey)")
	ErrInvalidMIC  = errors.New("uplink MIC does not match NwkSKey")
)

// VerifyMIC checks the LoRaWAN 1.0 message integrity code of a PHYPayload
// uplink. It must run before Decrypt, the MIC covers the encrypted payload.
// Without a key, or for application-level uplinks, it does nothing.
func VerifyMIC(u *frame.Uplink, nwkSKey []byte) error {
	if u.PHY == nil || len(nwkSKey) == 0 {
		return nil
	}
	key, err := toAES128(nwkSKey)
	if err != nil {
		return err
	}
	ok, err := u.PHY.ValidateUplinkDataMIC(lorawan.LoRaWAN1_0, 0, 0, 0, key, key)
	if err != nil {
		return fmt.Errorf("validate MIC: %w", err)
	}
	if !ok {
		return ErrInvalidMIC
	}
	return nil
}

// Decrypt replaces the uplink payload with the plaintext FRMPayload.
func Decrypt(u *frame.Uplink, appSKey []byte) error {
	if !needsDecryption(u) {
		return nil
	}
	if len(appSKey) == 0 {
		return ErrKeyRequired
	}
	key, err := toAES128(appSKey)
	if err != nil {
		return err
	}
	if err := u.PHY.DecryptFRMPayload(key); err != nil {
		return fmt.Errorf("decrypt FRMPayload: %w", err)
	}
	mac, ok := u.PHY.MACPayload.(*lorawan.MACPayload)
	if !ok {
		return fmt.Errorf("unexpected MACPayload type %T", u.PHY.MACPayload)
	}
	plaintext, err := frame.DataBytes(mac.FRMPayload)
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"dev_addr": u.DevAddrString(),
		"fcnt":     u.FCnt,
		"f_port":   u.FPort,
	}).Debug("decrypted FRMPayload")
	u.Payload = plaintext
	u.Decrypted = true
	return nil
}

// Port 0 carries MAC commands keyed with the NwkSKey; no payload decoder
// consumes them.
func needsDecryption(u *frame.Uplink) bool {
	return u.PHY != nil && !u.Decrypted && u.FPort != 0 && len(u.Payload) > 0
}

func toAES128(b []byte) (lorawan.AES128Key, error) {
	var key lorawan.AES128Key
	if len(b) != len(key) {
		return key, fmt.Errorf("invalid AES key: need %d bytes, got %d", len(key), len(b))
	}
	copy(key[:], b)
	return key, nil
}

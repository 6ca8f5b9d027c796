package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brocaar/lorawan"
)

// LoadJSON loads a JSON fixture from testdata relative to the repo root.
func LoadJSON(t *testing.T, rel string, v any) {
	t.Helper()
	data := readTestdata(t, rel)
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode %s: %v", rel, err)
	}
}

// LoadHex returns a trimmed hex string from testdata relative path.
func LoadHex(t *testing.T, rel string) string {
	t.Helper()
	data := readTestdata(t, rel)
	return strings.TrimSpace(string(data))
}

// LoadText returns the raw contents of a testdata file.
func LoadText(t *testing.T, rel string) string {
	t.Helper()
	return string(readTestdata(t, rel))
}

// Uplink describes a data uplink to be built by BuildPHY.
type Uplink struct {
	DevAddr   lorawan.DevAddr
	FCnt      uint32
	FPort     uint8
	Payload   []byte
	Confirmed bool
	AppSKey   lorawan.AES128Key
	NwkSKey   lorawan.AES128Key
}

// BuildPHY encrypts and signs the uplink and returns the PHYPayload bytes.
func BuildPHY(t *testing.T, u Uplink) []byte {
	t.Helper()
	mtype := lorawan.UnconfirmedDataUp
	if u.Confirmed {
		mtype = lorawan.ConfirmedDataUp
	}
	port := u.FPort
	payload := make([]byte, len(u.Payload))
	copy(payload, u.Payload)
	phy := lorawan.PHYPayload{
		MHDR: lorawan.MHDR{MType: mtype, Major: lorawan.LoRaWANR1},
		MACPayload: &lorawan.MACPayload{
			FHDR:       lorawan.FHDR{DevAddr: u.DevAddr, FCnt: u.FCnt},
			FPort:      &port,
			FRMPayload: []lorawan.Payload{&lorawan.DataPayload{Bytes: payload}},
		},
	}
	if err := phy.EncryptFRMPayload(u.AppSKey); err != nil {
		t.Fatalf("encrypt FRMPayload: %v", err)
	}
	if err := phy.SetUplinkDataMIC(lorawan.LoRaWAN1_0, 0, 0, 0, u.NwkSKey, u.NwkSKey); err != nil {
		t.Fatalf("set MIC: %v", err)
	}
	raw, err := phy.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal PHYPayload: %v", err)
	}
	return raw
}

func readTestdata(t *testing.T, rel string) []byte {
	t.Helper()
	candidates := []string{
		filepath.Join("testdata", rel),
		filepath.Join("..", "testdata", rel),
		filepath.Join("..", "..", "testdata", rel),
		filepath.Join("..", "..", "..", "testdata", rel),
	}
	for _, path := range candidates {
		if data, err := os.ReadFile(path); err == nil {
			return data
		}
	}
	t.Fatalf("unable to locate testdata file %s", rel)
	return nil
}

package datataker

import (
	"errors"
	"fmt"
	"time"
)

const (
	// ReadingLen is the number of payload bytes a port 1 uplink carries.
	ReadingLen = 8
	// YearBase is added to the Year field; the logger sends years since 2000.
	YearBase = 2000
)

// Field names of a decoded reading, in payload order.
const (
	FieldYear              = "Year"
	FieldMonth             = "Month"
	FieldDay               = "Day"
	FieldHours             = "Hours"
	FieldMinutes           = "Minutes"
	FieldSeconds           = "Seconds"
	FieldDegrees           = "Degrees"
	FieldFractionalDegrees = "Fractional_degrees"
)

// FieldNames lists the decoded field names in payload byte order.
var FieldNames = [ReadingLen]string{
	FieldYear,
	FieldMonth,
	FieldDay,
	FieldHours,
	FieldMinutes,
	FieldSeconds,
	FieldDegrees,
	FieldFractionalDegrees,
}

// ErrInvalidPayload matches every InvalidPayloadError.
var ErrInvalidPayload = errors.New("invalid payload")

// InvalidPayloadError reports a payload too short for its port's layout.
type InvalidPayloadError struct {
	Port   uint8
	Length int
	Need   int
}

func (e *InvalidPayloadError) Error() string {
	return fmt.Sprintf("payload too short for port %d: got %d bytes, need %d", e.Port, e.Length, e.Need)
}

// Is lets errors.Is match ErrInvalidPayload.
func (e *InvalidPayloadError) Is(target error) bool {
	return target == ErrInvalidPayload
}

// Reading is one dataTaker record as carried on fPort 1. Each field is a
// single payload byte, copied without scaling.
type Reading struct {
	Year              uint8 `json:"Year" yaml:"Year"`
	Month             uint8 `json:"Month" yaml:"Month"`
	Day               uint8 `json:"Day" yaml:"Day"`
	Hours             uint8 `json:"Hours" yaml:"Hours"`
	Minutes           uint8 `json:"Minutes" yaml:"Minutes"`
	Seconds           uint8 `json:"Seconds" yaml:"Seconds"`
	Degrees           uint8 `json:"Degrees" yaml:"Degrees"`
	FractionalDegrees uint8 `json:"Fractional_degrees" yaml:"Fractional_degrees"`
}

// Decode reads the eight single-byte fields of a port 1 payload. Bytes past
// the eighth are ignored.
func Decode(payload []byte) (Reading, error) {
	if len(payload) < ReadingLen {
		return Reading{}, &InvalidPayloadError{Port: Port, Length: len(payload), Need: ReadingLen}
	}
	return Reading{
		Year:              payload[0],
		Month:             payload[1],
		Day:               payload[2],
		Hours:             payload[3],
		Minutes:           payload[4],
		Seconds:           payload[5],
		Degrees:           payload[6],
		FractionalDegrees: payload[7],
	}, nil
}

// Fields returns the reading as a name to integer map.
func (r Reading) Fields() map[string]any {
	return map[string]any{
		FieldYear:              int(r.Year),
		FieldMonth:             int(r.Month),
		FieldDay:               int(r.Day),
		FieldHours:             int(r.Hours),
		FieldMinutes:           int(r.Minutes),
		FieldSeconds:           int(r.Seconds),
		FieldDegrees:           int(r.Degrees),
		FieldFractionalDegrees: int(r.FractionalDegrees),
	}
}

// Time interprets the date fields as a UTC timestamp. Values that do not form
// a calendar date are rejected rather than normalised.
func (r Reading) Time() (time.Time, error) {
	if r.Month == 0 || r.Month > 12 || r.Day == 0 || r.Day > 31 ||
		r.Hours > 23 || r.Minutes > 59 || r.Seconds > 59 {
		return time.Time{}, fmt.Errorf("invalid reading datetime %02d-%02d-%02d %02d:%02d:%02d",
			r.Year, r.Month, r.Day, r.Hours, r.Minutes, r.Seconds)
	}
	ts := time.Date(YearBase+int(r.Year), time.Month(r.Month), int(r.Day),
		int(r.Hours), int(r.Minutes), int(r.Seconds), 0, time.UTC)
	if ts.Day() != int(r.Day) {
		return time.Time{}, fmt.Errorf("invalid reading date: day %d of month %d", r.Day, r.Month)
	}
	return ts, nil
}

// Value combines the degrees fields; the fractional byte holds hundredths.
func (r Reading) Value() float64 {
	return float64(r.Degrees) + float64(r.FractionalDegrees)/100
}

// Package records parses dataTaker DT80 archive exports (the output of
// "copyd archive=y") into the readings the FiPy relays over LoRaWAN.
package records

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/usnistgov/lpwan-iot/internal/driver/datataker"
)

// TimeLayout is the dataTaker timestamp format, e.g. 2018/09/04 16:40:00.000.
const TimeLayout = "2006/01/02 15:04:05.000"

const (
	colTimestamp   = 0
	colTemperature = 2
	maxLineBytes   = 64 * 1024
)

// ErrNotRecord marks header, prompt and status lines of an export.
var ErrNotRecord = errors.New("not a dataTaker record")

// Record is one archived sample: the timestamp and the first temperature
// channel, kept verbatim.
type Record struct {
	Timestamp   string
	Temperature string
}

// IsTimeValue reports whether s looks like a dataTaker timestamp.
func IsTimeValue(s string) bool {
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return false
	}
	date := strings.Split(parts[0], "/")
	if len(date) != 3 || !allDigits(date...) {
		return false
	}
	clock := strings.Split(parts[1], ":")
	if len(clock) != 3 {
		return false
	}
	sec := strings.Split(clock[2], ".")
	if len(sec) != 2 {
		return false
	}
	return allDigits(clock[0], clock[1], sec[0], sec[1])
}

// ParseLine extracts a record from one CSV line of a copyd export.
func ParseLine(line string) (Record, error) {
	cols := strings.Split(strings.TrimRight(line, "\r\n"), ",")
	if !IsTimeValue(cols[colTimestamp]) {
		return Record{}, ErrNotRecord
	}
	if len(cols) <= colTemperature {
		return Record{}, fmt.Errorf("record %q has no temperature column", cols[colTimestamp])
	}
	return Record{
		Timestamp:   strings.TrimSpace(cols[colTimestamp]),
		Temperature: strings.TrimSpace(cols[colTemperature]),
	}, nil
}

// Read scans a whole export and returns its records in order.
func Read(r io.Reader) ([]Record, error) {
	var out []Record
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		rec, err := ParseLine(scanner.Text())
		if errors.Is(err, ErrNotRecord) {
			continue
		}
		if err != nil {
			return out, fmt.Errorf("line %d: %w", lineNo, err)
		}
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return out, fmt.Errorf("read export: %w", err)
	}
	return out, nil
}

// Time parses the record timestamp as UTC.
func (r Record) Time() (time.Time, error) {
	ts, err := time.ParseInLocation(TimeLayout, strings.Join(strings.Fields(r.Timestamp), " "), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", r.Timestamp, err)
	}
	return ts, nil
}

// Reading returns the fields the logger transmits for this record: the year
// relative to 2000, whole seconds, and the first two fractional digits of the
// temperature.
func (r Record) Reading() (datataker.Reading, error) {
	ts, err := r.Time()
	if err != nil {
		return datataker.Reading{}, err
	}
	year := ts.Year() - datataker.YearBase
	if year < 0 || year > 255 {
		return datataker.Reading{}, fmt.Errorf("year %d outside %d..%d", ts.Year(), datataker.YearBase, datataker.YearBase+255)
	}
	degrees, fractional, err := splitDegrees(r.Temperature)
	if err != nil {
		return datataker.Reading{}, err
	}
	return datataker.Reading{
		Year:              uint8(year),
		Month:             uint8(ts.Month()),
		Day:               uint8(ts.Day()),
		Hours:             uint8(ts.Hour()),
		Minutes:           uint8(ts.Minute()),
		Seconds:           uint8(ts.Second()),
		Degrees:           degrees,
		FractionalDegrees: fractional,
	}, nil
}

func splitDegrees(s string) (uint8, uint8, error) {
	whole, frac, _ := strings.Cut(s, ".")
	degrees, err := strconv.ParseUint(whole, 10, 8)
	if err != nil {
		return 0, 0, fmt.Errorf("temperature %q does not fit a byte: %w", s, err)
	}
	if len(frac) > 2 {
		frac = frac[:2]
	}
	if frac == "" {
		return uint8(degrees), 0, nil
	}
	fractional, err := strconv.ParseUint(frac, 10, 8)
	if err != nil {
		return 0, 0, fmt.Errorf("temperature %q has invalid fraction: %w", s, err)
	}
	return uint8(degrees), uint8(fractional), nil
}

func allDigits(values ...string) bool {
	for _, v := range values {
		if v == "" {
			return false
		}
		for _, r := range v {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}

package document

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/roach88/reqlbridge/internal/ir"
)

const utcOffset = "+00:00"

func encodeTime(t Time) ir.IRValue {
	epoch := float64(t.Unix()) + float64(t.Nanosecond())/1e9
	return ir.IRObject{
		TypeKey:      ir.IRString(TypeTime),
		"epoch_time": ir.IRDouble(epoch),
		"timezone":   ir.IRString(utcOffset),
	}
}

// decodeTime rounds epoch_time to the millisecond and places the result in
// the object's timezone, or UTC when none is given.
func decodeTime(obj ir.IRObject) (Value, error) {
	epoch, ok := ir.AsFloat(obj["epoch_time"])
	if !ok {
		return nil, &ConversionError{Value: obj, Expected: "TIME with numeric epoch_time", Reason: "epoch_time missing or not a number"}
	}
	if math.IsNaN(epoch) || math.IsInf(epoch, 0) {
		return nil, &ConversionError{Value: obj, Expected: "TIME with numeric epoch_time", Reason: "epoch_time is not finite"}
	}

	loc := time.UTC
	if tz, present := obj["timezone"]; present && !ir.IsNull(tz) {
		s, ok := ir.AsString(tz)
		if !ok {
			return nil, &ConversionError{Value: obj, Expected: "TIME with string timezone", Reason: "timezone is not a string"}
		}
		parsed, err := parseOffset(s)
		if err != nil {
			return nil, &ConversionError{Value: obj, Expected: "TIME with ±HH:MM timezone", Reason: err.Error()}
		}
		loc = parsed
	}

	ms := math.Round(epoch * 1000)
	if ms >= math.MaxInt64 || ms < math.MinInt64 {
		return nil, &ConversionError{Value: obj, Expected: "TIME with numeric epoch_time", Reason: "epoch_time out of range"}
	}
	return Time{Time: time.UnixMilli(int64(ms)).In(loc)}, nil
}

// parseOffset accepts "Z" and "±HH:MM".
func parseOffset(s string) (*time.Location, error) {
	if s == "Z" || s == utcOffset || s == "-00:00" {
		return time.UTC, nil
	}
	if len(s) != 6 || (s[0] != '+' && s[0] != '-') || s[3] != ':' {
		return nil, fmt.Errorf("malformed offset %q", s)
	}
	hours, err := strconv.Atoi(s[1:3])
	if err != nil || hours > 23 {
		return nil, fmt.Errorf("malformed offset hours in %q", s)
	}
	minutes, err := strconv.Atoi(s[4:6])
	if err != nil || minutes > 59 {
		return nil, fmt.Errorf("malformed offset minutes in %q", s)
	}
	offset := hours*3600 + minutes*60
	if s[0] == '-' {
		offset = -offset
	}
	return time.FixedZone(s, offset), nil
}

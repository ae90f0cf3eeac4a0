package ir

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NumberFromJSON picks the narrowest numeric node for a JSON literal.
// "42" -> IRInt, "18446744073709551615" -> IRUint, "1.5" or "1e3" -> IRDouble.
func NumberFromJSON(n json.Number) (IRValue, error) {
	s := string(n)
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return IRInt(i), nil
		}
		if u, err := strconv.ParseUint(s, 10, 64); err == nil {
			return IRUint(u), nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return IRDouble(f), nil
}

// formatCanonicalFloat renders f the way ECMAScript Number.prototype.toString
// does for the ranges RFC 8785 cares about.
func formatCanonicalFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("non-finite number is not representable in JSON: %v", f)
	}
	if f == 0 {
		return "0", nil
	}
	abs := math.Abs(f)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	}
	s := strconv.FormatFloat(f, 'e', -1, 64)
	// Go pads exponents to two digits ("1e-07"); ECMAScript does not.
	mantissa, exp, _ := strings.Cut(s, "e")
	sign := exp[:1]
	digits := strings.TrimLeft(exp[1:], "0")
	if digits == "" {
		digits = "0"
	}
	return mantissa + "e" + sign + digits, nil
}

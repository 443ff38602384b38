package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var errNotNumeric = errors.New("not a number")

// decodeJSON reads a bounded JSON body into dst
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// coerceBool reads a loosely typed flag: JSON booleans as-is, strings via
// strconv.ParseBool, numbers as non-zero. Anything else is false.
func coerceBool(raw json.RawMessage) bool {
	if isAbsent(raw) {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		parsed, err := strconv.ParseBool(strings.TrimSpace(s))
		return err == nil && parsed
	}
	if d, err := decimal.NewFromString(string(bytes.TrimSpace(raw))); err == nil {
		return !d.IsZero()
	}
	return false
}

// parseDecimal reads a JSON number or numeric string. present is false for
// absent or null values.
func parseDecimal(raw json.RawMessage) (value decimal.Decimal, present bool, err error) {
	if isAbsent(raw) {
		return decimal.Zero, false, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			return decimal.Zero, false, nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, true, errNotNumeric
		}
		return d, true, nil
	}
	d, err := decimal.NewFromString(string(bytes.TrimSpace(raw)))
	if err != nil {
		return decimal.Zero, true, errNotNumeric
	}
	return d, true, nil
}

// coerceDecimal is the lenient variant: unparseable values become zero
func coerceDecimal(raw json.RawMessage) decimal.Decimal {
	d, _, err := parseDecimal(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

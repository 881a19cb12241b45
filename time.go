package jose

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// maxUnixSeconds is 9999-12-31T23:59:59Z.
const maxUnixSeconds = 253402300799

// NumericDate represents a JSON numeric date value as specified in RFC 7519.
// It stores time as Unix timestamp (seconds since epoch) for JWT compatibility.
type NumericDate struct {
	time.Time
}

// NewNumericDate creates a new NumericDate from time.Time
func NewNumericDate(t time.Time) NumericDate {
	return NumericDate{Time: t.Truncate(time.Second)}
}

// Now returns the current time as a NumericDate.
func Now() NumericDate {
	return NewNumericDate(time.Now())
}

// MarshalJSON implements json.Marshaler interface
func (date NumericDate) MarshalJSON() ([]byte, error) {
	if date.Time.IsZero() {
		return []byte("null"), nil
	}

	return fmt.Appendf(nil, "%d", date.Unix()), nil
}

// UnmarshalJSON implements json.Unmarshaler interface
func (date *NumericDate) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		date.Time = time.Time{}
		return nil
	}

	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	if s == "" {
		date.Time = time.Time{}
		return nil
	}

	parsed, err := parseNumericDate(s)
	if err != nil {
		return err
	}
	*date = parsed
	return nil
}

// numericDateFromValue converts a decoded claim value. Numbers, numeric
// strings and time values are accepted; anything else is malformed.
func numericDateFromValue(v any) (NumericDate, error) {
	switch n := v.(type) {
	case json.Number:
		return parseNumericDate(n.String())
	case string:
		return parseNumericDate(n)
	case float64:
		return parseNumericDate(strconv.FormatFloat(n, 'f', -1, 64))
	case int:
		return parseNumericDate(strconv.FormatInt(int64(n), 10))
	case int64:
		return parseNumericDate(strconv.FormatInt(n, 10))
	case time.Time:
		return NewNumericDate(n), nil
	case NumericDate:
		return n, nil
	default:
		return NumericDate{}, fmt.Errorf("invalid time format: expected unix timestamp, got %T", v)
	}
}

func parseNumericDate(s string) (NumericDate, error) {
	s = strings.TrimSpace(s)

	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		if unix < 0 || unix > maxUnixSeconds {
			return NumericDate{}, fmt.Errorf("invalid unix timestamp: %d", unix)
		}
		return NumericDate{Time: time.Unix(unix, 0).UTC()}, nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return NumericDate{}, fmt.Errorf("invalid time format: expected unix timestamp, got %q", s)
	}
	if f < 0 || f > maxUnixSeconds {
		return NumericDate{}, fmt.Errorf("invalid unix timestamp: %v", f)
	}

	sec, frac := math.Modf(f)
	return NumericDate{Time: time.Unix(int64(sec), int64(frac*1e9)).UTC()}, nil
}

package rest

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/monargent/monargent/internal/domainerr"
	"github.com/monargent/monargent/internal/utils"
	"github.com/shopspring/decimal"
)

// Number renders an amount as a JSON number.
func Number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// Amount is an amount in a request body. It may be sent as a JSON number or as
// a string; a decimal comma is read as a dot.
type Amount string

func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = s
	}
	*a = Amount(strings.ReplaceAll(strings.TrimSpace(raw), ",", "."))
	return nil
}

func (a Amount) String() string {
	return string(a)
}

// Decimal reads a signed amount; the decimal comma is accepted.
func Decimal(n Amount) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(n.String(), ",", "."))
	if err != nil {
		return decimal.Zero, domainerr.Validation("%q is not a number", n.String())
	}
	return d, nil
}

// ParseTime reads a calendar date (2006-01-02) or an RFC 3339 timestamp. An
// empty value gives the zero time.
func ParseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := utils.ParseDate(value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, domainerr.Validation("invalid date %q, expected YYYY-MM-DD", value)
	}
	return t, nil
}

// QueryInt reads a non-negative integer query parameter, zero when absent.
func QueryInt(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, domainerr.Validation("%q is not a non-negative integer", value)
	}
	return n, nil
}

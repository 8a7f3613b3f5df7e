package core

import (
	"database/sql/driver"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

var ErrInvalidAmount = errors.New("invalid amount")

// Money is an amount in minor units (pesewas, cents...). All amounts are kept in the church's
// single operating currency.
type Money int64

// ParseMoney coerces user input into Money: "1,250.50", "GH₵ 20", "20.5" and "20" are all accepted.
// Negative amounts, exponents and more than 2 decimal places are rejected.
func ParseMoney(s string) (Money, error) {
	// drop currency codes & symbols around the number
	s = strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsSpace(r) || unicode.Is(unicode.Sc, r)
	})

	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsDigit(r), r == '.':
			b.WriteRune(r)
		case r == ',':
			// thousands separator
		default:
			return 0, ErrInvalidAmount
		}
	}
	clean := b.String()
	if clean == "" || strings.Count(clean, ".") > 1 {
		return 0, ErrInvalidAmount
	}

	whole, frac := clean, ""
	if i := strings.IndexByte(clean, '.'); i >= 0 {
		whole, frac = clean[:i], clean[i+1:]
	}
	if len(frac) > 2 {
		return 0, ErrInvalidAmount
	}
	if whole == "" {
		whole = "0"
	}
	for len(frac) < 2 {
		frac += "0"
	}
	major, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	minor, _ := strconv.ParseInt(frac, 10, 64)
	if major > (math.MaxInt64-minor)/100 {
		return 0, ErrInvalidAmount
	}
	return Money(major*100 + minor), nil
}

func (m Money) Major() int64   { return int64(m) / 100 }
func (m Money) Minor() int64   { return int64(m) % 100 }
func (m Money) Float() float64 { return float64(m) / 100 }

func (m Money) String() string {
	sign := ""
	v := uint64(m)
	if m < 0 {
		sign = "-"
		v = -v // two's complement: also right for MinInt64
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		*m = 0
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	} else if strings.ContainsAny(s, "eE") {
		return ErrInvalidAmount
	}
	v, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

func (m Money) Value() (driver.Value, error) {
	return int64(m), nil
}

func (m *Money) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*m = 0
	case int64:
		*m = Money(v)
	case float64:
		*m = Money(v)
	case []byte:
		return m.scanString(string(v))
	case string:
		return m.scanString(v)
	default:
		return fmt.Errorf("core.Money: cannot scan %T", src)
	}
	return nil
}

// scanString handles aggregates returned as text (e.g. postgres SUM(bigint) -> numeric).
func (m *Money) scanString(s string) error {
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return errors.Wrap(err, "core.Money: scanning")
	}
	*m = Money(v)
	return nil
}

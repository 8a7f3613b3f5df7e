package core

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const DateLayout = "2006-01-02"

var (
	ErrInvalidDate = errors.New("invalid date")

	// accepted input layouts, tried in order
	dateLayouts = []string{
		DateLayout,
		"2006/01/02",
		"02/01/2006",
		"2 Jan 2006",
		"Jan 2, 2006",
		"January 2, 2006",
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	}
)

// Date is a calendar day without time of day. The zero Date means "not set" and is stored as NULL.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of `t` in its own location.
func DateOf(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate coerces user input into a Date. Empty input yields the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, ErrInvalidDate
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) AddDays(n int) Date { return Date{d.AddDate(0, 0, n)} }

func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool  { return d.Time.After(o.Time) }
func (d Date) Equal(o Date) bool  { return d.Time.Equal(o.Time) }

// MonthStart returns the first day of d's month.
func (d Date) MonthStart() Date { return NewDate(d.Year(), d.Month(), 1) }

// MonthEnd returns the last day of d's month.
func (d Date) MonthEnd() Date { return NewDate(d.Year(), d.Month()+1, 0) }

// YearsSince returns the number of full years between d and `on` (age).
func (d Date) YearsSince(on Date) int {
	years := on.Year() - d.Year()
	if on.Month() < d.Month() || (on.Month() == d.Month() && on.Day() < d.Day()) {
		years--
	}
	return years
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(d.String())), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		*d = Date{}
		return nil
	}
	unq, err := strconv.Unquote(s)
	if err != nil {
		return ErrInvalidDate
	}
	v, err := ParseDate(unq)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
	case time.Time:
		*d = DateOf(v.UTC())
	case []byte:
		return d.scanString(string(v))
	case string:
		return d.scanString(v)
	default:
		return fmt.Errorf("core.Date: cannot scan %T", src)
	}
	return nil
}

func (d *Date) scanString(s string) error {
	if len(s) >= len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return errors.Wrap(err, "core.Date: scanning")
	}
	*d = DateOf(t)
	return nil
}

// DateRange is an inclusive range of days. Zero bounds are open.
type DateRange struct {
	From Date
	To   Date
}

func (r DateRange) Contains(d Date) bool {
	if !r.From.IsZero() && d.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && d.After(r.To) {
		return false
	}
	return true
}

// YearRange returns Jan 1st - Dec 31st of `year`.
func YearRange(year int) DateRange {
	return DateRange{From: NewDate(year, time.January, 1), To: NewDate(year, time.December, 31)}
}

// MonthRange returns the whole month `d` is in.
func MonthRange(d Date) DateRange {
	return DateRange{From: d.MonthStart(), To: d.MonthEnd()}
}

package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDate(t *testing.T) {
	want := NewDate(2024, time.March, 9)
	for _, in := range []string{
		"2024-03-09",
		" 2024/03/09 ",
		"09/03/2024",
		"9 Mar 2024",
		"Mar 9, 2024",
		"March 9, 2024",
		"2024-03-09T23:30:00Z",
		"2024-03-09 08:00:00",
	} {
		got, err := ParseDate(in)
		if assert.NoError(t, err, in) {
			assert.Equal(t, want.String(), got.String(), in)
		}
	}

	got, err := ParseDate("")
	assert.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = ParseDate("2024-13-01")
	assert.Equal(t, ErrInvalidDate, err)
}

func TestDate_helpers(t *testing.T) {
	d := NewDate(2024, time.February, 10)

	assert.Equal(t, "2024-02-01", d.MonthStart().String())
	assert.Equal(t, "2024-02-29", d.MonthEnd().String())
	assert.Equal(t, "2024-03-01", d.AddDays(20).String())
	assert.Equal(t, "", Date{}.String())

	dob := NewDate(1990, time.May, 1)
	assert.Equal(t, 33, dob.YearsSince(NewDate(2024, time.April, 30)))
	assert.Equal(t, 34, dob.YearsSince(NewDate(2024, time.May, 1)))

	rng := DateRange{From: NewDate(2024, time.January, 1), To: NewDate(2024, time.January, 31)}
	assert.True(t, rng.Contains(NewDate(2024, time.January, 31)))
	assert.False(t, rng.Contains(NewDate(2024, time.February, 1)))
	assert.True(t, DateRange{}.Contains(d))

	assert.Equal(t, "2023-12-31", YearRange(2023).To.String())
	month := MonthRange(d)
	assert.Equal(t, "2024-02-01", month.From.String())
	assert.Equal(t, "2024-02-29", month.To.String())
}

func TestDate_JSON(t *testing.T) {
	var v struct {
		Date Date `json:"date"`
	}
	assert.NoError(t, json.Unmarshal([]byte(`{"date":"07/01/2024"}`), &v))
	assert.Equal(t, "2024-01-07", v.Date.String())

	data, err := json.Marshal(v)
	assert.NoError(t, err)
	assert.Equal(t, `{"date":"2024-01-07"}`, string(data))

	v.Date = Date{}
	data, err = json.Marshal(v)
	assert.NoError(t, err)
	assert.Equal(t, `{"date":null}`, string(data))

	assert.Error(t, json.Unmarshal([]byte(`{"date":20240107}`), &v))
	assert.Error(t, json.Unmarshal([]byte(`{"date":"yesterday"}`), &v))
}

func TestDate_Scan(t *testing.T) {
	var d Date
	assert.NoError(t, d.Scan("2024-01-07 00:00:00+00:00"))
	assert.Equal(t, "2024-01-07", d.String())

	assert.NoError(t, d.Scan(time.Date(2024, 1, 8, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-01-08", d.String())

	assert.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	val, err := d.Value()
	assert.NoError(t, err)
	assert.Nil(t, val)

	assert.Error(t, d.Scan("garbage"))
	assert.Error(t, d.Scan(42))
}

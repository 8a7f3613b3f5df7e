package core

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in      string
		want    Money
		wantErr bool
	}{
		{in: "20", want: 2000},
		{in: "20.5", want: 2050},
		{in: "20.05", want: 2005},
		{in: "1,250.50", want: 125050},
		{in: "GH₵ 20", want: 2000},
		{in: "20 GHS", want: 2000},
		{in: ".5", want: 50},
		{in: "0", want: 0},
		{in: "", wantErr: true},
		{in: "GHS", wantErr: true},
		{in: "-5", wantErr: true},
		{in: "1e3", wantErr: true},
		{in: "1.234", wantErr: true},
		{in: "1.2.3", wantErr: true},
		{in: "12abc34", wantErr: true},
		{in: "92233720368547758.07", want: Money(math.MaxInt64)},
		{in: "92233720368547758.08", wantErr: true},
		{in: "184467440737095517", wantErr: true},
		{in: "99999999999999999999", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMoney(tt.in)
			if tt.wantErr {
				assert.Equal(t, ErrInvalidAmount, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMoney_String(t *testing.T) {
	assert.Equal(t, "150.00", Money(15000).String())
	assert.Equal(t, "0.05", Money(5).String())
	assert.Equal(t, "-12.30", Money(-1230).String())
	assert.Equal(t, "92233720368547758.07", Money(math.MaxInt64).String())
	assert.Equal(t, "-92233720368547758.08", Money(math.MinInt64).String())
	assert.Equal(t, int64(12), Money(1230).Major())
	assert.Equal(t, int64(30), Money(1230).Minor())
	assert.Equal(t, 12.3, Money(1230).Float())
}

func TestMoney_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Amount Money `json:"amount"`
	}{Amount: 125050})
	assert.NoError(t, err)
	assert.Equal(t, `{"amount":1250.50}`, string(data))

	tests := []struct {
		in      string
		want    Money
		wantErr bool
	}{
		{in: `150`, want: 15000},
		{in: `150.5`, want: 15050},
		{in: `"1,250.50"`, want: 125050},
		{in: `null`, want: 0},
		{in: `1e2`, wantErr: true},
		{in: `12.345`, wantErr: true},
		{in: `"lots"`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m := Money(99)
			err := m.UnmarshalJSON([]byte(tt.in))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, m)
		})
	}
}

func TestMoney_Scan(t *testing.T) {
	tests := []struct {
		name    string
		src     interface{}
		want    Money
		wantErr bool
	}{
		{name: "nil", src: nil, want: 0},
		{name: "int64", src: int64(4500), want: 4500},
		{name: "float64", src: float64(4500), want: 4500},
		{name: "numeric text", src: []byte("12345.000"), want: 12345},
		{name: "string", src: "700", want: 700},
		{name: "garbage", src: "abc", wantErr: true},
		{name: "unsupported", src: true, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Money(1)
			err := m.Scan(tt.src)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, m)
		})
	}
}

package currency

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvert(t *testing.T) {
	cases := []struct {
		name   string
		amount float64
		target Code
		rate   float64
		want   float64
		ok     bool
	}{
		{name: "canonical unchanged", amount: 1500, target: PKR, rate: 0, want: 1500, ok: true},
		{name: "canonical ignores rate", amount: 1500, target: PKR, rate: 280, want: 1500, ok: true},
		{name: "foreign divides by rate", amount: 2800, target: USD, rate: 280, want: 10, ok: true},
		{name: "missing rate", amount: 1000, target: USD, rate: 0, ok: false},
		{name: "negative rate", amount: 1000, target: USD, rate: -3, ok: false},
		{name: "nan rate", amount: 1000, target: USD, rate: math.NaN(), ok: false},
		{name: "infinite rate", amount: 1000, target: USD, rate: math.Inf(1), ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Convert(tc.amount, tc.target, tc.rate)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.InDelta(t, tc.want, got, 1e-9)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "Rs 1,235", Format(1234.5, PKR, 0))
	assert.Equal(t, "Rs 0", Format(0, PKR, 0))
	assert.Equal(t, "$12.35", Format(3458, USD, 280))
	assert.Equal(t, "$1,000.00", Format(280000, USD, 280))
	assert.Equal(t, Unavailable, Format(1000, USD, 0))
}

func TestFormatRoundsHalfAwayFromZero(t *testing.T) {
	assert.Equal(t, "Rs 3", Format(2.5, PKR, 0))
	assert.Equal(t, "-Rs 3", Format(-2.5, PKR, 0))
	assert.Equal(t, "$1.01", Format(1.005, USD, 1))
}

func TestParseCode(t *testing.T) {
	assert.Equal(t, USD, ParseCode(" usd "))
	assert.Equal(t, PKR, ParseCode("PKR"))
	assert.Equal(t, PKR, ParseCode("EUR"))
	assert.Equal(t, PKR, ParseCode(""))
}

package domain

import (
	"math"
	"testing"
)

func TestPayoffValues(t *testing.T) {
	cases := []struct {
		name   string
		kind   PayoffType
		strike float64
		state  []float64
		want   float64
	}{
		{"put in the money", PayoffPut, 40, []float64{35}, 5},
		{"put out of the money", PayoffPut, 40, []float64{45}, 0},
		{"put at the money", PayoffPut, 40, []float64{40}, 0},
		{"call in the money", PayoffCall, 40, []float64{47}, 7},
		{"call out of the money", PayoffCall, 40, []float64{33}, 0},
		{"basket put uses average", PayoffBasketPut, 100, []float64{90, 94}, 8},
		{"basket put out of the money", PayoffBasketPut, 100, []float64{110, 95}, 0},
		{"max call uses maximum", PayoffMaxCall, 100, []float64{90, 115}, 15},
		{"max call out of the money", PayoffMaxCall, 100, []float64{90, 95}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := &Payoff{kind: tc.kind, strike: tc.strike}
			if got := p.Value(tc.state); math.Abs(got-tc.want) > 1e-12 {
				t.Errorf("Value(%v) = %v, want %v", tc.state, got, tc.want)
			}
			if got, want := p.InTheMoney(tc.state), tc.want > 0; got != want {
				t.Errorf("InTheMoney(%v) = %v, want %v", tc.state, got, want)
			}
		})
	}
}

func TestPayoffValuesBatch(t *testing.T) {
	p := &Payoff{kind: PayoffPut, strike: 40}
	got := p.Values([][]float64{{30}, {40}, {50}})
	want := []float64{10, 0, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Values[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestNewPayoffRejectsUnknownType(t *testing.T) {
	cfg := baseConfig()
	cfg.Payoff = "DIGITAL"
	if _, err := NewPayoff(&cfg); err == nil {
		t.Fatal("NewPayoff() = nil error, want error")
	}
}

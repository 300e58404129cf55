package format

import (
	"testing"
)

func fp(v float64) *float64 { return &v }

func TestUSD(t *testing.T) {
	f := New(DefaultSARRate)
	tests := []struct {
		v    *float64
		want string
	}{
		{fp(98000), "$98,000"},
		{fp(1910500), "$1,910,500"},
		{fp(0), "$0"},
		{fp(767000.4), "$767,000"},
		{nil, "$0"},
	}
	for _, tt := range tests {
		if got := f.USD(tt.v); got != tt.want {
			t.Errorf("USD(%v) got %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestSAR(t *testing.T) {
	f := New(DefaultSARRate)
	tests := []struct {
		v    *float64
		want string
	}{
		{fp(367500), "SAR 367,500"},
		{nil, "SAR 0"},
	}
	for _, tt := range tests {
		if got := f.SAR(tt.v); got != tt.want {
			t.Errorf("SAR(%v) got %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestDual(t *testing.T) {
	f := New(DefaultSARRate)
	if got, want := f.Dual(fp(98000)), "$98,000 / SAR 367,500"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got, want := f.Dual(nil), Placeholder; got != want {
		t.Errorf("nil dual got %q, want %q", got, want)
	}

	// A custom rate changes the SAR side only.
	f = New(4)
	if got, want := f.Dual(fp(1000)), "$1,000 / SAR 4,000"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNumber(t *testing.T) {
	f := New(DefaultSARRate)
	if got, want := f.Number(fp(1250)), "1,250"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got, want := f.Number(nil), Placeholder; got != want {
		t.Errorf("nil number got %q, want %q", got, want)
	}
}

func TestPercent(t *testing.T) {
	f := New(DefaultSARRate)
	tests := []struct {
		v    float64
		want string
	}{
		{68.97, "+69%"},
		{192.2, "+192%"},
		{-12.4, "-12%"},
		{0, "0%"},
	}
	for _, tt := range tests {
		if got := f.Percent(tt.v); got != tt.want {
			t.Errorf("Percent(%v) got %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestNewFallbackRate(t *testing.T) {
	// A non-positive rate falls back to the pegged default.
	for _, rate := range []float64{0, -1} {
		f := New(rate)
		if got, want := f.Dual(fp(100)), "$100 / SAR 375"; got != want {
			t.Errorf("New(%v).Dual got %q, want %q", rate, got, want)
		}
	}
}

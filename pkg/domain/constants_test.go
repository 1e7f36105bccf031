package domain

import (
	"math"
	"testing"
)

func TestIsInfinite(t *testing.T) {
	tests := []struct {
		v        float64
		expected bool
	}{
		{Infinity, true},
		{math.Inf(1), true},
		{Infinity - 50, true},
		{1e300, false},
		{0, false},
		{math.Inf(-1), false},
	}

	for _, tt := range tests {
		if got := IsInfinite(tt.v); got != tt.expected {
			t.Errorf("IsInfinite(%v) = %v, want %v", tt.v, got, tt.expected)
		}
	}
}

func TestFloatEquals(t *testing.T) {
	tests := []struct {
		a, b     float64
		expected bool
	}{
		{1.0, 1.0, true},
		{1.0, 1.0 + Epsilon/2, true},
		{1.0, 1.0 + Epsilon*2, false},
		{0, 0, true},
		{0, Epsilon / 2, true},
		{-1.0, -1.0, true},
	}

	for _, tt := range tests {
		if got := FloatEquals(tt.a, tt.b); got != tt.expected {
			t.Errorf("FloatEquals(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.expected)
		}
	}
}

func TestFloatLessGreater(t *testing.T) {
	if !FloatLess(1, 2) || FloatLess(1, 1+Epsilon/2) {
		t.Error("FloatLess")
	}
	if !FloatGreater(2, 1) || FloatGreater(1+Epsilon/2, 1) {
		t.Error("FloatGreater")
	}
}

func TestIsZeroIsPositive(t *testing.T) {
	tests := []struct {
		v            float64
		zero, postiv bool
	}{
		{0, true, false},
		{Epsilon / 2, true, false},
		{-Epsilon / 2, true, false},
		{Epsilon * 2, false, true},
		{-1, false, false},
		{10, false, true},
	}

	for _, tt := range tests {
		if got := IsZero(tt.v); got != tt.zero {
			t.Errorf("IsZero(%v) = %v, want %v", tt.v, got, tt.zero)
		}
		if got := IsPositive(tt.v); got != tt.postiv {
			t.Errorf("IsPositive(%v) = %v, want %v", tt.v, got, tt.postiv)
		}
	}
}

func TestMinMax(t *testing.T) {
	if Min(1, 2) != 1 || Min(2, 1) != 1 || Min(Infinity, 3) != 3 {
		t.Error("Min")
	}
	if Max(1, 2) != 2 || Max(-1, -2) != -1 {
		t.Error("Max")
	}
}

func TestRoundAmount(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{33.333333, 33.33},
		{66.666666, 66.67},
		{-16.665, -16.67},
		{0, 0},
	}
	for _, tt := range tests {
		if got := RoundAmount(tt.in); !FloatEquals(got, tt.want) {
			t.Errorf("RoundAmount(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNames(t *testing.T) {
	tests := []struct {
		in, normalized, display string
	}{
		{"  John ", "john", "John"},
		{"KATE", "kate", "Kate"},
		{"ann marie", "ann marie", "Ann marie"},
		{"élodie", "élodie", "Élodie"},
		{"", "", ""},
	}
	for _, tt := range tests {
		if got := NormalizeName(tt.in); got != tt.normalized {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.normalized)
		}
		if got := DisplayName(tt.normalized); got != tt.display {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.normalized, got, tt.display)
		}
	}
}

func TestConstants(t *testing.T) {
	if Epsilon <= 0 {
		t.Error("Epsilon should be positive")
	}
	if Infinity != math.MaxFloat64 {
		t.Error("Infinity should equal MaxFloat64")
	}
	if NegativeInfinity != -math.MaxFloat64 {
		t.Error("NegativeInfinity should equal -MaxFloat64")
	}
	if SourceName == SinkName {
		t.Error("synthetic node names must differ")
	}
}

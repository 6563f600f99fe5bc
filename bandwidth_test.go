package ratekeeper

import (
	"errors"
	"testing"
	"time"
)

func TestNewBandwidthLimit_Valid(t *testing.T) {
	l, err := NewBandwidthLimit("per-minute", 10, 10, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.InitialTokens() != 10 {
		t.Errorf("InitialTokens = %d, want capacity 10", l.InitialTokens())
	}
}

func TestNewBandwidthLimit_RejectsNonPositive(t *testing.T) {
	cases := []struct {
		name         string
		capacity     int64
		refillTokens int64
		period       time.Duration
		field        string
	}{
		{"zero capacity", 0, 10, time.Minute, "capacity"},
		{"negative capacity", -1, 10, time.Minute, "capacity"},
		{"zero refill", 10, 0, time.Minute, "refillTokens"},
		{"zero period", 10, 10, 0, "refillPeriod"},
		{"negative period", 10, 10, -time.Second, "refillPeriod"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewBandwidthLimit("bad", tc.capacity, tc.refillTokens, tc.period)
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigError, got %v", err)
			}
			if cfgErr.Field != tc.field {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tc.field)
			}
		})
	}
}

func TestWithInitialTokens_Clamped(t *testing.T) {
	l, _ := NewBandwidthLimit("l", 10, 10, time.Minute)

	if got := l.WithInitialTokens(3).InitialTokens(); got != 3 {
		t.Errorf("InitialTokens = %d, want 3", got)
	}
	if got := l.WithInitialTokens(99).InitialTokens(); got != 10 {
		t.Errorf("InitialTokens above capacity = %d, want 10", got)
	}
	if got := l.WithInitialTokens(-5).InitialTokens(); got != 0 {
		t.Errorf("negative InitialTokens = %d, want 0", got)
	}
}

func TestNewBucketSpec_RequiresLimits(t *testing.T) {
	_, err := NewBucketSpec()
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError for empty spec, got %v", err)
	}
}

func TestNewBucketSpec_CopiesLimits(t *testing.T) {
	perMin, _ := NewBandwidthLimit("per-minute", 10, 10, time.Minute)
	perHour, _ := NewBandwidthLimit("per-hour", 100, 100, time.Hour)

	input := []BandwidthLimit{perMin, perHour}
	spec, err := NewBucketSpec(input...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	input[0].Name = "mutated"

	limits := spec.Limits()
	if limits[0].Name != "per-minute" {
		t.Errorf("spec shares backing array with caller input")
	}
	if spec.Len() != 2 {
		t.Errorf("Len = %d, want 2", spec.Len())
	}
}

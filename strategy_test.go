package ratekeeper

import (
	"errors"
	"testing"
	"time"
)

func testSource(t *testing.T) *SpecSource {
	t.Helper()
	perMin, _ := NewBandwidthLimit("per-minute", 10, 10, time.Minute)
	perHour, _ := NewBandwidthLimit("per-hour", 100, 100, time.Hour)
	free, _ := NewBandwidthLimit("free", 50, 50, time.Hour)
	pro, _ := NewBandwidthLimit("professional", 5000, 5000, time.Hour)

	source, err := NewSpecSource(
		[]BandwidthLimit{perMin, perHour},
		map[string]BandwidthLimit{"FREE": free, "Professional": pro},
	)
	if err != nil {
		t.Fatalf("NewSpecSource: %v", err)
	}
	return source
}

func TestSpecSource_AuthSpec(t *testing.T) {
	spec := testSource(t).AuthSpec()
	if spec.Len() != 2 {
		t.Fatalf("auth spec has %d tiers, want 2", spec.Len())
	}
	limits := spec.Limits()
	if limits[0].Name != "per-minute" || limits[1].Name != "per-hour" {
		t.Errorf("auth tiers out of order: %q, %q", limits[0].Name, limits[1].Name)
	}
}

func TestSpecSource_BusinessSpec_CaseInsensitive(t *testing.T) {
	source := testSource(t)

	for _, name := range []string{"free", "FREE", "Free"} {
		spec, err := source.BusinessSpec(name)
		if err != nil {
			t.Fatalf("BusinessSpec(%q): %v", name, err)
		}
		if spec.Len() != 1 {
			t.Fatalf("business spec has %d tiers, want 1", spec.Len())
		}
		if got := spec.Limits()[0].Capacity; got != 50 {
			t.Errorf("BusinessSpec(%q) capacity = %d, want 50", name, got)
		}
	}
}

func TestSpecSource_BusinessSpec_UnknownPlan(t *testing.T) {
	_, err := testSource(t).BusinessSpec("enterprise")
	if !errors.Is(err, ErrUnknownPlan) {
		t.Fatalf("expected ErrUnknownPlan, got %v", err)
	}
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %T", err)
	}
}

func TestSpecSource_RejectsInvalidPlanLimit(t *testing.T) {
	perMin, _ := NewBandwidthLimit("per-minute", 10, 10, time.Minute)
	bad := BandwidthLimit{Name: "bad", Capacity: 0, RefillTokens: 1, RefillPeriod: time.Hour}

	_, err := NewSpecSource([]BandwidthLimit{perMin}, map[string]BandwidthLimit{"free": bad})
	if err == nil {
		t.Fatal("expected error for invalid plan limit")
	}
}

func TestStrategy_String(t *testing.T) {
	if StrategyAuth.String() != "auth" || StrategyBusiness.String() != "business" {
		t.Errorf("unexpected strategy names: %q, %q", StrategyAuth, StrategyBusiness)
	}
}

package geo

import (
	"math"
	"testing"
)

func TestHaversineKm(t *testing.T) {
	// Ulaanbaatar (47.9185, 106.9177) to Darkhan (49.4867, 105.9228) ~ 190 km
	d := HaversineKm(47.9185, 106.9177, 49.4867, 105.9228)
	if d < 175 || d > 205 {
		t.Fatalf("unexpected distance: %v", d)
	}
	if HaversineKm(10, 20, 10, 20) != 0 {
		t.Fatalf("expected zero distance for identical points")
	}
}

func TestValidLatLng(t *testing.T) {
	cases := []struct {
		lat, lng float64
		ok       bool
	}{
		{0, 0, true},
		{-90, 180, true},
		{90.1, 0, false},
		{0, -180.5, false},
		{math.NaN(), 0, false},
		{0, math.Inf(1), false},
	}
	for _, tc := range cases {
		if got := ValidLatLng(tc.lat, tc.lng); got != tc.ok {
			t.Fatalf("ValidLatLng(%v, %v) = %v, want %v", tc.lat, tc.lng, got, tc.ok)
		}
	}
}

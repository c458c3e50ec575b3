package geo

import (
	"math"
	"testing"
)

func TestHaversine(t *testing.T) {
	tests := []struct {
		name             string
		lat1, lon1       float64
		lat2, lon2       float64
		wantMeters       float64
		tolerancePercent float64
	}{
		{
			name: "Westwood to Santa Monica pier",
			lat1: 34.0625, lon1: -118.4470,
			lat2: 34.0092, lon2: -118.4976,
			wantMeters:       7_540, // ~7.5 km great-circle
			tolerancePercent: 2,
		},
		{
			name: "Same point",
			lat1: 34.0547, lon1: -118.4794,
			lat2: 34.0547, lon2: -118.4794,
			wantMeters:       0,
			tolerancePercent: 0,
		},
		{
			name: "London to Paris",
			lat1: 51.5074, lon1: -0.1278,
			lat2: 48.8566, lon2: 2.3522,
			wantMeters:       343_500, // ~343.5 km
			tolerancePercent: 1,
		},
		{
			name: "Short distance (~100m)",
			lat1: 34.0500, lon1: -118.4500,
			lat2: 34.0509, lon2: -118.4500,
			wantMeters:       100,
			tolerancePercent: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Haversine(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if tt.wantMeters == 0 {
				if got != 0 {
					t.Errorf("expected 0, got %f", got)
				}
				return
			}
			diff := math.Abs(got-tt.wantMeters) / tt.wantMeters * 100
			if diff > tt.tolerancePercent {
				t.Errorf("Haversine = %f m, want ~%f m (diff %.1f%%)", got, tt.wantMeters, diff)
			}
		})
	}
}

func TestDistanceSymmetric(t *testing.T) {
	a := Coord{Lat: 34.0625, Lng: -118.4470}
	b := Coord{Lat: 34.0547, Lng: -118.4794}
	if Distance(a, b) != Distance(b, a) {
		t.Errorf("Distance not symmetric: %f vs %f", Distance(a, b), Distance(b, a))
	}
	if Distance(a, a) != 0 {
		t.Errorf("Distance(a, a) = %f, want 0", Distance(a, a))
	}
}

func TestEquirectangularDist(t *testing.T) {
	lat1, lon1 := 34.0625, -118.4470
	lat2, lon2 := 34.0700, -118.4400

	h := Haversine(lat1, lon1, lat2, lon2)
	e := EquirectangularDist(lat1, lon1, lat2, lon2)

	diffPercent := math.Abs(h-e) / h * 100
	if diffPercent > 0.5 {
		t.Errorf("EquirectangularDist differs from Haversine by %.2f%% (haversine=%f, equirect=%f)", diffPercent, h, e)
	}
}

func TestDegreesForMeters(t *testing.T) {
	dLat, dLng := DegreesForMeters(34.0, 1000)
	north := Haversine(34.0, -118.0, 34.0+dLat, -118.0)
	east := Haversine(34.0, -118.0, 34.0, -118.0+dLng)
	if math.Abs(north-1000) > 1 {
		t.Errorf("lat span covers %f m, want 1000", north)
	}
	if math.Abs(east-1000) > 5 {
		t.Errorf("lng span covers %f m, want ~1000", east)
	}
}

func TestMetersToMiles(t *testing.T) {
	if got := MetersToMiles(1609.344); math.Abs(got-1) > 1e-12 {
		t.Errorf("MetersToMiles(1609.344) = %f, want 1", got)
	}
}

func BenchmarkHaversine(b *testing.B) {
	for b.Loop() {
		Haversine(34.0625, -118.4470, 34.0547, -118.4794)
	}
}

func BenchmarkEquirectangularDist(b *testing.B) {
	for b.Loop() {
		EquirectangularDist(34.0625, -118.4470, 34.0547, -118.4794)
	}
}

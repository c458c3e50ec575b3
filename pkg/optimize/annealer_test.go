package optimize

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delivery_router/pkg/delivery"
	"delivery_router/pkg/geo"
)

var depot = geo.Coord{Lat: 34.0625329, Lng: -118.4470263}

// circleStops places n stops evenly around the depot, ~1 km out, and
// returns them in a star order that crosses the circle repeatedly.
func circleStops(n, step int) []delivery.Request {
	stops := make([]delivery.Request, 0, n)
	for k := 0; k < n; k++ {
		i := (k * step) % n
		theta := 2 * math.Pi * float64(i) / float64(n)
		stops = append(stops, delivery.Request{
			Location: geo.Coord{
				Lat: depot.Lat + 0.01*math.Sin(theta),
				Lng: depot.Lng + 0.01*math.Cos(theta),
			},
			Item: fmt.Sprintf("parcel %d", i),
		})
	}
	return stops
}

func randomStops(rng *rand.Rand, n int) []delivery.Request {
	stops := make([]delivery.Request, n)
	for i := range stops {
		stops[i] = delivery.Request{
			Location: geo.Coord{
				Lat: depot.Lat + (rng.Float64()-0.5)*0.05,
				Lng: depot.Lng + (rng.Float64()-0.5)*0.05,
			},
			Item: fmt.Sprintf("item %d", i),
		}
	}
	return stops
}

func TestOptimizeImprovesBadOrder(t *testing.T) {
	stops := circleStops(9, 4)
	res := NewAnnealer(DefaultConfig()).Optimize(depot, stops, rand.New(rand.NewSource(1)))

	assert.Less(t, res.OptimizedMeters, res.OriginalMeters)
	assert.InDelta(t, TourMeters(depot, res.Stops), res.OptimizedMeters, 1e-9)
	assert.ElementsMatch(t, stops, res.Stops)
	assert.Positive(t, res.Stats.Proposals)
	assert.Positive(t, res.Stats.TempLevels)
	assert.Equal(t, res.Stats.TempLevels*DefaultConfig().AttemptsPerTemp, res.Stats.Proposals)
}

func TestOptimizePermutationAndNonRegression(t *testing.T) {
	a := NewAnnealer(DefaultConfig())
	gen := rand.New(rand.NewSource(42))

	for trial := 0; trial < 25; trial++ {
		n := gen.Intn(12)
		stops := randomStops(gen, n)
		before := make([]delivery.Request, len(stops))
		copy(before, stops)

		res := a.Optimize(depot, stops, rand.New(rand.NewSource(int64(trial))))

		require.Len(t, res.Stops, n)
		assert.ElementsMatch(t, stops, res.Stops)
		assert.LessOrEqual(t, res.OptimizedMeters, res.OriginalMeters)
		assert.InDelta(t, TourMeters(depot, stops), res.OriginalMeters, 1e-9)
		assert.Equal(t, before, stops, "input must not be modified")
	}
}

func TestOptimizeTrivial(t *testing.T) {
	a := NewAnnealer(DefaultConfig())
	rng := rand.New(rand.NewSource(1))

	res := a.Optimize(depot, nil, rng)
	assert.Empty(t, res.Stops)
	assert.Zero(t, res.OriginalMeters)
	assert.Zero(t, res.OptimizedMeters)

	one := []delivery.Request{{Location: geo.Coord{Lat: 34.07, Lng: -118.45}, Item: "pizza"}}
	res = a.Optimize(depot, one, rng)
	assert.Equal(t, one, res.Stops)
	assert.Equal(t, res.OriginalMeters, res.OptimizedMeters)
	assert.InDelta(t, 2*geo.Distance(depot, one[0].Location), res.OriginalMeters, 1e-9)
	assert.Zero(t, res.Stats.Proposals)

	res.Stops[0].Item = "changed"
	assert.Equal(t, "pizza", one[0].Item, "result must not alias the input")
}

func TestOptimizeDeterministicWithSeed(t *testing.T) {
	a := NewAnnealer(DefaultConfig())
	stops := randomStops(rand.New(rand.NewSource(3)), 10)

	r1 := a.Optimize(depot, stops, rand.New(rand.NewSource(99)))
	r2 := a.Optimize(depot, stops, rand.New(rand.NewSource(99)))

	assert.Equal(t, r1.Stops, r2.Stops)
	assert.Equal(t, r1.OptimizedMeters, r2.OptimizedMeters)
	assert.Equal(t, r1.Stats, r2.Stats)
}

func TestOptimizeKeepsOriginalOrderOnTies(t *testing.T) {
	// Stops on the meridian through the depot: any order that runs out to
	// the farthest stop and back has the same length, so nothing strictly
	// beats the input order.
	meridian := func(offsets ...float64) []delivery.Request {
		out := make([]delivery.Request, len(offsets))
		for i, off := range offsets {
			out[i] = delivery.Request{
				Location: geo.Coord{Lat: depot.Lat + off, Lng: depot.Lng},
				Item:     fmt.Sprintf("box %d", i),
			}
		}
		return out
	}
	sameSpot := make([]delivery.Request, 7)
	for i := range sameSpot {
		sameSpot[i] = delivery.Request{
			Location: geo.Coord{Lat: 34.07, Lng: -118.44},
			Item:     fmt.Sprintf("crate %d", i),
		}
	}

	tests := []struct {
		name  string
		stops []delivery.Request
	}{
		{"two stops", meridian(0.004, 0.009)},
		{"two stops reversed", meridian(0.009, 0.004)},
		{"out and back", meridian(0.002, 0.005, 0.008, 0.006, 0.001)},
		{"outbound only", meridian(0.001, 0.002, 0.003, 0.004, 0.005, 0.006)},
		{"one location", sameSpot},
	}

	a := NewAnnealer(DefaultConfig())
	for _, tt := range tests {
		for seed := int64(0); seed < 10; seed++ {
			t.Run(fmt.Sprintf("%s/seed=%d", tt.name, seed), func(t *testing.T) {
				res := a.Optimize(depot, tt.stops, rand.New(rand.NewSource(seed)))
				assert.Equal(t, tt.stops, res.Stops)
				assert.Equal(t, res.OriginalMeters, res.OptimizedMeters)
			})
		}
	}
}

func TestShorter(t *testing.T) {
	tests := []struct {
		a, b float64
		want bool
	}{
		{1000, 1000, false},
		{1000 - 1e-9, 1000, false},
		{999.99, 1000, true},
		{1001, 1000, false},
		{0, 0, false},
	}
	for _, tt := range tests {
		if got := shorter(tt.a, tt.b); got != tt.want {
			t.Errorf("shorter(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestOptimizeNoTemperatureLevels(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinTemp = 1e9
	stops := circleStops(5, 2)

	res := NewAnnealer(cfg).Optimize(depot, stops, rand.New(rand.NewSource(1)))
	assert.Zero(t, res.Stats.TempLevels)
	assert.Zero(t, res.Stats.Proposals)
	assert.LessOrEqual(t, res.OptimizedMeters, res.OriginalMeters)
	assert.ElementsMatch(t, stops, res.Stops)
}

func TestOptimizeNilRandPanics(t *testing.T) {
	a := NewAnnealer(DefaultConfig())
	assert.Panics(t, func() { a.Optimize(depot, circleStops(3, 1), nil) })
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"retention one", func(c *Config) { c.Retention = 1 }, true},
		{"retention zero", func(c *Config) { c.Retention = 0 }, true},
		{"retention NaN", func(c *Config) { c.Retention = math.NaN() }, true},
		{"no attempts", func(c *Config) { c.AttemptsPerTemp = 0 }, true},
		{"zero min temp", func(c *Config) { c.MinTemp = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.Panics(t, func() { NewAnnealer(cfg) })
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTourMeters(t *testing.T) {
	a := geo.Coord{Lat: 34.07, Lng: -118.44}
	b := geo.Coord{Lat: 34.05, Lng: -118.46}
	stops := []delivery.Request{{Location: a}, {Location: b}}

	want := geo.Distance(depot, a) + geo.Distance(a, b) + geo.Distance(b, depot)
	assert.InDelta(t, want, TourMeters(depot, stops), 1e-9)
	assert.Zero(t, TourMeters(depot, nil))
}

func BenchmarkOptimize(b *testing.B) {
	a := NewAnnealer(DefaultConfig())
	stops := randomStops(rand.New(rand.NewSource(1)), 25)
	rng := rand.New(rand.NewSource(2))

	for b.Loop() {
		a.Optimize(depot, stops, rng)
	}
}

// Package optimize reorders delivery stops to shorten the straight-line tour
// depot -> stops -> depot using simulated annealing.
package optimize

import (
	"fmt"
	"math"
	"math/rand"

	"delivery_router/pkg/delivery"
	"delivery_router/pkg/geo"
)

// Config is the cooling schedule.
type Config struct {
	// Retention is the factor T is multiplied by after each temperature
	// level. Must be in (0, 1).
	Retention float64
	// AttemptsPerTemp is the number of swap proposals made at each level.
	AttemptsPerTemp int
	// MinTemp stops the search once T falls to or below it.
	MinTemp float64
}

// DefaultConfig returns the canonical schedule: T0 = n², retention 0.9,
// 100 attempts per level, stop at T <= 1.
func DefaultConfig() Config {
	return Config{
		Retention:       0.9,
		AttemptsPerTemp: 100,
		MinTemp:         1,
	}
}

// Validate reports whether the schedule terminates.
func (c Config) Validate() error {
	if !(c.Retention > 0 && c.Retention < 1) {
		return fmt.Errorf("retention %v must be in (0, 1)", c.Retention)
	}
	if c.AttemptsPerTemp < 1 {
		return fmt.Errorf("attempts per temperature %d must be at least 1", c.AttemptsPerTemp)
	}
	if !(c.MinTemp > 0) {
		return fmt.Errorf("minimum temperature %v must be positive", c.MinTemp)
	}
	return nil
}

// Stats describes one optimization run.
type Stats struct {
	Proposals  int // swaps evaluated
	Accepted   int // proposals that became the current order
	Improved   int // accepted proposals that shortened the current order
	TempLevels int // temperature levels visited
}

// Result is the outcome of Optimize.
type Result struct {
	Stops           []delivery.Request // a permutation of the input
	OriginalMeters  float64            // tour length in the input order
	OptimizedMeters float64            // tour length in Stops order
	Stats           Stats
}

// Optimizer reorders stops to shorten the tour.
type Optimizer interface {
	Optimize(depot geo.Coord, stops []delivery.Request, rng *rand.Rand) Result
}

// Annealer implements Optimizer with simulated annealing over pairwise swaps.
type Annealer struct {
	cfg Config
}

// NewAnnealer creates an Annealer. It panics if cfg is invalid.
func NewAnnealer(cfg Config) *Annealer {
	if err := cfg.Validate(); err != nil {
		panic("optimize: " + err.Error())
	}
	return &Annealer{cfg: cfg}
}

// Optimize returns a visiting order for stops whose tour is never longer than
// the input order. The input order is kept unless a candidate is shorter by
// more than tieTolerance. stops is not modified. rng must not be nil; a fixed seed
// gives a reproducible result.
func (a *Annealer) Optimize(depot geo.Coord, stops []delivery.Request, rng *rand.Rand) Result {
	if rng == nil {
		panic("optimize: nil random source")
	}

	original := TourMeters(depot, stops)
	n := len(stops)
	if n <= 1 {
		return Result{
			Stops:           append([]delivery.Request(nil), stops...),
			OriginalMeters:  original,
			OptimizedMeters: original,
		}
	}

	var st Stats

	current := append([]delivery.Request(nil), stops...)
	rng.Shuffle(n, func(i, j int) { current[i], current[j] = current[j], current[i] })
	currentLen := TourMeters(depot, current)

	best := append([]delivery.Request(nil), current...)
	bestLen := currentLen

	for temp := float64(n * n); temp > a.cfg.MinTemp; temp *= a.cfg.Retention {
		st.TempLevels++
		for attempt := 0; attempt < a.cfg.AttemptsPerTemp; attempt++ {
			st.Proposals++
			i, j := rng.Intn(n), rng.Intn(n)

			// Swap in place; undo if rejected.
			current[i], current[j] = current[j], current[i]
			candLen := TourMeters(depot, current)

			if candLen < currentLen {
				currentLen = candLen
				st.Accepted++
				st.Improved++
				if candLen < bestLen {
					copy(best, current)
					bestLen = candLen
				}
				continue
			}
			if math.Exp((currentLen-candLen)/temp) > rng.Float64() {
				currentLen = candLen
				st.Accepted++
				continue
			}
			current[i], current[j] = current[j], current[i]
		}
	}

	res := Result{
		Stops:           append([]delivery.Request(nil), stops...),
		OriginalMeters:  original,
		OptimizedMeters: original,
		Stats:           st,
	}
	if shorter(currentLen, res.OptimizedMeters) {
		res.Stops, res.OptimizedMeters = current, currentLen
	}
	if shorter(bestLen, res.OptimizedMeters) {
		res.Stops, res.OptimizedMeters = best, bestLen
	}
	return res
}

// tieTolerance is the relative margin below which two tour lengths count as
// equal. Mirrored tours differ only by rounding.
const tieTolerance = 1e-9

// shorter reports whether a beats b by more than rounding noise.
func shorter(a, b float64) bool {
	return a < b-b*tieTolerance
}

// TourMeters is the great-circle length of depot -> stops... -> depot.
func TourMeters(depot geo.Coord, stops []delivery.Request) float64 {
	total := 0.0
	prev := depot
	for _, s := range stops {
		total += geo.Distance(prev, s.Location)
		prev = s.Location
	}
	return total + geo.Distance(prev, depot)
}

package streetmap

import (
	"errors"
	"math"

	"github.com/tidwall/rtree"

	"delivery_router/pkg/geo"
)

// DefaultMaxSnapMeters is the snapping radius used by the API.
const DefaultMaxSnapMeters = 500.0

// ErrPointTooFar is returned when no map coordinate is within the snap radius.
var ErrPointTooFar = errors.New("point too far from road")

// Snapper finds the nearest routable coordinate to an arbitrary point.
// Only coordinates with outgoing segments are indexed, so a snapped point is
// always a valid route endpoint.
type Snapper struct {
	tree rtree.RTreeG[geo.Coord]
}

// NewSnapper builds an R-tree over the routable coordinates of m.
func NewSnapper(m *StreetMap) *Snapper {
	s := &Snapper{}
	for _, c := range m.coords {
		if !m.Has(c) {
			continue
		}
		p := [2]float64{c.Lng, c.Lat}
		s.tree.Insert(p, p, c)
	}
	return s
}

// Len returns the number of indexed coordinates.
func (s *Snapper) Len() int { return s.tree.Len() }

// Snap returns the indexed coordinate closest to c and its distance in meters.
// An exact match is returned unchanged with distance 0.
func (s *Snapper) Snap(c geo.Coord, maxMeters float64) (geo.Coord, float64, error) {
	dLat, dLng := geo.DegreesForMeters(c.Lat, maxMeters)
	lo := [2]float64{c.Lng - dLng, c.Lat - dLat}
	hi := [2]float64{c.Lng + dLng, c.Lat + dLat}

	best := geo.Coord{}
	bestDist := math.Inf(1)
	s.tree.Search(lo, hi, func(_, _ [2]float64, cand geo.Coord) bool {
		// Cheap filter first, exact distance only for contenders.
		if geo.EquirectangularDist(c.Lat, c.Lng, cand.Lat, cand.Lng) > maxMeters*1.01 {
			return true
		}
		if d := geo.Distance(c, cand); d < bestDist {
			best, bestDist = cand, d
		}
		return true
	})

	if bestDist > maxMeters {
		return geo.Coord{}, 0, ErrPointTooFar
	}
	return best, bestDist, nil
}

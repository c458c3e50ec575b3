package geo

import "math"

// LineAngle returns the direction of travel from a to b in degrees,
// measured counter-clockwise from east, in [0, 360).
// Lat/lng are treated as planar y/x, which is fine at street scale.
func LineAngle(a, b Coord) float64 {
	deg := math.Atan2(b.Lat-a.Lat, b.Lng-a.Lng) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return deg
}

// AngleBetween returns the counter-clockwise angle in [0, 360) needed to turn
// from the heading a1→b1 onto the heading a2→b2.
// Values just above 0 are slight left turns, just below 360 slight right turns.
func AngleBetween(a1, b1, a2, b2 Coord) float64 {
	first := math.Atan2(b1.Lat-a1.Lat, b1.Lng-a1.Lng)
	second := math.Atan2(b2.Lat-a2.Lat, b2.Lng-a2.Lng)
	deg := (second - first) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return deg
}

// Package geo holds the coordinate type and the distance and angle helpers
// shared by the street map, the router and the optimizer.
package geo

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Coord is a geographic point. Two coords are the same location only when
// both components are exactly equal.
type Coord struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (c Coord) String() string {
	return fmt.Sprintf("(%.7f, %.7f)", c.Lat, c.Lng)
}

// Valid reports whether c is finite and inside the lat/lng ranges.
func (c Coord) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lng, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// Hash is the hash function for Coord keys. It is pure and deterministic
// across processes. Negative zero is folded to zero so that keys that
// compare equal always hash equal.
func Hash(c Coord) uint64 {
	lat, lng := c.Lat, c.Lng
	if lat == 0 {
		lat = 0
	}
	if lng == 0 {
		lng = 0
	}
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], math.Float64bits(lat))
	binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(lng))
	return xxhash.Sum64(buf[:])
}

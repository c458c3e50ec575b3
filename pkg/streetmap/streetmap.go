// Package streetmap holds the road network: directed street segments indexed
// by their starting coordinate.
package streetmap

import (
	"delivery_router/pkg/geo"
	"delivery_router/pkg/hashmap"
)

// Segment is a directed piece of street from Start to End.
type Segment struct {
	Start geo.Coord
	End   geo.Coord
	Name  string
}

// Length returns the great-circle length of the segment in meters.
func (s Segment) Length() float64 {
	return geo.Distance(s.Start, s.End)
}

// Reverse returns the same street traveled the other way.
func (s Segment) Reverse() Segment {
	return Segment{Start: s.End, End: s.Start, Name: s.Name}
}

// Angle returns the heading of the segment in degrees counter-clockwise
// from east, in [0, 360).
func (s Segment) Angle() float64 {
	return geo.LineAngle(s.Start, s.End)
}

// StreetMap is a directed street graph. It is read-only once built and may
// then be shared by concurrent readers.
type StreetMap struct {
	out *hashmap.Map[geo.Coord, []Segment] // start coord -> outgoing segments
	ids *hashmap.Map[geo.Coord, uint32]    // every coord seen -> dense id

	coords   []geo.Coord // ids[c] indexes into coords
	streets  []Segment   // two-way streets as added
	oneWay   []Segment   // directed segments as added
	numEdges int
}

// New returns an empty street map.
func New() *StreetMap {
	return &StreetMap{
		out: hashmap.New[geo.Coord, []Segment](geo.Hash),
		ids: hashmap.New[geo.Coord, uint32](geo.Hash),
	}
}

// AddStreet adds a two-way street: the segment and its reverse.
func (m *StreetMap) AddStreet(s Segment) {
	m.streets = append(m.streets, s)
	m.addDirected(s)
	m.addDirected(s.Reverse())
}

// AddSegment adds a single directed segment (a one-way street).
func (m *StreetMap) AddSegment(s Segment) {
	m.oneWay = append(m.oneWay, s)
	m.addDirected(s)
}

func (m *StreetMap) addDirected(s Segment) {
	m.id(s.Start)
	m.id(s.End)
	if segs, ok := m.out.Find(s.Start); ok {
		*segs = append(*segs, s)
	} else {
		m.out.Associate(s.Start, []Segment{s})
	}
	m.numEdges++
}

func (m *StreetMap) id(c geo.Coord) uint32 {
	if id, ok := m.ids.Find(c); ok {
		return *id
	}
	id := uint32(len(m.coords))
	m.coords = append(m.coords, c)
	m.ids.Associate(c, id)
	return id
}

// SegmentsFrom returns the segments departing from c. ok is false when no
// segment starts at c. The returned slice must not be modified.
func (m *StreetMap) SegmentsFrom(c geo.Coord) ([]Segment, bool) {
	segs, ok := m.out.Find(c)
	if !ok {
		return nil, false
	}
	return *segs, true
}

// Has reports whether c has at least one outgoing segment.
func (m *StreetMap) Has(c geo.Coord) bool {
	_, ok := m.out.Find(c)
	return ok
}

// NumCoords returns the number of distinct coordinates in the map.
func (m *StreetMap) NumCoords() int { return len(m.coords) }

// NumSegments returns the number of directed segments.
func (m *StreetMap) NumSegments() int { return m.numEdges }

// Coords returns every coordinate in insertion order.
func (m *StreetMap) Coords() []geo.Coord { return m.coords }

// Streets returns the two-way streets as they were added.
func (m *StreetMap) Streets() []Segment { return m.streets }

// OneWay returns the one-way segments as they were added.
func (m *StreetMap) OneWay() []Segment { return m.oneWay }

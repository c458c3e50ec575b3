package streetmap

import (
	"delivery_router/pkg/geo"
	"delivery_router/pkg/hashmap"
)

// UnionFind implements a disjoint-set data structure with path compression
// and union by rank.
type UnionFind struct {
	parent []uint32
	rank   []byte // byte is sufficient, max rank ~30 for realistic maps
	size   []uint32
}

// NewUnionFind creates a UnionFind for n elements.
func NewUnionFind(n uint32) *UnionFind {
	parent := make([]uint32, n)
	size := make([]uint32, n)
	for i := range n {
		parent[i] = i
		size[i] = 1
	}
	return &UnionFind{
		parent: parent,
		rank:   make([]byte, n),
		size:   size,
	}
}

// Find returns the representative of the set containing x, with path halving.
func (uf *UnionFind) Find(x uint32) uint32 {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]] // path halving
		x = uf.parent[x]
	}
	return x
}

// Union merges the sets containing x and y. Returns false if already same set.
func (uf *UnionFind) Union(x, y uint32) bool {
	rx := uf.Find(x)
	ry := uf.Find(y)
	if rx == ry {
		return false
	}

	if uf.rank[rx] < uf.rank[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = rx
	uf.size[rx] += uf.size[ry]
	if uf.rank[rx] == uf.rank[ry] {
		uf.rank[rx]++
	}
	return true
}

// Size returns the number of elements in the set containing x.
func (uf *UnionFind) Size(x uint32) uint32 {
	return uf.size[uf.Find(x)]
}

// unionAll joins the endpoints of every segment, ignoring direction.
func (m *StreetMap) unionAll() *UnionFind {
	uf := NewUnionFind(uint32(len(m.coords)))
	join := func(s Segment) {
		a, _ := m.ids.Find(s.Start)
		b, _ := m.ids.Find(s.End)
		uf.Union(*a, *b)
	}
	for _, s := range m.streets {
		join(s)
	}
	for _, s := range m.oneWay {
		join(s)
	}
	return uf
}

// Components returns the number of weakly connected components.
func (m *StreetMap) Components() int {
	if len(m.coords) == 0 {
		return 0
	}
	uf := m.unionAll()
	n := 0
	for i := range uint32(len(m.coords)) {
		if uf.Find(i) == i {
			n++
		}
	}
	return n
}

// LargestComponent returns the coordinates of the largest weakly connected
// component (treating every segment as two-way).
func (m *StreetMap) LargestComponent() []geo.Coord {
	if len(m.coords) == 0 {
		return nil
	}

	uf := m.unionAll()

	bestRoot := uint32(0)
	bestSize := uint32(0)
	for i := range uint32(len(m.coords)) {
		root := uf.Find(i)
		if size := uf.Size(root); size > bestSize {
			bestRoot = root
			bestSize = size
		}
	}

	coords := make([]geo.Coord, 0, bestSize)
	for i := range uint32(len(m.coords)) {
		if uf.Find(i) == bestRoot {
			coords = append(coords, m.coords[i])
		}
	}
	return coords
}

// Filter returns a new map holding only the segments whose endpoints are
// both in keep.
func (m *StreetMap) Filter(keep []geo.Coord) *StreetMap {
	set := hashmap.New[geo.Coord, struct{}](geo.Hash)
	for _, c := range keep {
		set.Associate(c, struct{}{})
	}
	inside := func(s Segment) bool {
		_, a := set.Find(s.Start)
		_, b := set.Find(s.End)
		return a && b
	}

	out := New()
	for _, s := range m.streets {
		if inside(s) {
			out.AddStreet(s)
		}
	}
	for _, s := range m.oneWay {
		if inside(s) {
			out.AddSegment(s)
		}
	}
	return out
}

// Package routing computes point-to-point paths over the street map with A*.
package routing

import (
	"errors"

	"delivery_router/pkg/geo"
	"delivery_router/pkg/hashmap"
	"delivery_router/pkg/streetmap"
)

var (
	// ErrBadCoordinate is returned when the start or goal has no outgoing
	// segments in the network. It is detected before any search work.
	ErrBadCoordinate = errors.New("coordinate not in street map")
	// ErrNoRoute is returned when the goal is unreachable from the start.
	ErrNoRoute = errors.New("no route found")
)

// Network is the query surface the router needs from a road network.
type Network interface {
	SegmentsFrom(c geo.Coord) ([]streetmap.Segment, bool)
}

// Route is the output of a route query.
type Route struct {
	Segments       []streetmap.Segment // ordered start to goal
	DistanceMeters float64
	NodesGenerated int // search nodes created, a measure of query cost
}

// Router is the interface for route queries.
type Router interface {
	Route(start, goal geo.Coord) (*Route, error)
}

// noParent marks the root of the search tree.
const noParent = int32(-1)

// searchNode is one entry of the per-query arena. Back-pointers are arena
// indices, so the whole tree is released with the arena.
type searchNode struct {
	coord  geo.Coord
	parent int32
	via    streetmap.Segment // segment used to reach coord from parent
	g      float64           // path cost so far in meters
	h      float64           // straight-line estimate to goal
}

// AStar implements Router with A* over a Network, using segment length as
// edge weight and great-circle distance to the goal as the heuristic.
type AStar struct {
	net Network
}

// NewAStar creates a router over net.
func NewAStar(net Network) *AStar {
	return &AStar{net: net}
}

// Route computes the shortest path from start to goal.
func (a *AStar) Route(start, goal geo.Coord) (*Route, error) {
	if _, ok := a.net.SegmentsFrom(start); !ok {
		return nil, ErrBadCoordinate
	}
	if _, ok := a.net.SegmentsFrom(goal); !ok {
		return nil, ErrBadCoordinate
	}

	arena := []searchNode{{
		coord:  start,
		parent: noParent,
		h:      geo.Distance(start, goal),
	}}
	closed := hashmap.New[geo.Coord, struct{}](geo.Hash)
	var open minHeap
	open.Push(0, arena[0].h)

	for open.Len() > 0 {
		idx := open.Pop().node
		cur := arena[idx]

		if cur.coord == goal {
			return buildRoute(arena, idx), nil
		}

		// A coord can be pushed more than once; only its first pop counts.
		if _, done := closed.Find(cur.coord); done {
			continue
		}
		closed.Associate(cur.coord, struct{}{})

		segs, _ := a.net.SegmentsFrom(cur.coord)
		for _, seg := range segs {
			if _, done := closed.Find(seg.End); done {
				continue
			}
			next := searchNode{
				coord:  seg.End,
				parent: idx,
				via:    seg,
				g:      cur.g + seg.Length(),
				h:      geo.Distance(seg.End, goal),
			}
			arena = append(arena, next)
			open.Push(int32(len(arena)-1), next.g+next.h)
		}
	}

	return nil, ErrNoRoute
}

// buildRoute walks back-pointers from the goal node and returns the path in
// start-to-goal order.
func buildRoute(arena []searchNode, goal int32) *Route {
	depth := 0
	for n := goal; arena[n].parent != noParent; n = arena[n].parent {
		depth++
	}

	route := &Route{
		Segments:       make([]streetmap.Segment, depth),
		NodesGenerated: len(arena),
	}
	i := depth - 1
	for n := goal; arena[n].parent != noParent; n = arena[n].parent {
		route.Segments[i] = arena[n].via
		i--
	}
	for _, seg := range route.Segments {
		route.DistanceMeters += seg.Length()
	}
	return route
}

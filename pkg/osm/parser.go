// Package osm imports drivable streets from an OpenStreetMap PBF extract.
package osm

import (
	"context"
	"fmt"
	"io"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"go.uber.org/zap"

	"delivery_router/pkg/geo"
	"delivery_router/pkg/streetmap"
)

// unnamedRoad is the street name used when a way has neither name nor ref.
const unnamedRoad = "unnamed road"

// Edge is one way segment between consecutive way nodes, with the
// directions in which it may be driven.
type Edge struct {
	Segment  streetmap.Segment // in way node order
	Forward  bool
	Backward bool
}

// ParseResult holds the output of parsing an OSM PBF file.
type ParseResult struct {
	Edges []Edge

	Ways          int // car-accessible ways kept
	SkippedEdges  int // edges missing a node coordinate
	BBoxFiltered  int // edges outside the bounding box
	DegenerateRun int // consecutive duplicate way nodes dropped
}

// Build creates a street map from the parsed edges. Two-way edges become
// streets, one-way edges become single directed segments in their legal
// direction.
func (r *ParseResult) Build() *streetmap.StreetMap {
	m := streetmap.New()
	for _, e := range r.Edges {
		switch {
		case e.Forward && e.Backward:
			m.AddStreet(e.Segment)
		case e.Forward:
			m.AddSegment(e.Segment)
		case e.Backward:
			m.AddSegment(e.Segment.Reverse())
		}
	}
	return m
}

// carHighways lists highway tag values accessible by car.
var carHighways = map[string]bool{
	"motorway":       true,
	"motorway_link":  true,
	"trunk":          true,
	"trunk_link":     true,
	"primary":        true,
	"primary_link":   true,
	"secondary":      true,
	"secondary_link": true,
	"tertiary":       true,
	"tertiary_link":  true,
	"unclassified":   true,
	"residential":    true,
	"living_street":  true,
	"service":        true,
}

// isCarAccessible returns true if the way is drivable by car.
func isCarAccessible(tags osm.Tags) bool {
	if !carHighways[tags.Find("highway")] {
		return false
	}

	// Skip area highways (pedestrian plazas).
	if tags.Find("area") == "yes" {
		return false
	}

	access := tags.Find("access")
	if access == "no" || access == "private" {
		return false
	}
	return tags.Find("motor_vehicle") != "no"
}

// directionFlags returns (forward, backward) based on highway type and oneway tags.
func directionFlags(tags osm.Tags) (forward, backward bool) {
	forward, backward = true, true

	hw := tags.Find("highway")

	// Implied oneway for motorways and roundabouts.
	if hw == "motorway" || hw == "motorway_link" || tags.Find("junction") == "roundabout" {
		backward = false
	}

	switch tags.Find("oneway") {
	case "yes", "true", "1":
		forward, backward = true, false
	case "-1", "reverse":
		forward, backward = false, true
	case "no":
		forward, backward = true, true
	case "reversible":
		// Time-dependent, skip entirely.
		forward, backward = false, false
	}
	return forward, backward
}

// streetName picks the display name of a way.
func streetName(tags osm.Tags) string {
	if name := tags.Find("name"); name != "" {
		return name
	}
	if ref := tags.Find("ref"); ref != "" {
		return ref
	}
	return unnamedRoad
}

// wayInfo holds parsed way data collected during Pass 1.
type wayInfo struct {
	Name     string
	NodeIDs  []osm.NodeID
	Forward  bool
	Backward bool
}

// newWayInfo extracts the routable part of w. It reports false for ways a car
// cannot use in either direction.
func newWayInfo(w *osm.Way) (wayInfo, bool) {
	if !isCarAccessible(w.Tags) || len(w.Nodes) < 2 {
		return wayInfo{}, false
	}
	fwd, bwd := directionFlags(w.Tags)
	if !fwd && !bwd {
		return wayInfo{}, false
	}

	nodeIDs := make([]osm.NodeID, len(w.Nodes))
	for i, wn := range w.Nodes {
		nodeIDs[i] = wn.ID
	}
	return wayInfo{
		Name:     streetName(w.Tags),
		NodeIDs:  nodeIDs,
		Forward:  fwd,
		Backward: bwd,
	}, true
}

// BBox defines a geographic bounding box for filtering.
// If non-zero, only edges with both endpoints inside the box are kept.
type BBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// IsZero returns true if the bbox is unset.
func (b BBox) IsZero() bool {
	return b.MinLat == 0 && b.MaxLat == 0 && b.MinLng == 0 && b.MaxLng == 0
}

// Contains returns true if c is inside the bounding box.
func (b BBox) Contains(c geo.Coord) bool {
	return c.Lat >= b.MinLat && c.Lat <= b.MaxLat && c.Lng >= b.MinLng && c.Lng <= b.MaxLng
}

// ParseOptions configures the OSM parser.
type ParseOptions struct {
	BBox   BBox        // if non-zero, filter edges to this bounding box
	Logger *zap.Logger // progress logging; nil disables it
}

// Parse reads an OSM PBF file and returns street edges for car routing.
// The reader is consumed twice (seeks back to start for the second pass),
// so it must implement io.ReadSeeker.
func Parse(ctx context.Context, rs io.ReadSeeker, opts ...ParseOptions) (*ParseResult, error) {
	var opt ParseOptions
	if len(opts) > 0 {
		opt = opts[0]
	}
	logger := opt.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// Pass 1: Scan ways to collect referenced node IDs and way info.
	referenced := make(map[osm.NodeID]struct{})
	var ways []wayInfo

	scanner := osmpbf.New(ctx, rs, 1)
	scanner.SkipNodes = true
	scanner.SkipRelations = true

	for scanner.Scan() {
		w, ok := scanner.Object().(*osm.Way)
		if !ok {
			continue
		}
		info, ok := newWayInfo(w)
		if !ok {
			continue
		}
		for _, id := range info.NodeIDs {
			referenced[id] = struct{}{}
		}
		ways = append(ways, info)
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("pass 1 (ways): %w", err)
	}
	scanner.Close()

	logger.Info("pass 1 complete",
		zap.Int("ways", len(ways)),
		zap.Int("referenced_nodes", len(referenced)))

	// Pass 2: Scan nodes to collect coordinates for referenced nodes only.
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek for pass 2: %w", err)
	}

	nodes := make(map[osm.NodeID]geo.Coord, len(referenced))

	scanner = osmpbf.New(ctx, rs, 1)
	scanner.SkipWays = true
	scanner.SkipRelations = true

	for scanner.Scan() {
		n, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		if _, needed := referenced[n.ID]; !needed {
			continue
		}
		nodes[n.ID] = geo.Coord{Lat: n.Lat, Lng: n.Lon}
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("pass 2 (nodes): %w", err)
	}
	scanner.Close()

	logger.Info("pass 2 complete", zap.Int("node_coords", len(nodes)))

	res := buildEdges(ways, nodes, opt.BBox)

	if res.SkippedEdges > 0 {
		logger.Warn("skipped edges with missing node coordinates", zap.Int("edges", res.SkippedEdges))
	}
	if res.BBoxFiltered > 0 {
		logger.Info("filtered edges outside bounding box", zap.Int("edges", res.BBoxFiltered))
	}
	logger.Info("built street edges", zap.Int("edges", len(res.Edges)))

	return res, nil
}

// buildEdges splits ways into edges between consecutive nodes.
func buildEdges(ways []wayInfo, nodes map[osm.NodeID]geo.Coord, bbox BBox) *ParseResult {
	useBBox := !bbox.IsZero()
	res := &ParseResult{Ways: len(ways)}

	for _, w := range ways {
		for i := 0; i < len(w.NodeIDs)-1; i++ {
			from, fromOK := nodes[w.NodeIDs[i]]
			to, toOK := nodes[w.NodeIDs[i+1]]
			if !fromOK || !toOK {
				res.SkippedEdges++
				continue
			}
			if from == to {
				res.DegenerateRun++
				continue
			}

			// Bounding box filter: skip edges with any endpoint outside.
			if useBBox && (!bbox.Contains(from) || !bbox.Contains(to)) {
				res.BBoxFiltered++
				continue
			}

			res.Edges = append(res.Edges, Edge{
				Segment:  streetmap.Segment{Start: from, End: to, Name: w.Name},
				Forward:  w.Forward,
				Backward: w.Backward,
			})
		}
	}
	return res
}

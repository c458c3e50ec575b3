package api

import "delivery_router/pkg/planner"

// LatLngJSON represents a lat/lng pair in JSON.
type LatLngJSON struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RouteRequest is the JSON body for POST /api/v1/route.
type RouteRequest struct {
	Start LatLngJSON `json:"start"`
	End   LatLngJSON `json:"end"`
	Snap  bool       `json:"snap"` // move start and end to the nearest map coordinate
}

// RouteResponse is the JSON response for a successful route query.
type RouteResponse struct {
	TotalDistanceMeters float64       `json:"total_distance_meters"`
	Start               LatLngJSON    `json:"start"`
	End                 LatLngJSON    `json:"end"`
	NodesGenerated      int           `json:"nodes_generated"`
	Segments            []SegmentJSON `json:"segments"`
}

// SegmentJSON represents a street segment in the response.
type SegmentJSON struct {
	Street         string     `json:"street"`
	Start          LatLngJSON `json:"start"`
	End            LatLngJSON `json:"end"`
	DistanceMeters float64    `json:"distance_meters"`
}

// DeliveryJSON is one delivery request.
type DeliveryJSON struct {
	Location LatLngJSON `json:"location"`
	Item     string     `json:"item"`
}

// PlanRequest is the JSON body for POST /api/v1/optimize and /api/v1/plan.
type PlanRequest struct {
	Depot      LatLngJSON     `json:"depot"`
	Deliveries []DeliveryJSON `json:"deliveries"`
	Seed       *int64         `json:"seed,omitempty"` // random when absent
	Snap       bool           `json:"snap"`
}

// OptimizerStatsJSON reports the work done by the optimizer.
type OptimizerStatsJSON struct {
	Proposals  int `json:"proposals"`
	Accepted   int `json:"accepted"`
	Improved   int `json:"improved"`
	TempLevels int `json:"temperature_levels"`
}

// OptimizeResponse is the JSON response for POST /api/v1/optimize.
type OptimizeResponse struct {
	Deliveries          []DeliveryJSON     `json:"deliveries"`
	OriginalCrowMeters  float64            `json:"original_crow_meters"`
	OptimizedCrowMeters float64            `json:"optimized_crow_meters"`
	Seed                int64              `json:"seed"`
	Stats               OptimizerStatsJSON `json:"stats"`
}

// PlanResponse is the JSON response for POST /api/v1/plan.
type PlanResponse struct {
	Deliveries          []DeliveryJSON    `json:"deliveries"`
	Commands            []planner.Command `json:"commands"`
	Instructions        []string          `json:"instructions"`
	Legs                []planner.Leg     `json:"legs"`
	TotalDistanceMeters float64           `json:"total_distance_meters"`
	TotalDistanceMiles  float64           `json:"total_distance_miles"`
	OriginalCrowMeters  float64           `json:"original_crow_meters"`
	OptimizedCrowMeters float64           `json:"optimized_crow_meters"`
	Seed                int64             `json:"seed"`
}

// ErrorResponse is the JSON response for errors.
type ErrorResponse struct {
	Error          string  `json:"error"`
	Field          string  `json:"field,omitempty"`
	DistanceMeters float64 `json:"distance_meters,omitempty"`
}

// StatsResponse is the JSON response for GET /api/v1/stats.
type StatsResponse struct {
	NumCoords     int `json:"num_coords"`
	NumSegments   int `json:"num_segments"`
	NumComponents int `json:"num_components"`
	NumSnappable  int `json:"num_snappable"`
}

// HealthResponse is the JSON response for GET /api/v1/health.
type HealthResponse struct {
	Status string `json:"status"`
}

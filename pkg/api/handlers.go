package api

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"mime"
	"net/http"
	"time"

	"go.uber.org/zap"

	"delivery_router/pkg/delivery"
	"delivery_router/pkg/geo"
	"delivery_router/pkg/metrics"
	"delivery_router/pkg/optimize"
	"delivery_router/pkg/planner"
	"delivery_router/pkg/routing"
	"delivery_router/pkg/streetmap"
)

const (
	maxRouteBody = 1024
	// Per delivery: a location and an item label.
	maxBytesPerDelivery = 512
)

// Snapper moves a point to the nearest routable map coordinate.
type Snapper interface {
	Snap(c geo.Coord, maxMeters float64) (geo.Coord, float64, error)
}

// Deps are the collaborators of the HTTP handlers.
type Deps struct {
	Router        routing.Router
	Snapper       Snapper            // nil disables snapping
	Optimizer     optimize.Optimizer // nil selects the default annealer
	Stats         StatsResponse
	Logger        *zap.Logger // nil disables logging
	MaxSnapMeters float64
	MaxDeliveries int
}

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	router        routing.Router
	snapper       Snapper
	optimizer     optimize.Optimizer
	planner       *planner.Planner
	stats         StatsResponse
	logger        *zap.Logger
	maxSnapMeters float64
	maxDeliveries int
}

// NewHandlers creates handlers over the given dependencies.
func NewHandlers(d Deps) *Handlers {
	if d.Optimizer == nil {
		d.Optimizer = optimize.NewAnnealer(optimize.DefaultConfig())
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.MaxSnapMeters <= 0 {
		d.MaxSnapMeters = streetmap.DefaultMaxSnapMeters
	}
	if d.MaxDeliveries <= 0 {
		d.MaxDeliveries = 200
	}
	return &Handlers{
		router:        d.Router,
		snapper:       d.Snapper,
		optimizer:     d.Optimizer,
		planner:       planner.New(d.Router, d.Optimizer),
		stats:         d.Stats,
		logger:        d.Logger,
		maxSnapMeters: d.MaxSnapMeters,
		maxDeliveries: d.MaxDeliveries,
	}
}

// HandleRoute handles POST /api/v1/route.
func (h *Handlers) HandleRoute(w http.ResponseWriter, r *http.Request) {
	var req RouteRequest
	if !decodeJSON(w, r, maxRouteBody, &req) {
		return
	}

	start, end := req.Start.coord(), req.End.coord()
	if !start.Valid() {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "start")
		return
	}
	if !end.Valid() {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "end")
		return
	}

	if req.Snap {
		var ok bool
		if start, ok = h.snap(w, start, "start"); !ok {
			return
		}
		if end, ok = h.snap(w, end, "end"); !ok {
			return
		}
	}

	result, err := h.router.Route(start, end)
	if err != nil {
		metrics.RouteQueries.WithLabelValues(resultLabel(err)).Inc()
		h.writeRoutingError(w, r, err)
		return
	}
	metrics.RouteQueries.WithLabelValues("ok").Inc()
	metrics.RouteNodes.Observe(float64(result.NodesGenerated))

	resp := RouteResponse{
		TotalDistanceMeters: result.DistanceMeters,
		Start:               toLatLng(start),
		End:                 toLatLng(end),
		NodesGenerated:      result.NodesGenerated,
		Segments:            make([]SegmentJSON, 0, len(result.Segments)),
	}
	for _, seg := range result.Segments {
		resp.Segments = append(resp.Segments, SegmentJSON{
			Street:         seg.Name,
			Start:          toLatLng(seg.Start),
			End:            toLatLng(seg.End),
			DistanceMeters: seg.Length(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleOptimize handles POST /api/v1/optimize. It reorders the deliveries
// by straight-line distance without routing them.
func (h *Handlers) HandleOptimize(w http.ResponseWriter, r *http.Request) {
	depot, reqs, seed, ok := h.decodePlanRequest(w, r)
	if !ok {
		return
	}

	done := timeOp(r.Context(), h.logger, "optimize")
	res := h.optimizer.Optimize(depot, reqs, rand.New(rand.NewSource(seed)))
	done(nil)
	metrics.OptimizerSavings.Observe(res.OriginalMeters - res.OptimizedMeters)

	writeJSON(w, http.StatusOK, OptimizeResponse{
		Deliveries:          toDeliveries(res.Stops),
		OriginalCrowMeters:  res.OriginalMeters,
		OptimizedCrowMeters: res.OptimizedMeters,
		Seed:                seed,
		Stats: OptimizerStatsJSON{
			Proposals:  res.Stats.Proposals,
			Accepted:   res.Stats.Accepted,
			Improved:   res.Stats.Improved,
			TempLevels: res.Stats.TempLevels,
		},
	})
}

// HandlePlan handles POST /api/v1/plan.
func (h *Handlers) HandlePlan(w http.ResponseWriter, r *http.Request) {
	depot, reqs, seed, ok := h.decodePlanRequest(w, r)
	if !ok {
		return
	}

	done := timeOp(r.Context(), h.logger, "plan")
	plan, err := h.planner.Plan(depot, reqs, rand.New(rand.NewSource(seed)))
	done(&err)
	if err != nil {
		h.writeRoutingError(w, r, err)
		return
	}
	// The core runs to completion; report a blown deadline instead of a
	// response the client has likely stopped waiting for.
	if r.Context().Err() != nil {
		writeError(w, http.StatusServiceUnavailable, "request_timeout", "")
		return
	}

	metrics.PlanTourMeters.Observe(plan.TotalMeters)
	metrics.OptimizerSavings.Observe(plan.CrowOriginalMeters - plan.CrowOptimizedMeters)

	resp := PlanResponse{
		Deliveries:          toDeliveries(plan.Stops),
		Commands:            plan.Commands,
		Instructions:        make([]string, len(plan.Commands)),
		Legs:                plan.Legs,
		TotalDistanceMeters: plan.TotalMeters,
		TotalDistanceMiles:  geo.MetersToMiles(plan.TotalMeters),
		OriginalCrowMeters:  plan.CrowOriginalMeters,
		OptimizedCrowMeters: plan.CrowOptimizedMeters,
		Seed:                seed,
	}
	for i, c := range plan.Commands {
		resp.Instructions[i] = c.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleHealth handles GET /api/v1/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// HandleStats handles GET /api/v1/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stats)
}

func (h *Handlers) decodePlanRequest(w http.ResponseWriter, r *http.Request) (geo.Coord, []delivery.Request, int64, bool) {
	var req PlanRequest
	limit := int64(1024 + h.maxDeliveries*maxBytesPerDelivery)
	if !decodeJSON(w, r, limit, &req) {
		return geo.Coord{}, nil, 0, false
	}

	if len(req.Deliveries) > h.maxDeliveries {
		writeError(w, http.StatusBadRequest, "too_many_deliveries", "deliveries")
		return geo.Coord{}, nil, 0, false
	}

	depot := req.Depot.coord()
	if !depot.Valid() {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "depot")
		return geo.Coord{}, nil, 0, false
	}
	reqs := make([]delivery.Request, len(req.Deliveries))
	for i, d := range req.Deliveries {
		reqs[i] = delivery.Request{Location: d.Location.coord(), Item: d.Item}
		if !reqs[i].Location.Valid() {
			writeError(w, http.StatusBadRequest, "invalid_coordinates", "deliveries")
			return geo.Coord{}, nil, 0, false
		}
	}

	if req.Snap {
		var ok bool
		if depot, ok = h.snap(w, depot, "depot"); !ok {
			return geo.Coord{}, nil, 0, false
		}
		for i := range reqs {
			if reqs[i].Location, ok = h.snap(w, reqs[i].Location, "deliveries"); !ok {
				return geo.Coord{}, nil, 0, false
			}
		}
	}

	seed := time.Now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}
	return depot, reqs, seed, true
}

// snap writes a 422 and returns false if c is not near the map.
func (h *Handlers) snap(w http.ResponseWriter, c geo.Coord, field string) (geo.Coord, bool) {
	if h.snapper == nil {
		return c, true
	}
	snapped, _, err := h.snapper.Snap(c, h.maxSnapMeters)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "point_too_far_from_road", field)
		return geo.Coord{}, false
	}
	return snapped, true
}

func (h *Handlers) writeRoutingError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, routing.ErrBadCoordinate):
		writeError(w, http.StatusUnprocessableEntity, "coordinate_not_on_map", "")
	case errors.Is(err, routing.ErrNoRoute):
		writeError(w, http.StatusNotFound, "no_route_found", "")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "request_timeout", "")
	default:
		h.logger.Error("routing failed",
			zap.String("request_id", requestID(r.Context())),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "")
	}
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, routing.ErrBadCoordinate):
		return "bad_coordinate"
	case errors.Is(err, routing.ErrNoRoute):
		return "no_route"
	}
	return "error"
}

// decodeJSON enforces the content type and decodes a bounded body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, dst any) bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return false
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return false
	}
	return true
}

func (ll LatLngJSON) coord() geo.Coord {
	return geo.Coord{Lat: ll.Lat, Lng: ll.Lng}
}

func toLatLng(c geo.Coord) LatLngJSON {
	return LatLngJSON{Lat: c.Lat, Lng: c.Lng}
}

func toDeliveries(reqs []delivery.Request) []DeliveryJSON {
	out := make([]DeliveryJSON, len(reqs))
	for i, r := range reqs {
		out[i] = DeliveryJSON{Location: toLatLng(r.Location), Item: r.Item}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, field string) {
	writeJSON(w, status, ErrorResponse{Error: code, Field: field})
}

// Package planner turns a depot and a set of delivery requests into a
// complete tour: it orders the stops, routes every leg over the street map
// and produces driving commands.
package planner

import (
	"fmt"
	"math/rand"

	"delivery_router/pkg/delivery"
	"delivery_router/pkg/geo"
	"delivery_router/pkg/optimize"
	"delivery_router/pkg/routing"
)

// Leg is one routed hop of the tour.
type Leg struct {
	From           geo.Coord `json:"from"`
	To             geo.Coord `json:"to"`
	DistanceMeters float64   `json:"distance_meters"`
	Segments       int       `json:"segments"`
	NodesGenerated int       `json:"nodes_generated"`
}

// Plan is a complete delivery tour.
type Plan struct {
	Stops       []delivery.Request // visiting order
	Commands    []Command
	Legs        []Leg // depot -> stops -> depot
	TotalMeters float64

	// Straight-line tour lengths before and after reordering.
	CrowOriginalMeters  float64
	CrowOptimizedMeters float64
	Optimizer           optimize.Stats
}

// Planner composes an Optimizer and a Router.
type Planner struct {
	router    routing.Router
	optimizer optimize.Optimizer
}

// New creates a Planner. A nil optimizer selects the default annealer.
func New(router routing.Router, optimizer optimize.Optimizer) *Planner {
	if optimizer == nil {
		optimizer = optimize.NewAnnealer(optimize.DefaultConfig())
	}
	return &Planner{router: router, optimizer: optimizer}
}

// Plan orders reqs, routes depot -> each stop -> depot and returns the
// commands. If any leg cannot be routed, Plan returns the router's error
// wrapped with the leg, so errors.Is still matches routing.ErrNoRoute and
// routing.ErrBadCoordinate.
func (p *Planner) Plan(depot geo.Coord, reqs []delivery.Request, rng *rand.Rand) (*Plan, error) {
	opt := p.optimizer.Optimize(depot, reqs, rng)

	plan := &Plan{
		Stops:               opt.Stops,
		Legs:                make([]Leg, 0, len(opt.Stops)+1),
		CrowOriginalMeters:  opt.OriginalMeters,
		CrowOptimizedMeters: opt.OptimizedMeters,
		Optimizer:           opt.Stats,
	}

	from := depot
	for i, stop := range opt.Stops {
		if err := p.leg(plan, from, stop.Location); err != nil {
			return nil, fmt.Errorf("leg %d to %q: %w", i+1, stop.Item, err)
		}
		plan.Commands = append(plan.Commands, Command{Action: ActionDeliver, Item: stop.Item})
		from = stop.Location
	}
	if err := p.leg(plan, from, depot); err != nil {
		return nil, fmt.Errorf("return leg to depot: %w", err)
	}
	return plan, nil
}

func (p *Planner) leg(plan *Plan, from, to geo.Coord) error {
	r, err := p.router.Route(from, to)
	if err != nil {
		return fmt.Errorf("route %v -> %v: %w", from, to, err)
	}
	plan.Commands = appendMoves(plan.Commands, r.Segments)
	plan.TotalMeters += r.DistanceMeters
	plan.Legs = append(plan.Legs, Leg{
		From:           from,
		To:             to,
		DistanceMeters: r.DistanceMeters,
		Segments:       len(r.Segments),
		NodesGenerated: r.NodesGenerated,
	})
	return nil
}

package planner

import (
	"fmt"

	"delivery_router/pkg/geo"
	"delivery_router/pkg/streetmap"
)

// Action is the kind of a driving command.
type Action int

const (
	ActionProceed Action = iota
	ActionTurn
	ActionDeliver
)

func (a Action) String() string {
	switch a {
	case ActionProceed:
		return "proceed"
	case ActionTurn:
		return "turn"
	case ActionDeliver:
		return "deliver"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// MarshalText encodes the action by name.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText decodes an action name written by MarshalText.
func (a *Action) UnmarshalText(text []byte) error {
	for _, cand := range []Action{ActionProceed, ActionTurn, ActionDeliver} {
		if cand.String() == string(text) {
			*a = cand
			return nil
		}
	}
	return fmt.Errorf("unknown action %q", text)
}

// Command is one instruction for the driver.
//
// Proceed uses Direction (a compass point), Street and Meters.
// Turn uses Direction ("left" or "right") and Street.
// Deliver uses Item.
type Command struct {
	Action    Action  `json:"action"`
	Direction string  `json:"direction,omitempty"`
	Street    string  `json:"street,omitempty"`
	Meters    float64 `json:"meters,omitempty"`
	Item      string  `json:"item,omitempty"`
}

func (c Command) String() string {
	switch c.Action {
	case ActionProceed:
		return fmt.Sprintf("Proceed %.2f miles %s on %s", geo.MetersToMiles(c.Meters), c.Direction, c.Street)
	case ActionTurn:
		return fmt.Sprintf("Turn %s on %s", c.Direction, c.Street)
	case ActionDeliver:
		return "Deliver " + c.Item
	}
	return c.Action.String()
}

// Cardinal names the compass point for a heading in degrees counter-clockwise
// from east. Each point covers a 45° sector centred on its axis.
func Cardinal(deg float64) string {
	switch {
	case deg < 22.5:
		return "east"
	case deg < 67.5:
		return "northeast"
	case deg < 112.5:
		return "north"
	case deg < 157.5:
		return "northwest"
	case deg < 202.5:
		return "west"
	case deg < 247.5:
		return "southwest"
	case deg < 292.5:
		return "south"
	case deg < 337.5:
		return "southeast"
	}
	return "east"
}

// TurnDirection classifies the change of heading between two consecutive
// segments. ok is false when the heading changes by less than a degree
// either way.
func TurnDirection(from, to streetmap.Segment) (dir string, ok bool) {
	deg := geo.AngleBetween(from.Start, from.End, to.Start, to.End)
	if deg < 1 || deg > 359 {
		return "", false
	}
	if deg < 180 {
		return "left", true
	}
	return "right", true
}

// appendMoves turns a leg's segments into proceed and turn commands.
// Consecutive segments on the same street collapse into one proceed.
func appendMoves(cmds []Command, segs []streetmap.Segment) []Command {
	if len(segs) == 0 {
		return cmds
	}

	cur := Command{
		Action:    ActionProceed,
		Direction: Cardinal(segs[0].Angle()),
		Street:    segs[0].Name,
	}
	prev := segs[0]
	for _, seg := range segs {
		if seg.Name == prev.Name {
			cur.Meters += seg.Length()
			prev = seg
			continue
		}

		cmds = append(cmds, cur)
		if dir, ok := TurnDirection(prev, seg); ok {
			cmds = append(cmds, Command{Action: ActionTurn, Direction: dir, Street: seg.Name})
		}
		cur = Command{
			Action:    ActionProceed,
			Direction: Cardinal(seg.Angle()),
			Street:    seg.Name,
			Meters:    seg.Length(),
		}
		prev = seg
	}
	return append(cmds, cur)
}

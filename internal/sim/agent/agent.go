// Package agent implements the courier decision engine: order scoring
// and selection, the tiered movement planner, loop escape, and the
// per-tick decision cycle. The engine is pure decision logic; it never
// mutates the world and performs no I/O.
package agent

import (
	"couriergrid.ai/internal/sim/orders"
)

// Pos is a tile coordinate.
type Pos struct {
	X int
	Y int
}

// Dir is a cardinal unit step. The zero value means "no movement".
type Dir struct {
	DX int
	DY int
}

// dirs is the canonical neighbor order. Every planner walks it in this
// order so equal inputs always produce equal outputs.
var dirs = [4]Dir{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

func (p Pos) Add(d Dir) Pos { return Pos{X: p.X + d.DX, Y: p.Y + d.DY} }

func manhattan(a, b Pos) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// Grid is the geometry oracle: tile validity, obstacles, step costs.
type Grid interface {
	IsValid(x, y int) bool
	IsBlocked(x, y int) bool
	// TraversalCost is the cost of entering a tile, >= 1 for passable
	// tiles and +Inf for blocked ones.
	TraversalCost(x, y int) float64
}

// Weather is the weather oracle.
type Weather interface {
	// SpeedMultiplier is in (0,1].
	SpeedMultiplier() float64
}

// OrderSource yields the orders an agent may accept this tick. The
// returned slice is a read-only snapshot in a stable listing order.
type OrderSource interface {
	Selectable(tick uint64) []*orders.Order
}

// Target kinds.
const (
	TargetNone    = ""
	TargetPickup  = "pickup"
	TargetDropoff = "dropoff"
)

// State is everything one courier agent knows about itself. It is
// owned by exactly one Controller and mutated only through it.
type State struct {
	Pos Pos

	Weight   float64
	Capacity float64

	Active   *orders.Order
	Accepted []*orders.Order

	Target     Pos
	TargetKind string
}

// FreeCapacity is the weight the agent can still take on.
func (s *State) FreeCapacity() float64 {
	free := s.Capacity - s.Weight
	if free < 0 {
		return 0
	}
	return free
}

package agent

import (
	"log"
	"math/rand"

	"couriergrid.ai/internal/protocol"
	"couriergrid.ai/internal/sim/orders"
	"couriergrid.ai/internal/sim/tuning"
)

// How often the controller looks for an additional order while one is
// already active, in ticks. Acceptance costs the tick it happens on.
const extraOrderEvery = 15

// Controller runs the per-tick decision cycle for one courier agent.
// Exactly one Action comes out of every Decide call. The controller
// owns its State and its RNG; two controllers with the same seed and
// inputs replay identically.
type Controller struct {
	Tier string

	state    State
	params   tuning.TierParams
	detector *LoopDetector
	rng      *rand.Rand
	log      *log.Logger

	grid    Grid
	weather Weather
	source  OrderSource
}

func NewController(tier string, params tuning.TierParams, start Pos, capacity float64, seed int64, grid Grid, weather Weather, source OrderSource, logger *log.Logger) *Controller {
	return &Controller{
		Tier: tier,
		state: State{
			Pos:      start,
			Capacity: capacity,
		},
		params: params,
		detector: NewLoopDetector(
			params.EscapeWindow,
			params.HistoryCapacity,
			params.BudgetOscillation,
			params.BudgetSmallCycle,
			params.BudgetAlternation,
		),
		rng:     rand.New(rand.NewSource(seed)),
		log:     logger,
		grid:    grid,
		weather: weather,
		source:  source,
	}
}

// State returns a copy of the agent's current state.
func (c *Controller) State() State { return c.state }

// Escaping reports whether the loop-escape override is active.
func (c *Controller) Escaping() bool { return c.detector.Escaping() }

// Decide runs one decision cycle and returns exactly one action.
func (c *Controller) Decide(tick uint64) protocol.Action {
	c.validateTarget()

	// No active order: the only useful action is picking one up.
	if c.state.Active == nil {
		if o, ok := c.SelectOrder(c.source.Selectable(tick), c.state.Pos, c.weather.SpeedMultiplier()); ok {
			return protocol.AcceptOrder(o.ID)
		}
		return protocol.Idle()
	}

	// Opportunistic extra acceptance while under the tier's cap.
	if len(c.state.Accepted) < c.params.OrderCap && tick%extraOrderEvery == 0 {
		if o, ok := c.SelectOrder(c.source.Selectable(tick), c.state.Pos, c.weather.SpeedMultiplier()); ok {
			return protocol.AcceptOrder(o.ID)
		}
	}

	// On the target tile, the world settles pickup/delivery; don't pace.
	if c.state.Pos == c.state.Target {
		return protocol.Idle()
	}

	c.detector.Observe(c.state.Pos)
	if c.detector.Escaping() {
		c.detector.ConsumeStep()
		if d, ok := planRandom(c.grid, c.state.Pos, c.rng); ok {
			return protocol.Move(d.DX, d.DY)
		}
		return protocol.Idle()
	}

	if d, ok := c.NextStep(c.grid, c.state.Pos, c.state.Target, c.rng); ok {
		return protocol.Move(d.DX, d.DY)
	}
	return protocol.Idle()
}

// validateTarget self-heals target/state mismatches instead of
// trusting last tick's bookkeeping: an accepted order targets its
// pickup, a carried one its dropoff. Corrections are logged.
func (c *Controller) validateTarget() {
	o := c.state.Active
	if o == nil {
		if c.state.TargetKind != TargetNone {
			c.state.TargetKind = TargetNone
			c.state.Target = Pos{}
		}
		return
	}

	want := TargetPickup
	wantPos := Pos{X: o.Pickup[0], Y: o.Pickup[1]}
	if o.State == orders.StateCarrying {
		want = TargetDropoff
		wantPos = Pos{X: o.Dropoff[0], Y: o.Dropoff[1]}
	}
	if c.state.TargetKind != want || c.state.Target != wantPos {
		if c.log != nil {
			c.log.Printf("correcting target for %s: %s%v -> %s%v",
				o.ID, c.state.TargetKind, c.state.Target, want, wantPos)
		}
		c.state.TargetKind = want
		c.state.Target = wantPos
		c.detector.Reset()
	}
}

// OnMoved confirms a move the world applied.
func (c *Controller) OnMoved(p Pos) { c.state.Pos = p }

// OnAccepted records an acceptance the world granted. The first
// accepted order becomes active and establishes the pickup target.
func (c *Controller) OnAccepted(o *orders.Order) {
	c.state.Accepted = append(c.state.Accepted, o)
	if c.state.Active == nil {
		c.activate(o)
	}
}

// OnPickedUp switches the active order's target to its dropoff.
func (c *Controller) OnPickedUp(o *orders.Order) {
	c.state.Weight += o.Weight
	if c.state.Active == o {
		c.state.Target = Pos{X: o.Dropoff[0], Y: o.Dropoff[1]}
		c.state.TargetKind = TargetDropoff
		c.detector.Reset()
	}
}

// OnDelivered drops the order and promotes the next accepted one, if
// any, to active.
func (c *Controller) OnDelivered(o *orders.Order) {
	c.state.Weight -= o.Weight
	if c.state.Weight < 0 {
		c.state.Weight = 0
	}
	c.removeAccepted(o)
	if c.state.Active == o {
		c.state.Active = nil
		c.state.Target = Pos{}
		c.state.TargetKind = TargetNone
		c.detector.Reset()
		if len(c.state.Accepted) > 0 {
			c.activate(c.state.Accepted[0])
		}
	}
}

func (c *Controller) activate(o *orders.Order) {
	c.state.Active = o
	if o.State == orders.StateCarrying {
		c.state.Target = Pos{X: o.Dropoff[0], Y: o.Dropoff[1]}
		c.state.TargetKind = TargetDropoff
	} else {
		c.state.Target = Pos{X: o.Pickup[0], Y: o.Pickup[1]}
		c.state.TargetKind = TargetPickup
	}
	c.detector.Reset()
}

func (c *Controller) removeAccepted(o *orders.Order) {
	for i, q := range c.state.Accepted {
		if q == o {
			c.state.Accepted = append(c.state.Accepted[:i], c.state.Accepted[i+1:]...)
			return
		}
	}
}

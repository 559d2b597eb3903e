package agent

import "couriergrid.ai/internal/sim/orders"

// Approach scoring shape: big rewards right at the goal, a linear
// decay inside closeRadius, then a steep penalty per extra tile. The
// alignment bonus rewards lining up on the goal's row or column for
// the final approach, over merely shrinking raw distance.
const (
	approachGoal    = 100.0
	approachNear    = 50.0
	approachDecay   = 15.0
	approachPenalty = 25.0
	closeRadius     = 3
	alignBonus      = 5.0
)

// OrderScore is the desirability of an order from pos under the given
// weather: alpha*payout - beta*distance - gamma*(1-speedMultiplier).
// The distance term is to the order's pickup while it is waiting to be
// collected and to its dropoff once carried.
func (c *Controller) OrderScore(o *orders.Order, pos Pos, speedMult float64) float64 {
	target := Pos{X: o.Pickup[0], Y: o.Pickup[1]}
	if o.State == orders.StateCarrying {
		target = Pos{X: o.Dropoff[0], Y: o.Dropoff[1]}
	}
	dist := float64(manhattan(pos, target))
	return c.params.Alpha*o.Payout - c.params.Beta*dist - c.params.Gamma*(1-speedMult)
}

// ApproachScore rates a candidate position purely by how well it sets
// up reaching target. Used by the lookahead planner.
func ApproachScore(pos, target Pos) float64 {
	d := manhattan(pos, target)

	var score float64
	switch {
	case d == 0:
		score = approachGoal
	case d <= closeRadius:
		score = approachNear - approachDecay*float64(d-1)
	default:
		score = approachNear - approachDecay*float64(closeRadius-1) - approachPenalty*float64(d-closeRadius)
	}

	if d > 0 && (pos.X == target.X || pos.Y == target.Y) {
		score += alignBonus
	}
	return score
}

package agent

import "couriergrid.ai/internal/sim/orders"

// SelectOrder picks the best acceptable order from the snapshot: only
// orders whose weight fits the agent's free capacity are considered,
// the highest score wins, ties resolve by declared priority and then
// by listing position. Pure query; the caller performs the acceptance
// transition.
func (c *Controller) SelectOrder(available []*orders.Order, pos Pos, speedMult float64) (*orders.Order, bool) {
	free := c.state.FreeCapacity()

	var (
		best      *orders.Order
		bestScore float64
	)
	for _, o := range available {
		if o.Weight > free {
			continue
		}
		score := c.OrderScore(o, pos, speedMult)
		if best == nil {
			best, bestScore = o, score
			continue
		}
		if score > bestScore {
			best, bestScore = o, score
			continue
		}
		if score == bestScore && o.Priority > best.Priority {
			best, bestScore = o, score
		}
		// Equal score and priority: keep the earlier listing.
	}
	if best == nil {
		return nil, false
	}
	return best, true
}

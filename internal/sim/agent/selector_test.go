package agent

import (
	"testing"

	"couriergrid.ai/internal/sim/orders"
)

func TestSelectOrder_HighestScoreWins(t *testing.T) {
	c := mediumController(t)
	avail := []*orders.Order{
		{ID: "FAR", Pickup: [2]int{10, 10}, Payout: 12, Weight: 1, State: orders.StateAvailable},
		{ID: "NEAR", Pickup: [2]int{1, 0}, Payout: 10, Weight: 1, State: orders.StateAvailable},
	}
	o, ok := c.SelectOrder(avail, Pos{0, 0}, 1)
	if !ok || o.ID != "NEAR" {
		t.Fatalf("picked %v, want NEAR", o)
	}
}

func TestSelectOrder_TieBreaksByPriority(t *testing.T) {
	c := mediumController(t)
	avail := []*orders.Order{
		{ID: "LOW", Pickup: [2]int{2, 0}, Payout: 10, Weight: 1, Priority: 0, State: orders.StateAvailable},
		{ID: "HIGH", Pickup: [2]int{2, 0}, Payout: 10, Weight: 1, Priority: 2, State: orders.StateAvailable},
	}
	o, ok := c.SelectOrder(avail, Pos{0, 0}, 1)
	if !ok || o.ID != "HIGH" {
		t.Fatalf("picked %v, want HIGH", o)
	}
}

func TestSelectOrder_FullTieKeepsListingOrder(t *testing.T) {
	c := mediumController(t)
	avail := []*orders.Order{
		{ID: "FIRST", Pickup: [2]int{2, 0}, Payout: 10, Weight: 1, Priority: 1, State: orders.StateAvailable},
		{ID: "SECOND", Pickup: [2]int{0, 2}, Payout: 10, Weight: 1, Priority: 1, State: orders.StateAvailable},
	}
	for i := 0; i < 10; i++ {
		o, ok := c.SelectOrder(avail, Pos{0, 0}, 1)
		if !ok || o.ID != "FIRST" {
			t.Fatalf("run %d picked %v, want FIRST every time", i, o)
		}
	}
}

func TestSelectOrder_OverweightFiltered(t *testing.T) {
	c := mediumController(t)
	c.state.Weight = 6 // capacity 8, free 2
	avail := []*orders.Order{
		{ID: "HEAVY", Pickup: [2]int{1, 0}, Payout: 100, Weight: 3, State: orders.StateAvailable},
		{ID: "LIGHT", Pickup: [2]int{5, 5}, Payout: 5, Weight: 2, State: orders.StateAvailable},
	}
	o, ok := c.SelectOrder(avail, Pos{0, 0}, 1)
	if !ok || o.ID != "LIGHT" {
		t.Fatalf("picked %v, want LIGHT", o)
	}

	c.state.Weight = 7.5
	if _, ok := c.SelectOrder(avail, Pos{0, 0}, 1); ok {
		t.Fatalf("nothing fits free capacity 0.5, want no selection")
	}
}

func TestSelectOrder_Empty(t *testing.T) {
	c := mediumController(t)
	if _, ok := c.SelectOrder(nil, Pos{0, 0}, 1); ok {
		t.Fatalf("selection from an empty snapshot")
	}
}

func TestSelectOrder_NegativeScoreStillSelectable(t *testing.T) {
	// A lone unattractive order is still better than idling forever.
	c := mediumController(t)
	avail := []*orders.Order{
		{ID: "MEH", Pickup: [2]int{30, 30}, Payout: 1, Weight: 1, State: orders.StateAvailable},
	}
	o, ok := c.SelectOrder(avail, Pos{0, 0}, 1)
	if !ok || o.ID != "MEH" {
		t.Fatalf("picked %v, want MEH", o)
	}
}

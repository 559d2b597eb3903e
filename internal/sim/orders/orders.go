package orders

import "sort"

// Lifecycle states of an order.
const (
	StateAvailable = "available"
	StateAccepted  = "accepted"
	StateCarrying  = "carrying"
	StateDelivered = "delivered"
	StateExpired   = "expired"
	StateCancelled = "cancelled"
)

// Data is the raw order file shape (validated by internal/sim/catalogs).
type Data struct {
	ID          string  `json:"id"`
	Pickup      [2]int  `json:"pickup"`
	Dropoff     [2]int  `json:"dropoff"`
	Payout      float64 `json:"payout"`
	Weight      float64 `json:"weight"`
	Priority    int     `json:"priority"`
	ReleaseTick uint64  `json:"release_tick"`
}

// Order is one delivery job. The game loop owns all state transitions;
// agents only read orders and ask for transitions through the loop.
type Order struct {
	ID          string
	Pickup      [2]int
	Dropoff     [2]int
	Payout      float64
	Weight      float64
	Priority    int
	ReleaseTick uint64

	State         string
	DeadlineTick  uint64
	AcceptedTick  uint64
	PickedTick    uint64
	DeliveredTick uint64
}

// DeadlineTicks is the delivery window granted on acceptance, by
// priority: urgent orders get less time.
func DeadlineTicks(priority int, tickRateHz int) uint64 {
	var seconds uint64
	switch {
	case priority <= 0:
		seconds = 120
	case priority == 1:
		seconds = 90
	default:
		seconds = 60
	}
	return seconds * uint64(tickRateHz)
}

// Accept transitions the order to accepted and stamps its deadline.
func (o *Order) Accept(tick uint64, tickRateHz int) {
	o.State = StateAccepted
	o.AcceptedTick = tick
	o.DeadlineTick = tick + DeadlineTicks(o.Priority, tickRateHz)
}

// Overtime reports how many ticks past the deadline the order is, 0 if
// not yet late or never accepted.
func (o *Order) Overtime(tick uint64) uint64 {
	if o.DeadlineTick == 0 || tick <= o.DeadlineTick {
		return 0
	}
	return tick - o.DeadlineTick
}

// Book holds every order of a game, in a stable load order.
type Book struct {
	orders []*Order

	// Available orders older than this never get picked up by anyone
	// and are removed from play. 0 disables expiry.
	unclaimedTTL uint64
}

// NewBook builds a book from raw order data, sorted by priority then
// payout (both descending) so the listing order is deterministic.
func NewBook(data []Data, unclaimedTTL uint64) *Book {
	b := &Book{unclaimedTTL: unclaimedTTL}
	for _, d := range data {
		b.orders = append(b.orders, &Order{
			ID:          d.ID,
			Pickup:      d.Pickup,
			Dropoff:     d.Dropoff,
			Payout:      d.Payout,
			Weight:      d.Weight,
			Priority:    d.Priority,
			ReleaseTick: d.ReleaseTick,
			State:       StateAvailable,
		})
	}
	sort.SliceStable(b.orders, func(i, j int) bool {
		if b.orders[i].Priority != b.orders[j].Priority {
			return b.orders[i].Priority > b.orders[j].Priority
		}
		return b.orders[i].Payout > b.orders[j].Payout
	})
	return b
}

// All returns every order regardless of state.
func (b *Book) All() []*Order { return b.orders }

// Get finds an order by id.
func (b *Book) Get(id string) *Order {
	for _, o := range b.orders {
		if o.ID == id {
			return o
		}
	}
	return nil
}

// Selectable returns the orders an agent may accept this tick:
// released, still available, not expired. The slice is a fresh
// snapshot; its ordering is the book's stable listing order.
func (b *Book) Selectable(tick uint64) []*Order {
	var out []*Order
	for _, o := range b.orders {
		if o.State == StateAvailable && o.ReleaseTick <= tick {
			out = append(out, o)
		}
	}
	return out
}

// MarkExpired expires available orders that sat unclaimed past the TTL.
// Accepted and carried orders never expire here; lateness is settled at
// delivery time instead.
func (b *Book) MarkExpired(tick uint64) []*Order {
	if b.unclaimedTTL == 0 {
		return nil
	}
	var expired []*Order
	for _, o := range b.orders {
		if o.State != StateAvailable || o.ReleaseTick > tick {
			continue
		}
		if tick-o.ReleaseTick > b.unclaimedTTL {
			o.State = StateExpired
			expired = append(expired, o)
		}
	}
	return expired
}

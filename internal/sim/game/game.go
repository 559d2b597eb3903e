package game

import (
	"fmt"
	"log"
	"math/rand"

	"couriergrid.ai/internal/protocol"
	"couriergrid.ai/internal/sim/agent"
	"couriergrid.ai/internal/sim/city"
	"couriergrid.ai/internal/sim/orders"
	"couriergrid.ai/internal/sim/tuning"
	"couriergrid.ai/internal/sim/weather"
)

type Config struct {
	Tier       string
	Seed       int64
	TickRateHz int
	GameTicks  int
	Capacity   float64
	Start      agent.Pos
}

// TickLogEntry is one structured record per simulated tick, written to
// the JSONL log and the results index.
type TickLogEntry struct {
	Tick   uint64          `json:"tick"`
	Pos    [2]int          `json:"pos"`
	Action protocol.Action `json:"action"`

	Weather   string  `json:"weather"`
	SpeedMult float64 `json:"speed_mult"`

	Stamina    float64 `json:"stamina"`
	Reputation float64 `json:"reputation"`
	Earnings   float64 `json:"earnings"`
	Escaping   bool    `json:"escaping,omitempty"`

	Events []string `json:"events,omitempty"`
}

// World is a single-threaded courier game simulation. All state must
// be accessed only from the goroutine driving Step.
type World struct {
	cfg Config

	city    *city.City
	weather *weather.System
	book    *orders.Book
	courier *Courier
	ctrl    *agent.Controller

	rng  *rand.Rand
	tick uint64
	done bool
	log  *log.Logger
}

func New(cfg Config, c *city.City, ws *weather.System, book *orders.Book, params tuning.TierParams, logger *log.Logger) (*World, error) {
	if c.IsBlocked(cfg.Start.X, cfg.Start.Y) {
		return nil, fmt.Errorf("start position %v is blocked", cfg.Start)
	}
	w := &World{
		cfg:     cfg,
		city:    c,
		weather: ws,
		book:    book,
		courier: NewCourier(),
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		log:     logger,
	}
	// The agent draws from its own generator so its choices are not
	// entangled with world randomness.
	w.ctrl = agent.NewController(cfg.Tier, params, cfg.Start, cfg.Capacity, cfg.Seed+1, c, ws, book, logger)
	return w, nil
}

func (w *World) Tick() uint64 { return w.tick }
func (w *World) Done() bool   { return w.done }

// Step advances the simulation one tick: weather, order expiry, one
// agent decision, action application, pickup/delivery settlement.
func (w *World) Step() TickLogEntry {
	if w.done {
		return TickLogEntry{Tick: w.tick}
	}
	w.tick++
	w.weather.Step(w.rng)
	w.book.MarkExpired(w.tick)

	var events []string
	act := w.ctrl.Decide(w.tick)

	switch act.Kind {
	case protocol.ActionAcceptOrder:
		events = append(events, w.applyAccept(act.OrderID))
	case protocol.ActionMove:
		events = append(events, w.applyMove(act.Dir))
	default:
		w.courier.RestTick()
	}

	if ev := w.settleProximity(); ev != "" {
		events = append(events, ev)
	}

	if int(w.tick) >= w.cfg.GameTicks || w.courier.GameOver() {
		w.finish()
	}

	st := w.ctrl.State()
	entry := TickLogEntry{
		Tick:       w.tick,
		Pos:        [2]int{st.Pos.X, st.Pos.Y},
		Action:     act,
		Weather:    w.weather.Condition(),
		SpeedMult:  w.weather.SpeedMultiplier(),
		Stamina:    w.courier.Stamina,
		Reputation: w.courier.Reputation,
		Earnings:   w.courier.Earnings,
		Escaping:   w.ctrl.Escaping(),
	}
	for _, e := range events {
		if e != "" {
			entry.Events = append(entry.Events, e)
		}
	}
	return entry
}

func (w *World) applyAccept(id string) string {
	o := w.book.Get(id)
	if o == nil || o.State != orders.StateAvailable {
		return "accept rejected: " + id
	}
	o.Accept(w.tick, w.cfg.TickRateHz)
	w.ctrl.OnAccepted(o)
	return "accepted " + id
}

func (w *World) applyMove(dir [2]int) string {
	if !w.courier.CanMove() {
		w.courier.RestTick()
		return "exhausted"
	}
	st := w.ctrl.State()
	np := agent.Pos{X: st.Pos.X + dir[0], Y: st.Pos.Y + dir[1]}
	if !w.city.IsValid(np.X, np.Y) || w.city.IsBlocked(np.X, np.Y) {
		return fmt.Sprintf("move blocked at %d,%d", np.X, np.Y)
	}
	w.ctrl.OnMoved(np)
	w.courier.SpendMove(st.Weight, w.weather.Condition())
	return ""
}

// settleProximity performs the pickup/delivery transition when the
// courier stands on its active target tile.
func (w *World) settleProximity() string {
	st := w.ctrl.State()
	o := st.Active
	if o == nil {
		return ""
	}

	switch o.State {
	case orders.StateAccepted:
		pickup := agent.Pos{X: o.Pickup[0], Y: o.Pickup[1]}
		if st.Pos != pickup {
			return ""
		}
		if st.Weight+o.Weight > w.cfg.Capacity {
			return "pickup refused: overweight " + o.ID
		}
		o.State = orders.StateCarrying
		o.PickedTick = w.tick
		w.ctrl.OnPickedUp(o)
		return "picked up " + o.ID

	case orders.StateCarrying:
		dropoff := agent.Pos{X: o.Dropoff[0], Y: o.Dropoff[1]}
		if st.Pos != dropoff {
			return ""
		}
		o.State = orders.StateDelivered
		o.DeliveredTick = w.tick

		overtime := o.Overtime(w.tick)
		slack := 0.0
		if window := o.DeadlineTick - o.AcceptedTick; window > 0 && w.tick < o.DeadlineTick {
			slack = float64(o.DeadlineTick-w.tick) / float64(window)
		}
		w.courier.SettleDelivery(overtime, slack, w.cfg.TickRateHz)
		w.courier.Earnings += o.Payout * w.courier.PaymentMultiplier()
		w.ctrl.OnDelivered(o)
		return "delivered " + o.ID
	}
	return ""
}

// finish closes the game: anything still held counts as lost.
func (w *World) finish() {
	if w.done {
		return
	}
	w.done = true
	st := w.ctrl.State()
	for _, o := range st.Accepted {
		if o.State == orders.StateAccepted || o.State == orders.StateCarrying {
			o.State = orders.StateExpired
			w.courier.SettleLost()
		}
	}
}

// StateMsg snapshots the world for observers.
func (w *World) StateMsg(act protocol.Action) protocol.StateMsg {
	st := w.ctrl.State()
	msg := protocol.StateMsg{
		Type: protocol.TypeState,
		Tick: w.tick,
		Courier: protocol.CourierObs{
			Pos:        [2]int{st.Pos.X, st.Pos.Y},
			Weight:     st.Weight,
			Stamina:    w.courier.Stamina,
			Reputation: w.courier.Reputation,
			Earnings:   w.courier.Earnings,
			Escaping:   w.ctrl.Escaping(),
			Target:     [2]int{st.Target.X, st.Target.Y},
			TargetKind: st.TargetKind,
		},
		Weather: protocol.WeatherObs{
			Condition:       w.weather.Condition(),
			Intensity:       w.weather.Intensity(),
			SpeedMultiplier: w.weather.SpeedMultiplier(),
		},
		Action: act,
	}
	for _, o := range w.book.All() {
		msg.Orders = append(msg.Orders, protocol.OrderObs{
			ID:       o.ID,
			State:    o.State,
			Pickup:   o.Pickup,
			Dropoff:  o.Dropoff,
			Payout:   o.Payout,
			Weight:   o.Weight,
			Priority: o.Priority,
		})
	}
	return msg
}

// Result summarizes a finished game.
func (w *World) Result() protocol.ResultMsg {
	score := w.courier.FinalScore()
	return protocol.ResultMsg{
		Type:       protocol.TypeResult,
		Tick:       w.tick,
		Earnings:   w.courier.Earnings,
		Reputation: w.courier.Reputation,
		Delivered:  w.courier.Delivered,
		Late:       w.courier.Late,
		Lost:       w.courier.Lost,
		FinalScore: score,
		Rank:       Rank(score),
	}
}

// Courier exposes the physical courier state, read-only by convention.
func (w *World) Courier() *Courier { return w.courier }

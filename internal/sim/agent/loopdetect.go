package agent

// LoopDetector watches the positions an agent has recently occupied
// and flags three oscillation patterns. While escaping, the decision
// cycle overrides the planner with forced random movement until the
// escape budget runs out. The history is a bounded FIFO: once full,
// the oldest entry is evicted.
type LoopDetector struct {
	window int

	budgetOscillation int
	budgetSmallCycle  int
	budgetAlternation int

	history  []Pos
	capacity int

	escaping bool
	budget   int
}

func NewLoopDetector(window, capacity, budgetOscillation, budgetSmallCycle, budgetAlternation int) *LoopDetector {
	if capacity < window {
		capacity = window
	}
	return &LoopDetector{
		window:            window,
		capacity:          capacity,
		budgetOscillation: budgetOscillation,
		budgetSmallCycle:  budgetSmallCycle,
		budgetAlternation: budgetAlternation,
	}
}

// Observe records the agent's position for this tick and, once the
// window is full, runs the detection rules in order. Entering escape
// while already escaping is a no-op; an active escape is never reset
// or extended.
func (l *LoopDetector) Observe(p Pos) {
	l.history = append(l.history, p)
	if len(l.history) > l.capacity {
		l.history = l.history[1:]
	}

	if l.escaping || len(l.history) < l.window {
		return
	}

	recent := l.history[len(l.history)-l.window:]
	distinct := map[Pos]int{}
	for _, q := range recent {
		distinct[q]++
	}

	// Tight oscillation: stuck between at most two tiles.
	if len(distinct) <= 2 {
		l.escaping = true
		l.budget = l.budgetOscillation
		return
	}

	// Small cycle: few tiles and the current one keeps recurring.
	if len(distinct) <= 4 && distinct[p] >= 3 {
		l.escaping = true
		l.budget = l.budgetSmallCycle
		return
	}

	l.checkAlternation()
}

// checkAlternation fires on a strict A,B,A,B,A,B tail. With the
// default window the two-tile rule shadows it; it matters for larger
// configured windows where the window holds more than four distinct
// tiles but the tail still alternates.
func (l *LoopDetector) checkAlternation() {
	// The window is tier-configurable and may be smaller than the
	// six-entry tail this rule needs.
	if len(l.history) < 6 {
		return
	}
	tail := l.history[len(l.history)-6:]
	a, b := tail[0], tail[1]
	if a == b {
		return
	}
	for i, q := range tail {
		want := a
		if i%2 == 1 {
			want = b
		}
		if q != want {
			return
		}
	}
	l.escaping = true
	l.budget = l.budgetAlternation
}

// Escaping reports whether the forced-random override is active.
func (l *LoopDetector) Escaping() bool { return l.escaping }

// ConsumeStep burns one tick of the escape budget; the detector drops
// back to normal mode when the budget reaches zero.
func (l *LoopDetector) ConsumeStep() {
	if !l.escaping {
		return
	}
	l.budget--
	if l.budget <= 0 {
		l.escaping = false
		l.budget = 0
	}
}

// Reset clears history and escape state. Must be called whenever the
// agent's target changes: history from navigating to the old target
// would spuriously trigger escapes against the new one.
func (l *LoopDetector) Reset() {
	l.history = l.history[:0]
	l.escaping = false
	l.budget = 0
}

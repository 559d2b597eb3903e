package game

import "couriergrid.ai/internal/sim/weather"

// Resistance states.
const (
	ResistanceNormal    = "normal"
	ResistanceTired     = "tired"
	ResistanceExhausted = "exhausted"
)

const (
	staminaMax           = 100.0
	staminaTiredBelow    = 30.0
	staminaRecoverIdle   = 1.0 // per idle tick
	recoveryThreshold    = 30.0
	reputationStart      = 70.0
	reputationGameOver   = 20.0
	reputationExcellence = 90.0
	reputationHalfLate   = 85.0
)

// Courier is the physical side of the agent: stamina, reputation and
// running totals. The decision engine never sees this struct; it only
// feels its effects through what the world lets it do.
type Courier struct {
	Stamina    float64
	Reputation float64
	Earnings   float64

	Resistance   string
	RecoveryMode bool

	Streak        int
	FirstLateUsed bool

	Delivered int
	OnTime    int
	Early     int
	Late      int
	Lost      int
	Traveled  int
}

func NewCourier() *Courier {
	return &Courier{
		Stamina:    staminaMax,
		Reputation: reputationStart,
		Resistance: ResistanceNormal,
	}
}

// CanMove reports whether the courier is physically able to take a
// step. After full exhaustion, movement stays locked until stamina
// climbs back over the recovery threshold.
func (c *Courier) CanMove() bool {
	if c.RecoveryMode {
		return c.Stamina >= recoveryThreshold
	}
	return c.Resistance != ResistanceExhausted
}

// SpendMove charges stamina for one step: a base cost, extra for heavy
// loads, extra for hostile weather.
func (c *Courier) SpendMove(carried float64, condition string) {
	loss := 0.5
	if carried > 3 {
		loss += 0.2 * (carried - 3)
	}
	switch condition {
	case weather.Rain, weather.RainLight, weather.Wind, weather.Cold:
		loss += 0.1
	case weather.Heat:
		loss += 0.2
	case weather.Storm:
		loss += 0.3
	}

	c.Stamina -= loss
	if c.Stamina <= 0 {
		c.Stamina = 0
		c.RecoveryMode = true
	}
	c.Traveled++
	c.updateResistance()
}

// RestTick recovers stamina while the courier stands still.
func (c *Courier) RestTick() {
	c.Stamina += staminaRecoverIdle
	if c.Stamina > staminaMax {
		c.Stamina = staminaMax
	}
	if c.RecoveryMode && c.Stamina >= recoveryThreshold {
		c.RecoveryMode = false
	}
	c.updateResistance()
}

func (c *Courier) updateResistance() {
	switch {
	case c.Stamina > staminaTiredBelow:
		c.Resistance = ResistanceNormal
	case c.Stamina > 0:
		c.Resistance = ResistanceTired
	default:
		c.Resistance = ResistanceExhausted
	}
}

// PaymentMultiplier rewards excellent reputation with a payout bonus.
func (c *Courier) PaymentMultiplier() float64 {
	if c.Reputation >= reputationExcellence {
		return 1.05
	}
	return 1.0
}

// SettleDelivery applies the reputation outcome of a completed
// delivery. overtimeTicks is how late it was (0 = in time); earlySlack
// is the fraction of the delivery window still remaining.
func (c *Courier) SettleDelivery(overtimeTicks uint64, earlySlack float64, tickRateHz int) {
	c.Delivered++

	if overtimeTicks == 0 {
		if earlySlack >= 0.2 {
			c.Early++
			c.addReputation(5)
		} else {
			c.OnTime++
			c.addReputation(3)
		}
		c.Streak++
		if c.Streak == 3 {
			c.addReputation(2)
		}
		return
	}

	c.Late++
	c.Streak = 0

	overtimeSec := float64(overtimeTicks) / float64(tickRateHz)
	var penalty float64
	switch {
	case overtimeSec <= 30:
		penalty = 2
	case overtimeSec <= 120:
		penalty = 5
	default:
		penalty = 10
	}
	// One half-price late delivery per game at high reputation.
	if c.Reputation >= reputationHalfLate && !c.FirstLateUsed {
		penalty /= 2
		c.FirstLateUsed = true
	}
	c.addReputation(-penalty)
}

// SettleLost applies the penalty for a package the courier let expire.
// A flat hit, unlike the banded lateness penalties: losing the package
// outright is the worst case regardless of how overdue it was.
func (c *Courier) SettleLost() {
	c.Lost++
	c.Streak = 0
	c.addReputation(-10)
}

func (c *Courier) addReputation(delta float64) {
	c.Reputation += delta
	if c.Reputation > 100 {
		c.Reputation = 100
	}
	if c.Reputation < 0 {
		c.Reputation = 0
	}
}

// GameOver reports the reputation loss condition.
func (c *Courier) GameOver() bool { return c.Reputation < reputationGameOver }

// FinalScore folds money, reputation and delivery quality into one
// number, floored at zero.
func (c *Courier) FinalScore() float64 {
	score := c.Earnings + c.Reputation*10 +
		50*float64(c.OnTime+c.Early) - 25*float64(c.Late) - 50*float64(c.Lost)
	if score < 0 {
		return 0
	}
	return score
}

// Rank grades a final score.
func Rank(score float64) string {
	switch {
	case score >= 2000:
		return "S"
	case score >= 1500:
		return "A"
	case score >= 1000:
		return "B"
	case score >= 500:
		return "C"
	default:
		return "D"
	}
}

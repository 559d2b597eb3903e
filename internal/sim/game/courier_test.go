package game

import (
	"testing"

	"couriergrid.ai/internal/sim/weather"
)

func TestCourier_StaminaDrainAndRecovery(t *testing.T) {
	c := NewCourier()
	for c.Stamina > 0 {
		c.SpendMove(0, weather.Clear)
	}
	if !c.RecoveryMode || c.CanMove() {
		t.Fatalf("exhausted courier still moving: recovery=%v", c.RecoveryMode)
	}
	for c.Stamina < 30 {
		c.RestTick()
	}
	if c.RecoveryMode || !c.CanMove() {
		t.Fatalf("courier stuck after reaching the recovery threshold")
	}
}

func TestCourier_HeavyLoadAndWeatherDrainMore(t *testing.T) {
	light, heavy, stormy := NewCourier(), NewCourier(), NewCourier()
	light.SpendMove(2, weather.Clear)
	heavy.SpendMove(6, weather.Clear)
	stormy.SpendMove(2, weather.Storm)
	if heavy.Stamina >= light.Stamina {
		t.Fatalf("heavy load drained %v, light %v", 100-heavy.Stamina, 100-light.Stamina)
	}
	if stormy.Stamina >= light.Stamina {
		t.Fatalf("storm drained %v, clear %v", 100-stormy.Stamina, 100-light.Stamina)
	}
}

func TestCourier_DeliveryReputation(t *testing.T) {
	c := NewCourier()
	c.SettleDelivery(0, 0.5, 5) // early
	if c.Reputation != 75 || c.Early != 1 {
		t.Fatalf("after early: rep=%v early=%d", c.Reputation, c.Early)
	}
	c.SettleDelivery(0, 0.1, 5) // merely on time
	if c.Reputation != 78 || c.OnTime != 1 {
		t.Fatalf("after on-time: rep=%v ontime=%d", c.Reputation, c.OnTime)
	}
	// Third consecutive success pays the streak bonus.
	c.SettleDelivery(0, 0.1, 5)
	if c.Reputation != 83 {
		t.Fatalf("after streak: rep=%v, want 83", c.Reputation)
	}
}

func TestCourier_LatePenaltyBands(t *testing.T) {
	band := func(overtimeSec uint64) float64 {
		c := NewCourier()
		c.Reputation = 50 // below the half-late threshold
		c.SettleDelivery(overtimeSec*5, 0, 5)
		return 50 - c.Reputation
	}
	if p := band(10); p != 2 {
		t.Fatalf("slight lateness penalty = %v, want 2", p)
	}
	if p := band(60); p != 5 {
		t.Fatalf("moderate lateness penalty = %v, want 5", p)
	}
	if p := band(200); p != 10 {
		t.Fatalf("heavy lateness penalty = %v, want 10", p)
	}
}

func TestCourier_FirstLateHalvedAtHighReputation(t *testing.T) {
	c := NewCourier()
	c.Reputation = 90
	c.SettleDelivery(5*5, 0, 5)
	if c.Reputation != 89 || !c.FirstLateUsed {
		t.Fatalf("first late at high rep: rep=%v, want 89", c.Reputation)
	}
	c.SettleDelivery(5*5, 0, 5)
	if c.Reputation != 87 {
		t.Fatalf("second late must cost full price: rep=%v, want 87", c.Reputation)
	}
}

func TestCourier_ExcellencePaymentBonus(t *testing.T) {
	c := NewCourier()
	if c.PaymentMultiplier() != 1.0 {
		t.Fatalf("baseline multiplier = %v", c.PaymentMultiplier())
	}
	c.Reputation = 92
	if c.PaymentMultiplier() != 1.05 {
		t.Fatalf("excellence multiplier = %v, want 1.05", c.PaymentMultiplier())
	}
}

func TestCourier_FinalScoreAndRank(t *testing.T) {
	c := NewCourier()
	c.Earnings = 300
	c.Reputation = 80
	c.OnTime = 4
	c.Early = 2
	c.Late = 2
	c.Lost = 1
	// 300 + 800 + 50*6 - 25*2 - 50*1 = 1300.
	if s := c.FinalScore(); s != 1300 {
		t.Fatalf("score = %v, want 1300", s)
	}

	ranks := map[float64]string{2400: "S", 1600: "A", 1200: "B", 700: "C", 100: "D"}
	for score, want := range ranks {
		if got := Rank(score); got != want {
			t.Fatalf("Rank(%v) = %s, want %s", score, got, want)
		}
	}

	broke := NewCourier()
	broke.Reputation = 0
	broke.Lost = 5
	if broke.FinalScore() != 0 {
		t.Fatalf("score must floor at zero")
	}
}

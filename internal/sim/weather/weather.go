package weather

import (
	"fmt"
	"math/rand"
	"sort"
)

// Conditions.
const (
	Clear     = "clear"
	Clouds    = "clouds"
	RainLight = "rain_light"
	Rain      = "rain"
	Storm     = "storm"
	Fog       = "fog"
	Wind      = "wind"
	Heat      = "heat"
	Cold      = "cold"
)

// speedMultipliers is the courier speed factor per condition.
var speedMultipliers = map[string]float64{
	Clear:     1.00,
	Clouds:    0.98,
	RainLight: 0.90,
	Rain:      0.85,
	Storm:     0.75,
	Fog:       0.88,
	Wind:      0.92,
	Heat:      0.90,
	Cold:      0.92,
}

// transitions is the Markov chain over conditions. Conditions missing a
// row (heat, cold) only appear when scripted in a burst file.
var transitions = map[string]map[string]float64{
	Clear:     {Clear: 0.6, Clouds: 0.25, RainLight: 0.1, Rain: 0.03, Storm: 0.01, Fog: 0.005, Wind: 0.005},
	Clouds:    {Clear: 0.3, Clouds: 0.5, RainLight: 0.15, Rain: 0.03, Storm: 0.01, Fog: 0.005, Wind: 0.005},
	RainLight: {Clear: 0.1, Clouds: 0.3, RainLight: 0.4, Rain: 0.15, Storm: 0.03, Fog: 0.01, Wind: 0.01},
	Rain:      {Clear: 0.05, Clouds: 0.2, RainLight: 0.3, Rain: 0.35, Storm: 0.08, Fog: 0.01, Wind: 0.01},
	Storm:     {Clear: 0.02, Clouds: 0.15, RainLight: 0.2, Rain: 0.4, Storm: 0.2, Fog: 0.02, Wind: 0.01},
	Fog:       {Clear: 0.3, Clouds: 0.4, RainLight: 0.15, Rain: 0.1, Storm: 0.02, Fog: 0.02, Wind: 0.01},
	Wind:      {Clear: 0.4, Clouds: 0.3, RainLight: 0.15, Rain: 0.1, Storm: 0.02, Fog: 0.02, Wind: 0.01},
}

// BaseMultiplier returns the speed factor of a condition at full
// intensity, 1.0 for unknown conditions.
func BaseMultiplier(condition string) float64 {
	if m, ok := speedMultipliers[condition]; ok {
		return m
	}
	return 1.0
}

// AdjustedMultiplier scales a condition's impact by intensity in [0,1]:
// zero intensity means no impact at all.
func AdjustedMultiplier(condition string, intensity float64) float64 {
	base := BaseMultiplier(condition)
	return base + (1-base)*(1-intensity)
}

// Burst is a scripted weather window.
type Burst struct {
	Condition     string  `json:"condition"`
	Intensity     float64 `json:"intensity"`
	DurationTicks uint64  `json:"duration_ticks"`
}

// Data is the raw weather file shape.
type Data struct {
	City   string  `json:"city"`
	Bursts []Burst `json:"bursts"`
}

// System steps through scripted bursts first and then follows the
// Markov chain, one transition per burst window. All randomness comes
// from the RNG handed to Step, so a fixed seed replays identically.
type System struct {
	condition string
	intensity float64

	bursts     []Burst
	burstIndex int
	ticksLeft  uint64

	// Markov phase window once bursts are exhausted.
	markovTicks uint64
}

func NewSystem(d Data, markovTicks uint64) (*System, error) {
	if markovTicks == 0 {
		return nil, fmt.Errorf("weather: markov window must be positive")
	}
	s := &System{
		condition:   Clear,
		intensity:   1.0,
		bursts:      d.Bursts,
		markovTicks: markovTicks,
	}
	if len(s.bursts) > 0 {
		b := s.bursts[0]
		s.condition = b.Condition
		s.intensity = b.Intensity
		s.ticksLeft = b.DurationTicks
	} else {
		s.ticksLeft = markovTicks
	}
	return s, nil
}

func (s *System) Condition() string  { return s.condition }
func (s *System) Intensity() float64 { return s.intensity }

// SpeedMultiplier is the current courier speed factor in (0,1].
func (s *System) SpeedMultiplier() float64 {
	return AdjustedMultiplier(s.condition, s.intensity)
}

// Step advances one tick, transitioning at window boundaries.
func (s *System) Step(rng *rand.Rand) {
	if s.ticksLeft > 1 {
		s.ticksLeft--
		return
	}

	if s.burstIndex+1 < len(s.bursts) {
		s.burstIndex++
		b := s.bursts[s.burstIndex]
		s.condition = b.Condition
		s.intensity = b.Intensity
		s.ticksLeft = b.DurationTicks
		return
	}

	s.condition = nextCondition(s.condition, rng)
	s.intensity = 0.5 + rng.Float64()*0.5
	s.ticksLeft = s.markovTicks
}

// nextCondition samples the Markov chain. Rows are walked in sorted key
// order so equal seeds draw equal sequences.
func nextCondition(current string, rng *rand.Rand) string {
	row, ok := transitions[current]
	if !ok {
		return Clear
	}
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	r := rng.Float64()
	acc := 0.0
	for _, k := range keys {
		acc += row[k]
		if r < acc {
			return k
		}
	}
	return keys[len(keys)-1]
}

package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz         int     `yaml:"tick_rate_hz"`
	GameTicks          int     `yaml:"game_ticks"`
	WeatherWindowTicks uint64  `yaml:"weather_window_ticks"`
	OrderUnclaimedTTL  uint64  `yaml:"order_unclaimed_ttl_ticks"`
	CarryCapacity      float64 `yaml:"carry_capacity"`

	Tiers map[string]TierParams `yaml:"tiers"`
}

// TierParams configures one difficulty tier of the decision pipeline.
// One pipeline, parameterized; tiers never subclass behavior.
type TierParams struct {
	// Order scoring weights: alpha*payout - beta*distance - gamma*(1-weather).
	Alpha float64 `yaml:"alpha"`
	Beta  float64 `yaml:"beta"`
	Gamma float64 `yaml:"gamma"`

	OrderCap int `yaml:"order_cap"`

	// Planner cascade. Tiers with UseSearch false skip A* and the
	// lookahead tree and plan with greedy/random only.
	UseSearch      bool `yaml:"use_search"`
	AStarIterCap   int  `yaml:"astar_iter_cap"`
	LookaheadDepth int  `yaml:"lookahead_depth"`
	// GreedyBias is the probability of a toward-target step instead of
	// a random one when only the greedy planner runs (legacy reflex
	// behavior of the lowest tier).
	GreedyBias float64 `yaml:"greedy_bias"`

	// Loop escape.
	EscapeWindow      int `yaml:"escape_window"`
	HistoryCapacity   int `yaml:"history_capacity"`
	BudgetOscillation int `yaml:"budget_oscillation"`
	BudgetSmallCycle  int `yaml:"budget_small_cycle"`
	BudgetAlternation int `yaml:"budget_alternation"`
}

func Load(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

// Defaults is the shipped configuration, used when no tuning file is
// given and as the baseline for tests.
func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:    "1.0",
		TickRateHz:         5,
		GameTicks:          3000,
		WeatherWindowTicks: 75,
		OrderUnclaimedTTL:  3000,
		CarryCapacity:      8.0,
		Tiers: map[string]TierParams{
			"easy": {
				Alpha: 1.0, Beta: 0.5, Gamma: 0.3,
				OrderCap:     3,
				UseSearch:    false,
				GreedyBias:   0.85,
				EscapeWindow: 8, HistoryCapacity: 12,
				BudgetOscillation: 8, BudgetSmallCycle: 6, BudgetAlternation: 5,
			},
			"medium": {
				Alpha: 1.0, Beta: 2.0, Gamma: 5.0,
				OrderCap:       3,
				UseSearch:      true,
				AStarIterCap:   50,
				LookaheadDepth: 3,
				GreedyBias:     1.0,
				EscapeWindow:   8, HistoryCapacity: 12,
				BudgetOscillation: 8, BudgetSmallCycle: 6, BudgetAlternation: 5,
			},
			// Placeholder parameters; the dedicated hard planner is not
			// implemented and runs the same cascade as medium.
			"hard": {
				Alpha: 1.0, Beta: 2.0, Gamma: 5.0,
				OrderCap:       3,
				UseSearch:      true,
				AStarIterCap:   50,
				LookaheadDepth: 3,
				GreedyBias:     1.0,
				EscapeWindow:   8, HistoryCapacity: 12,
				BudgetOscillation: 8, BudgetSmallCycle: 6, BudgetAlternation: 5,
			},
		},
	}
}

// Tier resolves a tier by name, falling back to the default medium
// parameters so a bad config cannot leave an agent unconfigured.
func (t Tuning) Tier(name string) TierParams {
	if p, ok := t.Tiers[name]; ok {
		return p
	}
	return Defaults().Tiers["medium"]
}

package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_OverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	raw := `
protocol_version: "1.0"
tick_rate_hz: 10
game_ticks: 100
weather_window_ticks: 20
carry_capacity: 8.0
tiers:
  medium:
    alpha: 1.0
    beta: 1.5
    gamma: 2.0
    order_cap: 2
    use_search: true
    astar_iter_cap: 25
    lookahead_depth: 2
    greedy_bias: 1.0
    escape_window: 8
    history_capacity: 10
    budget_oscillation: 8
    budget_small_cycle: 6
    budget_alternation: 5
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.TickRateHz != 10 {
		t.Fatalf("tick_rate_hz = %d, want 10", cfg.TickRateHz)
	}
	p := cfg.Tier("medium")
	if p.AStarIterCap != 25 || p.LookaheadDepth != 2 || p.Beta != 1.5 {
		t.Fatalf("medium tier params = %+v", p)
	}
}

func TestTier_UnknownNameFallsBack(t *testing.T) {
	cfg := Defaults()
	p := cfg.Tier("nightmare")
	if !p.UseSearch || p.AStarIterCap != 50 {
		t.Fatalf("fallback params = %+v, want medium defaults", p)
	}
}

func TestDefaults_TierShape(t *testing.T) {
	cfg := Defaults()
	easy := cfg.Tier("easy")
	if easy.UseSearch {
		t.Fatalf("easy tier must not run search planners")
	}
	if easy.GreedyBias <= 0 || easy.GreedyBias >= 1 {
		t.Fatalf("easy greedy bias = %v, want strict (0,1)", easy.GreedyBias)
	}
	med := cfg.Tier("medium")
	if med.LookaheadDepth < 2 || med.LookaheadDepth > 3 {
		t.Fatalf("medium lookahead depth = %d, want 2..3", med.LookaheadDepth)
	}
}

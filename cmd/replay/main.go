package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"couriergrid.ai/internal/sim/agent"
	"couriergrid.ai/internal/sim/catalogs"
	"couriergrid.ai/internal/sim/city"
	"couriergrid.ai/internal/sim/game"
	"couriergrid.ai/internal/sim/orders"
	"couriergrid.ai/internal/sim/tuning"
	"couriergrid.ai/internal/sim/weather"
)

// replay re-runs a session from the same catalogs, tier and seed and
// verifies the logged tick stream matches. Any divergence means the
// catalogs drifted or determinism broke.
func main() {
	var (
		logPath    = flag.String("log", "", "path to a session .jsonl.zst tick log")
		configDir  = flag.String("configs", "./configs", "config directory")
		schemaDir  = flag.String("schemas", "./schemas", "schema directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		tier       = flag.String("tier", "medium", "difficulty tier of the logged session")
		seed       = flag.Int64("seed", 0, "seed of the logged session")
		verbose    = flag.Bool("v", false, "print every tick while replaying")
	)
	flag.Parse()

	if *logPath == "" {
		fmt.Fprintln(os.Stderr, "missing -log")
		os.Exit(2)
	}

	cats, err := catalogs.Load(*configDir, *schemaDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalogs:", err)
		os.Exit(1)
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if os.IsNotExist(err) {
			tune = tuning.Defaults()
		} else {
			fmt.Fprintln(os.Stderr, "load tuning:", err)
			os.Exit(1)
		}
	}

	w, err := buildWorld(cats, tune, *tier, *seed)
	if err != nil {
		fmt.Fprintln(os.Stderr, "world:", err)
		os.Exit(1)
	}

	checked, err := verifyLog(w, *logPath, *verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
	fmt.Printf("replay ok: checked=%d ticks\n", checked)
}

func buildWorld(cats *catalogs.Catalogs, tune tuning.Tuning, tier string, seed int64) (*game.World, error) {
	c, err := city.New(cats.City)
	if err != nil {
		return nil, err
	}
	wsys, err := weather.NewSystem(cats.Weather, tune.WeatherWindowTicks)
	if err != nil {
		return nil, err
	}
	book := orders.NewBook(cats.Orders, tune.OrderUnclaimedTTL)

	walkable := c.WalkableTiles()
	if len(walkable) == 0 {
		return nil, fmt.Errorf("city %s has no walkable tile", c.Name)
	}
	return game.New(game.Config{
		Tier:       tier,
		Seed:       seed,
		TickRateHz: tune.TickRateHz,
		GameTicks:  tune.GameTicks,
		Capacity:   tune.CarryCapacity,
		Start:      agent.Pos{X: walkable[0][0], Y: walkable[0][1]},
	}, c, wsys, book, tune.Tier(tier), nil)
}

func verifyLog(w *game.World, path string, verbose bool) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return 0, err
	}
	defer dec.Close()

	var checked uint64
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var logged game.TickLogEntry
		if err := json.Unmarshal(line, &logged); err != nil {
			return checked, fmt.Errorf("tick %d: bad log line: %w", checked+1, err)
		}

		if w.Done() {
			return checked, fmt.Errorf("log continues past game end at tick %d", logged.Tick)
		}
		got := w.Step()
		if got.Tick != logged.Tick {
			return checked, fmt.Errorf("tick mismatch: replayed %d, logged %d", got.Tick, logged.Tick)
		}
		if got.Pos != logged.Pos || got.Action != logged.Action {
			return checked, fmt.Errorf("tick %d diverged: replayed pos=%v act=%+v, logged pos=%v act=%+v",
				got.Tick, got.Pos, got.Action, logged.Pos, logged.Action)
		}
		if got.Earnings != logged.Earnings || got.Reputation != logged.Reputation {
			return checked, fmt.Errorf("tick %d diverged: replayed earnings=%v rep=%v, logged earnings=%v rep=%v",
				got.Tick, got.Earnings, got.Reputation, logged.Earnings, logged.Reputation)
		}
		checked++
		if verbose {
			fmt.Printf("tick=%d pos=%v act=%s earnings=%.1f\n", got.Tick, got.Pos, got.Action.Kind, got.Earnings)
		}
	}
	if err := sc.Err(); err != nil && !errors.Is(err, io.EOF) {
		return checked, err
	}
	return checked, nil
}

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"couriergrid.ai/internal/persistence/indexdb"
	persistlog "couriergrid.ai/internal/persistence/log"
	"couriergrid.ai/internal/protocol"
	"couriergrid.ai/internal/sim/agent"
	"couriergrid.ai/internal/sim/catalogs"
	"couriergrid.ai/internal/sim/city"
	"couriergrid.ai/internal/sim/game"
	"couriergrid.ai/internal/sim/orders"
	"couriergrid.ai/internal/sim/tuning"
	"couriergrid.ai/internal/sim/weather"
	"couriergrid.ai/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		configDir  = flag.String("configs", "./configs", "config directory")
		schemaDir  = flag.String("schemas", "./schemas", "schema directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		tier       = flag.String("tier", "medium", "difficulty tier")
		seed       = flag.Int64("seed", 1337, "seed of the first session; later sessions increment it")
		sessions   = flag.Int("sessions", 0, "number of sessions to run (0 = until interrupted)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite results index")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir, *schemaDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", tp)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	var idx *indexdb.Index
	if !*disableDB {
		idx, err = indexdb.Open(filepath.Join(*dataDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
		if err := idx.RecordCatalogs(cats, tune); err != nil {
			logger.Fatalf("record catalogs: %v", err)
		}
	}

	resultLog := persistlog.NewResultLogger(*dataDir)
	defer resultLog.Close()

	hub := ws.NewHub(logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/ws", hub.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	srv := &http.Server{Addr: *addr, Handler: mux}
	go func() {
		logger.Printf("listening on %s", *addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	r := runner{
		cats:      cats,
		tune:      tune,
		tier:      *tier,
		dataDir:   *dataDir,
		idx:       idx,
		resultLog: resultLog,
		hub:       hub,
		log:       logger,
		stop:      stop,
	}

	curSeed := *seed
	for n := 0; *sessions == 0 || n < *sessions; n++ {
		if !r.runSession(curSeed) {
			break
		}
		curSeed++
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}

type runner struct {
	cats      *catalogs.Catalogs
	tune      tuning.Tuning
	tier      string
	dataDir   string
	idx       *indexdb.Index
	resultLog *persistlog.ResultLogger
	hub       *ws.Hub
	log       *log.Logger
	stop      chan os.Signal
}

// runSession builds a fresh world from the catalogs and drives it to
// completion at the configured tick rate. Returns false when the
// process was interrupted.
func (r *runner) runSession(seed int64) bool {
	sessionID := uuid.NewString()

	c, err := city.New(r.cats.City)
	if err != nil {
		r.log.Fatalf("city: %v", err)
	}
	wsys, err := weather.NewSystem(r.cats.Weather, r.tune.WeatherWindowTicks)
	if err != nil {
		r.log.Fatalf("weather: %v", err)
	}
	book := orders.NewBook(r.cats.Orders, r.tune.OrderUnclaimedTTL)

	walkable := c.WalkableTiles()
	if len(walkable) == 0 {
		r.log.Fatalf("city %s has no walkable tile", c.Name)
	}
	start := agent.Pos{X: walkable[0][0], Y: walkable[0][1]}

	w, err := game.New(game.Config{
		Tier:       r.tier,
		Seed:       seed,
		TickRateHz: r.tune.TickRateHz,
		GameTicks:  r.tune.GameTicks,
		Capacity:   r.tune.CarryCapacity,
		Start:      start,
	}, c, wsys, book, r.tune.Tier(r.tier), r.log)
	if err != nil {
		r.log.Fatalf("world: %v", err)
	}

	r.hub.SetWelcome(protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sessionID,
		GameParams: protocol.GameParams{
			TickRateHz: r.tune.TickRateHz,
			GameTicks:  r.tune.GameTicks,
			CityName:   c.Name,
			CityWidth:  c.Width,
			CityHeight: c.Height,
			Seed:       seed,
			Tier:       r.tier,
		},
	})

	startedAt := time.Now()
	if err := r.idx.StartSession(indexdb.SessionMeta{
		SessionID: sessionID,
		Tier:      r.tier,
		Seed:      seed,
		City:      c.Name,
		StartedAt: startedAt,
	}); err != nil {
		r.log.Printf("index start session: %v", err)
	}

	tickLog := persistlog.NewTickLogger(r.dataDir, sessionID)
	defer tickLog.Close()

	r.log.Printf("session %s: city=%s tier=%s seed=%d", sessionID, c.Name, r.tier, seed)

	ticker := time.NewTicker(time.Second / time.Duration(r.tune.TickRateHz))
	defer ticker.Stop()

	for !w.Done() {
		select {
		case <-r.stop:
			r.log.Printf("session %s interrupted at tick %d", sessionID, w.Tick())
			return false
		case <-ticker.C:
		}

		entry := w.Step()
		if err := tickLog.WriteTick(entry); err != nil {
			r.log.Printf("tick log: %v", err)
		}
		r.idx.WriteTick(sessionID, entry)
		r.hub.Broadcast(w.StateMsg(entry.Action))
	}

	res := w.Result()
	r.hub.Broadcast(res)
	r.log.Printf("session %s finished: delivered=%d late=%d lost=%d score=%.0f rank=%s",
		sessionID, res.Delivered, res.Late, res.Lost, res.FinalScore, res.Rank)

	if err := r.resultLog.WriteResult(persistlog.ResultEntry{
		SessionID:  sessionID,
		Tier:       r.tier,
		Seed:       seed,
		City:       c.Name,
		Ticks:      res.Tick,
		Earnings:   res.Earnings,
		Delivered:  res.Delivered,
		Late:       res.Late,
		Lost:       res.Lost,
		Score:      res.FinalScore,
		Rank:       res.Rank,
		FinishedAt: time.Now(),
	}); err != nil {
		r.log.Printf("result log: %v", err)
	}

	if err := r.idx.FinishSession(indexdb.SessionResult{
		SessionID:  sessionID,
		Ticks:      res.Tick,
		Earnings:   res.Earnings,
		Reputation: res.Reputation,
		Delivered:  res.Delivered,
		Late:       res.Late,
		Lost:       res.Lost,
		Score:      res.FinalScore,
		Rank:       res.Rank,
		FinishedAt: time.Now(),
		Deliveries: deliveryRows(book),
	}); err != nil {
		r.log.Printf("index finish session: %v", err)
	}
	return true
}

// deliveryRows extracts the final outcome of every order that entered
// play during the session.
func deliveryRows(book *orders.Book) []indexdb.DeliveryRow {
	var rows []indexdb.DeliveryRow
	for _, o := range book.All() {
		if o.AcceptedTick == 0 && o.State == orders.StateAvailable {
			continue
		}
		row := indexdb.DeliveryRow{
			OrderID:       o.ID,
			Payout:        o.Payout,
			AcceptedTick:  o.AcceptedTick,
			PickedTick:    o.PickedTick,
			DeliveredTick: o.DeliveredTick,
			Status:        o.State,
		}
		if o.State == orders.StateDelivered {
			row.OvertimeTicks = o.Overtime(o.DeliveredTick)
		}
		rows = append(rows, row)
	}
	return rows
}

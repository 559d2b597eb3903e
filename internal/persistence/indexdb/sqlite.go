package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"couriergrid.ai/internal/sim/catalogs"
	"couriergrid.ai/internal/sim/game"
	"couriergrid.ai/internal/sim/tuning"
)

// Index is the queryable results database. Session and delivery rows
// are written synchronously; per-tick rows go through a buffered
// writer goroutine and are dropped under backpressure, the JSONL logs
// stay the source of truth.
type Index struct {
	db *sql.DB

	ch   chan tickRow
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type tickRow struct {
	sessionID string
	entry     game.TickLogEntry
}

func Open(path string) (*Index, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Index{
		db: db,
		ch: make(chan tickRow, 16384),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads. NORMAL is a
	// decent durability/perf tradeoff for a secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			tier TEXT NOT NULL,
			seed INTEGER NOT NULL,
			city TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			ticks INTEGER NOT NULL DEFAULT 0,
			earnings REAL NOT NULL DEFAULT 0,
			reputation REAL NOT NULL DEFAULT 0,
			delivered INTEGER NOT NULL DEFAULT 0,
			late INTEGER NOT NULL DEFAULT 0,
			lost INTEGER NOT NULL DEFAULT 0,
			score REAL NOT NULL DEFAULT 0,
			rank TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_score ON sessions(score DESC);`,
		`CREATE TABLE IF NOT EXISTS deliveries (
			session_id TEXT NOT NULL,
			order_id TEXT NOT NULL,
			payout REAL NOT NULL,
			accepted_tick INTEGER NOT NULL,
			picked_tick INTEGER NOT NULL,
			delivered_tick INTEGER NOT NULL,
			overtime_ticks INTEGER NOT NULL,
			status TEXT NOT NULL,
			PRIMARY KEY (session_id, order_id)
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			session_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (session_id, tick)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *Index) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// RecordCatalogs stores the loaded content digests so a results row is
// traceable to the exact city/orders/weather files it ran against.
func (s *Index) RecordCatalogs(cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	upsert := func(name, digest string, v any) error {
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		_, err = tx.Exec(
			`INSERT INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)
			 ON CONFLICT(name) DO UPDATE SET digest=excluded.digest, json=excluded.json, updated_at=excluded.updated_at`,
			name, digest, string(b), now)
		return err
	}
	if err := upsert("city", cats.CityDigest, cats.City); err != nil {
		return err
	}
	if err := upsert("orders", cats.OrdersDigest, cats.Orders); err != nil {
		return err
	}
	if err := upsert("weather", cats.WeatherDigest, cats.Weather); err != nil {
		return err
	}
	b, err := json.Marshal(tune)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(
		`INSERT INTO meta(key,value) VALUES('tuning',?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value`, string(b)); err != nil {
		return err
	}
	return tx.Commit()
}

// SessionMeta describes a game at start time.
type SessionMeta struct {
	SessionID string
	Tier      string
	Seed      int64
	City      string
	StartedAt time.Time
}

func (s *Index) StartSession(m SessionMeta) error {
	if s == nil {
		return nil
	}
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO sessions(session_id,tier,seed,city,started_at) VALUES(?,?,?,?,?)`,
		m.SessionID, m.Tier, m.Seed, m.City, m.StartedAt.UTC().Format(time.RFC3339Nano))
	return err
}

// DeliveryRow is one order's final outcome within a session.
type DeliveryRow struct {
	OrderID       string
	Payout        float64
	AcceptedTick  uint64
	PickedTick    uint64
	DeliveredTick uint64
	OvertimeTicks uint64
	Status        string
}

// SessionResult is the final summary written when a game finishes.
type SessionResult struct {
	SessionID  string
	Ticks      uint64
	Earnings   float64
	Reputation float64
	Delivered  int
	Late       int
	Lost       int
	Score      float64
	Rank       string
	FinishedAt time.Time

	Deliveries []DeliveryRow
}

func (s *Index) FinishSession(r SessionResult) error {
	if s == nil {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(
		`UPDATE sessions SET finished_at=?, ticks=?, earnings=?, reputation=?, delivered=?, late=?, lost=?, score=?, rank=?
		 WHERE session_id=?`,
		r.FinishedAt.UTC().Format(time.RFC3339Nano),
		int64(r.Ticks), r.Earnings, r.Reputation, r.Delivered, r.Late, r.Lost, r.Score, r.Rank,
		r.SessionID); err != nil {
		return err
	}
	for _, d := range r.Deliveries {
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO deliveries(session_id,order_id,payout,accepted_tick,picked_tick,delivered_tick,overtime_ticks,status)
			 VALUES(?,?,?,?,?,?,?,?)`,
			r.SessionID, d.OrderID, d.Payout,
			int64(d.AcceptedTick), int64(d.PickedTick), int64(d.DeliveredTick), int64(d.OvertimeTicks),
			d.Status); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// WriteTick queues one tick row. Never blocks the simulation.
func (s *Index) WriteTick(sessionID string, e game.TickLogEntry) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- tickRow{sessionID: sessionID, entry: e}:
	default:
	}
}

// LeaderboardRow is one finished session in score order.
type LeaderboardRow struct {
	SessionID string
	Tier      string
	City      string
	Score     float64
	Rank      string
	Delivered int
}

func (s *Index) Leaderboard(limit int) ([]LeaderboardRow, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(
		`SELECT session_id, tier, city, score, rank, delivered
		 FROM sessions WHERE finished_at IS NOT NULL
		 ORDER BY score DESC, session_id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LeaderboardRow
	for rows.Next() {
		var r LeaderboardRow
		if err := rows.Scan(&r.SessionID, &r.Tier, &r.City, &r.Score, &r.Rank, &r.Delivered); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Index) loop() {
	ctx := context.Background()

	var (
		tx          *sql.Tx
		opCount     int
		lastCommit  = time.Now()
		commitEvery = 500
		commitWait  = 2 * time.Second
	)

	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for r := range s.ch {
		if tx == nil {
			txx, err := s.db.BeginTx(ctx, nil)
			if err != nil {
				time.Sleep(50 * time.Millisecond)
				continue
			}
			tx = txx
		}
		b, err := json.Marshal(r.entry)
		if err != nil {
			continue
		}
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO ticks(session_id,tick,raw_json) VALUES(?,?,?)`,
			r.sessionID, int64(r.entry.Tick), string(b)); err != nil {
			_ = tx.Rollback()
			tx = nil
			opCount = 0
			continue
		}
		opCount++
		if opCount >= commitEvery || time.Since(lastCommit) >= commitWait {
			commit()
		}
	}
	commit()
}

package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"couriergrid.ai/internal/sim/game"
)

// jsonlZstdWriter appends JSON lines to a zstd-compressed file. Safe
// for concurrent use; every line is flushed so a crash loses at most
// the current line.
type jsonlZstdWriter struct {
	path string

	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

func newJSONLZstdWriter(path string) *jsonlZstdWriter {
	return &jsonlZstdWriter{path: path}
}

func (w *jsonlZstdWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.f == nil {
		if err := w.openLocked(); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *jsonlZstdWriter) openLocked() error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 128*1024)
	return nil
}

func (w *jsonlZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var err error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	return err
}

// TickLogger streams one compressed JSONL entry per simulated tick.
// Each game session gets its own file under <dataDir>/games.
type TickLogger struct{ w *jsonlZstdWriter }

func NewTickLogger(dataDir, sessionID string) *TickLogger {
	path := filepath.Join(dataDir, "games", sessionID+".jsonl.zst")
	return &TickLogger{w: newJSONLZstdWriter(path)}
}

func (l *TickLogger) WriteTick(v game.TickLogEntry) error { return l.w.Write(v) }
func (l *TickLogger) Close() error                        { return l.w.Close() }

// ResultEntry is the per-game summary line appended to the results
// journal when a session finishes.
type ResultEntry struct {
	SessionID  string    `json:"session_id"`
	Tier       string    `json:"tier"`
	Seed       int64     `json:"seed"`
	City       string    `json:"city"`
	Ticks      uint64    `json:"ticks"`
	Earnings   float64   `json:"earnings"`
	Delivered  int       `json:"delivered"`
	Late       int       `json:"late"`
	Lost       int       `json:"lost"`
	Score      float64   `json:"score"`
	Rank       string    `json:"rank"`
	FinishedAt time.Time `json:"finished_at"`
}

// ResultLogger appends finished-game summaries, one journal file per
// UTC day.
type ResultLogger struct {
	dataDir string

	mu     sync.Mutex
	curDay string
	w      *jsonlZstdWriter
}

func NewResultLogger(dataDir string) *ResultLogger {
	return &ResultLogger{dataDir: dataDir}
}

func (l *ResultLogger) WriteResult(e ResultEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	day := time.Now().UTC().Format("2006-01-02")
	if day != l.curDay {
		if l.w != nil {
			_ = l.w.Close()
		}
		path := filepath.Join(l.dataDir, "results", fmt.Sprintf("results-%s.jsonl.zst", day))
		l.w = newJSONLZstdWriter(path)
		l.curDay = day
	}
	return l.w.Write(e)
}

func (l *ResultLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.w == nil {
		return nil
	}
	return l.w.Close()
}

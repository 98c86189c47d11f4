package recorder

import (
	"database/sql"
	"sync"
	"time"

	"FxSentinel/internal/model"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists signal history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}

	// WAL mode so /history reads don't block the scheduler's writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "set WAL mode")
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate")
	}
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signals (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			pair      TEXT NOT NULL,
			timeframe TEXT,
			action    TEXT NOT NULL,
			price     REAL,
			trend_ema REAL,
			entry_ema REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_ts ON signals(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_pair ON signals(pair)`,

		`CREATE TABLE IF NOT EXISTS cycles (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			pairs_checked INTEGER,
			pairs_failed  INTEGER,
			signals       INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cycles_ts ON cycles(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return errors.Wrapf(err, "exec %q", s[:40])
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordSignal(sig *model.Signal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO signals
		(timestamp, pair, timeframe, action, price, trend_ema, entry_ema)
		VALUES (?,?,?,?,?,?,?)`,
		time.Now().Unix(), sig.Pair, sig.Timeframe, string(sig.Action),
		sig.Price, sig.TrendEMA, sig.EntryEMA,
	)
	return err
}

func (r *SQLiteRecorder) RecordCycle(rec *CycleRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO cycles
		(timestamp, pairs_checked, pairs_failed, signals)
		VALUES (?,?,?,?)`,
		time.Now().Unix(), rec.PairsChecked, rec.PairsFailed, rec.Signals,
	)
	return err
}

func (r *SQLiteRecorder) RecentSignals(limit int) ([]SignalRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT timestamp, pair, timeframe, action, price, trend_ema, entry_ema
		FROM signals ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SignalRecord
	for rows.Next() {
		var rec SignalRecord
		var ts int64
		var action string
		if err := rows.Scan(&ts, &rec.Pair, &rec.Timeframe, &action, &rec.Price, &rec.TrendEMA, &rec.EntryEMA); err != nil {
			return nil, err
		}
		rec.Time = time.Unix(ts, 0).UTC()
		rec.Action = model.Action(action)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) CountSignalsSince(t time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM signals WHERE timestamp >= ?`, t.Unix()).Scan(&count)
	return count, err
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}

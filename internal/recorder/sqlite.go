package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"FlowRadar/internal/model"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists scan and explanation reports to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while scans write.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scan_runs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			range_start TEXT,
			range_end   TEXT,
			scored      INTEGER,
			skipped     INTEGER,
			duration_ms INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_runs_ts ON scan_runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS scan_results (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id        INTEGER NOT NULL REFERENCES scan_runs(id),
			symbol        TEXT NOT NULL,
			bar_date      TEXT,
			quiet_score   REAL,
			crowded_score REAL,
			label         TEXT,
			rsi           REAL,
			vol_z         REAL,
			atr_z         REAL,
			sharpe        REAL,
			accel_z       REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_results_symbol ON scan_results(symbol)`,

		`CREATE TABLE IF NOT EXISTS scan_skips (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES scan_runs(id),
			symbol TEXT NOT NULL,
			reason TEXT,
			bars   INTEGER,
			error  TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS explanations (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp         INTEGER NOT NULL,
			symbol            TEXT NOT NULL,
			bar_date          TEXT,
			market_proxy      TEXT,
			sector_proxy      TEXT,
			beta_vs_market    REAL,
			r2_vs_market      REAL,
			beta_vs_sector    REAL,
			r2_vs_sector      REAL,
			vol_z             REAL,
			atr_z             REAL,
			accel_z           REAL,
			rsi               REAL,
			gap_jump_rate_60d REAL,
			big_move_rate_60d REAL,
			narrative         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_explanations_symbol ON explanations(symbol)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordScan writes one run row plus a row per scored and skipped symbol.
// Undefined values are stored as NULL.
func (r *SQLiteRecorder) RecordScan(rep *model.ScanReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	skipped := rep.Skipped()
	res, err := tx.Exec(`INSERT INTO scan_runs
		(timestamp, range_start, range_end, scored, skipped, duration_ms)
		VALUES (?,?,?,?,?,?)`,
		rep.StartedAt.Unix(), model.DayKey(rep.Start), model.DayKey(rep.End),
		len(rep.Results), len(skipped), rep.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert scan run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("scan run id: %w", err)
	}

	for _, s := range rep.Results {
		if _, err := tx.Exec(`INSERT INTO scan_results
			(run_id, symbol, bar_date, quiet_score, crowded_score, label, rsi, vol_z, atr_z, sharpe, accel_z)
			VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
			runID, s.Symbol, model.DayKey(s.Date), s.QuietScore, s.CrowdedScore, string(s.Label),
			s.RSI, s.VolZ, s.ATRZ, s.Sharpe, s.AccelZ,
		); err != nil {
			return fmt.Errorf("insert scan result %s: %w", s.Symbol, err)
		}
	}
	for _, o := range skipped {
		if _, err := tx.Exec(`INSERT INTO scan_skips (run_id, symbol, reason, bars, error) VALUES (?,?,?,?,?)`,
			runID, o.Symbol, string(o.Reason), o.Bars, o.Error,
		); err != nil {
			return fmt.Errorf("insert scan skip %s: %w", o.Symbol, err)
		}
	}
	return tx.Commit()
}

// RecordExplanation writes the metric snapshot and narrative.
func (r *SQLiteRecorder) RecordExplanation(e *model.Explanation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := e.Metrics
	_, err := r.db.Exec(`INSERT INTO explanations
		(timestamp, symbol, bar_date, market_proxy, sector_proxy,
		 beta_vs_market, r2_vs_market, beta_vs_sector, r2_vs_sector,
		 vol_z, atr_z, accel_z, rsi, gap_jump_rate_60d, big_move_rate_60d, narrative)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), m.Symbol, model.DayKey(m.Date), m.MarketProxy, m.SectorProxy,
		m.BetaMarket, m.R2Market, m.BetaSector, m.R2Sector,
		m.VolZ, m.ATRZ, m.AccelZ, m.RSI,
		m.GapJumpRate, m.BigMoveRate, e.Narrative,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}

package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"PivotSentinel/internal/logger"
	"PivotSentinel/internal/model"
)

// levelPrecision is the number of decimals persisted for level prices.
const levelPrecision = 4

// hitDateLayout keeps level_history ordered by time.
const hitDateLayout = "2006-01-02"

// SQLiteRecorder persists historical data to a SQLite database.
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

	// WAL lets the API read while scans write.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Infof("sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scan_runs (
			id           TEXT PRIMARY KEY,
			timestamp    INTEGER NOT NULL,
			trigger_type TEXT,
			symbols      INTEGER,
			setups_found INTEGER,
			errors       INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_ts ON scan_runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS pivot_points (
			symbol          TEXT NOT NULL,
			timeframe       TEXT NOT NULL,
			date            TEXT NOT NULL,
			scan_id         TEXT,
			standard_pivots TEXT,
			demark_pivots   TEXT,
			status          TEXT,
			distance        TEXT,
			PRIMARY KEY (symbol, timeframe, date)
		)`,

		`CREATE TABLE IF NOT EXISTS level_history (
			symbol      TEXT NOT NULL,
			timeframe   TEXT NOT NULL,
			level_type  TEXT NOT NULL,
			level_name  TEXT NOT NULL,
			level_value REAL,
			hit_date    TEXT NOT NULL,
			PRIMARY KEY (symbol, timeframe, level_type, level_name, hit_date)
		)`,
		// rows written before hit dates were stored as YYYY-MM-DD
		`DELETE FROM level_history WHERE hit_date NOT LIKE '____-__-__'`,

		`CREATE TABLE IF NOT EXISTS demark_setups (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp        INTEGER NOT NULL,
			scan_id          TEXT,
			symbol           TEXT NOT NULL,
			timeframe        TEXT NOT NULL,
			direction        TEXT,
			trigger_price    REAL,
			target_price     REAL,
			distance_percent REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_demark_symbol ON demark_setups(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS setups (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp      INTEGER NOT NULL,
			scan_id        TEXT,
			symbol         TEXT NOT NULL,
			timeframe      TEXT NOT NULL,
			direction      TEXT,
			pattern        TEXT,
			quality        TEXT,
			entry          REAL,
			stop_loss      REAL,
			target         REAL,
			probability    REAL,
			risk_reward    REAL,
			volume_surge   REAL,
			trend          TEXT,
			repeated_tests INTEGER,
			best_time      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_setups_symbol ON setups(symbol, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordScan(ctx context.Context, run *ScanRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `INSERT INTO scan_runs
		(id, timestamp, trigger_type, symbols, setups_found, errors)
		VALUES (?,?,?,?,?,?)`,
		run.ID, run.StartedAt.Unix(), string(run.Trigger), run.Symbols, run.SetupsFound, run.Errors,
	)
	return err
}

// RecordPivots upserts the daily snapshot and every touched level.
func (r *SQLiteRecorder) RecordPivots(ctx context.Context, snap *PivotSnapshot) error {
	standard, err := encodeLevels(snap.Result.Standard.Levels)
	if err != nil {
		return err
	}
	demark, err := encodeLevels(snap.Result.DeMark.Levels)
	if err != nil {
		return err
	}
	tf := string(snap.Result.TimeFrame)

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	status := snap.Result.Standard.Status
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO pivot_points
		(symbol, timeframe, date, scan_id, standard_pivots, demark_pivots, status, distance)
		VALUES (?,?,?,?,?,?,?,?)`,
		snap.Symbol, tf, snap.Date, snap.ScanID, standard, demark, string(status.State), status.Distance,
	); err != nil {
		return fmt.Errorf("insert pivot_points: %w", err)
	}

	families := []struct {
		family  model.LevelFamily
		levels  model.Levels
		history model.LevelHistory
	}{
		{model.FamilyStandard, snap.Result.Standard.Levels, snap.Result.Standard.History},
		{model.FamilyDeMark, snap.Result.DeMark.Levels, snap.Result.DeMark.History},
	}
	for _, f := range families {
		for name, touch := range f.history {
			if !touch.Touched {
				continue
			}
			if touch.TouchedAt.IsZero() {
				logger.Debugf("level %s/%s %s touched without a time", snap.Symbol, tf, name)
				continue
			}
			if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO level_history
				(symbol, timeframe, level_type, level_name, level_value, hit_date)
				VALUES (?,?,?,?,?,?)`,
				snap.Symbol, tf, string(f.family), string(name), roundLevel(f.levels[name]), touch.TouchedAt.Format(hitDateLayout),
			); err != nil {
				return fmt.Errorf("insert level_history: %w", err)
			}
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordSignal(ctx context.Context, evt *SignalEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := evt.Signal
	_, err := r.db.ExecContext(ctx, `INSERT INTO demark_setups
		(timestamp, scan_id, symbol, timeframe, direction, trigger_price, target_price, distance_percent)
		VALUES (?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.ScanID, evt.Symbol, string(evt.TimeFrame),
		string(s.Direction), s.Trigger, s.Target, s.DistancePercent,
	)
	return err
}

func (r *SQLiteRecorder) RecordSetup(ctx context.Context, evt *SetupEvent) error {
	s := evt.Setup
	if !s.Direction.Valid() || !s.Pattern.Valid() || !s.Quality.Valid() || !s.Trend.Valid() {
		return fmt.Errorf("record setup %s: invalid %s/%s/%s/%s", evt.Symbol, s.Direction, s.Pattern, s.Quality, s.Trend)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `INSERT INTO setups
		(timestamp, scan_id, symbol, timeframe, direction, pattern, quality,
		 entry, stop_loss, target, probability, risk_reward, volume_surge,
		 trend, repeated_tests, best_time)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.ScanID, evt.Symbol, string(s.TimeFrame),
		string(s.Direction), string(s.Pattern), string(s.Quality),
		s.Entry, s.StopLoss, s.Target, s.Probability, s.RiskReward, s.VolumeSurge,
		string(s.Trend), s.RepeatedTests, s.BestTime,
	)
	return err
}

func (r *SQLiteRecorder) LatestPivots(ctx context.Context, symbol string, tf model.TimeFrame) (*StoredPivots, error) {
	var date, standard, demark string
	err := r.db.QueryRowContext(ctx, `SELECT date, standard_pivots, demark_pivots
		FROM pivot_points
		WHERE symbol = ? AND timeframe = ?
		ORDER BY date DESC LIMIT 1`,
		symbol, string(tf),
	).Scan(&date, &standard, &demark)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query pivot_points: %w", err)
	}

	out := &StoredPivots{Date: date}
	if out.Standard, err = decodeLevels(standard); err != nil {
		return nil, err
	}
	if out.DeMark, err = decodeLevels(demark); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SQLiteRecorder) LevelHistory(ctx context.Context, symbol string, tf model.TimeFrame) ([]LevelHit, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT level_type, level_name, level_value, hit_date
		FROM level_history
		WHERE symbol = ? AND timeframe = ?
		ORDER BY hit_date DESC, level_type, level_name`,
		symbol, string(tf),
	)
	if err != nil {
		return nil, fmt.Errorf("query level_history: %w", err)
	}
	defer rows.Close()

	var hits []LevelHit
	for rows.Next() {
		var h LevelHit
		var family, name string
		if err := rows.Scan(&family, &name, &h.Value, &h.Date); err != nil {
			return nil, err
		}
		h.Family, h.Level = model.LevelFamily(family), model.LevelName(name)
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// RecentSetups returns up to limit recorded setups of symbol, newest first.
func (r *SQLiteRecorder) RecentSetups(ctx context.Context, symbol string, limit int) ([]StoredSetup, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT timestamp, scan_id, timeframe, direction, pattern, quality,
		entry, stop_loss, target, probability, risk_reward, volume_surge,
		trend, repeated_tests, best_time
		FROM setups
		WHERE symbol = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`,
		symbol, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query setups: %w", err)
	}
	defer rows.Close()

	var out []StoredSetup
	for rows.Next() {
		var (
			ts                                     int64
			tf, direction, pattern, quality, trend string
			st                                     StoredSetup
		)
		s := &st.Setup
		if err := rows.Scan(&ts, &st.ScanID, &tf, &direction, &pattern, &quality,
			&s.Entry, &s.StopLoss, &s.Target, &s.Probability, &s.RiskReward, &s.VolumeSurge,
			&trend, &s.RepeatedTests, &s.BestTime); err != nil {
			return nil, err
		}
		if err := decodeSetup(s, tf, direction, pattern, quality, trend); err != nil {
			logger.Warnf("skip stored setup of %s: %v", symbol, err)
			continue
		}
		st.RecordedAt = time.Unix(ts, 0)
		out = append(out, st)
	}
	return out, rows.Err()
}

func decodeSetup(s *model.Setup, tf, direction, pattern, quality, trend string) error {
	var err error
	if s.TimeFrame, err = model.ParseTimeFrame(tf); err != nil {
		return err
	}
	if s.Direction, err = model.ParseDirection(direction); err != nil {
		return err
	}
	if s.Pattern, err = model.ParsePatternKind(pattern); err != nil {
		return err
	}
	if s.Quality, err = model.ParseQuality(quality); err != nil {
		return err
	}
	if s.Trend, err = model.ParseTrend(trend); err != nil {
		return err
	}
	s.TriggerLevel = triggerLevel(s.Pattern)
	return nil
}

// triggerLevel is the rolling level each pattern is detected against.
func triggerLevel(p model.PatternKind) model.LevelName {
	if p == model.PatternFalseBreakout {
		return model.LevelR1
	}
	return model.LevelS1
}

func (r *SQLiteRecorder) Close() error {
	logger.Infof("closing sqlite recorder")
	return r.db.Close()
}

func roundLevel(v float64) float64 {
	return decimal.NewFromFloat(v).Round(levelPrecision).InexactFloat64()
}

// encodeLevels stores levels as JSON with fixed precision decimal strings.
func encodeLevels(levels model.Levels) (string, error) {
	rounded := make(map[model.LevelName]decimal.Decimal, len(levels))
	for name, v := range levels {
		rounded[name] = decimal.NewFromFloat(v).Round(levelPrecision)
	}
	data, err := json.Marshal(rounded)
	if err != nil {
		return "", fmt.Errorf("encode levels: %w", err)
	}
	return string(data), nil
}

func decodeLevels(data string) (model.Levels, error) {
	var raw map[model.LevelName]decimal.Decimal
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, fmt.Errorf("decode levels: %w", err)
	}
	levels := make(model.Levels, len(raw))
	for name, d := range raw {
		levels[name] = d.InexactFloat64()
	}
	return levels, nil
}

package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists resolution provenance to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log *zap.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log *zap.Logger) (*SQLiteRecorder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection: writes are serialized anyway and ":memory:" databases
	// are per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS resolutions (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp         INTEGER NOT NULL,
			input             TEXT,
			timeframe         TEXT,
			tweet_time        INTEGER,
			symbol            TEXT,
			source            TEXT,
			provider          TEXT,
			step              TEXT,
			data_points       INTEGER,
			market_cap_branch TEXT,
			primary_error     TEXT,
			predates_history  INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_resolutions_ts ON resolutions(timestamp)`,

		`CREATE TABLE IF NOT EXISTS tweet_lookups (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			query       TEXT,
			handle      TEXT,
			tweet_time  TEXT,
			placeholder INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tweet_lookups_ts ON tweet_lookups(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordResolution(evt *ResolutionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	at := evt.ResolvedAt
	if at.IsZero() {
		at = time.Now()
	}
	var tweetTime sql.NullInt64
	if !evt.TweetTime.IsZero() {
		tweetTime = sql.NullInt64{Int64: evt.TweetTime.Unix(), Valid: true}
	}
	_, err := r.db.Exec(`INSERT INTO resolutions
		(timestamp, input, timeframe, tweet_time, symbol, source, provider, step,
		 data_points, market_cap_branch, primary_error, predates_history)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		at.Unix(), evt.Input, evt.Timeframe, tweetTime, evt.Symbol, evt.Source,
		evt.Provider, evt.Step, evt.DataPoints, evt.MarketCapBranch,
		evt.PrimaryError, evt.PredatesHistory,
	)
	return err
}

func (r *SQLiteRecorder) RecordTweetLookup(evt *TweetLookupEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	at := evt.LookedUpAt
	if at.IsZero() {
		at = time.Now()
	}
	_, err := r.db.Exec(`INSERT INTO tweet_lookups
		(timestamp, query, handle, tweet_time, placeholder)
		VALUES (?,?,?,?,?)`,
		at.Unix(), evt.Query, evt.Handle, evt.Timestamp, evt.Placeholder,
	)
	return err
}

func (r *SQLiteRecorder) RecentResolutions(limit int) ([]ResolutionEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.Query(`SELECT timestamp, input, timeframe, tweet_time, symbol,
		source, provider, step, data_points, market_cap_branch, primary_error, predates_history
		FROM resolutions ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query resolutions: %w", err)
	}
	defer rows.Close()

	var out []ResolutionEvent
	for rows.Next() {
		var (
			evt       ResolutionEvent
			ts        int64
			tweetTime sql.NullInt64
		)
		if err := rows.Scan(&ts, &evt.Input, &evt.Timeframe, &tweetTime, &evt.Symbol,
			&evt.Source, &evt.Provider, &evt.Step, &evt.DataPoints, &evt.MarketCapBranch,
			&evt.PrimaryError, &evt.PredatesHistory); err != nil {
			return nil, fmt.Errorf("scan resolution: %w", err)
		}
		evt.ResolvedAt = time.Unix(ts, 0).UTC()
		if tweetTime.Valid {
			evt.TweetTime = time.Unix(tweetTime.Int64, 0).UTC()
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) SourceCounts(since time.Time) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT source, COUNT(*) FROM resolutions
		WHERE timestamp >= ? GROUP BY source`, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("query source counts: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var (
			source string
			n      int
		)
		if err := rows.Scan(&source, &n); err != nil {
			return nil, fmt.Errorf("scan source count: %w", err)
		}
		counts[source] = n
	}
	return counts, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing sqlite recorder")
	return r.db.Close()
}

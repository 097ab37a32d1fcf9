// Package store handles SQLite persistence of the usage journal.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/radialkb/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// DayLayout is the calendar day format of key_counts.day.
const DayLayout = "2006-01-02"

// Store wraps SQLite access for the usage journal. Only counters and session
// rows are kept; committed text is never stored in order.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// The daemon and the preview may share one file.
	db.SetMaxOpenConns(1)
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`PRAGMA busy_timeout = 2000;`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			transport TEXT NOT NULL,
			commits INTEGER NOT NULL,
			cancels INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS key_counts (
			day TEXT NOT NULL,
			value TEXT NOT NULL,
			origin TEXT NOT NULL,
			count INTEGER NOT NULL,
			PRIMARY KEY (day, value, origin)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at);`,
		`CREATE INDEX IF NOT EXISTS idx_key_counts_value ON key_counts(value);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Record adds one commit to the day's counter for its value and origin.
func (s *Store) Record(ctx context.Context, ev model.UsageEvent) error {
	if ev.Value == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO key_counts (day, value, origin, count) VALUES (?, ?, ?, 1)
		 ON CONFLICT(day, value, origin) DO UPDATE SET count = count + 1`,
		ev.At.Local().Format(DayLayout), ev.Value, string(ev.Origin))
	if err != nil {
		return fmt.Errorf("record usage: %w", err)
	}
	return nil
}

// StartSession inserts an open session row.
func (s *Store) StartSession(ctx context.Context, info model.SessionInfo) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO sessions (id, started_at, ended_at, transport, commits, cancels)
		 VALUES (?, ?, '', ?, 0, 0)`,
		info.ID, info.StartedAt.Format(time.RFC3339Nano), info.Transport)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	return nil
}

// EndSession closes a session row with its final counts.
func (s *Store) EndSession(ctx context.Context, info model.SessionInfo) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET ended_at = ?, commits = ?, cancels = ? WHERE id = ?`,
		info.EndedAt.Format(time.RFC3339Nano), info.Commits, info.Cancels, info.ID)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("end session: unknown session %s", info.ID)
	}
	return nil
}

// ListSessions returns sessions filtered by cfg, oldest first. cfg.Last keeps
// only the most recent ones.
func (s *Store) ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionInfo, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Since != nil {
		clauses = append(clauses, "started_at >= ?")
		args = append(args, cfg.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, started_at, ended_at, transport, commits, cancels
		FROM sessions
		WHERE %s
		ORDER BY started_at DESC`, strings.Join(clauses, " AND "))
	if cfg.Last > 0 {
		query += " LIMIT ?"
		args = append(args, cfg.Last)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.SessionInfo
	for rows.Next() {
		var info model.SessionInfo
		var startedAt, endedAt string
		if err := rows.Scan(&info.ID, &startedAt, &endedAt, &info.Transport, &info.Commits, &info.Cancels); err != nil {
			return nil, err
		}
		if info.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, err
		}
		if endedAt != "" {
			if info.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
				return nil, err
			}
		}
		sessions = append(sessions, info)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Oldest first.
	for i, j := 0, len(sessions)-1; i < j; i, j = i+1, j-1 {
		sessions[i], sessions[j] = sessions[j], sessions[i]
	}
	return sessions, nil
}

// KeyAggregates sums counters per value, split by origin.
func (s *Store) KeyAggregates(ctx context.Context, cfg model.StatsConfig) ([]model.KeyAggregate, error) {
	where, args := dayFilter(cfg)
	query := fmt.Sprintf(`SELECT value,
		SUM(CASE WHEN origin = ? THEN count ELSE 0 END) AS pick,
		SUM(CASE WHEN origin = ? THEN count ELSE 0 END) AS swipe,
		SUM(CASE WHEN origin NOT IN (?, ?) THEN count ELSE 0 END) AS other
		FROM key_counts
		WHERE %s
		GROUP BY value
		ORDER BY value`, where)
	args = append([]any{
		string(model.OriginPick), string(model.OriginSwipe),
		string(model.OriginPick), string(model.OriginSwipe),
	}, args...)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.KeyAggregate
	for rows.Next() {
		var agg model.KeyAggregate
		if err := rows.Scan(&agg.Value, &agg.Pick, &agg.Swipe, &agg.Other); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// DailyCommits returns total commits per day, oldest first.
func (s *Store) DailyCommits(ctx context.Context, cfg model.StatsConfig) ([]model.DayAggregate, error) {
	where, args := dayFilter(cfg)
	query := fmt.Sprintf(`SELECT day, SUM(count) FROM key_counts
		WHERE %s
		GROUP BY day
		ORDER BY day ASC`, where)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.DayAggregate
	for rows.Next() {
		var agg model.DayAggregate
		if err := rows.Scan(&agg.Day, &agg.Commits); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func dayFilter(cfg model.StatsConfig) (string, []any) {
	if cfg.Since == nil {
		return "1=1", nil
	}
	return "day >= ?", []any{cfg.Since.Local().Format(DayLayout)}
}

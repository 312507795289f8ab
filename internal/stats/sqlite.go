package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const defaultLocalDBName = "losiento_local.db"

// SQLiteService persists aggregates in the local SQLite file, sharing it
// with the game store by default.
type SQLiteService struct {
	db *sql.DB
}

func NewSQLiteServiceFromEnv() (*SQLiteService, error) {
	dbPath, err := statsLocalDatabasePathFromEnv()
	if err != nil {
		return nil, err
	}
	return NewSQLiteService(dbPath)
}

func NewSQLiteService(dbPath string) (*SQLiteService, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if dbPath != ":memory:" {
		parent := filepath.Dir(dbPath)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSQLiteStatsSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteService{db: db}, nil
}

func (s *SQLiteService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteService) RecordResult(gameID string, results []PlayerResult) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	now := nowMs()
	for _, r := range results {
		if r.UserID == "" {
			continue
		}
		win, loss, abort := outcomeCounters(r.Outcome)
		_, err := s.db.ExecContext(ctx, `
INSERT INTO game_stats (user_id, games, wins, losses, aborts, updated_at_ms)
VALUES (?, 1, ?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
    games = games + 1,
    wins = wins + excluded.wins,
    losses = losses + excluded.losses,
    aborts = aborts + excluded.aborts,
    updated_at_ms = excluded.updated_at_ms
`, r.UserID, win, loss, abort, now)
		if err != nil {
			log.Printf("[Stats] record result failed: game=%s user=%s err=%v", gameID, r.UserID, err)
		}
	}
}

func (s *SQLiteService) GetUserStats(userID string) (UserStats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	u := UserStats{UserID: userID}
	err := s.db.QueryRowContext(ctx, `
SELECT games, wins, losses, aborts, updated_at_ms
FROM game_stats WHERE user_id = ?
`, userID).Scan(&u.Games, &u.Wins, &u.Losses, &u.Aborts, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return u, nil
	}
	if err != nil {
		return UserStats{}, err
	}
	return u, nil
}

func ensureSQLiteStatsSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS game_stats (
    user_id TEXT PRIMARY KEY,
    games INTEGER NOT NULL DEFAULT 0,
    wins INTEGER NOT NULL DEFAULT 0,
    losses INTEGER NOT NULL DEFAULT 0,
    aborts INTEGER NOT NULL DEFAULT 0,
    updated_at_ms INTEGER NOT NULL
)`)
	return err
}

func statsLocalDatabasePathFromEnv() (string, error) {
	candidates := []string{
		strings.TrimSpace(os.Getenv("STATS_LOCAL_DATABASE_PATH")),
		strings.TrimSpace(os.Getenv("STORE_LOCAL_DATABASE_PATH")),
		strings.TrimSpace(os.Getenv("LOCAL_DATABASE_PATH")),
	}
	for _, candidate := range candidates {
		if candidate != "" {
			return filepath.Clean(candidate), nil
		}
	}

	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userConfigDir, "LoSiento", defaultLocalDBName), nil
}

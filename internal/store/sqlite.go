package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"losiento-lite/losiento"
)

const defaultLocalDBName = "losiento_local.db"

// SQLiteStore persists games in a local SQLite file. Records are stored as
// JSON documents with phase and version broken out into columns.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStoreFromEnv() (*SQLiteStore, error) {
	dbPath, err := localDatabasePathFromEnv()
	if err != nil {
		return nil, err
	}
	return NewSQLiteStore(dbPath)
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
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
	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSQLiteGameSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) CreateGame(rec *GameRecord) error {
	now := nowMs()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	rec.Version = 1
	encoded, err := encodeGameDoc(rec)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := s.db.ExecContext(ctx, `
INSERT INTO games (game_id, phase, version, doc, created_at_ms, updated_at_ms)
VALUES (?, ?, 1, ?, ?, ?)
`, rec.GameID, string(rec.Phase), encoded, now, now); err != nil {
		if isSQLiteUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *SQLiteStore) GetGame(gameID string) (*GameRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var doc string
	var version int64
	err := s.db.QueryRowContext(ctx, `
SELECT doc, version FROM games WHERE game_id = ?
`, gameID).Scan(&doc, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeGameDoc(doc, version)
}

func (s *SQLiteStore) UpdateGame(gameID string, fn func(*GameRecord) error) (*GameRecord, error) {
	for i := 0; i < updateRetries; i++ {
		rec, conflict, err := s.tryUpdate(gameID, fn)
		if err != nil {
			return nil, err
		}
		if !conflict {
			return rec, nil
		}
	}
	return nil, ErrConflict
}

func (s *SQLiteStore) tryUpdate(gameID string, fn func(*GameRecord) error) (*GameRecord, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	var doc string
	var version int64
	err = tx.QueryRowContext(ctx, `
SELECT doc, version FROM games WHERE game_id = ?
`, gameID).Scan(&doc, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, ErrNotFound
	}
	if err != nil {
		return nil, false, err
	}
	rec, err := decodeGameDoc(doc, version)
	if err != nil {
		return nil, false, err
	}
	if err := fn(rec); err != nil {
		return nil, false, err
	}
	rec.UpdatedAt = nowMs()
	encoded, err := encodeGameDoc(rec)
	if err != nil {
		return nil, false, err
	}
	res, err := tx.ExecContext(ctx, `
UPDATE games
SET doc = ?, phase = ?, version = version + 1, updated_at_ms = ?
WHERE game_id = ? AND version = ?
`, encoded, string(rec.Phase), rec.UpdatedAt, gameID, version)
	if err != nil {
		return nil, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	if n == 0 {
		return nil, true, nil
	}
	if err := tx.Commit(); err != nil {
		return nil, false, err
	}
	rec.Version = version + 1
	return rec, false, nil
}

func (s *SQLiteStore) AppendMove(gameID string, mv *MoveRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// 序号在事务里取，保证并发下也单调递增
	var next int
	if err := tx.QueryRowContext(ctx, `
SELECT COALESCE(MAX(idx) + 1, 0) FROM game_moves WHERE game_id = ?
`, gameID).Scan(&next); err != nil {
		return err
	}
	mv.Index = next
	if mv.CreatedAt == 0 {
		mv.CreatedAt = nowMs()
	}
	encoded, err := encodeMoveDoc(mv)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO game_moves (game_id, idx, doc, created_at_ms)
VALUES (?, ?, ?, ?)
`, gameID, mv.Index, encoded, mv.CreatedAt); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListMoves(gameID string) ([]*MoveRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, `
SELECT doc FROM game_moves WHERE game_id = ? ORDER BY idx ASC
`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*MoveRecord, 0)
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		mv, err := decodeMoveDoc(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, mv)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SetActiveGame(userID, gameID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO active_games (user_id, game_id, updated_at_ms)
VALUES (?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
    game_id = excluded.game_id,
    updated_at_ms = excluded.updated_at_ms
`, userID, gameID, nowMs())
	return err
}

func (s *SQLiteStore) ClearActiveGame(userID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.db.ExecContext(ctx, `DELETE FROM active_games WHERE user_id = ?`, userID)
	return err
}

func (s *SQLiteStore) GetActiveGame(userID string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var gameID string
	err := s.db.QueryRowContext(ctx, `
SELECT game_id FROM active_games WHERE user_id = ?
`, userID).Scan(&gameID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return gameID, true, nil
}

func (s *SQLiteStore) ListGamesByPhase(phase losiento.Phase) ([]*GameRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, `
SELECT doc, version FROM games WHERE phase = ? ORDER BY created_at_ms ASC, game_id ASC
`, string(phase))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*GameRecord, 0)
	for rows.Next() {
		var doc string
		var version int64
		if err := rows.Scan(&doc, &version); err != nil {
			return nil, err
		}
		rec, err := decodeGameDoc(doc, version)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func ensureSQLiteGameSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`
CREATE TABLE IF NOT EXISTS games (
    game_id TEXT PRIMARY KEY,
    phase TEXT NOT NULL,
    version INTEGER NOT NULL DEFAULT 1,
    doc TEXT NOT NULL,
    created_at_ms INTEGER NOT NULL,
    updated_at_ms INTEGER NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_games_phase ON games(phase, updated_at_ms DESC)`,
		`
CREATE TABLE IF NOT EXISTS game_moves (
    game_id TEXT NOT NULL,
    idx INTEGER NOT NULL,
    doc TEXT NOT NULL,
    created_at_ms INTEGER NOT NULL,
    PRIMARY KEY (game_id, idx),
    FOREIGN KEY(game_id) REFERENCES games(game_id) ON DELETE CASCADE
)`,
		`
CREATE TABLE IF NOT EXISTS active_games (
    user_id TEXT PRIMARY KEY,
    game_id TEXT NOT NULL,
    updated_at_ms INTEGER NOT NULL
)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func localDatabasePathFromEnv() (string, error) {
	candidates := []string{
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

func isSQLiteUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"losiento-lite/losiento"
)

var (
	ErrNotFound = errors.New("store: game not found")
	ErrConflict = errors.New("store: version conflict")
)

// GameRecord is the unit of persistence: one game with its lobby metadata
// and, once started, its board state.
type GameRecord struct {
	GameID        string                `json:"gameId"`
	HostID        string                `json:"hostId"`
	HostName      string                `json:"hostName"`
	Phase         losiento.Phase        `json:"phase"`
	Settings      losiento.GameSettings `json:"settings"`
	Seats         []losiento.Seat       `json:"seats"`
	State         *losiento.GameState   `json:"state,omitempty"`
	AbortedReason string                `json:"abortedReason,omitempty"`
	CreatedAt     int64                 `json:"createdAt"`
	UpdatedAt     int64                 `json:"updatedAt"`
	EndedAt       int64                 `json:"endedAt,omitempty"`
	// Version is the optimistic concurrency column, not part of the doc.
	Version int64 `json:"-"`
}

// Clone returns a deep copy; callers may mutate it freely.
func (r *GameRecord) Clone() *GameRecord {
	cp := *r
	cp.Seats = make([]losiento.Seat, len(r.Seats))
	copy(cp.Seats, r.Seats)
	if r.Settings.DeckSeed != nil {
		seed := *r.Settings.DeckSeed
		cp.Settings.DeckSeed = &seed
	}
	if r.State != nil {
		cp.State = r.State.Clone()
	}
	return &cp
}

// SeatAt returns the seat at index, or nil when out of range.
func (r *GameRecord) SeatAt(index int) *losiento.Seat {
	if index < 0 || index >= len(r.Seats) {
		return nil
	}
	return &r.Seats[index]
}

// SeatOf returns the seat currently bound to userID.
func (r *GameRecord) SeatOf(userID string) (*losiento.Seat, bool) {
	if userID == "" {
		return nil, false
	}
	for i := range r.Seats {
		if r.Seats[i].PlayerID == userID {
			return &r.Seats[i], true
		}
	}
	return nil, false
}

// OccupiedSeats counts seats that take turns: joined humans plus bots.
func (r *GameRecord) OccupiedSeats() int {
	n := 0
	for i := range r.Seats {
		if r.Seats[i].Occupied() {
			n++
		}
	}
	return n
}

// HumanSeats counts joined human seats.
func (r *GameRecord) HumanSeats() int {
	n := 0
	for i := range r.Seats {
		if r.Seats[i].PlayerID != "" && !r.Seats[i].IsBot {
			n++
		}
	}
	return n
}

// MoveRecord is one committed entry in a game's move history.
type MoveRecord struct {
	Index              int                   `json:"index"`
	TurnNumber         int                   `json:"turnNumber"`
	SeatIndex          int                   `json:"seatIndex"`
	PlayerID           string                `json:"playerId,omitempty"`
	Card               losiento.Card         `json:"card"`
	Move               *losiento.Move        `json:"move,omitempty"`
	Pawns              []losiento.PawnChange `json:"pawns"`
	ResultingStateHash string                `json:"resultingStateHash"`
	CreatedAt          int64                 `json:"createdAt"`
}

// Store persists game records, their move history and the per-user
// active-game mapping. UpdateGame must be a serializable read-modify-write
// per gameID; all other guarantees follow from that.
type Store interface {
	// CreateGame inserts a new record and stamps CreatedAt/UpdatedAt.
	CreateGame(rec *GameRecord) error
	GetGame(gameID string) (*GameRecord, error)
	// UpdateGame runs fn on a private copy of the record and commits it
	// with a fresh UpdatedAt. An error from fn aborts the update and is
	// returned unchanged; version conflicts are retried a bounded number
	// of times before surfacing ErrConflict.
	UpdateGame(gameID string, fn func(*GameRecord) error) (*GameRecord, error)
	// AppendMove assigns mv.Index (per-game, monotonic from 0) and
	// persists the entry.
	AppendMove(gameID string, mv *MoveRecord) error
	ListMoves(gameID string) ([]*MoveRecord, error)
	SetActiveGame(userID, gameID string) error
	ClearActiveGame(userID string) error
	// GetActiveGame returns the mapped gameID, or ok=false when none.
	GetActiveGame(userID string) (string, bool, error)
	ListGamesByPhase(phase losiento.Phase) ([]*GameRecord, error)
	Close() error
}

const (
	ModeMemory   = "memory"
	ModeSQLite   = "sqlite"
	ModePostgres = "postgres"
)

const updateRetries = 3

func storeModeFromEnv() string {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv("STORE_MODE")))
	switch raw {
	case "", ModeMemory, "mem":
		return ModeMemory
	case ModeSQLite, "local":
		return ModeSQLite
	case ModePostgres, "postgresql", "db":
		return ModePostgres
	default:
		return raw
	}
}

// NewFromEnv builds the store selected by STORE_MODE. The default is the
// in-memory store, which needs no external services.
func NewFromEnv() (Store, string, error) {
	mode := storeModeFromEnv()
	switch mode {
	case ModeMemory:
		return NewMemoryStore(), mode, nil
	case ModeSQLite:
		s, err := NewSQLiteStoreFromEnv()
		if err != nil {
			return nil, mode, err
		}
		return s, mode, nil
	case ModePostgres:
		s, err := NewPostgresStoreFromEnv()
		if err != nil {
			return nil, mode, err
		}
		return s, mode, nil
	default:
		return nil, mode, fmt.Errorf("invalid STORE_MODE %q (supported: %s, %s, %s)", mode, ModeMemory, ModeSQLite, ModePostgres)
	}
}

func nowMs() int64 {
	return time.Now().UTC().UnixMilli()
}

// The SQL backends store records as JSON documents next to the columns
// they query on. Version lives in its own column and is stitched back in
// on decode.

func encodeGameDoc(rec *GameRecord) (string, error) {
	encoded, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func decodeGameDoc(doc string, version int64) (*GameRecord, error) {
	rec := &GameRecord{}
	if err := json.Unmarshal([]byte(doc), rec); err != nil {
		return nil, err
	}
	rec.Version = version
	return rec, nil
}

func encodeMoveDoc(mv *MoveRecord) (string, error) {
	encoded, err := json.Marshal(mv)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func decodeMoveDoc(doc string) (*MoveRecord, error) {
	mv := &MoveRecord{}
	if err := json.Unmarshal([]byte(doc), mv); err != nil {
		return nil, err
	}
	return mv, nil
}

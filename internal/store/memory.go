package store

import (
	"sort"
	"sync"

	"losiento-lite/losiento"
)

// MemoryStore keeps everything in process memory behind one mutex, which
// makes every operation trivially serializable. It is the default backend
// and the one the tests run against.
type MemoryStore struct {
	mu          sync.Mutex
	games       map[string]*GameRecord
	moves       map[string][]*MoveRecord
	activeGames map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games:       make(map[string]*GameRecord),
		moves:       make(map[string][]*MoveRecord),
		activeGames: make(map[string]string),
	}
}

func (s *MemoryStore) CreateGame(rec *GameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.games[rec.GameID]; exists {
		return ErrConflict
	}
	cp := rec.Clone()
	now := nowMs()
	cp.CreatedAt = now
	cp.UpdatedAt = now
	cp.Version = 1
	s.games[rec.GameID] = cp
	rec.CreatedAt = now
	rec.UpdatedAt = now
	rec.Version = 1
	return nil
}

func (s *MemoryStore) GetGame(gameID string) (*GameRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.games[gameID]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *MemoryStore) UpdateGame(gameID string, fn func(*GameRecord) error) (*GameRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.games[gameID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := rec.Clone()
	if err := fn(cp); err != nil {
		return nil, err
	}
	cp.UpdatedAt = nowMs()
	cp.Version = rec.Version + 1
	s.games[gameID] = cp
	return cp.Clone(), nil
}

func (s *MemoryStore) AppendMove(gameID string, mv *MoveRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[gameID]; !ok {
		return ErrNotFound
	}
	mv.Index = len(s.moves[gameID])
	if mv.CreatedAt == 0 {
		mv.CreatedAt = nowMs()
	}
	cp := *mv
	s.moves[gameID] = append(s.moves[gameID], &cp)
	return nil
}

func (s *MemoryStore) ListMoves(gameID string) ([]*MoveRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.moves[gameID]
	out := make([]*MoveRecord, 0, len(entries))
	for _, mv := range entries {
		cp := *mv
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryStore) SetActiveGame(userID, gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeGames[userID] = gameID
	return nil
}

func (s *MemoryStore) ClearActiveGame(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.activeGames, userID)
	return nil
}

func (s *MemoryStore) GetActiveGame(userID string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gameID, ok := s.activeGames[userID]
	return gameID, ok, nil
}

func (s *MemoryStore) ListGamesByPhase(phase losiento.Phase) ([]*GameRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*GameRecord, 0)
	for _, rec := range s.games {
		if rec.Phase == phase {
			out = append(out, rec.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].GameID < out[j].GameID
	})
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

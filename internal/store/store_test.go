package store

import (
	"errors"
	"path/filepath"
	"testing"

	"losiento-lite/losiento"
)

func runStoreTest(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Helper()
	backends := []struct {
		name string
		open func(t *testing.T) Store
	}{
		{"memory", func(t *testing.T) Store {
			return NewMemoryStore()
		}},
		{"sqlite", func(t *testing.T) Store {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "store.db"))
			if err != nil {
				t.Fatalf("open sqlite store: %v", err)
			}
			return s
		}},
	}
	for _, backend := range backends {
		t.Run(backend.name, func(t *testing.T) {
			s := backend.open(t)
			defer s.Close()
			fn(t, s)
		})
	}
}

func sampleRecord(gameID, hostID string) *GameRecord {
	seats := make([]losiento.Seat, losiento.MaxSeats)
	for i := range seats {
		seats[i] = losiento.Seat{Index: i, Color: losiento.SeatColors[i], Status: losiento.SeatStatusOpen}
	}
	seats[0].PlayerID = hostID
	seats[0].DisplayName = "Hosty"
	seats[0].Status = losiento.SeatStatusJoined
	return &GameRecord{
		GameID:   gameID,
		HostID:   hostID,
		HostName: "Hosty",
		Phase:    losiento.PhaseLobby,
		Settings: losiento.GameSettings{MaxSeats: losiento.MaxSeats},
		Seats:    seats,
	}
}

func TestCreateAndGetGame(t *testing.T) {
	runStoreTest(t, func(t *testing.T, s Store) {
		rec := sampleRecord("g_1", "u_host")
		if err := s.CreateGame(rec); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if rec.CreatedAt == 0 || rec.UpdatedAt == 0 {
			t.Fatalf("expected timestamps to be stamped, got %d/%d", rec.CreatedAt, rec.UpdatedAt)
		}

		got, err := s.GetGame("g_1")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.GameID != "g_1" || got.HostID != "u_host" || got.HostName != "Hosty" {
			t.Fatalf("unexpected record: %+v", got)
		}
		if got.Phase != losiento.PhaseLobby {
			t.Fatalf("expected lobby phase, got %s", got.Phase)
		}
		if len(got.Seats) != losiento.MaxSeats {
			t.Fatalf("expected %d seats, got %d", losiento.MaxSeats, len(got.Seats))
		}
		if got.Seats[0].PlayerID != "u_host" || got.Seats[1].PlayerID != "" {
			t.Fatalf("seat binding lost in roundtrip: %+v", got.Seats)
		}
		if got.Version != 1 {
			t.Fatalf("expected version 1, got %d", got.Version)
		}

		if err := s.CreateGame(sampleRecord("g_1", "u_other")); !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict for duplicate game id, got %v", err)
		}
	})
}

func TestGetGameNotFound(t *testing.T) {
	runStoreTest(t, func(t *testing.T, s Store) {
		if _, err := s.GetGame("nope"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestGameStateDocRoundtrip(t *testing.T) {
	runStoreTest(t, func(t *testing.T, s Store) {
		rec := sampleRecord("g_state", "u_host")
		rec.Phase = losiento.PhaseActive
		rec.State = losiento.NewGameState("g_state", losiento.MaxSeats, 7)
		wantHash := rec.State.Hash()
		if err := s.CreateGame(rec); err != nil {
			t.Fatalf("create failed: %v", err)
		}

		got, err := s.GetGame("g_state")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.State == nil {
			t.Fatalf("expected state to survive roundtrip")
		}
		if got.State.Hash() != wantHash {
			t.Fatalf("state hash changed in roundtrip: %s vs %s", got.State.Hash(), wantHash)
		}
	})
}

func TestUpdateGameCommitsChanges(t *testing.T) {
	runStoreTest(t, func(t *testing.T, s Store) {
		if err := s.CreateGame(sampleRecord("g_up", "u_host")); err != nil {
			t.Fatalf("create failed: %v", err)
		}

		updated, err := s.UpdateGame("g_up", func(rec *GameRecord) error {
			rec.Phase = losiento.PhaseActive
			rec.State = losiento.NewGameState("g_up", losiento.MaxSeats, 1)
			return nil
		})
		if err != nil {
			t.Fatalf("update failed: %v", err)
		}
		if updated.Phase != losiento.PhaseActive || updated.State == nil {
			t.Fatalf("update result missing changes: %+v", updated)
		}
		if updated.Version != 2 {
			t.Fatalf("expected version 2 after update, got %d", updated.Version)
		}

		got, err := s.GetGame("g_up")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.Phase != losiento.PhaseActive || got.State == nil {
			t.Fatalf("update not persisted: %+v", got)
		}
		if got.UpdatedAt < got.CreatedAt {
			t.Fatalf("updatedAt %d older than createdAt %d", got.UpdatedAt, got.CreatedAt)
		}
	})
}

func TestUpdateGameErrorLeavesRecordUntouched(t *testing.T) {
	runStoreTest(t, func(t *testing.T, s Store) {
		if err := s.CreateGame(sampleRecord("g_err", "u_host")); err != nil {
			t.Fatalf("create failed: %v", err)
		}

		_, err := s.UpdateGame("g_err", func(rec *GameRecord) error {
			rec.Phase = losiento.PhaseActive
			return losiento.Errf(losiento.KindNotHost, "only the host can start")
		})
		if !losiento.IsKind(err, losiento.KindNotHost) {
			t.Fatalf("expected not_host error to pass through, got %v", err)
		}

		got, err := s.GetGame("g_err")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.Phase != losiento.PhaseLobby {
			t.Fatalf("aborted update must not persist, got phase %s", got.Phase)
		}
		if got.Version != 1 {
			t.Fatalf("aborted update must not bump version, got %d", got.Version)
		}
	})
}

func TestUpdateGameNotFound(t *testing.T) {
	runStoreTest(t, func(t *testing.T, s Store) {
		_, err := s.UpdateGame("missing", func(rec *GameRecord) error { return nil })
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestAppendMoveAssignsMonotonicIndexes(t *testing.T) {
	runStoreTest(t, func(t *testing.T, s Store) {
		if err := s.CreateGame(sampleRecord("g_mv", "u_host")); err != nil {
			t.Fatalf("create failed: %v", err)
		}

		cards := []losiento.Card{losiento.CardFive, losiento.CardSorry, losiento.CardTwo}
		for i, card := range cards {
			mv := &MoveRecord{
				TurnNumber: i + 1,
				SeatIndex:  i % 2,
				PlayerID:   "u_host",
				Card:       card,
				Move: &losiento.Move{
					Card:      card,
					SeatIndex: i % 2,
					PawnID:    "g_mv_s0_p0",
					DestType:  losiento.PosTrack,
					DestIndex: 5 + i,
				},
				Pawns:              []losiento.PawnChange{},
				ResultingStateHash: "h",
			}
			if err := s.AppendMove("g_mv", mv); err != nil {
				t.Fatalf("append %d failed: %v", i, err)
			}
			if mv.Index != i {
				t.Fatalf("expected index %d, got %d", i, mv.Index)
			}
			if mv.CreatedAt == 0 {
				t.Fatalf("expected createdAt to be stamped")
			}
		}

		moves, err := s.ListMoves("g_mv")
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(moves) != len(cards) {
			t.Fatalf("expected %d moves, got %d", len(cards), len(moves))
		}
		for i, mv := range moves {
			if mv.Index != i {
				t.Fatalf("move %d has index %d", i, mv.Index)
			}
			if mv.Card != cards[i] {
				t.Fatalf("move %d has card %s, want %s", i, mv.Card, cards[i])
			}
			if mv.Move == nil || mv.Move.PawnID != "g_mv_s0_p0" {
				t.Fatalf("move %d lost its descriptor: %+v", i, mv.Move)
			}
		}
	})
}

func TestAppendMoveUnknownGameFails(t *testing.T) {
	runStoreTest(t, func(t *testing.T, s Store) {
		mv := &MoveRecord{Card: losiento.CardOne, Pawns: []losiento.PawnChange{}}
		if err := s.AppendMove("missing", mv); err == nil {
			t.Fatalf("expected append to unknown game to fail")
		}
	})
}

func TestActiveGameMapping(t *testing.T) {
	runStoreTest(t, func(t *testing.T, s Store) {
		if _, ok, err := s.GetActiveGame("u_1"); err != nil || ok {
			t.Fatalf("expected no mapping, got ok=%v err=%v", ok, err)
		}

		if err := s.SetActiveGame("u_1", "g_a"); err != nil {
			t.Fatalf("set failed: %v", err)
		}
		gameID, ok, err := s.GetActiveGame("u_1")
		if err != nil || !ok || gameID != "g_a" {
			t.Fatalf("expected g_a mapping, got %q ok=%v err=%v", gameID, ok, err)
		}

		// 换局要覆盖旧映射
		if err := s.SetActiveGame("u_1", "g_b"); err != nil {
			t.Fatalf("overwrite failed: %v", err)
		}
		gameID, ok, err = s.GetActiveGame("u_1")
		if err != nil || !ok || gameID != "g_b" {
			t.Fatalf("expected g_b mapping, got %q ok=%v err=%v", gameID, ok, err)
		}

		if err := s.ClearActiveGame("u_1"); err != nil {
			t.Fatalf("clear failed: %v", err)
		}
		if _, ok, err := s.GetActiveGame("u_1"); err != nil || ok {
			t.Fatalf("expected mapping cleared, got ok=%v err=%v", ok, err)
		}
	})
}

func TestListGamesByPhase(t *testing.T) {
	runStoreTest(t, func(t *testing.T, s Store) {
		for _, id := range []string{"g_a", "g_b", "g_c"} {
			if err := s.CreateGame(sampleRecord(id, "u_"+id)); err != nil {
				t.Fatalf("create %s failed: %v", id, err)
			}
		}
		if _, err := s.UpdateGame("g_b", func(rec *GameRecord) error {
			rec.Phase = losiento.PhaseActive
			return nil
		}); err != nil {
			t.Fatalf("update failed: %v", err)
		}

		lobby, err := s.ListGamesByPhase(losiento.PhaseLobby)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(lobby) != 2 || lobby[0].GameID != "g_a" || lobby[1].GameID != "g_c" {
			ids := make([]string, 0, len(lobby))
			for _, rec := range lobby {
				ids = append(ids, rec.GameID)
			}
			t.Fatalf("expected [g_a g_c], got %v", ids)
		}

		active, err := s.ListGamesByPhase(losiento.PhaseActive)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(active) != 1 || active[0].GameID != "g_b" {
			t.Fatalf("expected [g_b] active, got %d records", len(active))
		}
	})
}

package stats

import (
	"path/filepath"
	"testing"
)

func runStatsTest(t *testing.T, fn func(t *testing.T, s Service)) {
	t.Helper()
	backends := []struct {
		name string
		open func(t *testing.T) Service
	}{
		{"memory", func(t *testing.T) Service {
			return NewMemoryService()
		}},
		{"sqlite", func(t *testing.T) Service {
			s, err := NewSQLiteService(filepath.Join(t.TempDir(), "stats.db"))
			if err != nil {
				t.Fatalf("open sqlite stats: %v", err)
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

func TestRecordResultAccumulates(t *testing.T) {
	runStatsTest(t, func(t *testing.T, s Service) {
		s.RecordResult("g_1", []PlayerResult{
			{UserID: "u_a", Outcome: OutcomeWin},
			{UserID: "u_b", Outcome: OutcomeLoss},
		})
		s.RecordResult("g_2", []PlayerResult{
			{UserID: "u_a", Outcome: OutcomeLoss},
			{UserID: "u_b", Outcome: OutcomeWin},
		})
		s.RecordResult("g_3", []PlayerResult{
			{UserID: "u_a", Outcome: OutcomeAbort},
		})

		a, err := s.GetUserStats("u_a")
		if err != nil {
			t.Fatalf("get u_a: %v", err)
		}
		if a.Games != 3 || a.Wins != 1 || a.Losses != 1 || a.Aborts != 1 {
			t.Fatalf("unexpected u_a stats: %+v", a)
		}
		if a.UpdatedAt == 0 {
			t.Fatalf("expected updatedAt to be stamped")
		}

		b, err := s.GetUserStats("u_b")
		if err != nil {
			t.Fatalf("get u_b: %v", err)
		}
		if b.Games != 2 || b.Wins != 1 || b.Losses != 1 || b.Aborts != 0 {
			t.Fatalf("unexpected u_b stats: %+v", b)
		}
	})
}

func TestGetUserStatsUnknownUserIsZero(t *testing.T) {
	runStatsTest(t, func(t *testing.T, s Service) {
		u, err := s.GetUserStats("u_new")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if u.UserID != "u_new" || u.Games != 0 || u.Wins != 0 {
			t.Fatalf("expected zero stats, got %+v", u)
		}
	})
}

func TestRecordResultSkipsBotEntries(t *testing.T) {
	runStatsTest(t, func(t *testing.T, s Service) {
		s.RecordResult("g_1", []PlayerResult{{UserID: "", Outcome: OutcomeWin}})
		u, err := s.GetUserStats("")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if u.Games != 0 {
			t.Fatalf("empty user id must not be recorded, got %+v", u)
		}
	})
}

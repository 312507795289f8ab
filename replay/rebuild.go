package replay

import (
	"fmt"

	"losiento-lite/internal/store"
	"losiento-lite/losiento"
)

// Rebuild replays a game's history from its deck seed and returns the
// reconstructed state. Every entry is verified on the way: the drawn card,
// the legality of the stored move, the recorded pawn diff and the state
// hash. The first divergence aborts the walk with a *ReplayError, so a
// clean return proves the stored record and its history agree.
func Rebuild(rec *store.GameRecord, entries []*store.MoveRecord) (*losiento.GameState, error) {
	if rec.State == nil {
		return nil, &ReplayError{
			EntryIndex: -1,
			Reason:     ReasonNoState,
			Message:    "game has no dealt state to verify against",
		}
	}

	state := losiento.NewGameState(rec.GameID, len(rec.Seats), rec.State.DeckSeed)
	for i, entry := range entries {
		expected := &ExpectedEntry{TurnNumber: state.TurnNumber, SeatIndex: state.CurrentSeatIndex}
		if entry.TurnNumber != state.TurnNumber {
			return nil, &ReplayError{
				EntryIndex: i,
				Reason:     ReasonTurnMismatch,
				Message:    fmt.Sprintf("entry claims turn %d, rebuild is at turn %d", entry.TurnNumber, state.TurnNumber),
				Expected:   expected,
			}
		}
		if entry.SeatIndex != state.CurrentSeatIndex {
			return nil, &ReplayError{
				EntryIndex: i,
				Reason:     ReasonSeatMismatch,
				Message:    fmt.Sprintf("entry claims seat %d, rebuild says seat %d acts", entry.SeatIndex, state.CurrentSeatIndex),
				Expected:   expected,
			}
		}

		card := state.Draw()
		expected.Card = card
		if card != entry.Card {
			return nil, &ReplayError{
				EntryIndex: i,
				Reason:     ReasonCardMismatch,
				Message:    fmt.Sprintf("entry claims card %s, deterministic deck drew %s", entry.Card, card),
				Expected:   expected,
			}
		}

		legal := losiento.LegalMoves(state, entry.SeatIndex, card)
		if entry.Move == nil {
			if len(legal) != 0 {
				return nil, &ReplayError{
					EntryIndex: i,
					Reason:     ReasonMoveMissing,
					Message:    fmt.Sprintf("entry skips the card but %d legal moves existed", len(legal)),
					Expected:   expected,
				}
			}
		} else {
			if !containsMove(legal, *entry.Move) {
				return nil, &ReplayError{
					EntryIndex: i,
					Reason:     ReasonIllegalMove,
					Message:    fmt.Sprintf("stored move for pawn %s is not among the %d legal moves", entry.Move.PawnID, len(legal)),
					Expected:   expected,
				}
			}
			next, err := losiento.ApplyMove(state, *entry.Move)
			if err != nil {
				return nil, &ReplayError{
					EntryIndex: i,
					Reason:     ReasonApplyFailed,
					Message:    err.Error(),
					Expected:   expected,
				}
			}
			diff := losiento.DiffPawns(state, next)
			state = next
			if winner, ok := state.CheckWinner(); ok {
				state.WinnerSeatIndex = winner
				state.Result = losiento.ResultWin
			}
			if !pawnsEqual(diff, entry.Pawns) {
				return nil, &ReplayError{
					EntryIndex: i,
					Reason:     ReasonPawnMismatch,
					Message:    fmt.Sprintf("entry records %d pawn changes, rebuild produced %d", len(entry.Pawns), len(diff)),
					Expected:   expected,
				}
			}
		}

		if hash := state.Hash(); hash != entry.ResultingStateHash {
			expected.StateHash = hash
			return nil, &ReplayError{
				EntryIndex: i,
				Reason:     ReasonHashMismatch,
				Message:    "state hash after the entry does not match the recorded one",
				Expected:   expected,
			}
		}

		// the turn closes when the next entry belongs to a new one
		if i+1 < len(entries) && entries[i+1].TurnNumber == entry.TurnNumber {
			continue
		}
		if state.Result == losiento.ResultActive {
			state.AdvanceTurn(rec.Seats)
		}
	}

	// an abort freezes the board, only the result marker differs
	if rec.State.Result == losiento.ResultAborted {
		state.Result = losiento.ResultAborted
	}
	if want, got := rec.State.Hash(), state.Hash(); want != got {
		return nil, &ReplayError{
			EntryIndex: len(entries),
			Reason:     ReasonStateDiverged,
			Message:    "rebuilt state does not match the stored one",
			Expected:   &ExpectedEntry{TurnNumber: state.TurnNumber, SeatIndex: state.CurrentSeatIndex, StateHash: got},
		}
	}
	return state, nil
}

// Report summarizes a verified game.
type Report struct {
	GameID    string         `json:"gameId"`
	Phase     losiento.Phase `json:"phase"`
	Entries   int            `json:"entries"`
	Turns     int            `json:"turns"`
	FinalHash string         `json:"finalHash"`
}

// VerifyGame loads a game and its history from the store and rebuilds it.
func VerifyGame(st store.Store, gameID string) (*Report, error) {
	rec, err := st.GetGame(gameID)
	if err != nil {
		return nil, err
	}
	entries, err := st.ListMoves(gameID)
	if err != nil {
		return nil, err
	}
	state, err := Rebuild(rec, entries)
	if err != nil {
		return nil, err
	}
	return &Report{
		GameID:    rec.GameID,
		Phase:     rec.Phase,
		Entries:   len(entries),
		Turns:     state.TurnNumber,
		FinalHash: state.Hash(),
	}, nil
}

func containsMove(legal []losiento.Move, mv losiento.Move) bool {
	for _, m := range legal {
		if m == mv {
			return true
		}
	}
	return false
}

func pawnsEqual(a, b []losiento.PawnChange) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

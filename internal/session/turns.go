package session

import (
	"log"
	"time"

	"losiento-lite/internal/store"
	"losiento-lite/losiento"
	"losiento-lite/losiento/bot"
)

// chooser picks a move for the card just drawn. Returning a nil move with
// a nil error skips the card (no legal moves); any error aborts the turn.
type chooser func(card losiento.Card, moves []losiento.Move) (*losiento.Move, error)

func requireActive(rec *store.GameRecord) error {
	switch rec.Phase {
	case losiento.PhaseLobby:
		return losiento.Errf(losiento.KindGameNotStarted, "game %s has not started", rec.GameID)
	case losiento.PhaseFinished, losiento.PhaseAborted:
		return losiento.Errf(losiento.KindGameOver, "game %s is over", rec.GameID)
	}
	if rec.State == nil {
		return losiento.Errf(losiento.KindInvalidState, "game %s is active but has no state", rec.GameID)
	}
	return nil
}

// playCard draws one card, resolves it and records a history entry.
// Every drawn card gets an entry, Move left nil when the card could not
// be played. Finishing moves flip the record to the finished phase.
func (m *Manager) playCard(rec *store.GameRecord, seatIdx int, playerID string, choose chooser, entries *[]*store.MoveRecord) (losiento.Card, error) {
	card := rec.State.Draw()
	moves := losiento.LegalMoves(rec.State, seatIdx, card)

	mv, err := choose(card, moves)
	if err != nil {
		return card, err
	}

	var pawns []losiento.PawnChange
	if mv != nil {
		next, err := losiento.ApplyMove(rec.State, *mv)
		if err != nil {
			return card, err
		}
		pawns = losiento.DiffPawns(rec.State, next)
		rec.State = next
		if winner, ok := rec.State.CheckWinner(); ok {
			rec.State.WinnerSeatIndex = winner
			rec.State.Result = losiento.ResultWin
			rec.Phase = losiento.PhaseFinished
			rec.EndedAt = nowMs()
		}
	}

	*entries = append(*entries, &store.MoveRecord{
		TurnNumber:         rec.State.TurnNumber,
		SeatIndex:          seatIdx,
		PlayerID:           playerID,
		Card:               card,
		Move:               mv,
		Pawns:              pawns,
		ResultingStateHash: rec.State.Hash(),
	})
	return card, nil
}

func payloadOrEmpty(p *losiento.ClientMovePayload) losiento.ClientMovePayload {
	if p == nil {
		return losiento.ClientMovePayload{}
	}
	return *p
}

func humanChooser(payload losiento.ClientMovePayload) chooser {
	return func(card losiento.Card, moves []losiento.Move) (*losiento.Move, error) {
		mv, err := losiento.SelectMove(moves, payload)
		if err != nil {
			if losiento.IsKind(err, losiento.KindNoLegalMoves) {
				return nil, nil
			}
			return nil, err
		}
		return &mv, nil
	}
}

func (m *Manager) botChooser(seatIdx, turnNumber int) chooser {
	return func(card losiento.Card, moves []losiento.Move) (*losiento.Move, error) {
		if len(moves) == 0 {
			return nil, nil
		}
		view := bot.TurnView{
			Card:       card,
			SeatIndex:  seatIdx,
			TurnNumber: turnNumber,
			Moves:      moves,
		}
		m.mu.Lock()
		decision := m.brain.Choose(view)
		m.mu.Unlock()
		if decision.Skip || decision.MoveIndex < 0 || decision.MoveIndex >= len(moves) {
			return nil, nil
		}
		mv := moves[decision.MoveIndex]
		return &mv, nil
	}
}

// PlayHuman resolves one full turn for the caller: the drawn card, the
// extra draw a 2 grants, and the turn advance. The whole turn commits or
// none of it does.
func (m *Manager) PlayHuman(userID, gameID string, payload *losiento.ClientMovePayload) (*store.GameRecord, error) {
	first := payloadOrEmpty(payload)
	var entries []*store.MoveRecord
	updated, err := m.store.UpdateGame(gameID, func(rec *store.GameRecord) error {
		entries = entries[:0]
		if err := requireActive(rec); err != nil {
			return err
		}
		seat, ok := rec.SeatOf(userID)
		if !ok {
			return losiento.Errf(losiento.KindNotInGame, "user has no seat in game %s", gameID)
		}
		if seat.Index != rec.State.CurrentSeatIndex {
			return losiento.Errf(losiento.KindNotYourTurn, "it is seat %d's turn", rec.State.CurrentSeatIndex)
		}

		card, err := m.playCard(rec, seat.Index, userID, humanChooser(first), &entries)
		if err != nil {
			return err
		}
		// 抽到2再抽一张，赢了就不用了
		if rec.Phase == losiento.PhaseActive && card == losiento.CardTwo {
			if _, err := m.playCard(rec, seat.Index, userID, humanChooser(payloadOrEmpty(first.Second)), &entries); err != nil {
				return err
			}
		}
		if rec.Phase == losiento.PhaseActive {
			rec.State.AdvanceTurn(rec.Seats)
		}
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}
	m.appendEntries(updated.GameID, entries)
	if updated.Phase == losiento.PhaseFinished {
		m.recordFinish(updated)
	}
	return updated, nil
}

// BotStep advances the game by one bot turn. Calls that arrive before the
// bot delay has elapsed, or when a human is to act, return the current
// record untouched so pollers can drive bots by calling this repeatedly.
func (m *Manager) BotStep(gameID string) (*store.GameRecord, error) {
	current, err := m.store.GetGame(gameID)
	if err != nil {
		return nil, storeErr(err)
	}
	if err := requireActive(current); err != nil {
		return nil, err
	}
	seat := current.SeatAt(current.State.CurrentSeatIndex)
	if seat == nil || !seat.IsBot {
		return nil, losiento.Errf(losiento.KindNotYourTurn, "seat %d is not a bot", current.State.CurrentSeatIndex)
	}
	// 机器人出手前留一拍，轮询的客户端才看得清回合变化
	if m.botDelay > 0 && time.Since(time.UnixMilli(current.UpdatedAt)) < m.botDelay {
		return current, nil
	}

	var entries []*store.MoveRecord
	updated, err := m.store.UpdateGame(gameID, func(rec *store.GameRecord) error {
		entries = entries[:0]
		if err := requireActive(rec); err != nil {
			return err
		}
		seat := rec.SeatAt(rec.State.CurrentSeatIndex)
		if seat == nil || !seat.IsBot {
			return losiento.Errf(losiento.KindNotYourTurn, "seat %d is not a bot", rec.State.CurrentSeatIndex)
		}
		seatIdx := seat.Index

		card, err := m.playCard(rec, seatIdx, "", m.botChooser(seatIdx, rec.State.TurnNumber), &entries)
		if err != nil {
			return err
		}
		if rec.Phase == losiento.PhaseActive && card == losiento.CardTwo {
			if _, err := m.playCard(rec, seatIdx, "", m.botChooser(seatIdx, rec.State.TurnNumber), &entries); err != nil {
				return err
			}
		}
		if rec.Phase == losiento.PhaseActive {
			rec.State.AdvanceTurn(rec.Seats)
		}
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}
	m.appendEntries(updated.GameID, entries)
	if updated.Phase == losiento.PhaseFinished {
		m.recordFinish(updated)
	}
	return updated, nil
}

// LegalMoversPreview shows seat-mates which pawns could act on the next
// draw. Deck order is deterministic, so peeking does not leak anything a
// client could not compute from the seed, but the seed itself is never
// projected; only players of the game may call this.
func (m *Manager) LegalMoversPreview(userID, gameID string) (*MoversPreview, error) {
	rec, err := m.store.GetGame(gameID)
	if err != nil {
		return nil, storeErr(err)
	}
	if err := requireActive(rec); err != nil {
		return nil, err
	}
	if _, ok := rec.SeatOf(userID); !ok {
		return nil, losiento.Errf(losiento.KindNotInGame, "user has no seat in game %s", gameID)
	}

	card := rec.State.PeekNext()
	moves := losiento.LegalMoves(rec.State, rec.State.CurrentSeatIndex, card)
	seen := make(map[string]bool, len(moves))
	pawnIDs := make([]string, 0, len(moves))
	for _, mv := range moves {
		if seen[mv.PawnID] {
			continue
		}
		seen[mv.PawnID] = true
		pawnIDs = append(pawnIDs, mv.PawnID)
	}
	return &MoversPreview{
		GameID:    rec.GameID,
		SeatIndex: rec.State.CurrentSeatIndex,
		Card:      card,
		PawnIDs:   pawnIDs,
		Moves:     moves,
	}, nil
}

// Moves returns the committed history of a game, oldest first. Only
// participants may read it; seats remember departed players, so a finished
// game stays reviewable after its humans have left.
func (m *Manager) Moves(userID, gameID string) ([]*store.MoveRecord, error) {
	rec, err := m.store.GetGame(gameID)
	if err != nil {
		return nil, storeErr(err)
	}
	if !isParticipant(rec, userID) {
		return nil, losiento.Errf(losiento.KindNotInGame, "user is not part of game %s", gameID)
	}
	return m.store.ListMoves(gameID)
}

func isParticipant(rec *store.GameRecord, userID string) bool {
	if rec.HostID == userID {
		return true
	}
	for i := range rec.Seats {
		if rec.Seats[i].PlayerID == userID || rec.Seats[i].LastPlayerID == userID {
			return true
		}
	}
	return false
}

// appendEntries writes history entries after the state commit. History is
// derived data; a failed append must not fail the turn that produced it.
func (m *Manager) appendEntries(gameID string, entries []*store.MoveRecord) {
	for _, entry := range entries {
		if err := m.store.AppendMove(gameID, entry); err != nil {
			log.Printf("[Session] append move failed: game=%s turn=%d err=%v", gameID, entry.TurnNumber, err)
		}
	}
}

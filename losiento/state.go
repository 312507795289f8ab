package losiento

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// GameState is the authoritative board state. It is persisted as a single
// JSON document and mutated only inside store transactions. DeckSeed and
// Shuffles drive the deterministic deck rebuilds and are never projected
// to clients.
type GameState struct {
	TurnNumber       int    `json:"turnNumber"`
	CurrentSeatIndex int    `json:"currentSeatIndex"`
	Deck             []Card `json:"deck"`
	DiscardPile      []Card `json:"discardPile"`
	Pawns            []Pawn `json:"pawns"`
	WinnerSeatIndex  int    `json:"winnerSeatIndex"`
	Result           Result `json:"result"`
	DeckSeed         int64  `json:"deckSeed"`
	Shuffles         int    `json:"shuffles"`
}

// NewGameState deals a fresh board for seatCount seats: four pawns per
// seat in Start and a draw pile shuffled from seed.
func NewGameState(gameID string, seatCount int, seed int64) *GameState {
	st := &GameState{
		DiscardPile:     make([]Card, 0),
		Pawns:           make([]Pawn, 0, seatCount*PawnsPerSeat),
		WinnerSeatIndex: InvalidSeat,
		Result:          ResultActive,
		DeckSeed:        seed,
	}
	for seat := 0; seat < seatCount; seat++ {
		for i := 0; i < PawnsPerSeat; i++ {
			st.Pawns = append(st.Pawns, Pawn{
				PawnID:    fmt.Sprintf("%s_s%d_p%d", gameID, seat, i),
				SeatIndex: seat,
				Position:  StartPos(),
			})
		}
	}
	st.EnsureDeck()
	return st
}

// Clone returns a deep copy safe to mutate without touching the original.
func (st *GameState) Clone() *GameState {
	cp := *st
	cp.Deck = make([]Card, len(st.Deck))
	copy(cp.Deck, st.Deck)
	cp.DiscardPile = make([]Card, len(st.DiscardPile))
	copy(cp.DiscardPile, st.DiscardPile)
	cp.Pawns = make([]Pawn, len(st.Pawns))
	copy(cp.Pawns, st.Pawns)
	return &cp
}

// Hash returns the SHA-256 of the state's canonical JSON encoding. It is
// recorded with every move so clients can detect divergence.
func (st *GameState) Hash() string {
	raw, err := json.Marshal(st)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// PawnByID returns a pointer into the state's pawn slice.
func (st *GameState) PawnByID(id string) (*Pawn, bool) {
	for i := range st.Pawns {
		if st.Pawns[i].PawnID == id {
			return &st.Pawns[i], true
		}
	}
	return nil, false
}

// SeatPawns returns seat's pawns in creation order.
func (st *GameState) SeatPawns(seat int) []*Pawn {
	out := make([]*Pawn, 0, PawnsPerSeat)
	for i := range st.Pawns {
		if st.Pawns[i].SeatIndex == seat {
			out = append(out, &st.Pawns[i])
		}
	}
	return out
}

// PawnAt returns the pawn occupying a shared track space, if any.
func (st *GameState) PawnAt(trackIndex int) (*Pawn, bool) {
	for i := range st.Pawns {
		p := &st.Pawns[i]
		if p.Position.Type == PosTrack && p.Position.Index == trackIndex {
			return p, true
		}
	}
	return nil, false
}

// safetyPawn returns seat's pawn sitting on its own Safety[idx], if any.
// Safety lanes are private, so only the owner's pawns can occupy them.
func (st *GameState) safetyPawn(seat, idx int) *Pawn {
	for i := range st.Pawns {
		p := &st.Pawns[i]
		if p.SeatIndex == seat && p.Position.Type == PosSafety && p.Position.Index == idx {
			return p
		}
	}
	return nil
}

// CheckWinner returns the lowest seat whose pawns are all Home.
func (st *GameState) CheckWinner() (int, bool) {
	for seat := 0; seat < MaxSeats; seat++ {
		total, home := 0, 0
		for i := range st.Pawns {
			if st.Pawns[i].SeatIndex != seat {
				continue
			}
			total++
			if st.Pawns[i].Position.Type == PosHome {
				home++
			}
		}
		if total > 0 && total == home {
			return seat, true
		}
	}
	return InvalidSeat, false
}

// AdvanceTurn moves play to the next seat that is joined or a bot. The
// turn counter increments exactly once per call even when open seats are
// skipped.
func (st *GameState) AdvanceTurn(seats []Seat) {
	st.TurnNumber++
	n := len(seats)
	if n == 0 {
		return
	}
	next := (st.CurrentSeatIndex + 1) % n
	for i := 0; i < n; i++ {
		if seats[next].Occupied() {
			break
		}
		next = (next + 1) % n
	}
	st.CurrentSeatIndex = next
}

// PawnChange records one pawn's movement inside a committed move.
type PawnChange struct {
	PawnID       string   `json:"pawnId"`
	FromPosition Position `json:"fromPosition"`
	ToPosition   Position `json:"toPosition"`
}

// DiffPawns lists every pawn whose position differs between two states,
// in pawn order. Bumped pawns show up alongside the acting one.
func DiffPawns(before, after *GameState) []PawnChange {
	changes := make([]PawnChange, 0, 2)
	for i := range after.Pawns {
		ap := &after.Pawns[i]
		bp, ok := before.PawnByID(ap.PawnID)
		if !ok || bp.Position == ap.Position {
			continue
		}
		changes = append(changes, PawnChange{
			PawnID:       ap.PawnID,
			FromPosition: bp.Position,
			ToPosition:   ap.Position,
		})
	}
	return changes
}

package session

import (
	"losiento-lite/internal/store"
	"losiento-lite/losiento"
)

// JoinableGame is one row of the lobby browser.
type JoinableGame struct {
	GameID         string `json:"gameId"`
	HostName       string `json:"hostName"`
	CurrentPlayers int    `json:"currentPlayers"`
	MaxSeats       int    `json:"maxSeats"`
}

// MoversPreview lists the pawns that could act on the upcoming draw.
type MoversPreview struct {
	GameID    string          `json:"gameId"`
	SeatIndex int             `json:"seatIndex"`
	Card      losiento.Card   `json:"card"`
	PawnIDs   []string        `json:"pawnIds"`
	Moves     []losiento.Move `json:"moves"`
}

// SeatView is a seat without the rejoin bookkeeping.
type SeatView struct {
	Index       int                 `json:"index"`
	Color       string              `json:"color"`
	IsBot       bool                `json:"isBot"`
	PlayerID    string              `json:"playerId,omitempty"`
	DisplayName string              `json:"displayName,omitempty"`
	Status      losiento.SeatStatus `json:"status"`
}

// SettingsView echoes the settings a client may see. The deck seed stays
// server-side even when the host supplied one.
type SettingsView struct {
	MaxSeats int `json:"maxSeats"`
}

type BoardView struct {
	Pawns []losiento.Pawn `json:"pawns"`
}

// StateView is the client-safe slice of the board state. Deck contents
// collapse to a count; the discard pile is public knowledge.
type StateView struct {
	TurnNumber       int             `json:"turnNumber"`
	CurrentSeatIndex int             `json:"currentSeatIndex"`
	DeckSize         int             `json:"deckSize"`
	DiscardPile      []losiento.Card `json:"discardPile"`
	Board            BoardView       `json:"board"`
	WinnerSeatIndex  *int            `json:"winnerSeatIndex"`
	Result           losiento.Result `json:"result"`
}

// GameView is what clients receive for any game endpoint. State is an
// explicit null until the game starts.
type GameView struct {
	GameID          string         `json:"gameId"`
	Phase           losiento.Phase `json:"phase"`
	HostID          string         `json:"hostId"`
	HostName        string         `json:"hostName"`
	Settings        SettingsView   `json:"settings"`
	Seats           []SeatView     `json:"seats"`
	State           *StateView     `json:"state"`
	ViewerSeatIndex *int           `json:"viewerSeatIndex,omitempty"`
	AbortedReason   string         `json:"abortedReason,omitempty"`
	CreatedAt       int64          `json:"createdAt"`
	UpdatedAt       int64          `json:"updatedAt"`
	EndedAt         int64          `json:"endedAt,omitempty"`
}

// ToClient projects a record for one viewer. viewerID may be empty for
// observer contexts; ViewerSeatIndex is then omitted.
func ToClient(rec *store.GameRecord, viewerID string) *GameView {
	view := &GameView{
		GameID:        rec.GameID,
		Phase:         rec.Phase,
		HostID:        rec.HostID,
		HostName:      rec.HostName,
		Settings:      SettingsView{MaxSeats: rec.Settings.MaxSeats},
		Seats:         make([]SeatView, len(rec.Seats)),
		AbortedReason: rec.AbortedReason,
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
		EndedAt:       rec.EndedAt,
	}
	for i := range rec.Seats {
		seat := &rec.Seats[i]
		view.Seats[i] = SeatView{
			Index:       seat.Index,
			Color:       seat.Color,
			IsBot:       seat.IsBot,
			PlayerID:    seat.PlayerID,
			DisplayName: seat.DisplayName,
			Status:      seat.Status,
		}
	}
	if seat, ok := rec.SeatOf(viewerID); ok {
		idx := seat.Index
		view.ViewerSeatIndex = &idx
	}
	if rec.State != nil {
		view.State = projectState(rec.State)
	}
	return view
}

func projectState(st *losiento.GameState) *StateView {
	view := &StateView{
		TurnNumber:       st.TurnNumber,
		CurrentSeatIndex: st.CurrentSeatIndex,
		DeckSize:         len(st.Deck),
		DiscardPile:      append([]losiento.Card(nil), st.DiscardPile...),
		Board:            BoardView{Pawns: append([]losiento.Pawn(nil), st.Pawns...)},
		Result:           st.Result,
	}
	if st.WinnerSeatIndex != losiento.InvalidSeat {
		winner := st.WinnerSeatIndex
		view.WinnerSeatIndex = &winner
	}
	return view
}

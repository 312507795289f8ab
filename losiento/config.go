package losiento

import "fmt"

// GameSettings are the host-chosen parameters of a game.
type GameSettings struct {
	MaxSeats int    `json:"maxSeats"`
	DeckSeed *int64 `json:"deckSeed,omitempty"`
}

func (s GameSettings) Validate() error {
	if s.MaxSeats < 2 || s.MaxSeats > MaxSeats {
		return fmt.Errorf("maxSeats must be between 2 and %d, got %d", MaxSeats, s.MaxSeats)
	}
	return nil
}

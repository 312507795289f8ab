package losiento

import (
	"errors"
	"fmt"
)

// Kind is a stable, client-visible failure class. The values are part of the
// wire contract and must never change.
type Kind string

const (
	KindNoActiveGame     Kind = "no_active_game"
	KindAlreadyInGame    Kind = "already_in_game"
	KindNotHost          Kind = "not_host"
	KindNotInGame        Kind = "not_in_game"
	KindNotYourTurn      Kind = "not_your_turn"
	KindGameNotStarted   Kind = "game_not_started"
	KindGameOver         Kind = "game_over"
	KindSeatNotOpen      Kind = "seat_not_open"
	KindInvalidSeat      Kind = "invalid_seat"
	KindCannotToggleHost Kind = "cannot_toggle_host_seat"
	KindInsufficient     Kind = "insufficient_players"
	KindNoHumans         Kind = "no_humans"
	KindLobbyOnly        Kind = "lobby_only"
	KindActiveOnly       Kind = "active_only"

	KindIllegalMove  Kind = "illegal_move"
	KindNoLegalMoves Kind = "no_legal_moves"
	KindInvalidState Kind = "invalid_state"

	KindSelectionRequired  Kind = "move_selection_required"
	KindSelectionNoMatch   Kind = "invalid_move_selection_no_match"
	KindSelectionAmbiguous Kind = "invalid_move_selection_ambiguous"

	KindConflict        Kind = "conflict"
	KindNotFound        Kind = "not_found"
	KindInvalidArgument Kind = "invalid_argument"
)

// GameError carries a stable kind plus a short human-readable message.
// Clients only ever see the kind and the message, never internals.
type GameError struct {
	Kind    Kind
	Message string
}

func (e *GameError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Message
}

// Errf builds a GameError with a formatted message.
func Errf(kind Kind, format string, args ...any) *GameError {
	return &GameError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the stable kind from err, or "" for untyped errors.
func KindOf(err error) Kind {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

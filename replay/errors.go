package replay

import (
	"fmt"

	"losiento-lite/losiento"
)

// Divergence reasons reported by Rebuild.
const (
	ReasonNoState       = "game_not_started"
	ReasonTurnMismatch  = "turn_mismatch"
	ReasonSeatMismatch  = "seat_mismatch"
	ReasonCardMismatch  = "card_mismatch"
	ReasonMoveMissing   = "move_missing"
	ReasonIllegalMove   = "illegal_move"
	ReasonApplyFailed   = "apply_failed"
	ReasonPawnMismatch  = "pawn_diff_mismatch"
	ReasonHashMismatch  = "hash_mismatch"
	ReasonStateDiverged = "state_divergence"
)

// ReplayError pinpoints the first history entry that does not match the
// deterministic rebuild. EntryIndex is -1 for failures before the walk and
// len(entries) for a final-state mismatch.
type ReplayError struct {
	EntryIndex int            `json:"entryIndex"`
	Reason     string         `json:"reason"`
	Message    string         `json:"message"`
	Expected   *ExpectedEntry `json:"expected,omitempty"`
}

// ExpectedEntry is what the rebuild derived at the failing entry.
type ExpectedEntry struct {
	TurnNumber int           `json:"turnNumber"`
	SeatIndex  int           `json:"seatIndex"`
	Card       losiento.Card `json:"card,omitempty"`
	StateHash  string        `json:"stateHash,omitempty"`
}

func (e *ReplayError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("replay error(entry=%d reason=%s): %s", e.EntryIndex, e.Reason, e.Message)
}

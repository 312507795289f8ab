package losiento

// MoveFilter is a partial move descriptor. Only fields the client sends
// take part in matching, so a bare {"pawnId": ...} is enough when that
// pawn has a single legal move.
type MoveFilter struct {
	PawnID             *string    `json:"pawnId,omitempty"`
	TargetPawnID       *string    `json:"targetPawnId,omitempty"`
	SecondaryPawnID    *string    `json:"secondaryPawnId,omitempty"`
	Direction          *Direction `json:"direction,omitempty"`
	Steps              *int       `json:"steps,omitempty"`
	SecondaryDirection *Direction `json:"secondaryDirection,omitempty"`
	SecondarySteps     *int       `json:"secondarySteps,omitempty"`
}

func (f *MoveFilter) matches(m Move) bool {
	if f.PawnID != nil && m.PawnID != *f.PawnID {
		return false
	}
	if f.TargetPawnID != nil && m.TargetPawnID != *f.TargetPawnID {
		return false
	}
	if f.SecondaryPawnID != nil && m.SecondaryPawnID != *f.SecondaryPawnID {
		return false
	}
	if f.Direction != nil && m.Direction != *f.Direction {
		return false
	}
	if f.Steps != nil && m.Steps != *f.Steps {
		return false
	}
	if f.SecondaryDirection != nil && m.SecondaryDirection != *f.SecondaryDirection {
		return false
	}
	if f.SecondarySteps != nil && m.SecondarySteps != *f.SecondarySteps {
		return false
	}
	return true
}

// ClientMovePayload is the client's choice among the enumerated legal
// moves: an index into the list, a partial descriptor, or nothing when a
// single move should apply on its own. Second carries the follow-up
// choice for the extra card a 2 grants.
type ClientMovePayload struct {
	MoveIndex *int               `json:"moveIndex,omitempty"`
	Move      *MoveFilter        `json:"move,omitempty"`
	Second    *ClientMovePayload `json:"second,omitempty"`
}

func (p ClientMovePayload) empty() bool {
	return p.MoveIndex == nil && p.Move == nil
}

// SelectMove resolves payload against the legal move list into exactly
// one move. An out-of-range index falls through to descriptor matching;
// descriptor matching fails typed when it hits zero or several moves.
func SelectMove(moves []Move, payload ClientMovePayload) (Move, error) {
	if len(moves) == 0 {
		return Move{}, Errf(KindNoLegalMoves, "no legal moves")
	}
	if payload.empty() {
		if len(moves) == 1 {
			return moves[0], nil
		}
		return Move{}, Errf(KindSelectionRequired, "%d legal moves, choose one", len(moves))
	}
	if payload.MoveIndex != nil {
		if i := *payload.MoveIndex; i >= 0 && i < len(moves) {
			return moves[i], nil
		}
	}
	if payload.Move != nil {
		var matched []Move
		for _, m := range moves {
			if payload.Move.matches(m) {
				matched = append(matched, m)
			}
		}
		switch len(matched) {
		case 1:
			return matched[0], nil
		case 0:
			return Move{}, Errf(KindSelectionNoMatch, "no legal move matches the descriptor")
		default:
			return Move{}, Errf(KindSelectionAmbiguous, "%d legal moves match the descriptor", len(matched))
		}
	}
	if len(moves) == 1 {
		return moves[0], nil
	}
	return Move{}, Errf(KindSelectionRequired, "%d legal moves, choose one", len(moves))
}

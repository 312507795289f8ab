package losiento

// Move is one fully-resolved legal move descriptor. The dest fields carry
// the final landing after slides, safety diverts and bumps, so clients can
// render the outcome without re-running the rules and so two branches of
// the same walk stay distinguishable.
type Move struct {
	Card               Card         `json:"card"`
	SeatIndex          int          `json:"seatIndex"`
	PawnID             string       `json:"pawnId"`
	Direction          Direction    `json:"direction,omitempty"`
	Steps              int          `json:"steps,omitempty"`
	TargetPawnID       string       `json:"targetPawnId,omitempty"`
	SecondaryPawnID    string       `json:"secondaryPawnId,omitempty"`
	SecondaryDirection Direction    `json:"secondaryDirection,omitempty"`
	SecondarySteps     int          `json:"secondarySteps,omitempty"`
	DestType           PositionType `json:"destType"`
	DestIndex          int          `json:"destIndex"`
	SecondaryDestType  PositionType `json:"secondaryDestType,omitempty"`
	SecondaryDestIndex int          `json:"secondaryDestIndex,omitempty"`
}

// Dest returns the primary landing as a Position.
func (m Move) Dest() Position {
	return Position{Type: m.DestType, Index: m.DestIndex}
}

// SecondaryDest returns the split second leg's landing as a Position.
func (m Move) SecondaryDest() Position {
	return Position{Type: m.SecondaryDestType, Index: m.SecondaryDestIndex}
}

func (m *Move) setDest(p Position) {
	m.DestType, m.DestIndex = p.Type, p.Index
}

func (m *Move) setSecondaryDest(p Position) {
	m.SecondaryDestType, m.SecondaryDestIndex = p.Type, p.Index
}

// LegalMoves enumerates every distinct move seat may legally play under
// card, in a stable order: pawns in creation order, the safety divert
// branch before the stay-on-track branch, whole-7 before splits and
// forward-11 before switches. The order is part of the wire contract
// since clients select by index.
func LegalMoves(st *GameState, seat int, card Card) []Move {
	pawns := st.SeatPawns(seat)
	moves := make([]Move, 0, 8)

	collectForward := func(dst *[]Move, steps int, allowStart bool) {
		for _, pw := range pawns {
			switch pw.Position.Type {
			case PosStart:
				if !allowStart {
					continue
				}
				exit := TrackPos(StartExitIndex(seat))
				tmp := st.Clone()
				if !tmp.leaveStart(pw.PawnID, exit) {
					continue
				}
				mv := Move{Card: card, SeatIndex: seat, PawnID: pw.PawnID, Direction: DirForward, Steps: steps}
				mv.setDest(exit)
				*dst = append(*dst, mv)
			case PosTrack, PosSafety:
				for _, out := range forwardOutcomes(seat, pw.Position, steps) {
					tmp := st.Clone()
					tmpPawn, _ := tmp.PawnByID(pw.PawnID)
					if !tmp.settlePawn(tmpPawn, out.final, out.slideSpaces) {
						continue
					}
					mv := Move{Card: card, SeatIndex: seat, PawnID: pw.PawnID, Direction: DirForward, Steps: steps}
					mv.setDest(out.final)
					*dst = append(*dst, mv)
				}
			}
		}
	}

	collectBackward := func(dst *[]Move, steps int) {
		for _, pw := range pawns {
			if pw.Position.Type != PosTrack && pw.Position.Type != PosSafety {
				continue
			}
			out, legal := backwardOutcome(seat, pw.Position, steps)
			if !legal {
				continue
			}
			tmp := st.Clone()
			tmpPawn, _ := tmp.PawnByID(pw.PawnID)
			if !tmp.settlePawn(tmpPawn, out.final, out.slideSpaces) {
				continue
			}
			mv := Move{Card: card, SeatIndex: seat, PawnID: pw.PawnID, Direction: DirBackward, Steps: steps}
			mv.setDest(out.final)
			*dst = append(*dst, mv)
		}
	}

	switch card {
	case CardOne:
		collectForward(&moves, 1, true)
	case CardTwo:
		collectForward(&moves, 2, true)
	case CardThree:
		collectForward(&moves, 3, false)
	case CardFour:
		collectBackward(&moves, 4)
	case CardFive:
		collectForward(&moves, 5, false)
	case CardSeven:
		collectForward(&moves, 7, false)
		moves = append(moves, splitSevenMoves(st, seat, pawns)...)
	case CardEight:
		collectForward(&moves, 8, false)
	case CardTen:
		// 10 前进优先：只有全部棋子都走不了 10 时才允许退 1
		collectForward(&moves, 10, false)
		if len(moves) == 0 {
			collectBackward(&moves, 1)
		}
	case CardEleven:
		collectForward(&moves, 11, false)
		moves = append(moves, switchMoves(st, seat, pawns)...)
	case CardTwelve:
		collectForward(&moves, 12, false)
	case CardSorry:
		moves = append(moves, sorryMoves(st, seat, pawns)...)
	}
	return moves
}

// splitSevenMoves enumerates splitting the 7 into two forward legs over
// ordered pairs of distinct pawns, a from 1 to 6 and b its complement.
// The second leg is checked against the board the first leg leaves
// behind, so a first leg that bumps its partner back to Start rules the
// pair out. Each leg takes its canonical (divert-first) resolution.
func splitSevenMoves(st *GameState, seat int, pawns []*Pawn) []Move {
	var moves []Move
	for a := 1; a <= 6; a++ {
		b := 7 - a
		for _, p1 := range pawns {
			if p1.Position.Type != PosTrack && p1.Position.Type != PosSafety {
				continue
			}
			after1 := st.Clone()
			dest1, ok := after1.moveForwardCanonical(p1.PawnID, a)
			if !ok {
				continue
			}
			for _, p2 := range pawns {
				if p2.PawnID == p1.PawnID {
					continue
				}
				if p2.Position.Type != PosTrack && p2.Position.Type != PosSafety {
					continue
				}
				after2 := after1.Clone()
				partner, _ := after2.PawnByID(p2.PawnID)
				if partner.Position.Type == PosStart {
					continue
				}
				dest2, ok := after2.moveForwardCanonical(p2.PawnID, b)
				if !ok {
					continue
				}
				mv := Move{
					Card:               CardSeven,
					SeatIndex:          seat,
					PawnID:             p1.PawnID,
					Direction:          DirForward,
					Steps:              a,
					SecondaryPawnID:    p2.PawnID,
					SecondaryDirection: DirForward,
					SecondarySteps:     b,
				}
				mv.setDest(dest1)
				mv.setSecondaryDest(dest2)
				moves = append(moves, mv)
			}
		}
	}
	return moves
}

// switchMoves pairs every own track pawn with every opponent track pawn.
// A switch is a plain position swap; no slide fires afterwards.
func switchMoves(st *GameState, seat int, pawns []*Pawn) []Move {
	var moves []Move
	for _, pw := range pawns {
		if pw.Position.Type != PosTrack {
			continue
		}
		for i := range st.Pawns {
			target := &st.Pawns[i]
			if target.SeatIndex == seat || target.Position.Type != PosTrack {
				continue
			}
			mv := Move{Card: CardEleven, SeatIndex: seat, PawnID: pw.PawnID, TargetPawnID: target.PawnID}
			mv.setDest(target.Position)
			moves = append(moves, mv)
		}
	}
	return moves
}

// sorryMoves pairs every own Start pawn with every opponent track pawn.
// Targets whose space resolves into a safety lane are skipped, and a pair
// is dropped when one of the seat's own pawns holds the resolved landing.
func sorryMoves(st *GameState, seat int, pawns []*Pawn) []Move {
	var moves []Move
	for _, pw := range pawns {
		if pw.Position.Type != PosStart {
			continue
		}
		for i := range st.Pawns {
			target := &st.Pawns[i]
			if target.SeatIndex == seat || target.Position.Type != PosTrack {
				continue
			}
			final, spaces := resolveLanding(seat, TrackPos(target.Position.Index), true)
			if final.Type != PosTrack {
				continue
			}
			tmp := st.Clone()
			tmpTarget, _ := tmp.PawnByID(target.PawnID)
			tmpTarget.Position = StartPos()
			tmpPawn, _ := tmp.PawnByID(pw.PawnID)
			if !tmp.settlePawn(tmpPawn, final, spaces) {
				continue
			}
			mv := Move{Card: CardSorry, SeatIndex: seat, PawnID: pw.PawnID, Direction: DirForward, TargetPawnID: target.PawnID}
			mv.setDest(final)
			moves = append(moves, mv)
		}
	}
	return moves
}

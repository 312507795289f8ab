package losiento

// moveOutcome is one fully-resolved effect of a pawn's movement: the final
// position after any slide, plus the track spaces the slide swept.
type moveOutcome struct {
	final       Position
	slideSpaces []int
}

// resolveLanding extends a track landing along any slide starting there
// and reports the swept spaces. A forward landing by the slide's owner on
// their first slide diverts into Safety[0] instead of the slide end.
// 倒退落在滑道起点也会滑，但永远滑到末端，不会进安全区
func resolveLanding(seat int, landing Position, forward bool) (Position, []int) {
	if landing.Type != PosTrack {
		return landing, nil
	}
	spaces := SlideSpaces(landing.Index)
	if spaces == nil {
		return landing, nil
	}
	if forward && SlideEntersSafety(seat, landing.Index) {
		return SafetyPos(0), spaces
	}
	return TrackPos(spaces[len(spaces)-1]), spaces
}

// forwardOutcomes lists the distinct resolved outcomes of moving forward
// by steps, divert branch first. Branches resolving to the same final
// position collapse into one.
func forwardOutcomes(seat int, pos Position, steps int) []moveOutcome {
	landings := ForwardLandings(seat, pos, steps)
	outs := make([]moveOutcome, 0, len(landings))
	for _, landing := range landings {
		final, spaces := resolveLanding(seat, landing, true)
		dup := false
		for _, o := range outs {
			if o.final == final {
				dup = true
				break
			}
		}
		if !dup {
			outs = append(outs, moveOutcome{final: final, slideSpaces: spaces})
		}
	}
	return outs
}

// backwardOutcome resolves moving backward by steps, including the slide
// taken when the landing is a slide start.
func backwardOutcome(seat int, pos Position, steps int) (moveOutcome, bool) {
	landing, ok := BackwardLanding(seat, pos, steps)
	if !ok {
		return moveOutcome{}, false
	}
	final, spaces := resolveLanding(seat, landing, false)
	return moveOutcome{final: final, slideSpaces: spaces}, true
}

// settlePawn validates the resolved landing and performs every bump. A
// final space held by one of the mover's own pawns makes the move illegal;
// an opponent there goes back to its Start, and so does every other pawn
// (own ones included) sitting on the swept slide spaces. The state is
// untouched when false is returned.
func (st *GameState) settlePawn(pw *Pawn, final Position, slideSpaces []int) bool {
	switch final.Type {
	case PosTrack:
		if occ, ok := st.PawnAt(final.Index); ok {
			if occ.SeatIndex == pw.SeatIndex {
				return false
			}
			occ.Position = StartPos()
		}
	case PosSafety:
		if st.safetyPawn(pw.SeatIndex, final.Index) != nil {
			return false
		}
	}
	for _, space := range slideSpaces {
		for i := range st.Pawns {
			p := &st.Pawns[i]
			if p.PawnID == pw.PawnID {
				continue
			}
			if p.Position.Type == PosTrack && p.Position.Index == space {
				p.Position = StartPos()
			}
		}
	}
	pw.Position = final
	return true
}

// moveForwardCanonical advances the pawn by the first legal branch in
// divert-first order. Used for split legs, where each leg has a single
// canonical resolution.
func (st *GameState) moveForwardCanonical(pawnID string, steps int) (Position, bool) {
	pw, ok := st.PawnByID(pawnID)
	if !ok {
		return Position{}, false
	}
	for _, out := range forwardOutcomes(pw.SeatIndex, pw.Position, steps) {
		if st.settlePawn(pw, out.final, out.slideSpaces) {
			return out.final, true
		}
	}
	return Position{}, false
}

// moveForwardTo advances the pawn by the branch landing on want.
func (st *GameState) moveForwardTo(pawnID string, steps int, want Position) bool {
	pw, ok := st.PawnByID(pawnID)
	if !ok || pw.Position.Type == PosStart {
		return false
	}
	for _, out := range forwardOutcomes(pw.SeatIndex, pw.Position, steps) {
		if out.final != want {
			continue
		}
		return st.settlePawn(pw, out.final, out.slideSpaces)
	}
	return false
}

// moveBackwardTo retreats the pawn by steps onto want.
func (st *GameState) moveBackwardTo(pawnID string, steps int, want Position) bool {
	pw, ok := st.PawnByID(pawnID)
	if !ok {
		return false
	}
	out, legal := backwardOutcome(pw.SeatIndex, pw.Position, steps)
	if !legal || out.final != want {
		return false
	}
	return st.settlePawn(pw, out.final, out.slideSpaces)
}

// leaveStart places a Start pawn on its fixed exit space, the track space
// one past the first slide's end.
func (st *GameState) leaveStart(pawnID string, want Position) bool {
	pw, ok := st.PawnByID(pawnID)
	if !ok || pw.Position.Type != PosStart {
		return false
	}
	final, spaces := resolveLanding(pw.SeatIndex, TrackPos(StartExitIndex(pw.SeatIndex)), true)
	if final != want {
		return false
	}
	return st.settlePawn(pw, final, spaces)
}

// ApplyMove validates move against st and returns the successor state.
// Destinations and bumps are recomputed from the rules, never trusted from
// the descriptor. st itself is never mutated.
func ApplyMove(st *GameState, move Move) (*GameState, error) {
	next := st.Clone()
	pw, ok := next.PawnByID(move.PawnID)
	if !ok || pw.SeatIndex != move.SeatIndex {
		return nil, Errf(KindIllegalMove, "pawn %s not found for seat %d", move.PawnID, move.SeatIndex)
	}

	// Sorry!: jump from Start onto an opponent's track space, with the
	// landing resolved like any forward arrival.
	if move.Card == CardSorry {
		if move.TargetPawnID == "" {
			return nil, Errf(KindIllegalMove, "missing target pawn")
		}
		if pw.Position.Type != PosStart {
			return nil, Errf(KindIllegalMove, "pawn %s is not in start", move.PawnID)
		}
		target, ok := next.PawnByID(move.TargetPawnID)
		if !ok {
			return nil, Errf(KindIllegalMove, "target pawn %s not found", move.TargetPawnID)
		}
		if target.SeatIndex == pw.SeatIndex || target.Position.Type != PosTrack {
			return nil, Errf(KindIllegalMove, "target pawn %s is not an opponent on the track", move.TargetPawnID)
		}
		final, spaces := resolveLanding(pw.SeatIndex, TrackPos(target.Position.Index), true)
		if final.Type != PosTrack {
			return nil, Errf(KindIllegalMove, "target resolves into the safety zone")
		}
		target.Position = StartPos()
		if !next.settlePawn(pw, final, spaces) {
			return nil, Errf(KindIllegalMove, "own pawn occupies the slide end")
		}
		return next, nil
	}

	// 11 with a target is a plain position swap, no slide afterwards.
	if move.Card == CardEleven && move.TargetPawnID != "" {
		target, ok := next.PawnByID(move.TargetPawnID)
		if !ok {
			return nil, Errf(KindIllegalMove, "target pawn %s not found", move.TargetPawnID)
		}
		if target.SeatIndex == pw.SeatIndex {
			return nil, Errf(KindIllegalMove, "cannot switch with own pawn")
		}
		if pw.Position.Type != PosTrack || target.Position.Type != PosTrack {
			return nil, Errf(KindIllegalMove, "switch requires both pawns on the track")
		}
		pw.Position, target.Position = target.Position, pw.Position
		return next, nil
	}

	if move.Card == CardSeven && move.SecondaryPawnID != "" {
		if move.Direction != DirForward || move.Steps < 1 ||
			move.SecondaryDirection != DirForward || move.SecondarySteps < 1 {
			return nil, Errf(KindIllegalMove, "split legs must both be forward")
		}
		if move.Steps+move.SecondarySteps != 7 {
			return nil, Errf(KindIllegalMove, "split legs must total 7")
		}
		if !next.moveForwardTo(move.PawnID, move.Steps, move.Dest()) {
			return nil, Errf(KindIllegalMove, "first leg of split is illegal")
		}
		second, ok := next.PawnByID(move.SecondaryPawnID)
		if !ok || second.SeatIndex != move.SeatIndex {
			return nil, Errf(KindIllegalMove, "secondary pawn %s not found for seat %d", move.SecondaryPawnID, move.SeatIndex)
		}
		if !next.moveForwardTo(move.SecondaryPawnID, move.SecondarySteps, move.SecondaryDest()) {
			return nil, Errf(KindIllegalMove, "second leg of split is illegal")
		}
		return next, nil
	}

	if move.Direction == "" || move.Steps < 1 {
		return nil, Errf(KindIllegalMove, "missing direction or steps")
	}
	switch {
	case move.Direction == DirForward && pw.Position.Type == PosStart:
		if move.Card != CardOne && move.Card != CardTwo {
			return nil, Errf(KindIllegalMove, "card %s cannot leave start", move.Card)
		}
		ok = next.leaveStart(move.PawnID, move.Dest())
	case move.Direction == DirForward:
		ok = next.moveForwardTo(move.PawnID, move.Steps, move.Dest())
	case move.Direction == DirBackward:
		ok = next.moveBackwardTo(move.PawnID, move.Steps, move.Dest())
	default:
		return nil, Errf(KindIllegalMove, "unknown direction %q", move.Direction)
	}
	if !ok {
		return nil, Errf(KindIllegalMove, "pawn %s cannot reach %s[%d]", move.PawnID, move.DestType, move.DestIndex)
	}
	return next, nil
}

package losiento

import "testing"

func mustPawn(t *testing.T, st *GameState, id string) *Pawn {
	t.Helper()
	p, ok := st.PawnByID(id)
	if !ok {
		t.Fatalf("pawn %s not found", id)
	}
	return p
}

func pickMove(t *testing.T, moves []Move, pawnID string) Move {
	t.Helper()
	sel, err := SelectMove(moves, ClientMovePayload{Move: &MoveFilter{PawnID: &pawnID}})
	if err != nil {
		t.Fatalf("selecting move for %s: %v", pawnID, err)
	}
	return sel
}

func TestApplyLeaveStart(t *testing.T) {
	st := NewGameState("g1", 2, 7)
	moves := LegalMoves(st, 0, CardOne)
	next, err := ApplyMove(st, moves[0])
	if err != nil {
		t.Fatalf("ApplyMove: %v", err)
	}
	if got := mustPawn(t, next, moves[0].PawnID).Position; got != TrackPos(5) {
		t.Fatalf("pawn at %v, want Track[5]", got)
	}
	// 原状态不可被修改
	if got := mustPawn(t, st, moves[0].PawnID).Position; got != StartPos() {
		t.Fatalf("input state mutated: pawn at %v", got)
	}
}

func TestApplySlideBumpsEveryPawnOnSegment(t *testing.T) {
	st := NewGameState("g1", 2, 7)
	st.SeatPawns(0)[0].Position = TrackPos(15)
	st.SeatPawns(0)[1].Position = TrackPos(18)
	st.SeatPawns(1)[0].Position = TrackPos(17)
	moves := LegalMoves(st, 0, CardOne)
	next, err := ApplyMove(st, pickMove(t, moves, "g1_s0_p0"))
	if err != nil {
		t.Fatalf("ApplyMove: %v", err)
	}
	if got := mustPawn(t, next, "g1_s0_p0").Position; got != TrackPos(19) {
		t.Errorf("acting pawn at %v, want the slide end Track[19]", got)
	}
	if got := mustPawn(t, next, "g1_s0_p1").Position; got != StartPos() {
		t.Errorf("own pawn on the slide at %v, want bumped to Start", got)
	}
	if got := mustPawn(t, next, "g1_s1_p0").Position; got != StartPos() {
		t.Errorf("opponent on the slide at %v, want bumped to Start", got)
	}
}

func TestApplySlideIntoOwnSafety(t *testing.T) {
	st := NewGameState("g1", 2, 7)
	st.SeatPawns(0)[0].Position = TrackPos(0)
	moves := LegalMoves(st, 0, CardOne)
	mv := pickMove(t, moves, "g1_s0_p0")
	if mv.Dest() != SafetyPos(0) {
		t.Fatalf("move %+v, want a slide into Safety[0]", mv)
	}
	next, err := ApplyMove(st, mv)
	if err != nil {
		t.Fatalf("ApplyMove: %v", err)
	}
	if got := mustPawn(t, next, "g1_s0_p0").Position; got != SafetyPos(0) {
		t.Fatalf("pawn at %v, want Safety[0]", got)
	}
}

func TestApplySorry(t *testing.T) {
	st := NewGameState("g1", 2, 7)
	st.SeatPawns(1)[0].Position = TrackPos(16)
	st.SeatPawns(1)[1].Position = TrackPos(18)
	moves := LegalMoves(st, 0, CardSorry)
	pawnID, target := "g1_s0_p0", "g1_s1_p0"
	mv, err := SelectMove(moves, ClientMovePayload{Move: &MoveFilter{PawnID: &pawnID, TargetPawnID: &target}})
	if err != nil {
		t.Fatalf("selecting sorry move: %v", err)
	}
	if mv.Dest() != TrackPos(19) {
		t.Fatalf("move %+v, want the slide end Track[19]", mv)
	}
	next, err := ApplyMove(st, mv)
	if err != nil {
		t.Fatalf("ApplyMove: %v", err)
	}
	if got := mustPawn(t, next, "g1_s0_p0").Position; got != TrackPos(19) {
		t.Errorf("acting pawn at %v, want Track[19]", got)
	}
	if got := mustPawn(t, next, "g1_s1_p0").Position; got != StartPos() {
		t.Errorf("target at %v, want bumped to Start", got)
	}
	if got := mustPawn(t, next, "g1_s1_p1").Position; got != StartPos() {
		t.Errorf("pawn on the slide at %v, want bumped to Start", got)
	}
}

func TestApplyElevenSwitch(t *testing.T) {
	st := NewGameState("g1", 2, 7)
	st.SeatPawns(0)[0].Position = TrackPos(3)
	st.SeatPawns(1)[0].Position = TrackPos(20)
	moves := LegalMoves(st, 0, CardEleven)
	target := "g1_s1_p0"
	sel, err := SelectMove(moves, ClientMovePayload{Move: &MoveFilter{TargetPawnID: &target}})
	if err != nil {
		t.Fatalf("selecting switch: %v", err)
	}
	next, err := ApplyMove(st, sel)
	if err != nil {
		t.Fatalf("ApplyMove: %v", err)
	}
	if got := mustPawn(t, next, "g1_s0_p0").Position; got != TrackPos(20) {
		t.Errorf("own pawn at %v, want Track[20]", got)
	}
	if got := mustPawn(t, next, "g1_s1_p0").Position; got != TrackPos(3) {
		t.Errorf("opponent at %v, want Track[3]", got)
	}
}

func TestApplySevenSplitToHome(t *testing.T) {
	st := NewGameState("g1", 2, 7)
	st.SeatPawns(0)[0].Position = SafetyPos(2)
	st.SeatPawns(0)[1].Position = TrackPos(20)
	moves := LegalMoves(st, 0, CardSeven)
	steps := 3
	second := "g1_s0_p1"
	sel, err := SelectMove(moves, ClientMovePayload{Move: &MoveFilter{Steps: &steps, SecondaryPawnID: &second}})
	if err != nil {
		t.Fatalf("selecting split: %v", err)
	}
	next, err := ApplyMove(st, sel)
	if err != nil {
		t.Fatalf("ApplyMove: %v", err)
	}
	if got := mustPawn(t, next, "g1_s0_p0").Position; got != HomePos() {
		t.Errorf("first leg pawn at %v, want Home", got)
	}
	if got := mustPawn(t, next, "g1_s0_p1").Position; got != TrackPos(24) {
		t.Errorf("second leg pawn at %v, want Track[24]", got)
	}
}

func TestApplyBackwardOntoSlideStart(t *testing.T) {
	// 退 4 落在对手滑道起点：照样滑到末端，净效果是退 1
	st := NewGameState("g1", 2, 7)
	st.SeatPawns(0)[0].Position = TrackPos(20)
	moves := LegalMoves(st, 0, CardFour)
	if len(moves) != 1 || moves[0].Dest() != TrackPos(19) {
		t.Fatalf("moves %+v, want a single backward 4 ending on Track[19]", moves)
	}
	next, err := ApplyMove(st, moves[0])
	if err != nil {
		t.Fatalf("ApplyMove: %v", err)
	}
	if got := mustPawn(t, next, "g1_s0_p0").Position; got != TrackPos(19) {
		t.Fatalf("pawn at %v, want Track[19]", got)
	}
}

func TestApplyWinningMove(t *testing.T) {
	st := NewGameState("g1", 2, 7)
	pawns := st.SeatPawns(0)
	pawns[0].Position = HomePos()
	pawns[1].Position = HomePos()
	pawns[2].Position = HomePos()
	pawns[3].Position = SafetyPos(3)
	moves := LegalMoves(st, 0, CardTwo)
	if len(moves) != 1 {
		t.Fatalf("got %d moves, want the single move into Home", len(moves))
	}
	next, err := ApplyMove(st, moves[0])
	if err != nil {
		t.Fatalf("ApplyMove: %v", err)
	}
	winner, ok := next.CheckWinner()
	if !ok || winner != 0 {
		t.Fatalf("CheckWinner = %d, %v, want seat 0", winner, ok)
	}
}

func TestApplyRejectsForgedDestination(t *testing.T) {
	st := NewGameState("g1", 2, 7)
	st.SeatPawns(0)[0].Position = TrackPos(20)
	moves := LegalMoves(st, 0, CardFive)
	mv := pickMove(t, moves, "g1_s0_p0")
	mv.DestIndex = 30
	if _, err := ApplyMove(st, mv); !IsKind(err, KindIllegalMove) {
		t.Fatalf("got %v, want illegal_move for a forged destination", err)
	}
}

func TestApplyRejectsWrongCardFromStart(t *testing.T) {
	st := NewGameState("g1", 2, 7)
	mv := Move{Card: CardFive, SeatIndex: 0, PawnID: "g1_s0_p0", Direction: DirForward, Steps: 5}
	mv.setDest(TrackPos(5))
	if _, err := ApplyMove(st, mv); !IsKind(err, KindIllegalMove) {
		t.Fatalf("got %v, want illegal_move: a 5 cannot leave start", err)
	}
}

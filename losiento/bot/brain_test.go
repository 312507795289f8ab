package bot

import (
	"testing"

	"losiento-lite/losiento"
)

func TestRandomBrainSkipsWithoutMoves(t *testing.T) {
	b := NewRandomBrain(1)
	d := b.Choose(TurnView{Card: losiento.CardSorry})
	if !d.Skip {
		t.Fatalf("got %+v, want Skip with no legal moves", d)
	}
}

func TestRandomBrainStaysInRange(t *testing.T) {
	b := NewRandomBrain(1)
	view := TurnView{
		Card: losiento.CardOne,
		Moves: []losiento.Move{
			{PawnID: "p0"}, {PawnID: "p1"}, {PawnID: "p2"},
		},
	}
	counts := make([]int, len(view.Moves))
	for i := 0; i < 300; i++ {
		d := b.Choose(view)
		if d.Skip || d.MoveIndex < 0 || d.MoveIndex >= len(view.Moves) {
			t.Fatalf("decision %+v out of range", d)
		}
		counts[d.MoveIndex]++
	}
	for i, n := range counts {
		if n == 0 {
			t.Fatalf("move %d never chosen in 300 draws: %v", i, counts)
		}
	}
}

func TestRandomBrainDeterministicPerSeed(t *testing.T) {
	view := TurnView{Moves: []losiento.Move{{PawnID: "p0"}, {PawnID: "p1"}}}
	a, b := NewRandomBrain(42), NewRandomBrain(42)
	for i := 0; i < 20; i++ {
		if a.Choose(view) != b.Choose(view) {
			t.Fatalf("same seed diverged at step %d", i)
		}
	}
}

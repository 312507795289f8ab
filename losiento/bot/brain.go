package bot

import (
	"math/rand"

	"losiento-lite/losiento"
)

// TurnView is the read-only projection of a turn visible to a bot: the
// drawn card and the already-enumerated legal moves.
type TurnView struct {
	Card       losiento.Card
	SeatIndex  int
	TurnNumber int
	Moves      []losiento.Move
}

// Decision is what a Brain returns.
type Decision struct {
	// MoveIndex indexes into TurnView.Moves.
	MoveIndex int
	// Skip is set when no move should be played this turn.
	Skip bool
}

// Brain is the core interface all bot strategies implement.
type Brain interface {
	// Choose is called when it's the bot seat's turn.
	Choose(view TurnView) Decision
	// Name returns a human-readable identifier for logging.
	Name() string
}

// RandomBrain picks uniformly among the legal moves. It is the fill-in
// strategy for seats converted to bots mid-game.
type RandomBrain struct {
	rng *rand.Rand
}

// NewRandomBrain creates a RandomBrain with its own seeded source.
func NewRandomBrain(seed int64) *RandomBrain {
	return &RandomBrain{rng: rand.New(rand.NewSource(seed))}
}

func (b *RandomBrain) Name() string { return "random" }

// Choose implements Brain.
func (b *RandomBrain) Choose(view TurnView) Decision {
	if len(view.Moves) == 0 {
		return Decision{Skip: true}
	}
	return Decision{MoveIndex: b.rng.Intn(len(view.Moves))}
}

package losiento

import "math/rand"

// DeckSize is the full draw pile: five 1s plus four of every other face.
const DeckSize = 45

var deckFaces = []Card{
	CardSorry, CardTwo, CardThree, CardFour, CardFive,
	CardSeven, CardEight, CardTen, CardEleven, CardTwelve,
}

// BuildDeck returns the 45-card pile in canonical (unshuffled) order.
func BuildDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for i := 0; i < 5; i++ {
		deck = append(deck, CardOne)
	}
	for _, face := range deckFaces {
		for i := 0; i < 4; i++ {
			deck = append(deck, face)
		}
	}
	return deck
}

// ShuffleDeck shuffles deck in place using a source seeded with seed, so
// the same seed always yields the same order.
func ShuffleDeck(deck []Card, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
}

// EnsureDeck rebuilds the draw pile when it has run out. Each rebuild
// shuffles a fresh full pile with the state's seed offset by the rebuild
// counter and clears the discard pile, so a game's whole card order is a
// pure function of its deck seed.
func (st *GameState) EnsureDeck() {
	if len(st.Deck) > 0 {
		return
	}
	deck := BuildDeck()
	ShuffleDeck(deck, st.DeckSeed+int64(st.Shuffles))
	st.Shuffles++
	st.Deck = deck
	st.DiscardPile = st.DiscardPile[:0]
}

// Draw removes the top card and puts it straight onto the discard pile.
// 抽牌即弃：弃牌堆同时充当“本局已见牌”记录
func (st *GameState) Draw() Card {
	st.EnsureDeck()
	card := st.Deck[0]
	st.Deck = st.Deck[1:]
	st.DiscardPile = append(st.DiscardPile, card)
	return card
}

// PeekNext returns the card the next draw will produce without mutating
// the state.
func (st *GameState) PeekNext() Card {
	if len(st.Deck) > 0 {
		return st.Deck[0]
	}
	deck := BuildDeck()
	ShuffleDeck(deck, st.DeckSeed+int64(st.Shuffles))
	return deck[0]
}

package losiento

// Board constants. The shared loop has 60 spaces split into four 15-space
// color segments. Each segment carries a 4-space first slide and a 5-space
// second slide; the safety entry sits on the second space of the first
// slide and the start exit one space past the first slide's end.
const (
	TrackLen     = 60
	SegmentLen   = 15
	SafetyLen    = 5
	PawnsPerSeat = 4
	MaxSeats     = 4
)

type slide struct {
	ownerSeat int
	indices   []int
	// 自家第一条滑道：己方正向落在起点时直接滑入 Safety[0]
	nearSafety bool
}

var slideTable = buildSlideTable()

func segmentOffset(seat int) int { return (seat * SegmentLen) % TrackLen }

// FirstSlideStart returns the track index where seat's 4-space slide begins.
func FirstSlideStart(seat int) int { return (segmentOffset(seat) + 1) % TrackLen }

// SecondSlideStart returns the track index where seat's 5-space slide begins.
func SecondSlideStart(seat int) int { return (segmentOffset(seat) + 10) % TrackLen }

// SafetyEntryIndex is the last track space before seat's safety lane.
func SafetyEntryIndex(seat int) int { return (segmentOffset(seat) + 2) % TrackLen }

// StartExitIndex is the track space a pawn leaving Start is placed on.
func StartExitIndex(seat int) int { return (segmentOffset(seat) + 5) % TrackLen }

func firstSlideIndices(seat int) []int {
	out := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		out = append(out, (FirstSlideStart(seat)+i)%TrackLen)
	}
	return out
}

func secondSlideIndices(seat int) []int {
	out := make([]int, 0, 5)
	for i := 0; i < 5; i++ {
		out = append(out, (SecondSlideStart(seat)+i)%TrackLen)
	}
	return out
}

func buildSlideTable() map[int]slide {
	table := make(map[int]slide, MaxSeats*2)
	for seat := 0; seat < MaxSeats; seat++ {
		first := firstSlideIndices(seat)
		table[first[0]] = slide{ownerSeat: seat, indices: first, nearSafety: true}
		second := secondSlideIndices(seat)
		table[second[0]] = slide{ownerSeat: seat, indices: second, nearSafety: false}
	}
	return table
}

// SlideAt reports whether a track space starts a slide and for which seat.
func SlideAt(space int) (ownerSeat int, ok bool) {
	s, ok := slideTable[space]
	if !ok {
		return 0, false
	}
	return s.ownerSeat, true
}

// SlideEnd returns the last track space of the slide starting at start.
// It returns start itself when no slide begins there.
func SlideEnd(start int) int {
	s, ok := slideTable[start]
	if !ok {
		return start
	}
	return s.indices[len(s.indices)-1]
}

// SlideSpaces returns the track spaces covered by the slide starting at
// start, or nil when no slide begins there.
func SlideSpaces(start int) []int {
	s, ok := slideTable[start]
	if !ok {
		return nil
	}
	out := make([]int, len(s.indices))
	copy(out, s.indices)
	return out
}

// SlideEntersSafety reports whether a forward landing by seat on the slide
// starting at start is carried into seat's Safety[0] instead of the slide
// end (house rule: own first slide crosses the safety entry).
func SlideEntersSafety(seat, start int) bool {
	s, ok := slideTable[start]
	return ok && s.nearSafety && s.ownerSeat == seat
}

func advanceTrack(index, steps int) int {
	return ((index+steps)%TrackLen + TrackLen) % TrackLen
}

func retreatTrack(index, steps int) int {
	return ((index-steps)%TrackLen + TrackLen) % TrackLen
}

// ForwardLandings returns the candidate landings for moving k forward from
// pos, before slide resolution. When the walk crosses the mover's own
// safety entry both outcomes exist: diverting into the safety lane (listed
// first) and staying on the track. Landings that would overshoot Home are
// dropped; Start and Home pawns produce none.
func ForwardLandings(seat int, pos Position, k int) []Position {
	if k < 1 {
		return nil
	}
	switch pos.Type {
	case PosTrack:
		out := make([]Position, 0, 2)
		dist := (SafetyEntryIndex(seat) - pos.Index + TrackLen) % TrackLen
		if k > dist {
			into := k - dist - 1
			if into < SafetyLen {
				out = append(out, SafetyPos(into))
			} else if into == SafetyLen {
				out = append(out, HomePos())
			}
		}
		out = append(out, TrackPos(advanceTrack(pos.Index, k)))
		return out
	case PosSafety:
		next := pos.Index + k
		if next < SafetyLen {
			return []Position{SafetyPos(next)}
		}
		if next == SafetyLen {
			return []Position{HomePos()}
		}
		return nil
	default:
		return nil
	}
}

// BackwardLanding returns the landing for moving k backward from pos. From
// Safety[i], k == i+1 lands on the safety entry and larger counts continue
// backward around the loop. Start and Home pawns cannot move backward.
func BackwardLanding(seat int, pos Position, k int) (Position, bool) {
	if k < 1 {
		return Position{}, false
	}
	switch pos.Type {
	case PosTrack:
		return TrackPos(retreatTrack(pos.Index, k)), true
	case PosSafety:
		if k <= pos.Index {
			return SafetyPos(pos.Index - k), true
		}
		remaining := k - (pos.Index + 1)
		return TrackPos(retreatTrack(SafetyEntryIndex(seat), remaining)), true
	default:
		return Position{}, false
	}
}

package losiento

// InvalidSeat marks "no seat" in winner and viewer fields.
const InvalidSeat int = -1

// Card is one of the eleven draw-card faces. Values are the wire strings.
type Card string

const (
	CardOne    Card = "1"
	CardTwo    Card = "2"
	CardThree  Card = "3"
	CardFour   Card = "4"
	CardFive   Card = "5"
	CardSeven  Card = "7"
	CardEight  Card = "8"
	CardTen    Card = "10"
	CardEleven Card = "11"
	CardTwelve Card = "12"
	CardSorry  Card = "Sorry!"
)

// Phase 游戏所处阶段（大厅/进行中/结束/中止）
type Phase string

const (
	PhaseLobby    Phase = "lobby"
	PhaseActive   Phase = "active"
	PhaseFinished Phase = "finished"
	PhaseAborted  Phase = "aborted"
)

// Result is the outcome recorded on the game state.
type Result string

const (
	ResultActive  Result = "active"
	ResultWin     Result = "win"
	ResultAborted Result = "aborted"
)

// SeatStatus tracks who controls a seat.
type SeatStatus string

const (
	SeatStatusOpen   SeatStatus = "open"
	SeatStatusJoined SeatStatus = "joined"
	SeatStatusBot    SeatStatus = "bot"
)

// PositionType tags the board region a pawn occupies.
type PositionType string

const (
	PosStart  PositionType = "start"
	PosTrack  PositionType = "track"
	PosSafety PositionType = "safety"
	PosHome   PositionType = "home"
)

// Direction of a numeric move.
type Direction string

const (
	DirForward  Direction = "forward"
	DirBackward Direction = "backward"
)

// SeatColors 座位固定颜色，下标即座位号
var SeatColors = [MaxSeats]string{"red", "blue", "yellow", "green"}

// Position is a tagged board location. Index is meaningful for track
// ([0,60)) and safety ([0,5)) positions only and is zero elsewhere.
type Position struct {
	Type  PositionType `json:"type"`
	Index int          `json:"index"`
}

func StartPos() Position { return Position{Type: PosStart} }

func HomePos() Position { return Position{Type: PosHome} }

func TrackPos(index int) Position { return Position{Type: PosTrack, Index: index} }

func SafetyPos(index int) Position { return Position{Type: PosSafety, Index: index} }

// Pawn is one of the four game pieces a seat owns for the whole game.
type Pawn struct {
	PawnID    string   `json:"pawnId"`
	SeatIndex int      `json:"seatIndex"`
	Position  Position `json:"position"`
}

// Seat is a fixed-color slot in a game. LastPlayerID/LastDisplayName are
// recorded when a human seat converts to a bot so the player can rejoin.
type Seat struct {
	Index           int        `json:"index"`
	Color           string     `json:"color"`
	IsBot           bool       `json:"isBot"`
	PlayerID        string     `json:"playerId,omitempty"`
	DisplayName     string     `json:"displayName,omitempty"`
	Status          SeatStatus `json:"status"`
	LastPlayerID    string     `json:"lastPlayerId,omitempty"`
	LastDisplayName string     `json:"lastDisplayName,omitempty"`
}

// Occupied reports whether the seat takes turns (joined human or bot).
func (s *Seat) Occupied() bool {
	return s.PlayerID != "" || s.IsBot
}

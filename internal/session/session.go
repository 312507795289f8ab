package session

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"losiento-lite/internal/stats"
	"losiento-lite/internal/store"
	"losiento-lite/losiento"
	"losiento-lite/losiento/bot"
)

const defaultBotDelay = time.Second

// Manager owns the lobby lifecycle and turn coordination. All game
// mutations go through the store's transactional UpdateGame; the manager
// itself holds no per-game state.
type Manager struct {
	store    store.Store
	stats    stats.Service
	botDelay time.Duration

	mu    sync.Mutex
	brain bot.Brain
}

func NewManager(st store.Store, statsSvc stats.Service) *Manager {
	return &Manager{
		store:    st,
		stats:    statsSvc,
		botDelay: defaultBotDelay,
		brain:    bot.NewRandomBrain(time.Now().UnixNano()),
	}
}

func newGameID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

func displayNameOrID(displayName, userID string) string {
	if name := strings.TrimSpace(displayName); name != "" {
		return name
	}
	return userID
}

// storeErr maps store sentinels onto the stable error kinds; other errors
// pass through untouched.
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return losiento.Errf(losiento.KindNotFound, "game not found")
	case errors.Is(err, store.ErrConflict):
		return losiento.Errf(losiento.KindConflict, "concurrent update, please retry")
	default:
		return err
	}
}

func (m *Manager) ensureUserFree(userID string) error {
	gameID, ok, err := m.store.GetActiveGame(userID)
	if err != nil {
		return err
	}
	if ok {
		return losiento.Errf(losiento.KindAlreadyInGame, "user is already in game %s", gameID)
	}
	return nil
}

func newSeats(maxSeats int, hostID, hostName string) []losiento.Seat {
	seats := make([]losiento.Seat, maxSeats)
	for i := range seats {
		seats[i] = losiento.Seat{
			Index:  i,
			Color:  losiento.SeatColors[i],
			Status: losiento.SeatStatusOpen,
		}
	}
	seats[0].PlayerID = hostID
	seats[0].DisplayName = hostName
	seats[0].Status = losiento.SeatStatusJoined
	return seats
}

// Host creates a lobby with the caller in seat 0.
func (m *Manager) Host(userID, displayName string, settings losiento.GameSettings) (*store.GameRecord, error) {
	if err := m.ensureUserFree(userID); err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, losiento.Errf(losiento.KindInvalidArgument, "%v", err)
	}
	name := displayNameOrID(displayName, userID)
	rec := &store.GameRecord{
		GameID:   newGameID(),
		HostID:   userID,
		HostName: name,
		Phase:    losiento.PhaseLobby,
		Settings: settings,
		Seats:    newSeats(settings.MaxSeats, userID, name),
	}
	if err := m.store.CreateGame(rec); err != nil {
		return nil, storeErr(err)
	}
	if err := m.store.SetActiveGame(userID, rec.GameID); err != nil {
		return nil, err
	}
	return rec, nil
}

func hasOpenSeat(rec *store.GameRecord) bool {
	for i := range rec.Seats {
		if !rec.Seats[i].IsBot && rec.Seats[i].Status == losiento.SeatStatusOpen {
			return true
		}
	}
	return false
}

// ListJoinable returns every lobby with at least one open seat.
func (m *Manager) ListJoinable() ([]JoinableGame, error) {
	lobbies, err := m.store.ListGamesByPhase(losiento.PhaseLobby)
	if err != nil {
		return nil, err
	}
	out := make([]JoinableGame, 0, len(lobbies))
	for _, rec := range lobbies {
		if !hasOpenSeat(rec) {
			continue
		}
		out = append(out, JoinableGame{
			GameID:         rec.GameID,
			HostName:       rec.HostName,
			CurrentPlayers: rec.OccupiedSeats(),
			MaxSeats:       len(rec.Seats),
		})
	}
	return out, nil
}

// Join claims the lowest-index open seat of a lobby.
func (m *Manager) Join(userID, gameID, displayName string) (*store.GameRecord, error) {
	if err := m.ensureUserFree(userID); err != nil {
		return nil, err
	}
	name := displayNameOrID(displayName, userID)
	updated, err := m.store.UpdateGame(gameID, func(rec *store.GameRecord) error {
		if rec.Phase != losiento.PhaseLobby {
			return losiento.Errf(losiento.KindLobbyOnly, "game %s is not accepting players", gameID)
		}
		for i := range rec.Seats {
			seat := &rec.Seats[i]
			if seat.IsBot || seat.Status != losiento.SeatStatusOpen || seat.PlayerID != "" {
				continue
			}
			seat.PlayerID = userID
			seat.DisplayName = name
			seat.Status = losiento.SeatStatusJoined
			return nil
		}
		return losiento.Errf(losiento.KindSeatNotOpen, "no open seat in game %s", gameID)
	})
	if err != nil {
		return nil, storeErr(err)
	}
	if err := m.store.SetActiveGame(userID, gameID); err != nil {
		return nil, err
	}
	return updated, nil
}

// ConfigureSeat toggles a non-host seat between open and bot. Converting a
// seat that holds a human removes that human from the game.
func (m *Manager) ConfigureSeat(userID, gameID string, seatIndex int, isBot bool) (*store.GameRecord, error) {
	var removed string
	updated, err := m.store.UpdateGame(gameID, func(rec *store.GameRecord) error {
		removed = ""
		if rec.HostID != userID {
			return losiento.Errf(losiento.KindNotHost, "only the host can configure seats")
		}
		if rec.Phase != losiento.PhaseLobby {
			return losiento.Errf(losiento.KindLobbyOnly, "seats can only be configured in the lobby")
		}
		seat := rec.SeatAt(seatIndex)
		if seat == nil {
			return losiento.Errf(losiento.KindInvalidSeat, "seat %d does not exist", seatIndex)
		}
		if seatIndex == 0 {
			return losiento.Errf(losiento.KindCannotToggleHost, "seat 0 belongs to the host")
		}
		removed = seat.PlayerID
		seat.PlayerID = ""
		seat.DisplayName = ""
		seat.LastPlayerID = ""
		seat.LastDisplayName = ""
		if isBot {
			seat.IsBot = true
			seat.Status = losiento.SeatStatusBot
		} else {
			seat.IsBot = false
			seat.Status = losiento.SeatStatusOpen
		}
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}
	if removed != "" {
		if err := m.store.ClearActiveGame(removed); err != nil {
			return nil, err
		}
	}
	return updated, nil
}

// Kick converts a non-host seat to a bot and unbinds its occupant. Works in
// lobby and active games so a stalled player can be replaced mid-game.
func (m *Manager) Kick(userID, gameID string, seatIndex int) (*store.GameRecord, error) {
	var removed string
	updated, err := m.store.UpdateGame(gameID, func(rec *store.GameRecord) error {
		removed = ""
		if rec.HostID != userID {
			return losiento.Errf(losiento.KindNotHost, "only the host can kick")
		}
		seat := rec.SeatAt(seatIndex)
		if seat == nil {
			return losiento.Errf(losiento.KindInvalidSeat, "seat %d does not exist", seatIndex)
		}
		if seatIndex == 0 {
			return losiento.Errf(losiento.KindCannotToggleHost, "the host seat cannot be kicked")
		}
		if rec.Phase != losiento.PhaseLobby && rec.Phase != losiento.PhaseActive {
			return losiento.Errf(losiento.KindGameOver, "game %s is over", gameID)
		}
		removed = seat.PlayerID
		seat.PlayerID = ""
		seat.DisplayName = ""
		seat.LastPlayerID = ""
		seat.LastDisplayName = ""
		seat.IsBot = true
		seat.Status = losiento.SeatStatusBot
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}
	if removed != "" {
		if err := m.store.ClearActiveGame(removed); err != nil {
			return nil, err
		}
	}
	return updated, nil
}

// errLeaveReleaseOnly signals that the game already ended and the only
// thing to do is release the caller's active-game binding.
var errLeaveReleaseOnly = errors.New("session: game over, release binding only")

// Leave removes the caller from the game. A host leaving a lobby or an
// active game aborts it for everyone; a non-host seat is handed to a bot
// and the game continues. Leaving a finished or aborted game only releases
// the caller's active-game binding.
func (m *Manager) Leave(userID, gameID string) (*store.GameRecord, error) {
	var cleared []string
	var abortedHumans []string
	updated, err := m.store.UpdateGame(gameID, func(rec *store.GameRecord) error {
		cleared = cleared[:0]
		abortedHumans = abortedHumans[:0]

		if rec.Phase == losiento.PhaseFinished || rec.Phase == losiento.PhaseAborted {
			return errLeaveReleaseOnly
		}

		if rec.HostID == userID {
			wasActive := rec.Phase == losiento.PhaseActive
			rec.Phase = losiento.PhaseAborted
			rec.AbortedReason = "host_left"
			rec.EndedAt = nowMs()
			if rec.State != nil && rec.State.Result == losiento.ResultActive {
				rec.State.Result = losiento.ResultAborted
			}
			for i := range rec.Seats {
				seat := &rec.Seats[i]
				if seat.PlayerID == "" {
					continue
				}
				cleared = append(cleared, seat.PlayerID)
				if wasActive && !seat.IsBot {
					abortedHumans = append(abortedHumans, seat.PlayerID)
				}
			}
			return nil
		}

		seat, ok := rec.SeatOf(userID)
		if !ok {
			return losiento.Errf(losiento.KindNotInGame, "user has no seat in game %s", gameID)
		}
		// 记住原玩家，断线后可以重连回来
		seat.LastPlayerID = seat.PlayerID
		seat.LastDisplayName = seat.DisplayName
		seat.PlayerID = ""
		seat.DisplayName = ""
		seat.IsBot = true
		seat.Status = losiento.SeatStatusBot
		cleared = append(cleared, userID)
		return nil
	})
	if errors.Is(err, errLeaveReleaseOnly) {
		return m.releaseEndedGame(userID, gameID)
	}
	if err != nil {
		return nil, storeErr(err)
	}
	for _, uid := range cleared {
		if err := m.store.ClearActiveGame(uid); err != nil {
			return nil, err
		}
	}
	if len(abortedHumans) > 0 {
		m.recordOutcomes(gameID, abortedHumans, stats.OutcomeAbort)
	}
	return updated, nil
}

// releaseEndedGame clears the caller's binding if it still points at the
// ended game, leaving the record itself untouched.
func (m *Manager) releaseEndedGame(userID, gameID string) (*store.GameRecord, error) {
	rec, err := m.store.GetGame(gameID)
	if err != nil {
		return nil, storeErr(err)
	}
	mapped, ok, err := m.store.GetActiveGame(userID)
	if err != nil {
		return nil, err
	}
	if ok && mapped == gameID {
		if err := m.store.ClearActiveGame(userID); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// Start deals pawns, shuffles the deck and moves the game to the active
// phase with seat 0 to act first.
func (m *Manager) Start(userID, gameID string) (*store.GameRecord, error) {
	updated, err := m.store.UpdateGame(gameID, func(rec *store.GameRecord) error {
		if rec.HostID != userID {
			return losiento.Errf(losiento.KindNotHost, "only the host can start the game")
		}
		if rec.Phase != losiento.PhaseLobby {
			return losiento.Errf(losiento.KindLobbyOnly, "game %s already started", gameID)
		}
		if rec.OccupiedSeats() < 2 {
			return losiento.Errf(losiento.KindInsufficient, "need at least 2 occupied seats")
		}
		if rec.HumanSeats() < 1 {
			return losiento.Errf(losiento.KindNoHumans, "need at least 1 human player")
		}
		seed := time.Now().UnixNano()
		if rec.Settings.DeckSeed != nil {
			seed = *rec.Settings.DeckSeed
		}
		rec.State = losiento.NewGameState(rec.GameID, len(rec.Seats), seed)
		rec.Phase = losiento.PhaseActive
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return updated, nil
}

// ActiveGame resolves the caller's current game via the user mapping.
func (m *Manager) ActiveGame(userID string) (*store.GameRecord, error) {
	gameID, ok, err := m.store.GetActiveGame(userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, losiento.Errf(losiento.KindNoActiveGame, "no active game for user")
	}
	rec, err := m.store.GetGame(gameID)
	if err != nil {
		return nil, storeErr(err)
	}
	return rec, nil
}

// Rejoin rebinds a user to the seat they left mid-game. If the user still
// holds an active-game binding it is simply resolved; otherwise active
// games are scanned for a bot seat remembering this user.
func (m *Manager) Rejoin(userID string) (*store.GameRecord, error) {
	if gameID, ok, err := m.store.GetActiveGame(userID); err != nil {
		return nil, err
	} else if ok {
		rec, err := m.store.GetGame(gameID)
		if err != nil {
			return nil, storeErr(err)
		}
		return rec, nil
	}

	active, err := m.store.ListGamesByPhase(losiento.PhaseActive)
	if err != nil {
		return nil, err
	}
	for _, candidate := range active {
		if !seatRemembers(candidate, userID) {
			continue
		}
		updated, err := m.store.UpdateGame(candidate.GameID, func(rec *store.GameRecord) error {
			for i := range rec.Seats {
				seat := &rec.Seats[i]
				if !seat.IsBot || seat.LastPlayerID != userID {
					continue
				}
				seat.IsBot = false
				seat.PlayerID = userID
				seat.DisplayName = displayNameOrID(seat.LastDisplayName, userID)
				seat.Status = losiento.SeatStatusJoined
				seat.LastPlayerID = ""
				seat.LastDisplayName = ""
				return nil
			}
			return losiento.Errf(losiento.KindNoActiveGame, "seat was taken back")
		})
		if losiento.IsKind(err, losiento.KindNoActiveGame) {
			continue
		}
		if err != nil {
			return nil, storeErr(err)
		}
		if err := m.store.SetActiveGame(userID, updated.GameID); err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, losiento.Errf(losiento.KindNoActiveGame, "no game to rejoin")
}

func seatRemembers(rec *store.GameRecord, userID string) bool {
	for i := range rec.Seats {
		if rec.Seats[i].IsBot && rec.Seats[i].LastPlayerID == userID {
			return true
		}
	}
	return false
}

func (m *Manager) recordOutcomes(gameID string, users []string, outcome stats.Outcome) {
	if m.stats == nil || len(users) == 0 {
		return
	}
	results := make([]stats.PlayerResult, 0, len(users))
	for _, uid := range users {
		results = append(results, stats.PlayerResult{UserID: uid, Outcome: outcome})
	}
	m.stats.RecordResult(gameID, results)
}

func (m *Manager) recordFinish(rec *store.GameRecord) {
	if m.stats == nil || rec.State == nil || rec.State.WinnerSeatIndex == losiento.InvalidSeat {
		return
	}
	winner := rec.State.WinnerSeatIndex
	results := make([]stats.PlayerResult, 0, len(rec.Seats))
	for i := range rec.Seats {
		seat := &rec.Seats[i]
		if seat.IsBot || seat.PlayerID == "" {
			continue
		}
		outcome := stats.OutcomeLoss
		if seat.Index == winner {
			outcome = stats.OutcomeWin
		}
		results = append(results, stats.PlayerResult{UserID: seat.PlayerID, Outcome: outcome})
	}
	if len(results) == 0 {
		return
	}
	m.stats.RecordResult(rec.GameID, results)
}

func nowMs() int64 {
	return time.Now().UTC().UnixMilli()
}

package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"losiento-lite/internal/auth"
	"losiento-lite/internal/session"
	"losiento-lite/internal/stats"
	"losiento-lite/losiento"
)

const apiBase = "/api/losiento"

// HTTPHandler serves the game API. Every route requires an identity: a
// bearer session token, or an X-User-Id header when trustUserHeader is on
// (local development). A bearer token, when present, always wins.
type HTTPHandler struct {
	auth            auth.Service
	games           *session.Manager
	stats           stats.Service
	trustUserHeader bool
}

type identity struct {
	UserID   string
	Username string
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type hostRequest struct {
	MaxSeats    int    `json:"maxSeats"`
	DeckSeed    *int64 `json:"deckSeed,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

type joinRequest struct {
	GameID      string `json:"gameId"`
	DisplayName string `json:"displayName,omitempty"`
}

type gameRequest struct {
	GameID string `json:"gameId"`
}

type kickRequest struct {
	GameID    string `json:"gameId"`
	SeatIndex int    `json:"seatIndex"`
}

type configureSeatRequest struct {
	GameID    string `json:"gameId"`
	SeatIndex int    `json:"seatIndex"`
	IsBot     bool   `json:"isBot"`
}

type playRequest struct {
	GameID  string                      `json:"gameId"`
	Payload *losiento.ClientMovePayload `json:"payload,omitempty"`
}

func NewHTTPHandler(authService auth.Service, games *session.Manager, statsService stats.Service, trustUserHeader bool) *HTTPHandler {
	return &HTTPHandler{
		auth:            authService,
		games:           games,
		stats:           statsService,
		trustUserHeader: trustUserHeader,
	}
}

func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc(apiBase+"/host", h.handleHost)
	mux.HandleFunc(apiBase+"/joinable", h.handleJoinable)
	mux.HandleFunc(apiBase+"/join", h.handleJoin)
	mux.HandleFunc(apiBase+"/leave", h.handleLeave)
	mux.HandleFunc(apiBase+"/kick", h.handleKick)
	mux.HandleFunc(apiBase+"/configure-seat", h.handleConfigureSeat)
	mux.HandleFunc(apiBase+"/start", h.handleStart)
	mux.HandleFunc(apiBase+"/state", h.handleState)
	mux.HandleFunc(apiBase+"/legal-movers", h.handleLegalMovers)
	mux.HandleFunc(apiBase+"/play", h.handlePlay)
	mux.HandleFunc(apiBase+"/bot-step", h.handleBotStep)
	mux.HandleFunc(apiBase+"/rejoin", h.handleRejoin)
	mux.HandleFunc(apiBase+"/moves", h.handleMoves)
	mux.HandleFunc(apiBase+"/stats", h.handleStats)
}

func (h *HTTPHandler) handleHost(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requirePost(w, r)
	if !ok {
		return
	}
	var req hostRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	settings := losiento.GameSettings{MaxSeats: req.MaxSeats, DeckSeed: req.DeckSeed}
	rec, err := h.games.Host(id.UserID, displayNameOr(req.DisplayName, id.Username), settings)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.ToClient(rec, id.UserID))
}

func (h *HTTPHandler) handleJoinable(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireGet(w, r); !ok {
		return
	}
	games, err := h.games.ListJoinable()
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"games": games,
	})
}

func (h *HTTPHandler) handleJoin(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requirePost(w, r)
	if !ok {
		return
	}
	var req joinRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	gameID, ok := requireGameID(w, req.GameID)
	if !ok {
		return
	}
	rec, err := h.games.Join(id.UserID, gameID, displayNameOr(req.DisplayName, id.Username))
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.ToClient(rec, id.UserID))
}

func (h *HTTPHandler) handleLeave(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requirePost(w, r)
	if !ok {
		return
	}
	var req gameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	gameID, ok := requireGameID(w, req.GameID)
	if !ok {
		return
	}
	rec, err := h.games.Leave(id.UserID, gameID)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.ToClient(rec, id.UserID))
}

func (h *HTTPHandler) handleKick(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requirePost(w, r)
	if !ok {
		return
	}
	var req kickRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	gameID, ok := requireGameID(w, req.GameID)
	if !ok {
		return
	}
	rec, err := h.games.Kick(id.UserID, gameID, req.SeatIndex)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.ToClient(rec, id.UserID))
}

func (h *HTTPHandler) handleConfigureSeat(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requirePost(w, r)
	if !ok {
		return
	}
	var req configureSeatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	gameID, ok := requireGameID(w, req.GameID)
	if !ok {
		return
	}
	rec, err := h.games.ConfigureSeat(id.UserID, gameID, req.SeatIndex, req.IsBot)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.ToClient(rec, id.UserID))
}

func (h *HTTPHandler) handleStart(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requirePost(w, r)
	if !ok {
		return
	}
	var req gameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	gameID, ok := requireGameID(w, req.GameID)
	if !ok {
		return
	}
	rec, err := h.games.Start(id.UserID, gameID)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.ToClient(rec, id.UserID))
}

func (h *HTTPHandler) handleState(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireGet(w, r)
	if !ok {
		return
	}
	rec, err := h.games.ActiveGame(id.UserID)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.ToClient(rec, id.UserID))
}

func (h *HTTPHandler) handleLegalMovers(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireGet(w, r)
	if !ok {
		return
	}
	gameID, ok := requireGameID(w, r.URL.Query().Get("gameId"))
	if !ok {
		return
	}
	preview, err := h.games.LegalMoversPreview(id.UserID, gameID)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

func (h *HTTPHandler) handlePlay(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requirePost(w, r)
	if !ok {
		return
	}
	var req playRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	gameID, ok := requireGameID(w, req.GameID)
	if !ok {
		return
	}
	rec, err := h.games.PlayHuman(id.UserID, gameID, req.Payload)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.ToClient(rec, id.UserID))
}

func (h *HTTPHandler) handleBotStep(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requirePost(w, r)
	if !ok {
		return
	}
	var req gameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	gameID, ok := requireGameID(w, req.GameID)
	if !ok {
		return
	}
	rec, err := h.games.BotStep(gameID)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.ToClient(rec, id.UserID))
}

func (h *HTTPHandler) handleRejoin(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requirePost(w, r)
	if !ok {
		return
	}
	rec, err := h.games.Rejoin(id.UserID)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.ToClient(rec, id.UserID))
}

func (h *HTTPHandler) handleMoves(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireGet(w, r)
	if !ok {
		return
	}
	gameID, ok := requireGameID(w, r.URL.Query().Get("gameId"))
	if !ok {
		return
	}
	moves, err := h.games.Moves(id.UserID, gameID)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"gameId": gameID,
		"moves":  moves,
	})
}

func (h *HTTPHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireGet(w, r)
	if !ok {
		return
	}
	profile, err := h.stats.GetUserStats(id.UserID)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *HTTPHandler) requirePost(w http.ResponseWriter, r *http.Request) (identity, bool) {
	return h.requireMethod(w, r, http.MethodPost)
}

func (h *HTTPHandler) requireGet(w http.ResponseWriter, r *http.Request) (identity, bool) {
	return h.requireMethod(w, r, http.MethodGet)
}

func (h *HTTPHandler) requireMethod(w http.ResponseWriter, r *http.Request, method string) (identity, bool) {
	if r.Method != method {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return identity{}, false
	}
	id, ok := h.resolveIdentity(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid session token")
		return identity{}, false
	}
	return id, true
}

func (h *HTTPHandler) resolveIdentity(r *http.Request) (identity, bool) {
	token := auth.BearerToken(r.Header.Get("Authorization"))
	if token != "" {
		userID, username, ok := h.auth.ResolveSession(token)
		if !ok {
			return identity{}, false
		}
		return identity{UserID: userID, Username: username}, true
	}
	if h.trustUserHeader {
		userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
		if userID != "" {
			return identity{UserID: userID, Username: strings.TrimSpace(r.Header.Get("X-User-Name"))}, true
		}
	}
	return identity{}, false
}

func displayNameOr(requested, fallback string) string {
	if strings.TrimSpace(requested) != "" {
		return requested
	}
	return fallback
}

func requireGameID(w http.ResponseWriter, raw string) (string, bool) {
	gameID := strings.TrimSpace(raw)
	if gameID == "" {
		writeError(w, http.StatusBadRequest, string(losiento.KindInvalidArgument), "missing gameId")
		return "", false
	}
	return gameID, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, string(losiento.KindInvalidArgument), "invalid request body")
		return false
	}
	return true
}

func statusFor(kind losiento.Kind) int {
	switch kind {
	case losiento.KindNotFound, losiento.KindNoActiveGame:
		return http.StatusNotFound
	case losiento.KindAlreadyInGame, losiento.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func writeGameError(w http.ResponseWriter, err error) {
	var ge *losiento.GameError
	if errors.As(err, &ge) {
		writeError(w, statusFor(ge.Kind), string(ge.Kind), ge.Message)
		return
	}
	log.Printf("[API] internal error: %v", err)
	writeError(w, http.StatusInternalServerError, "internal", "internal error")
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: code, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

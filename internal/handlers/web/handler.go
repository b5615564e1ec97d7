package web

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/KirkDiggler/storypoker/internal/services/poker"
)

const (
	// Cookie names carrying the caller's transport-layer state
	sessionCookieName  = "poker_session"
	usernameCookieName = "poker_username"
)

// Handler serves the HTTP surface over the poker service. It owns no
// session rules itself; it resolves cookies into a token and username and
// renders whatever the service returns.
type Handler struct {
	pokerService poker.Service
	logger       zerolog.Logger
}

// Config holds the configuration for the web handler
type Config struct {
	// Poker service
	PokerService poker.Service

	// Logger for request failures
	Logger zerolog.Logger
}

// New creates a new web handler
func New(cfg *Config) (*Handler, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.PokerService == nil {
		return nil, errors.New("poker service cannot be nil")
	}

	return &Handler{
		pokerService: cfg.PokerService,
		logger:       cfg.Logger,
	}, nil
}

// Routes returns the route table for the handler
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.handleIndex)
	mux.HandleFunc("GET /create_session", h.handleCreateSession)
	mux.HandleFunc("POST /join_session", h.handleJoinSession)
	mux.HandleFunc("POST /add_player", h.handleAddPlayer)
	mux.HandleFunc("POST /stories", h.handleAddTasks)
	mux.HandleFunc("GET /change_cards", h.handleGetCards)
	mux.HandleFunc("POST /change_cards", h.handleChangeCards)
	mux.HandleFunc("GET /start", h.handleStart)
	mux.HandleFunc("GET /round/{task}", h.handleRound)
	mux.HandleFunc("GET /vote/{task}/{points}", h.handleVote)
	mux.HandleFunc("GET /results/{task}", h.handleResults)
	mux.HandleFunc("GET /export", h.handleExport)
	mux.HandleFunc("GET /reset", h.handleReset)

	return mux
}

// handleIndex returns the session overview. A caller without a session
// cookie gets an empty overview; a caller with one gets the session,
// created on the fly if its token is unseen.
func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	token := cookieValue(r, sessionCookieName)
	if token == "" {
		h.writeJSON(w, http.StatusOK, overviewResponse{
			Players: map[string]playerResponse{},
			Tasks:   []taskResponse{},
			Cards:   []cardResponse{},
		})
		return
	}

	output, err := h.pokerService.GetOverview(r.Context(), &poker.GetOverviewInput{
		Token:    token,
		Username: cookieValue(r, usernameCookieName),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, newOverviewResponse(output.Session))
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	output, err := h.pokerService.CreateSession(r.Context(), &poker.CreateSessionInput{})
	if err != nil {
		h.writeError(w, err)
		return
	}

	setCookie(w, sessionCookieName, output.Token)
	h.logger.Info().Str("token", output.Token).Msg("session created")

	h.writeJSON(w, http.StatusCreated, map[string]string{"token": output.Token})
}

func (h *Handler) handleJoinSession(w http.ResponseWriter, r *http.Request) {
	token := r.FormValue("session")

	output, err := h.pokerService.JoinSession(r.Context(), &poker.JoinSessionInput{
		Token: token,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	setCookie(w, sessionCookieName, output.Session.Token)
	h.writeJSON(w, http.StatusOK, map[string]string{"token": output.Session.Token})
}

func (h *Handler) handleAddPlayer(w http.ResponseWriter, r *http.Request) {
	token, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	output, err := h.pokerService.ClaimIdentity(r.Context(), &poker.ClaimIdentityInput{
		Token:           token,
		CurrentUsername: cookieValue(r, usernameCookieName),
		Username:        r.FormValue("username"),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	setCookie(w, usernameCookieName, output.Player.Username)
	h.writeJSON(w, http.StatusCreated, map[string]string{"username": output.Player.Username})
}

func (h *Handler) handleAddTasks(w http.ResponseWriter, r *http.Request) {
	token, _, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	output, err := h.pokerService.AddTasks(r.Context(), &poker.AddTasksInput{
		Token:   token,
		RawText: r.FormValue("tasks"),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]int{"added": output.Added})
}

func (h *Handler) handleGetCards(w http.ResponseWriter, r *http.Request) {
	token, _, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	output, err := h.pokerService.GetDeck(r.Context(), &poker.GetDeckInput{
		Token: token,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, newCardResponses(output.Cards))
}

func (h *Handler) handleChangeCards(w http.ResponseWriter, r *http.Request) {
	token, _, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	output, err := h.pokerService.SetDeck(r.Context(), &poker.SetDeckInput{
		Token:    token,
		RawCards: r.FormValue("cards"),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, newCardResponses(output.Cards))
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	token, _, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	output, err := h.pokerService.StartEstimation(r.Context(), &poker.StartEstimationInput{
		Token: token,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]int{"task": output.TaskIndex})
}

func (h *Handler) handleRound(w http.ResponseWriter, r *http.Request) {
	token, _, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	taskIndex, err := pathIndex(r, "task")
	if err != nil {
		h.writeError(w, poker.ErrTaskIndexOutOfRange)
		return
	}

	output, err := h.pokerService.GetRound(r.Context(), &poker.GetRoundInput{
		Token:     token,
		TaskIndex: taskIndex,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, roundResponse{
		ID:    taskIndex,
		Task:  newTaskResponse(output.Task),
		Cards: newCardResponses(output.Cards),
	})
}

func (h *Handler) handleVote(w http.ResponseWriter, r *http.Request) {
	token, username, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	taskIndex, err := pathIndex(r, "task")
	if err != nil {
		h.writeError(w, poker.ErrTaskIndexOutOfRange)
		return
	}

	points, err := pathIndex(r, "points")
	if err != nil {
		h.writeError(w, errBadPoints)
		return
	}

	_, err = h.pokerService.Vote(r.Context(), &poker.VoteInput{
		Token:     token,
		TaskIndex: taskIndex,
		Username:  username,
		Points:    points,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]int{"task": taskIndex, "points": points})
}

func (h *Handler) handleResults(w http.ResponseWriter, r *http.Request) {
	token, _, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	taskIndex, err := pathIndex(r, "task")
	if err != nil {
		h.writeError(w, poker.ErrTaskIndexOutOfRange)
		return
	}

	output, err := h.pokerService.GetResults(r.Context(), &poker.GetResultsInput{
		Token:     token,
		TaskIndex: taskIndex,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, resultsResponse{
		ID:      taskIndex,
		Task:    newTaskResponse(output.Task),
		HasNext: output.HasNext,
	})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	token, _, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	output, err := h.pokerService.ExportSession(r.Context(), &poker.ExportSessionInput{
		Token: token,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, newExportResponse(output))
}

// handleReset destroys the caller's session and clears both cookies. No
// ownership check: holding the token is all the authority there is.
func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	token := cookieValue(r, sessionCookieName)
	if token != "" {
		_, err := h.pokerService.ResetSession(r.Context(), &poker.ResetSessionInput{
			Token: token,
		})
		if err != nil {
			h.writeError(w, err)
			return
		}
		h.logger.Info().Str("token", token).Msg("session reset")
	}

	clearCookie(w, sessionCookieName)
	clearCookie(w, usernameCookieName)
	h.writeJSON(w, http.StatusOK, map[string]string{})
}

// requireSession resolves the caller's session cookie
func (h *Handler) requireSession(w http.ResponseWriter, r *http.Request) (string, bool) {
	token := cookieValue(r, sessionCookieName)
	if token == "" {
		h.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "session required"})
		return "", false
	}
	return token, true
}

// requireIdentity resolves both the session and username cookies
func (h *Handler) requireIdentity(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	token, ok := h.requireSession(w, r)
	if !ok {
		return "", "", false
	}

	username := cookieValue(r, usernameCookieName)
	if username == "" {
		h.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "you must register"})
		return "", "", false
	}

	return token, username, true
}

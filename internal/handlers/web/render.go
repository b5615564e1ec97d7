package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/KirkDiggler/storypoker/internal/models"
	"github.com/KirkDiggler/storypoker/internal/services/poker"
)

// errBadPoints covers a non-numeric points path segment; the engine never
// sees the request
var errBadPoints = errors.New("points must be an integer")

type errorResponse struct {
	Error string `json:"error"`
}

type playerResponse struct {
	Username string `json:"username"`
}

type taskResponse struct {
	Description string         `json:"description"`
	Votes       map[string]int `json:"votes"`
}

type cardResponse struct {
	Value string `json:"value"`
	Tag   string `json:"tag"`
}

type overviewResponse struct {
	Token   string                    `json:"token,omitempty"`
	Players map[string]playerResponse `json:"players"`
	Tasks   []taskResponse            `json:"tasks"`
	Cards   []cardResponse            `json:"cards"`
}

type roundResponse struct {
	ID    int            `json:"id"`
	Task  taskResponse   `json:"task"`
	Cards []cardResponse `json:"cards"`
}

type resultsResponse struct {
	ID      int          `json:"id"`
	Task    taskResponse `json:"task"`
	HasNext bool         `json:"has_next"`
}

type exportResponse struct {
	Tasks   []taskResponse            `json:"tasks"`
	Players map[string]playerResponse `json:"players"`
}

func newTaskResponse(task *models.Task) taskResponse {
	resp := taskResponse{
		Description: task.Description,
		Votes:       make(map[string]int, len(task.Votes)),
	}
	for username, points := range task.Votes {
		resp.Votes[username] = points
	}
	return resp
}

func newTaskResponses(tasks []*models.Task) []taskResponse {
	resps := make([]taskResponse, 0, len(tasks))
	for _, task := range tasks {
		resps = append(resps, newTaskResponse(task))
	}
	return resps
}

func newCardResponses(cards []models.Card) []cardResponse {
	resps := make([]cardResponse, 0, len(cards))
	for _, card := range cards {
		resps = append(resps, cardResponse{Value: card.Value, Tag: card.Tag})
	}
	return resps
}

func newPlayerResponses(players map[string]*models.Player) map[string]playerResponse {
	resps := make(map[string]playerResponse, len(players))
	for username, player := range players {
		resps[username] = playerResponse{Username: player.Username}
	}
	return resps
}

func newOverviewResponse(session *models.Session) overviewResponse {
	return overviewResponse{
		Token:   session.Token,
		Players: newPlayerResponses(session.Players),
		Tasks:   newTaskResponses(session.Tasks),
		Cards:   newCardResponses(session.Cards),
	}
}

func newExportResponse(output *poker.ExportSessionOutput) exportResponse {
	return exportResponse{
		Tasks:   newTaskResponses(output.Tasks),
		Players: newPlayerResponses(output.Players),
	}
}

// writeJSON renders a response body; encode failures are logged, not
// surfaced, since the status line is already gone
func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode response")
	}
}

// writeError maps the service's error set onto HTTP statuses
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, poker.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, poker.ErrTaskIndexOutOfRange):
		status = http.StatusNotFound
	case errors.Is(err, poker.ErrInvalidUsername):
		status = http.StatusBadRequest
	case errors.Is(err, errBadPoints):
		status = http.StatusBadRequest
	case errors.Is(err, poker.ErrNoTasks):
		status = http.StatusBadRequest
	case errors.Is(err, poker.ErrAlreadyRegistered):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.logger.Error().Err(err).Msg("request failed")
		h.writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}

	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}

// pathIndex parses an integer path segment
func pathIndex(r *http.Request, name string) (int, error) {
	return strconv.Atoi(r.PathValue(name))
}

func cookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func setCookie(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
	})
}

func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

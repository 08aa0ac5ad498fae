package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"quizops-service/internal/app"
	"quizops-service/internal/domain"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100

	minUsernameLen = 2
	maxUsernameLen = 40
)

// API exposes the attempt lifecycle and catalog reads over REST.
type API struct {
	service *app.AttemptService
}

// NewRouter wires the REST handlers and the websocket results feed.
func NewRouter(service *app.AttemptService) http.Handler {
	api := &API{service: service}
	ws := NewWSHandler(service)

	r := chi.NewRouter()
	r.Get("/health", api.health)
	r.Get("/quizzes", api.listQuizzes)
	r.Get("/quizzes/{quizID}/questions", api.quizQuestions)
	r.Post("/attempts", api.createAttempt)
	r.Post("/attempts/{attemptID}/answers", api.recordAnswer)
	r.Post("/attempts/{attemptID}/submit", api.submitAttempt)
	r.Get("/ws", ws.ServeWS)
	return r
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	if err := a.service.Ping(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) listQuizzes(w http.ResponseWriter, r *http.Request) {
	limit := parseIntDefault(r.URL.Query().Get("limit"), defaultPageLimit)
	if limit < 1 {
		limit = 1
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	offset := parseIntDefault(r.URL.Query().Get("offset"), 0)
	if offset < 0 {
		offset = 0
	}

	quizzes, err := a.service.ListQuizzes(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items":  quizzes,
		"limit":  limit,
		"offset": offset,
	})
}

func (a *API) quizQuestions(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizID")
	questions, err := a.service.QuizQuestions(r.Context(), quizID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"quiz_id":   quizID,
		"questions": questions,
	})
}

type createAttemptRequest struct {
	QuizID   string `json:"quiz_id"`
	Username string `json:"username"`
}

func (a *API) createAttempt(w http.ResponseWriter, r *http.Request) {
	var req createAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.QuizID == "" {
		badRequest(w, "quiz_id is required")
		return
	}
	if req.Username != "" && (len(req.Username) < minUsernameLen || len(req.Username) > maxUsernameLen) {
		badRequest(w, "username must be 2-40 characters")
		return
	}

	attempt, err := a.service.CreateAttempt(r.Context(), req.QuizID, req.Username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"attempt_id": attempt.ID})
}

type recordAnswerRequest struct {
	QuestionID  string `json:"question_id"`
	ChosenIndex *int   `json:"chosen_index"`
}

func (a *API) recordAnswer(w http.ResponseWriter, r *http.Request) {
	attemptID := chi.URLParam(r, "attemptID")

	var req recordAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.QuestionID == "" {
		badRequest(w, "question_id is required")
		return
	}
	if req.ChosenIndex == nil || *req.ChosenIndex < 0 {
		badRequest(w, "chosen_index must be a non-negative integer")
		return
	}

	if err := a.service.RecordAnswer(r.Context(), attemptID, req.QuestionID, *req.ChosenIndex); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (a *API) submitAttempt(w http.ResponseWriter, r *http.Request) {
	attemptID := chi.URLParam(r, "attemptID")

	result, err := a.service.SubmitAttempt(r.Context(), attemptID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"attempt_id": result.AttemptID,
		"score":      result.Score,
		"max_score":  result.MaxScore,
	})
}

func parseIntDefault(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": message})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrAttemptNotFound),
		errors.Is(err, domain.ErrQuestionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrAttemptSubmitted):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidChosenIndex):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"daily-problem-service/internal/app"
	"daily-problem-service/internal/domain"
	"github.com/go-chi/chi/v5"
)

const maxAnswerBody = 64 << 10

// Client-facing messages.
const (
	msgProblemUnavailable = "Problem not available"
	msgHintUnavailable    = "Hint not available"
	msgCorrect            = "Correct! You solved the problem!"
	msgIncorrect          = "Incorrect answer. Try again!"
	msgAlreadySolved      = "You have already solved today's problem!"
	msgMaxAttempts        = "You have exceeded the maximum number of attempts!"
	msgInvalidBody        = "Invalid request body"
	msgInternal           = "Something went wrong"
)

// APIHandler serves the JSON problem API.
type APIHandler struct {
	service *app.ProblemService
	logger  *slog.Logger
}

func NewAPIHandler(service *app.ProblemService, logger *slog.Logger) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIHandler{service: service, logger: logger}
}

// RegisterRoutes mounts the /api endpoints on r.
func (h *APIHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/problem", h.getProblem)
	r.Get("/api/hint", h.getHint)
	r.Post("/api/answer", h.postAnswer)
	r.Get("/api/attempts", h.getAttempts)
}

type problemResponse struct {
	Image       string `json:"image"`
	Description string `json:"description"`
}

type hintResponse struct {
	Hint string `json:"hint"`
}

type answerRequest struct {
	Answer   string `json:"answer"`
	Nickname string `json:"nickname"`
}

type answerResponse struct {
	Message   string `json:"message"`
	Success   bool   `json:"success"`
	Attempts  int    `json:"attempts"`
	Remaining int    `json:"remaining"`
}

type attemptsResponse struct {
	Attempts  int    `json:"attempts"`
	Remaining int    `json:"remaining"`
	Success   bool   `json:"success"`
	Nickname  string `json:"nickname,omitempty"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func (h *APIHandler) getProblem(w http.ResponseWriter, r *http.Request) {
	problem, err := h.service.CurrentProblem(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorPayload{Message: msgProblemUnavailable})
		return
	}
	writeJSON(w, http.StatusOK, problemResponse{Image: problem.Image, Description: problem.Description})
}

func (h *APIHandler) getHint(w http.ResponseWriter, r *http.Request) {
	hint, err := h.service.Hint(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorPayload{Message: msgHintUnavailable})
		return
	}
	writeJSON(w, http.StatusOK, hintResponse{Hint: hint})
}

func (h *APIHandler) postAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAnswerBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: msgInvalidBody})
		return
	}

	clientID := ClientID(r)
	result, err := h.service.Submit(r.Context(), clientID, req.Nickname, req.Answer)
	if errors.Is(err, domain.ErrProblemNotFound) {
		writeJSON(w, http.StatusInternalServerError, errorPayload{Message: msgProblemUnavailable})
		return
	}
	if err != nil {
		h.logger.Error("submission failed", "client", clientID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorPayload{Message: msgInternal})
		return
	}

	switch result.Verdict {
	case domain.VerdictAlreadySolved:
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: msgAlreadySolved})
	case domain.VerdictMaxAttempts:
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: msgMaxAttempts})
	case domain.VerdictCorrect:
		writeJSON(w, http.StatusOK, answerResponse{Message: msgCorrect, Success: true, Attempts: result.Attempts, Remaining: result.Remaining})
	default:
		writeJSON(w, http.StatusOK, answerResponse{Message: msgIncorrect, Success: false, Attempts: result.Attempts, Remaining: result.Remaining})
	}
}

func (h *APIHandler) getAttempts(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.Attempt(r.Context(), ClientID(r))
	if err != nil {
		h.logger.Error("attempt lookup failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorPayload{Message: msgInternal})
		return
	}
	writeJSON(w, http.StatusOK, attemptsResponse{
		Attempts:  record.Attempts,
		Remaining: h.service.Remaining(record),
		Success:   record.Success,
		Nickname:  record.Nickname,
	})
}

// ClientID derives the submitter identity from the request origin. RemoteAddr
// holds the forwarded address only when the router trusts the proxy.
// Clients sharing a NAT or proxy share one identity.
func ClientID(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

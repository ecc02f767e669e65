// Package api provides the HTTP handlers of the mock hostel API.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tanmayyjais/hostelMate-frontend/internal/identity"
	"github.com/tanmayyjais/hostelMate-frontend/internal/mockbackend"
	"github.com/tanmayyjais/hostelMate-frontend/internal/nlu"
)

// maxBodyBytes caps request bodies on every JSON endpoint.
const maxBodyBytes = 64 << 10

// Handler serves the hostel REST API and the assistant endpoint.
type Handler struct {
	users  *mockbackend.Directory
	tokens *identity.Tokens
	bot    nlu.Recognizer
	log    *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(users *mockbackend.Directory, tokens *identity.Tokens, bot nlu.Recognizer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{users: users, tokens: tokens, bot: bot, log: logger}
}

// RegisterRoutes mounts the REST API under /api and the assistant under
// /assistant.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(identity.Middleware(h.tokens))
			r.Post("/auth/logout", h.Logout)
			r.Get("/users/me", h.Me)
			r.Get("/announcements", h.Announcements)
		})
	})

	r.Route("/assistant", func(r chi.Router) {
		r.Post("/recognize-text", h.RecognizeText)
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/tanmayyjais/hostelMate-frontend/internal/domain"
	"github.com/tanmayyjais/hostelMate-frontend/internal/identity"
	"github.com/tanmayyjais/hostelMate-frontend/internal/mockbackend"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a token and the user profile.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	profile, err := h.users.Authenticate(req.Email, req.Password)
	switch {
	case errors.Is(err, mockbackend.ErrAccountDisabled):
		h.log.Info("Login rejected", "email", req.Email, "reason", "disabled", "ip", identity.IPFromRequest(r))
		Error(w, http.StatusForbidden, "account disabled")
		return
	case err != nil:
		h.log.Info("Login rejected", "email", req.Email, "reason", "credentials", "ip", identity.IPFromRequest(r))
		Error(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := h.tokens.Issue(profile.String("email"))
	if err != nil {
		h.log.Error("Failed to issue token", "error", err)
		Error(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	h.log.Info("Login succeeded", "email", profile.String("email"), "member_type", profile.MemberType())
	JSON(w, http.StatusOK, domain.AuthPayload{User: profile, Token: token})
}

// Logout revokes the caller's token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.tokens.Revoke(identity.TokenFromContext(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the caller's profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.users.Profile(identity.EmailFromContext(r.Context()))
	if !ok {
		Error(w, http.StatusUnauthorized, "user not found")
		return
	}
	JSON(w, http.StatusOK, profile)
}

type announcement struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	Audience string `json:"audience"`
	PostedAt string `json:"postedAt"`
}

var announcements = []announcement{
	{1, "Water supply maintenance", "Water supply to Block B will be off on Saturday from 10:00 to 13:00.", "all", "2025-03-10T04:30:00.000Z"},
	{2, "Mess menu revised", "The revised weekly mess menu is on the notice board and in the app.", "student", "2025-03-12T06:00:00.000Z"},
	{3, "Room inspection", "Wardens will inspect rooms on the second floor next Tuesday.", "student", "2025-03-13T09:15:00.000Z"},
}

// Announcements returns the notice board visible to the caller's role.
func (h *Handler) Announcements(w http.ResponseWriter, r *http.Request) {
	profile, _ := h.users.Profile(identity.EmailFromContext(r.Context()))
	role := profile.Role()

	out := make([]announcement, 0, len(announcements))
	for _, a := range announcements {
		if a.Audience == "all" || role == domain.RoleStudent || role == domain.RoleAcademicStaff {
			out = append(out, a)
		}
	}
	JSON(w, http.StatusOK, map[string]any{
		"announcements": out,
		"generatedAt":   time.Now().UTC().Format(domain.TimestampLayout),
	})
}

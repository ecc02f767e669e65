package api

import (
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tanmayyjais/hostelMate-frontend/internal/nlu"
)

// RecognizeText answers one assistant turn over JSON/HTTP.
func (h *Handler) RecognizeText(w http.ResponseWriter, r *http.Request) {
	var req nlu.Request
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.bot.RecognizeText(r.Context(), &req)
	if err != nil {
		st := status.Convert(err)
		code := http.StatusInternalServerError
		if st.Code() == codes.InvalidArgument {
			code = http.StatusBadRequest
		}
		h.log.Warn("Recognize text failed", "session_id", req.SessionID, "error", err)
		Error(w, code, st.Message())
		return
	}
	JSON(w, http.StatusOK, resp)
}

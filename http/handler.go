package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"
)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			writeError(w, http.StatusBadRequest, msgNoMessage)
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
		default:
			writeError(w, http.StatusBadRequest, msgInvalidBody)
		}
		return
	}
	if req.Message == nil || *req.Message == "" {
		writeError(w, http.StatusBadRequest, msgNoMessage)
		return
	}

	res := s.deliverer.Deliver(r.Context(), *req.Message)
	if res.Failed() {
		zerolog.Ctx(r.Context()).Warn().Err(res.Err).Msg("delivery failed")
		if s.strict {
			writeError(w, http.StatusBadGateway, res.Text)
			return
		}
	}
	writeJSON(w, http.StatusOK, chatResponse{Response: res.Text})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "healthy"})
}

// Package http implements the relay request gateway: a small JSON API that
// hands each chat message to a [relay.Deliverer] and answers with the
// assembled reply.
package http

import (
	"encoding/json"
	"net/http"
)

type chatRequest struct {
	Message *string `json:"message"`
}

type chatResponse struct {
	Response string `json:"response"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// Fixed client-facing error messages.
const (
	msgNoMessage    = "No message provided"
	msgInvalidBody  = "Invalid request body"
	msgBodyTooLarge = "Request body too large"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, errorResponse{Error: message})
}

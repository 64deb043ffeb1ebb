package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gridhaven/kraken/pkg/adaptor"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody carries the machine-readable code and human message.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respondWithError maps the adaptor error taxonomy onto HTTP statuses.
func respondWithError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "INTERNAL"

	switch {
	case adaptor.IsNotFound(err):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case adaptor.IsLocation(err), adaptor.IsConfiguration(err):
		status, code = http.StatusBadRequest, "INVALID_ARGUMENT"
	case adaptor.IsAlreadyClosed(err):
		status, code = http.StatusConflict, "ALREADY_CLOSED"
	case adaptor.IsTransport(err), adaptor.IsBackend(err), adaptor.IsParse(err):
		status, code = http.StatusBadGateway, "BACKEND_FAILURE"
	}

	writeJSON(w, status, ErrorResponse{Error: ErrorBody{Code: code, Message: err.Error()}})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

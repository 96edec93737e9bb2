package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// ErrorPayload is the body of every error response.
type ErrorPayload struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

// ErrorResponse wraps ErrorPayload under "error".
type ErrorResponse struct {
	Error ErrorPayload `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, code, message string, details map[string]any) {
	if details == nil {
		details = map[string]any{}
	}
	writeJSON(w, status, ErrorResponse{Error: ErrorPayload{Code: code, Message: message, Details: details}})
}

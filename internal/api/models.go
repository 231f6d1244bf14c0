package api

import (
	"bytes"
	"encoding/json"
	"net/http"
)

const (
	// DefaultStatsDays is the window returned when no days parameter is given.
	DefaultStatsDays = 365

	// MaxStatsDays bounds the days parameter.
	MaxStatsDays = 3650
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

// PersistSetting is the body of the persist-timer endpoints.
type PersistSetting struct {
	Enabled bool `json:"enabled"`
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status string `json:"status"`
	State  string `json:"state"`
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		http.Error(w, `{"error":"Internal Server Error","message":"Failed to encode response"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

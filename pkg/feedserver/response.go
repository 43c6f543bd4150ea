package feedserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/marmos91/feedpager/pkg/feedclient"
)

// HealthResponse is the body of the health endpoint.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Posts     int       `json:"posts"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"status":500,"message":"failed to encode response"}`, http.StatusInternalServerError)
	}
}

// writeError writes an error body the feed client decodes into an APIError.
func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, feedclient.APIError{
		StatusCode: status,
		Code:       code,
		Message:    msg,
	})
}

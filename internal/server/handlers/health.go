package handlers

import "net/http"

// HealthResponse is the /healthz body.
type HealthResponse struct {
	Status string `json:"status"`
}

// Health reports liveness. The engine has no background machinery that can
// degrade, so a serving process is a healthy process.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

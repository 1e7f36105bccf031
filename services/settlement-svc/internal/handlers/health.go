package handlers

import (
	"encoding/json"
	"net/http"
	"time"
)

// HealthResponse ответ /health
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// HealthHandler отвечает на k8s probes
func HealthHandler(version string) http.HandlerFunc {
	startedAt := time.Now()

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(HealthResponse{
			Status:  "ok",
			Version: version,
			Uptime:  time.Since(startedAt).Truncate(time.Second).String(),
		}); err != nil {
			// Response уже начат, логировать некуда
			return
		}
	}
}

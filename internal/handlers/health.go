package handlers

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"time"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// HealthHandler reports liveness for the load balancer, including a store
// round trip.
type HealthHandler struct {
	DB *sql.DB
}

// Health runs a trivial query against the store and reports status,
// timestamp, version, database state, and response latency in milliseconds.
// Returns 503 when the store round trip fails for any reason.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	out := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
	}

	var one int
	if err := h.DB.QueryRowContext(r.Context(), "SELECT 1").Scan(&one); err != nil {
		slog.Error("health check store round trip failed", "error", err)
		out["status"] = "unhealthy"
		out["database"] = "error"
	} else {
		out["database"] = "connected"
	}

	ms := float64(time.Since(start).Microseconds()) / 1000.0
	out["response_time_ms"] = math.Round(ms*100) / 100

	status := http.StatusOK
	if out["status"] != "healthy" {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(out)
}

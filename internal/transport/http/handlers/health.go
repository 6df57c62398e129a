package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/careercompass/auth-service/internal/transport/http/response"
)

type HealthHandler struct {
	db    *sql.DB
	redis *goredis.Client
}

func NewHealthHandler(db *sql.DB, redis *goredis.Client) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

// Healthz handles GET /healthz. Degraded dependencies flip the status to
// 503 so orchestrators stop routing here.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			checks["postgres"] = "down"
			healthy = false
		} else {
			checks["postgres"] = "up"
		}
	}
	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = "down"
			healthy = false
		} else {
			checks["redis"] = "up"
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	response.WriteData(w, status, checks)
}

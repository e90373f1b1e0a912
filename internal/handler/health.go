package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"messenger/internal/realtime"
)

const healthTimeout = 2 * time.Second

// Pinger - то, что умеет отвечать на ping: pgxpool.Pool и обёртка над redis.Client.
type Pinger interface {
	Ping(ctx context.Context) error
}

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

type HealthHandler struct {
	db       Pinger
	redis    Pinger
	registry *realtime.Registry
}

func NewHealthHandler(db *pgxpool.Pool, rdb *redis.Client, registry *realtime.Registry) *HealthHandler {
	return newHealthHandler(db, redisPinger{client: rdb}, registry)
}

func newHealthHandler(db, cache Pinger, registry *realtime.Registry) *HealthHandler {
	return &HealthHandler{
		db:       db,
		redis:    cache,
		registry: registry,
	}
}

func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	status := http.StatusOK
	checks := gin.H{"database": "ok", "redis": "ok"}
	if err := h.db.Ping(ctx); err != nil {
		checks["database"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	if err := h.redis.Ping(ctx); err != nil {
		checks["redis"] = err.Error()
		status = http.StatusServiceUnavailable
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}

	c.JSON(status, gin.H{
		"status":   state,
		"service":  "messenger",
		"checks":   checks,
		"sessions": h.registry.SessionCount(),
	})
}

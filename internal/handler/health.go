package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"

	"github.com/adilhusain01/campayn/internal/youtube"
)

// Version is reported by the readiness probe.
const Version = "1.0.0"

// Pinger is a submission store that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BlockReader is the chain client used to prove the RPC endpoint is alive.
type BlockReader interface {
	BlockNumber(ctx context.Context) (uint64, error)
}

type HealthHandler struct {
	store   Pinger
	storeID string
	rdb     *redis.Client
	chain   BlockReader
	quota   *youtube.QuotaTracker
	startAt time.Time
}

// NewHealthHandler builds the probes. storeID names the store driver in the
// response; rdb and chain may be nil when those dependencies are disabled.
func NewHealthHandler(store Pinger, storeID string, rdb *redis.Client, chain BlockReader, quota *youtube.QuotaTracker) *HealthHandler {
	return &HealthHandler{
		store:   store,
		storeID: storeID,
		rdb:     rdb,
		chain:   chain,
		quota:   quota,
		startAt: time.Now(),
	}
}

// Live handles GET /health/live — liveness probe.
func (h *HealthHandler) Live(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Ready handles GET /health/ready — readiness probe with dependency checks.
func (h *HealthHandler) Ready(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
	defer cancel()

	checks := fiber.Map{
		"store": checkStore(ctx, h.store, h.storeID),
		"redis": checkRedis(ctx, h.rdb),
		"chain": checkChain(ctx, h.chain),
	}

	overallStatus := "healthy"
	for _, check := range checks {
		if m, ok := check.(fiber.Map); ok && m["status"] == "down" {
			overallStatus = "degraded"
		}
	}

	resp := fiber.Map{
		"status":         overallStatus,
		"checks":         checks,
		"uptime_seconds": int(time.Since(h.startAt).Seconds()),
		"version":        Version,
	}
	if h.quota != nil {
		resp["youtube_quota"] = h.quota.Status()
	}

	status := fiber.StatusOK
	if overallStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(resp)
}

func checkStore(ctx context.Context, store Pinger, driver string) fiber.Map {
	start := time.Now()
	err := store.Ping(ctx)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return fiber.Map{
			"status":     "down",
			"driver":     driver,
			"latency_ms": latency,
			"error":      "connection failed",
		}
	}
	return fiber.Map{
		"status":     "up",
		"driver":     driver,
		"latency_ms": latency,
	}
}

func checkRedis(ctx context.Context, rdb *redis.Client) fiber.Map {
	if rdb == nil {
		return fiber.Map{
			"status": "disabled",
		}
	}

	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return fiber.Map{
			"status":     "down",
			"latency_ms": latency,
			"error":      "connection failed",
		}
	}
	return fiber.Map{
		"status":     "up",
		"latency_ms": latency,
	}
}

func checkChain(ctx context.Context, chain BlockReader) fiber.Map {
	if chain == nil {
		return fiber.Map{
			"status": "disabled",
		}
	}

	start := time.Now()
	block, err := chain.BlockNumber(ctx)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return fiber.Map{
			"status":     "down",
			"latency_ms": latency,
			"error":      "rpc unreachable",
		}
	}
	return fiber.Map{
		"status":       "up",
		"latency_ms":   latency,
		"block_number": block,
	}
}

package app

import (
	"context"
	"time"

	httpAdapter "github.com/iho/banksaga/internal/adapter/http"
	"github.com/iho/banksaga/internal/adapter/http/handler"
	"github.com/iho/banksaga/internal/adapter/http/middleware"
)

const rateLimiterIdle = time.Minute

// RateLimiter returns the per-client limiter for the configured rate and the
// worker that evicts idle clients from it.
func (rt *Runtime) RateLimiter() (*middleware.RateLimiter, Worker) {
	limiter := middleware.NewRateLimiter(rt.Config.RateLimitRPS, rt.Config.RateLimitBurst, rt.Metrics)
	return limiter, Worker{Name: "rate limiter cleanup", Run: func(ctx context.Context) error {
		limiter.Run(ctx, rateLimiterIdle)
		return ctx.Err()
	}}
}

// RouterConfig returns the router settings every service shares. Readiness
// runs checks in order.
func (rt *Runtime) RouterConfig(limiter *middleware.RateLimiter, checks ...handler.Check) httpAdapter.CommonConfig {
	return httpAdapter.CommonConfig{
		Logger:         rt.Logger,
		Metrics:        rt.Metrics,
		MetricsHandler: rt.MetricsHandler(),
		HealthHandler:  handler.NewHealthHandler(checks...),
		RateLimiter:    limiter,
		IdempotencyTTL: rt.Config.IdempotencyTTL,
	}
}

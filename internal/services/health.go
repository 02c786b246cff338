package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// HealthStatus represents the health status of a dependency
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
	HealthStatusDegraded  HealthStatus = "degraded"
)

// HealthCheck represents a single dependency check result
type HealthCheck struct {
	Service      string        `json:"service"`
	Status       HealthStatus  `json:"status"`
	Message      string        `json:"message,omitempty"`
	ResponseTime time.Duration `json:"response_time"`
	Timestamp    time.Time     `json:"timestamp"`
}

// Pinger is the minimal surface a dependency needs for liveness checks
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthService aggregates liveness checks for the gateway's dependencies
type HealthService struct {
	mongo    Pinger
	redis    *redis.Client
	upstream Pinger
	timeout  time.Duration
}

// NewHealthService creates a health checker over the gateway dependencies.
// Any nil dependency is skipped.
func NewHealthService(mongo Pinger, redisClient *redis.Client, upstream Pinger) *HealthService {
	return &HealthService{
		mongo:    mongo,
		redis:    redisClient,
		upstream: upstream,
		timeout:  5 * time.Second,
	}
}

// CheckAll runs every dependency check and returns the individual results
func (hs *HealthService) CheckAll(ctx context.Context) map[string]*HealthCheck {
	checks := make(map[string]*HealthCheck)

	if hs.mongo != nil {
		checks["mongodb"] = hs.run(ctx, "mongodb", hs.mongo.Ping)
	}
	if hs.redis != nil {
		checks["redis"] = hs.run(ctx, "redis", func(ctx context.Context) error {
			return hs.redis.Ping(ctx).Err()
		})
	}
	if hs.upstream != nil {
		checks["upstream"] = hs.run(ctx, "upstream", hs.upstream.Ping)
	}

	return checks
}

// Overall reduces the individual checks to one status. Any unhealthy
// dependency makes the gateway unhealthy; a degraded one degrades it.
func Overall(checks map[string]*HealthCheck) HealthStatus {
	status := HealthStatusHealthy
	for _, check := range checks {
		switch check.Status {
		case HealthStatusUnhealthy:
			return HealthStatusUnhealthy
		case HealthStatusDegraded:
			status = HealthStatusDegraded
		}
	}
	return status
}

func (hs *HealthService) run(ctx context.Context, service string, ping func(context.Context) error) *HealthCheck {
	start := time.Now()
	check := &HealthCheck{
		Service:   service,
		Timestamp: start,
	}

	checkCtx, cancel := context.WithTimeout(ctx, hs.timeout)
	defer cancel()

	if err := ping(checkCtx); err != nil {
		check.Status = HealthStatusUnhealthy
		check.Message = fmt.Sprintf("ping failed: %v", err)
	} else {
		check.Status = HealthStatusHealthy
	}

	check.ResponseTime = time.Since(start)
	return check
}

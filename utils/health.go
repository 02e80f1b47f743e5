package utils

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// HealthStatus represents current status of external services.
type HealthStatus struct {
	Redis     bool      `json:"redis"`
	Upstream  bool      `json:"upstream"`
	CheckedAt time.Time `json:"checkedAt"`
}

var (
	currentHealth HealthStatus
	healthMu      sync.RWMutex
)

// GetHealthStatus returns latest stored health snapshot.
func GetHealthStatus() HealthStatus {
	healthMu.RLock()
	defer healthMu.RUnlock()
	return currentHealth
}

func setHealthStatus(h HealthStatus) {
	healthMu.Lock()
	currentHealth = h
	healthMu.Unlock()
}

// CheckHealth pings Redis (when configured) and the remote API once.
func CheckHealth(ctx context.Context, redisClient *redis.Client, pingUpstream func(context.Context) error) HealthStatus {
	h := HealthStatus{CheckedAt: time.Now()}
	if redisClient != nil {
		h.Redis = redisClient.Ping(ctx).Err() == nil
	}
	if pingUpstream != nil {
		h.Upstream = pingUpstream(ctx) == nil
	}
	setHealthStatus(h)
	return h
}

// StartHealthMonitor performs periodic health checks and updates in-memory state
// until ctx is cancelled.
func StartHealthMonitor(ctx context.Context, interval time.Duration, redisClient *redis.Client, pingUpstream func(context.Context) error) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		CheckHealth(ctx, redisClient, pingUpstream)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				CheckHealth(ctx, redisClient, pingUpstream)
			}
		}
	}()
}

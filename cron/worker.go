package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"servicehub/config"
	"servicehub/services/notification"
	"servicehub/services/tasks"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// QueueRedisOpt is the asynq connection for the push queue.
func QueueRedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// InitPushWorker runs the push delivery worker in background. The returned server
// is shut down by the caller.
func InitPushWorker(ctx context.Context, pusher notification.Pusher, devices notification.DeviceStore, logger *zap.Logger) *asynq.Server {
	redisOpts := QueueRedisOpt()

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				tasks.PushQueue: 1,
			},
			Logger: logger.Sugar(),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypePushSend, HandlePushTask(pusher, devices, logger))

	go monitorRedisConnection(ctx, redisOpts, logger)

	go func() {
		logger.Info("Starting push worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Run(mux)
			if err == nil || errors.Is(err, asynq.ErrServerClosed) {
				return
			}
			logger.Error("Push worker failed to start",
				zap.Int("attempt", attempts), zap.Int("maxAttempts", maxAttempts), zap.Error(err))
			if attempts == maxAttempts {
				logger.Error("Push worker gave up; queued pushes will wait for the next start")
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Duration(attempts*2) * time.Second):
			}
		}
	}()
	return srv
}

// HandlePushTask delivers one queued push. Stale tokens are removed and not retried.
func HandlePushTask(pusher notification.Pusher, devices notification.DeviceStore, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		p, err := tasks.ParsePushPayload(task)
		if err != nil {
			logger.Error("Invalid push payload", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		err = pusher.Push(ctx, p.Token, p.Role, p.Notification)
		switch {
		case err == nil:
			logger.Debug("Push delivered", zap.String("userId", p.UserID), zap.String("notificationId", p.Notification.ID))
			return nil
		case errors.Is(err, notification.ErrStaleToken):
			logger.Info("Removing stale device token", zap.String("userId", p.UserID))
			if rmErr := devices.Remove(ctx, p.UserID, p.Token); rmErr != nil {
				logger.Warn("Failed to remove stale token", zap.String("userId", p.UserID), zap.Error(rmErr))
			}
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		default:
			logger.Warn("Push failed, will retry", zap.String("userId", p.UserID), zap.Error(err))
			return err
		}
	}
}

// monitorRedisConnection pings the queue's Redis periodically to surface failures at runtime.
func monitorRedisConnection(ctx context.Context, opt asynq.RedisClientOpt, logger *zap.Logger) {
	client := redis.NewClient(&redis.Options{
		Addr:     opt.Addr,
		Password: opt.Password,
		DB:       opt.DB,
	})
	defer client.Close()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.Ping(ctx).Err(); err != nil {
				logger.Warn("Queue Redis connection lost", zap.Error(err))
			}
		}
	}
}

package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"servicehub/models"
	"servicehub/services/realtime"
	"servicehub/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	defaultResubscribeDelay = 5 * time.Second
	enqueueTimeout          = 5 * time.Second
)

// Subscriber is satisfied by *realtime.Manager.
type Subscriber interface {
	Subscribe(ctx context.Context, room realtime.Room) (*realtime.Subscription, error)
}

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Relay holds a notification-room subscription for every user with a registered
// device and queues a push task per device for each notification received.
type Relay struct {
	subscriber Subscriber
	devices    DeviceStore
	queue      Enqueuer
	logger     *zap.Logger
	delay      time.Duration

	mu       sync.Mutex
	watching map[string]*realtime.Subscription
	closed   bool
	stop     chan struct{}
	wg       sync.WaitGroup
}

func NewRelay(sub Subscriber, devices DeviceStore, queue Enqueuer, logger *zap.Logger) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{
		subscriber: sub,
		devices:    devices,
		queue:      queue,
		logger:     logger,
		delay:      defaultResubscribeDelay,
		watching:   make(map[string]*realtime.Subscription),
		stop:       make(chan struct{}),
	}
}

// Register stores the device and starts relaying the owner's notifications.
func (r *Relay) Register(ctx context.Context, d models.Device) error {
	if d.FCMToken == "" {
		return ErrMissingToken
	}
	if err := r.devices.Add(ctx, d); err != nil {
		return err
	}
	return r.Watch(ctx, d.UserID)
}

// Watch subscribes to userID's notification room unless already subscribed.
func (r *Relay) Watch(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRelayClosed
	}
	if _, ok := r.watching[userID]; ok {
		return nil
	}

	sub, err := r.subscriber.Subscribe(ctx, realtime.NotificationRoom(userID))
	if err != nil {
		return fmt.Errorf("watch notifications for %s: %w", userID, err)
	}
	r.watching[userID] = sub
	r.wg.Add(1)
	go r.forward(userID, sub)
	return nil
}

// Resume watches every user that has a stored device.
func (r *Relay) Resume(ctx context.Context) error {
	users, err := r.devices.Users(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		if err := r.Watch(ctx, u); err != nil {
			r.logger.Warn("Failed to resume push relay", zap.String("userId", u), zap.Error(err))
		}
	}
	return nil
}

// Watching reports whether userID's notifications are being relayed.
func (r *Relay) Watching(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.watching[userID]
	return ok
}

func (r *Relay) forward(userID string, sub *realtime.Subscription) {
	defer r.wg.Done()
	for ev := range sub.Events() {
		if ev.Notification == nil {
			continue
		}
		r.enqueue(userID, *ev.Notification)
	}

	r.mu.Lock()
	if r.watching[userID] == sub {
		delete(r.watching, userID)
	}
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return
	}

	r.resubscribe(userID)
}

// resubscribe retries Watch every r.delay until it succeeds or the relay closes.
func (r *Relay) resubscribe(userID string) {
	for attempt := 1; ; attempt++ {
		select {
		case <-r.stop:
			return
		case <-time.After(r.delay):
		}
		ctx, cancel := context.WithTimeout(context.Background(), enqueueTimeout)
		err := r.Watch(ctx, userID)
		cancel()
		if err == nil || errors.Is(err, ErrRelayClosed) {
			return
		}
		r.logger.Warn("Push relay resubscribe failed",
			zap.String("userId", userID), zap.Int("attempt", attempt), zap.Error(err))
	}
}

func (r *Relay) enqueue(userID string, n models.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), enqueueTimeout)
	defer cancel()

	devices, err := r.devices.Devices(ctx, userID)
	if err != nil {
		r.logger.Error("Failed to load devices", zap.String("userId", userID), zap.Error(err))
		return
	}
	for _, d := range devices {
		task, opts, err := tasks.NewPushTask(tasks.PushPayload{
			UserID:       userID,
			Role:         d.Role,
			Token:        d.FCMToken,
			Notification: n,
		})
		if err != nil {
			r.logger.Error("Failed to build push task", zap.String("userId", userID), zap.Error(err))
			continue
		}
		if _, err := r.queue.EnqueueContext(ctx, task, opts...); err != nil {
			r.logger.Error("Failed to enqueue push", zap.String("userId", userID), zap.Error(err))
		}
	}
}

// Close drops every subscription and waits for the forwarders to finish.
func (r *Relay) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.stop)
	subs := make([]*realtime.Subscription, 0, len(r.watching))
	for _, s := range r.watching {
		subs = append(subs, s)
	}
	r.watching = map[string]*realtime.Subscription{}
	r.mu.Unlock()

	for _, s := range subs {
		s.Close()
	}
	r.wg.Wait()
}

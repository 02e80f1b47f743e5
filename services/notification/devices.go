package notification

import (
	"context"
	"fmt"

	"servicehub/models"

	"github.com/go-redis/redis/v8"
)

const (
	deviceKeyPrefix = "devices:"
	deviceUsersKey  = "devices:users"
	deviceRolesKey  = "devices:roles"
)

// DeviceStore keeps the FCM tokens each user registered.
type DeviceStore interface {
	Add(ctx context.Context, d models.Device) error
	Remove(ctx context.Context, userID, token string) error
	Devices(ctx context.Context, userID string) ([]models.Device, error)
	Users(ctx context.Context) ([]string, error)
}

// RedisDeviceStore keeps a token set per user, the set of users with devices,
// and a hash of each user's role.
type RedisDeviceStore struct {
	client *redis.Client
}

func NewRedisDeviceStore(client *redis.Client) *RedisDeviceStore {
	return &RedisDeviceStore{client: client}
}

func deviceKey(userID string) string { return deviceKeyPrefix + userID }

func (s *RedisDeviceStore) Add(ctx context.Context, d models.Device) error {
	if d.FCMToken == "" {
		return ErrMissingToken
	}
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.SAdd(ctx, deviceKey(d.UserID), d.FCMToken)
		p.SAdd(ctx, deviceUsersKey, d.UserID)
		p.HSet(ctx, deviceRolesKey, d.UserID, string(d.Role))
		return nil
	})
	if err != nil {
		return fmt.Errorf("register device for %s: %w", d.UserID, err)
	}
	return nil
}

func (s *RedisDeviceStore) Remove(ctx context.Context, userID, token string) error {
	if err := s.client.SRem(ctx, deviceKey(userID), token).Err(); err != nil {
		return fmt.Errorf("remove device for %s: %w", userID, err)
	}
	n, err := s.client.SCard(ctx, deviceKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("count devices for %s: %w", userID, err)
	}
	if n > 0 {
		return nil
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.SRem(ctx, deviceUsersKey, userID)
		p.HDel(ctx, deviceRolesKey, userID)
		return nil
	})
	return err
}

func (s *RedisDeviceStore) Devices(ctx context.Context, userID string) ([]models.Device, error) {
	tokens, err := s.client.SMembers(ctx, deviceKey(userID)).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("list devices for %s: %w", userID, err)
	}
	role, err := s.client.HGet(ctx, deviceRolesKey, userID).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("lookup role for %s: %w", userID, err)
	}

	devices := make([]models.Device, 0, len(tokens))
	for _, t := range tokens {
		devices = append(devices, models.Device{UserID: userID, Role: models.Role(role), FCMToken: t})
	}
	return devices, nil
}

func (s *RedisDeviceStore) Users(ctx context.Context) ([]string, error) {
	users, err := s.client.SMembers(ctx, deviceUsersKey).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("list users with devices: %w", err)
	}
	return users, nil
}

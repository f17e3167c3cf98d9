package cache

import (
	"context"
	"fmt"
	"sort"

	"partner-edge/internal/ports"

	"github.com/redis/go-redis/v9"
)

func devicesKey(organizationID string) string {
	return "devices:" + organizationID
}

// RedisDeviceRegistry keeps each organization's push tokens in a Redis set.
type RedisDeviceRegistry struct {
	redis redis.Cmdable
}

// NewRedisDeviceRegistry creates a device registry
func NewRedisDeviceRegistry(cmdable redis.Cmdable) *RedisDeviceRegistry {
	return &RedisDeviceRegistry{redis: cmdable}
}

var _ ports.DeviceRegistry = (*RedisDeviceRegistry)(nil)

func (r *RedisDeviceRegistry) Register(ctx context.Context, organizationID, deviceToken string) error {
	if err := r.redis.SAdd(ctx, devicesKey(organizationID), deviceToken).Err(); err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

func (r *RedisDeviceRegistry) Remove(ctx context.Context, organizationID, deviceToken string) error {
	if err := r.redis.SRem(ctx, devicesKey(organizationID), deviceToken).Err(); err != nil {
		return fmt.Errorf("failed to remove device: %w", err)
	}
	return nil
}

// List returns the organization's device tokens in a stable order
func (r *RedisDeviceRegistry) List(ctx context.Context, organizationID string) ([]string, error) {
	tokens, err := r.redis.SMembers(ctx, devicesKey(organizationID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	sort.Strings(tokens)
	return tokens, nil
}

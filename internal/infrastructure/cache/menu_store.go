package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"partner-edge/internal/domain"
	"partner-edge/internal/ports"

	"github.com/redis/go-redis/v9"
)

// MenuKey is the key under which the menu editor stores an organization's menu.
func MenuKey(organizationID string) string {
	return organizationID + "Menu"
}

// RedisMenuStore reads menus stored as a JSON array of items.
type RedisMenuStore struct {
	redis redis.Cmdable
}

// NewRedisMenuStore creates a menu store
func NewRedisMenuStore(cmdable redis.Cmdable) *RedisMenuStore {
	return &RedisMenuStore{redis: cmdable}
}

var _ ports.MenuStore = (*RedisMenuStore)(nil)

// GetMenu returns the organization's menu items, or nil when no menu is stored
func (s *RedisMenuStore) GetMenu(ctx context.Context, organizationID string) ([]domain.MenuItem, error) {
	data, err := s.redis.Get(ctx, MenuKey(organizationID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read menu: %w", err)
	}

	var items []domain.MenuItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode menu: %w", err)
	}
	if items == nil {
		items = []domain.MenuItem{}
	}
	return items, nil
}

// SaveMenu stores the organization's menu items
func (s *RedisMenuStore) SaveMenu(ctx context.Context, organizationID string, items []domain.MenuItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode menu: %w", err)
	}
	if err := s.redis.Set(ctx, MenuKey(organizationID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save menu: %w", err)
	}
	return nil
}

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/eventmart/commerce-backend/internal/config"
	"github.com/eventmart/commerce-backend/internal/models"
)

// CatalogCache is a read-through cache for event and product detail
// pages. A nil *CatalogCache is valid and disables caching.
type CatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCatalogCache creates a cache backed by Redis
func NewCatalogCache(cfg config.RedisConfig) *CatalogCache {
	if !cfg.Enabled {
		return nil
	}
	return &CatalogCache{
		client: redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		ttl:    cfg.TTL,
	}
}

// GetEvent returns the cached event, or nil on miss
func (c *CatalogCache) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	if c == nil {
		return nil, nil
	}
	data, err := c.client.Get(ctx, eventKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var event models.Event
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// SetEvent stores an event for the configured TTL
func (c *CatalogCache) SetEvent(ctx context.Context, event *models.Event) error {
	if c == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, eventKey(event.ID), payload, c.ttl).Err()
}

// InvalidateEvent drops a cached event after writes or inventory changes
func (c *CatalogCache) InvalidateEvent(ctx context.Context, id uuid.UUID) error {
	if c == nil {
		return nil
	}
	return c.client.Del(ctx, eventKey(id)).Err()
}

// GetProduct returns the cached product, or nil on miss
func (c *CatalogCache) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if c == nil {
		return nil, nil
	}
	data, err := c.client.Get(ctx, productKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var product models.Product
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// SetProduct stores a product for the configured TTL
func (c *CatalogCache) SetProduct(ctx context.Context, product *models.Product) error {
	if c == nil {
		return nil
	}
	payload, err := json.Marshal(product)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, productKey(product.ID), payload, c.ttl).Err()
}

// InvalidateProduct drops a cached product after writes or inventory changes
func (c *CatalogCache) InvalidateProduct(ctx context.Context, id uuid.UUID) error {
	if c == nil {
		return nil
	}
	return c.client.Del(ctx, productKey(id)).Err()
}

// Close releases the underlying Redis client
func (c *CatalogCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

func eventKey(id uuid.UUID) string {
	return fmt.Sprintf("catalog:event:%s", id)
}

func productKey(id uuid.UUID) string {
	return fmt.Sprintf("catalog:product:%s", id)
}

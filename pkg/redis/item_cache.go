package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"

	"julianmorley.ca/con-plar/eatathome/internal/store"
	"julianmorley.ca/con-plar/eatathome/pkg/models"
)

// CachedCatalog is a read-through cache in front of a Catalog. Redis errors
// are logged and the lookup falls through to the catalog.
type CachedCatalog struct {
	client  *redis.Client
	catalog store.Catalog
	ttl     time.Duration
	log     *zap.Logger
}

var _ store.Catalog = (*CachedCatalog)(nil)

func NewCachedCatalog(client *redis.Client, catalog store.Catalog, ttl time.Duration, log *zap.Logger) *CachedCatalog {
	return &CachedCatalog{client: client, catalog: catalog, ttl: ttl, log: log.Named("item_cache")}
}

func itemKey(id bson.ObjectID) string {
	return fmt.Sprintf("item:%s", id.Hex())
}

func (c *CachedCatalog) FindItem(ctx context.Context, id bson.ObjectID) (*models.Item, error) {
	raw, err := c.client.Get(ctx, itemKey(id)).Result()
	switch {
	case err == nil:
		var item models.Item
		if err := json.Unmarshal([]byte(raw), &item); err == nil {
			return &item, nil
		}
		c.log.Warn("Discarding undecodable cache entry", zap.String("key", itemKey(id)))
	case !errors.Is(err, redis.Nil):
		c.log.Warn("Item cache read failed", zap.String("key", itemKey(id)), zap.Error(err))
	}

	item, err := c.catalog.FindItem(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, []models.Item{*item})
	return item, nil
}

// FindItems serves hits with one MGET and loads only the misses from the catalog.
func (c *CachedCatalog) FindItems(ctx context.Context, ids []bson.ObjectID) (map[bson.ObjectID]models.Item, error) {
	out := make(map[bson.ObjectID]models.Item, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = itemKey(id)
	}

	misses := ids
	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		c.log.Warn("Item cache read failed", zap.Int("keys", len(keys)), zap.Error(err))
	} else {
		misses = make([]bson.ObjectID, 0, len(ids))
		for i, v := range values {
			raw, ok := v.(string)
			var item models.Item
			if !ok || json.Unmarshal([]byte(raw), &item) != nil {
				misses = append(misses, ids[i])
				continue
			}
			out[ids[i]] = item
		}
	}

	if len(misses) == 0 {
		return out, nil
	}
	loaded, err := c.catalog.FindItems(ctx, misses)
	if err != nil {
		return nil, err
	}
	fresh := make([]models.Item, 0, len(loaded))
	for id, item := range loaded {
		out[id] = item
		fresh = append(fresh, item)
	}
	c.store(ctx, fresh)
	return out, nil
}

func (c *CachedCatalog) ListItems(ctx context.Context) ([]models.Item, error) {
	return c.catalog.ListItems(ctx)
}

// Warm loads the whole catalog into the cache and returns how many items were written.
func (c *CachedCatalog) Warm(ctx context.Context) (int, error) {
	items, err := c.catalog.ListItems(ctx)
	if err != nil {
		return 0, fmt.Errorf("list items: %w", err)
	}
	if err := c.write(ctx, items); err != nil {
		return 0, err
	}
	return len(items), nil
}

func (c *CachedCatalog) store(ctx context.Context, items []models.Item) {
	if err := c.write(ctx, items); err != nil {
		c.log.Warn("Item cache write failed", zap.Error(err))
	}
}

func (c *CachedCatalog) write(ctx context.Context, items []models.Item) error {
	if len(items) == 0 {
		return nil
	}

	pipe := c.client.TxPipeline()
	for _, item := range items {
		itemJSON, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("failed to marshal item %s: %w", item.ID.Hex(), err)
		}
		pipe.Set(ctx, itemKey(item.ID), itemJSON, c.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to execute Redis pipeline for %d items: %w", len(items), err)
	}
	return nil
}

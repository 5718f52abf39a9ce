package storage

import (
	"context"
	"flairhq/internal/models"
	"flairhq/internal/providers"

	json "github.com/goccy/go-json"
)

const (
	flairKeyPrefix = "flair:"
	flairListKey   = "flairs:all"
)

// CachedFlairStore serves definition reads from the shared cache.
// Definitions change only through PutFlairs, which drops the cached entries.
type CachedFlairStore struct {
	inner  FlairStoreInterface
	cache  providers.CacheProviderInterface
	logger providers.Logger
}

func NewCachedFlairStore(inner FlairStoreInterface, cache providers.CacheProviderInterface, logger providers.Logger) *CachedFlairStore {
	return &CachedFlairStore{inner: inner, cache: cache, logger: logger}
}

func (c *CachedFlairStore) GetFlair(ctx context.Context, name string) (*models.FlairDefinition, error) {
	key := flairKeyPrefix + name
	if data, ok := c.cache.Get(key); ok {
		var def models.FlairDefinition
		if err := json.Unmarshal(data, &def); err == nil {
			return &def, nil
		}
		c.cache.Del(key)
	}

	def, err := c.inner.GetFlair(ctx, name)
	if err != nil {
		return nil, err
	}
	c.store(key, def)
	return def, nil
}

func (c *CachedFlairStore) ListFlairs(ctx context.Context) ([]models.FlairDefinition, error) {
	if data, ok := c.cache.Get(flairListKey); ok {
		var defs []models.FlairDefinition
		if err := json.Unmarshal(data, &defs); err == nil {
			return defs, nil
		}
		c.cache.Del(flairListKey)
	}

	defs, err := c.inner.ListFlairs(ctx)
	if err != nil {
		return nil, err
	}
	c.store(flairListKey, defs)
	return defs, nil
}

func (c *CachedFlairStore) PutFlairs(ctx context.Context, defs []models.FlairDefinition) error {
	err := c.inner.PutFlairs(ctx, defs)
	c.cache.Del(flairListKey)
	for _, def := range defs {
		c.cache.Del(flairKeyPrefix + def.Name)
	}
	return err
}

func (c *CachedFlairStore) store(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warnf(providers.TypeApp, "Unable to cache %s: %v", key, err)
		return
	}
	c.cache.Set(key, data)
}

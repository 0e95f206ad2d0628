package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lephu2k6/agri-flow-platform-sub001/internal/catalog/domain"
)

const productTTL = time.Hour

// ProductCache is a Redis-backed product-by-id cache. A miss is reported as
// (nil, nil).
type ProductCache struct {
	client *redis.Client
}

func NewProductCache(addr string) (*ProductCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &ProductCache{client: client}, nil
}

func (c *ProductCache) Get(ctx context.Context, id string) (*domain.Product, error) {
	data, err := c.client.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var product domain.Product
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *ProductCache) Set(ctx context.Context, product *domain.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(product.ID), data, productTTL).Err()
}

func (c *ProductCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, key(id)).Err()
}

func (c *ProductCache) Close() error {
	return c.client.Close()
}

func key(id string) string {
	return "product:" + id
}

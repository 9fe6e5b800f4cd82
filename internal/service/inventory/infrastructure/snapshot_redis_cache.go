package infrastructure

import (
	"context"
	"fmt"
	"strconv"
	"time"

	redispkg "bookstore/internal/pkg/redis"
)

const snapshotTTL = 30 * time.Second

// SnapshotRedisCache 把各书目的库存数量缓存在 Redis 里，
// 给咨询式可用性查询挡掉一部分 DB 读。带 TTL，过期自然回源。
type SnapshotRedisCache struct {
	client *redispkg.Client
}

func NewSnapshotRedisCache(client *redispkg.Client) *SnapshotRedisCache {
	return &SnapshotRedisCache{client: client}
}

func quantityKey(bookID int64) string {
	return fmt.Sprintf("stock:qty:%d", bookID)
}

func (c *SnapshotRedisCache) GetQuantities(ctx context.Context, bookIDs []int64) (map[int64]int, error) {
	keys := make([]string, len(bookIDs))
	for i, id := range bookIDs {
		keys[i] = quantityKey(id)
	}

	values, err := c.client.GetClient().MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	quantities := make(map[int64]int, len(bookIDs))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue // 未命中
		}
		quantity, err := strconv.Atoi(s)
		if err != nil {
			continue
		}
		quantities[bookIDs[i]] = quantity
	}
	return quantities, nil
}

func (c *SnapshotRedisCache) SetQuantities(ctx context.Context, quantities map[int64]int) error {
	pipe := c.client.GetClient().Pipeline()
	for id, quantity := range quantities {
		pipe.Set(ctx, quantityKey(id), quantity, snapshotTTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (c *SnapshotRedisCache) Invalidate(ctx context.Context, bookIDs ...int64) error {
	keys := make([]string, len(bookIDs))
	for i, id := range bookIDs {
		keys[i] = quantityKey(id)
	}
	return c.client.GetClient().Del(ctx, keys...).Err()
}

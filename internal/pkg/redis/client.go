package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Client 对 go-redis 做一层薄封装，集中连接参数。
type Client struct {
	rdb *redis.Client
}

// NewClient 建立连接并做一次 PING 探活。
func NewClient(ctx context.Context, addr string) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &Client{rdb: rdb}, nil
}

// GetClient 暴露底层客户端给需要 pipeline 等高级用法的调用方。
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close 关闭连接。
func (c *Client) Close() error {
	return c.rdb.Close()
}

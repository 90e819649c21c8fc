// Package cache 提供导师风格等热点数据的键值缓存，支持 Redis 和进程内两种实现。
package cache

import (
	"context"
	"time"
)

// Cache 是最小的键值缓存接口。未命中返回 found=false 而不是错误。
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

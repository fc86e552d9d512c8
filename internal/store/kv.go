package store

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrMiss key 不存在
var ErrMiss = errors.New("cache miss")

// scanBatch 每次 SCAN 的 COUNT 提示
const scanBatch = 200

// KV 最小键值存储接口（Redis 或内存实现）
// 设置、版本号与读数缓存都通过它读写
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	// ttl <= 0 表示不过期
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
	// ScanKeys 返回匹配 glob pattern 的全部 key（已去重，顺序不保证）
	ScanKeys(ctx context.Context, pattern string) ([]string, error)
}

// RedisKV go-redis 实现
type RedisKV struct {
	client *redis.Client
}

func NewRedisKV(client *redis.Client) *RedisKV { return &RedisKV{client: client} }

func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return val, err
}

func (r *RedisKV) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisKV) Incr(ctx context.Context, key string) (int64, error) {
	return r.client.Incr(ctx, key).Result()
}

// ScanKeys SCAN 游标遍历；rehash 期间 SCAN 可能返回重复 key
func (r *RedisKV) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	seen := make(map[string]struct{})
	keys := make([]string, 0)
	iter := r.client.Scan(ctx, 0, pattern, scanBatch).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

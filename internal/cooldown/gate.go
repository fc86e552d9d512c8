package cooldown

import (
	"context"
	"fmt"
	"sync"
	"time"

	"eco-alarm/internal/models"

	"github.com/go-redis/redis/v8"
)

// DefaultWindow 同一指标两次通知之间的最短间隔
const DefaultWindow = 120 * time.Second

// DefaultKeyPrefix 冷却键前缀
const DefaultKeyPrefix = "eco:alert-cooldown:"

// Gate 冷却闸门：窗口内同一个 key 只放行一次
type Gate interface {
	Acquire(ctx context.Context, key string, window time.Duration) (bool, error)
}

// Key 构建冷却键：用户 + 配置版本 + 指标
// 配置保存后版本变化，旧窗口不再生效
func Key(prefix, userID string, settingsVersion int64, metric models.Metric) string {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return fmt.Sprintf("%s%s:v%d:%s", prefix, userID, settingsVersion, metric)
}

// RedisGate 基于 SET NX PX 的冷却闸门
type RedisGate struct {
	redisClient *redis.Client
}

// NewRedisGate 创建 Redis 冷却闸门
func NewRedisGate(redisClient *redis.Client) *RedisGate {
	return &RedisGate{redisClient: redisClient}
}

func (g *RedisGate) Acquire(ctx context.Context, key string, window time.Duration) (bool, error) {
	ok, err := g.redisClient.SetNX(ctx, key, time.Now().Unix(), window).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire cooldown %s: %w", key, err)
	}
	return ok, nil
}

// MemoryGate 进程内冷却闸门（开发模式 / 测试）
type MemoryGate struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

// NewMemoryGate 创建内存冷却闸门；now 为 nil 时使用 time.Now
func NewMemoryGate(now func() time.Time) *MemoryGate {
	if now == nil {
		now = time.Now
	}
	return &MemoryGate{expires: map[string]time.Time{}, now: now}
}

func (g *MemoryGate) Acquire(_ context.Context, key string, window time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if until, ok := g.expires[key]; ok && now.Before(until) {
		return false, nil
	}
	g.expires[key] = now.Add(window)

	// 顺带清理过期项
	for k, until := range g.expires {
		if !now.Before(until) {
			delete(g.expires, k)
		}
	}
	return true, nil
}

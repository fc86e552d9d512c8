package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"eco-alarm/internal/config"
	"eco-alarm/internal/models"
	"eco-alarm/internal/store"

	"go.uber.org/zap"
)

// ErrReadingNotFound 用户没有缓存的读数
var ErrReadingNotFound = errors.New("reading not found")

// CacheManager 最新读数缓存（Redis 或内存 KV）
type CacheManager struct {
	config *config.Config
	kv     store.KV
	logger *zap.Logger
}

// NewCacheManager 创建缓存管理器
func NewCacheManager(
	cfg *config.Config,
	kv store.KV,
	logger *zap.Logger,
) *CacheManager {
	return &CacheManager{
		config: cfg,
		kv:     kv,
		logger: logger,
	}
}

func (c *CacheManager) readingKey(userID string) string {
	return fmt.Sprintf("%s%s%s",
		c.config.Alarm.Cache.ReadingKeyPrefix,
		userID,
		c.config.Alarm.Cache.ReadingSuffix,
	)
}

// SetReading 写入用户最新读数（带 TTL）
func (c *CacheManager) SetReading(ctx context.Context, userID string, reading models.Reading) error {
	if userID == "" {
		return fmt.Errorf("user_id is required")
	}

	jsonData, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("failed to marshal reading: %w", err)
	}

	key := c.readingKey(userID)
	if err := c.kv.Set(ctx, key, string(jsonData), c.config.Alarm.Cache.ReadingTTL); err != nil {
		return fmt.Errorf("failed to set reading cache: %w", err)
	}

	c.logger.Debug("Updated reading cache",
		zap.String("user_id", userID),
		zap.String("key", key),
	)
	return nil
}

// GetReading 读取用户最新读数
func (c *CacheManager) GetReading(ctx context.Context, userID string) (*models.Reading, error) {
	val, err := c.kv.Get(ctx, c.readingKey(userID))
	if err != nil {
		if errors.Is(err, store.ErrMiss) {
			return nil, fmt.Errorf("%w for user: %s", ErrReadingNotFound, userID)
		}
		return nil, fmt.Errorf("failed to get cache: %w", err)
	}

	var reading models.Reading
	if err := json.Unmarshal([]byte(val), &reading); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reading: %w", err)
	}

	return &reading, nil
}

// ListUserIDs 扫描读数缓存键，返回有读数的用户
func (c *CacheManager) ListUserIDs(ctx context.Context) ([]string, error) {
	prefix := c.config.Alarm.Cache.ReadingKeyPrefix
	suffix := c.config.Alarm.Cache.ReadingSuffix

	keys, err := c.kv.ScanKeys(ctx, prefix+"*"+suffix)
	if err != nil {
		return nil, fmt.Errorf("failed to scan keys: %w", err)
	}

	userIDs := make([]string, 0, len(keys))
	for _, key := range keys {
		userID := strings.TrimSuffix(strings.TrimPrefix(key, prefix), suffix)
		if userID == "" {
			continue
		}
		userIDs = append(userIDs, userID)
	}

	return userIDs, nil
}

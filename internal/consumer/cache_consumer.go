package consumer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"eco-alarm/internal/config"
	"eco-alarm/internal/models"

	"go.uber.org/zap"
)

// Notifier 对单个用户执行评估并通知
type Notifier interface {
	NotifyUser(ctx context.Context, userID string, reading models.Reading) models.EvaluationResult
}

// CacheConsumer 缓存消费者（轮询最新读数缓存）
type CacheConsumer struct {
	config *config.Config
	cache  *CacheManager
	logger *zap.Logger
}

// NewCacheConsumer 创建缓存消费者
func NewCacheConsumer(
	cfg *config.Config,
	cache *CacheManager,
	logger *zap.Logger,
) *CacheConsumer {
	return &CacheConsumer{
		config: cfg,
		cache:  cache,
		logger: logger,
	}
}

// Start 启动消费者（轮询模式），ctx 取消后返回
func (c *CacheConsumer) Start(ctx context.Context, notifier Notifier) error {
	interval := c.config.Alarm.PollInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	c.logger.Info("Cache consumer started",
		zap.Duration("poll_interval", interval),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// 立即执行一次
	if err := c.EvaluateAll(ctx, notifier); err != nil {
		c.logger.Error("Failed to evaluate users on startup",
			zap.Error(err),
		)
	}

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Cache consumer stopped")
			return nil
		case <-ticker.C:
			if err := c.EvaluateAll(ctx, notifier); err != nil {
				c.logger.Error("Failed to evaluate users",
					zap.Error(err),
				)
				// 继续执行，不中断
			}
		}
	}
}

// EvaluateAll 对所有有缓存读数的用户执行一轮评估
func (c *CacheConsumer) EvaluateAll(ctx context.Context, notifier Notifier) error {
	userIDs, err := c.cache.ListUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	sort.Strings(userIDs)

	c.logger.Debug("Evaluating users",
		zap.Int("user_count", len(userIDs)),
	)

	batchSize := c.config.Alarm.Evaluation.BatchSize
	if batchSize <= 0 {
		batchSize = 10
	}
	for i := 0; i < len(userIDs); i += batchSize {
		end := i + batchSize
		if end > len(userIDs) {
			end = len(userIDs)
		}

		if err := c.evaluateBatch(ctx, userIDs[i:end], notifier); err != nil {
			return err
		}
	}

	return nil
}

func (c *CacheConsumer) evaluateBatch(ctx context.Context, userIDs []string, notifier Notifier) error {
	for _, userID := range userIDs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		reading, err := c.cache.GetReading(ctx, userID)
		if err != nil {
			// 读数可能刚过期
			if errors.Is(err, ErrReadingNotFound) {
				c.logger.Debug("Reading expired before evaluation", zap.String("user_id", userID))
			} else {
				c.logger.Warn("Failed to read cached reading",
					zap.String("user_id", userID),
					zap.Error(err),
				)
			}
			continue
		}

		result := notifier.NotifyUser(ctx, userID, *reading)
		if result.IsAlert {
			c.logger.Debug("Reading breached thresholds",
				zap.String("user_id", userID),
				zap.Int("alert_count", len(result.Alerts)),
			)
		}
	}
	return nil
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	commonredis "eco-alarm/common/redis"
	"eco-alarm/internal/models"

	"github.com/go-redis/redis/v8"
)

// OutcomeSink 通知结果（前端 toast）输出
type OutcomeSink interface {
	Publish(ctx context.Context, outcome models.AlertOutcome) error
	// Latest 返回用户最新的 count 条结果（新 → 旧）
	Latest(ctx context.Context, userID string, count int64) ([]models.AlertOutcome, error)
}

// RedisOutcomeSink 每个用户一个 stream：<stream>:<userID>
type RedisOutcomeSink struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisOutcomeSink 创建 Redis Streams 结果输出
func NewRedisOutcomeSink(client *redis.Client, stream string, maxLen int64) *RedisOutcomeSink {
	return &RedisOutcomeSink{
		client: client,
		stream: stream,
		maxLen: maxLen,
	}
}

func (s *RedisOutcomeSink) streamKey(userID string) string {
	return s.stream + ":" + userID
}

func (s *RedisOutcomeSink) Publish(ctx context.Context, outcome models.AlertOutcome) error {
	if _, err := commonredis.PublishJSONToStream(ctx, s.client, s.streamKey(outcome.UserID), s.maxLen, outcome); err != nil {
		return fmt.Errorf("failed to publish alert outcome: %w", err)
	}
	return nil
}

func (s *RedisOutcomeSink) Latest(ctx context.Context, userID string, count int64) ([]models.AlertOutcome, error) {
	msgs, err := commonredis.ReadLatestFromStream(ctx, s.client, s.streamKey(userID), count)
	if err != nil {
		return nil, fmt.Errorf("failed to read alert outcomes: %w", err)
	}

	outcomes := make([]models.AlertOutcome, 0, len(msgs))
	for _, msg := range msgs {
		data, ok := msg.Values["data"].(string)
		if !ok {
			continue
		}
		var outcome models.AlertOutcome
		if err := json.Unmarshal([]byte(data), &outcome); err != nil {
			continue
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// MemoryOutcomeSink 内存实现（Redis 不可用时使用）
type MemoryOutcomeSink struct {
	mu     sync.Mutex
	byUser map[string][]models.AlertOutcome
	maxLen int
}

// NewMemoryOutcomeSink 每个用户最多保留 maxLen 条
func NewMemoryOutcomeSink(maxLen int) *MemoryOutcomeSink {
	if maxLen <= 0 {
		maxLen = 100
	}
	return &MemoryOutcomeSink{
		byUser: map[string][]models.AlertOutcome{},
		maxLen: maxLen,
	}
}

func (s *MemoryOutcomeSink) Publish(_ context.Context, outcome models.AlertOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := append(s.byUser[outcome.UserID], outcome)
	if len(list) > s.maxLen {
		list = list[len(list)-s.maxLen:]
	}
	s.byUser[outcome.UserID] = list
	return nil
}

func (s *MemoryOutcomeSink) Latest(_ context.Context, userID string, count int64) ([]models.AlertOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.byUser[userID]
	out := make([]models.AlertOutcome, 0, len(list))
	for i := len(list) - 1; i >= 0 && int64(len(out)) < count; i-- {
		out = append(out, list[i])
	}
	return out, nil
}

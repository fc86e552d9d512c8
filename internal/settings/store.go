package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"eco-alarm/internal/models"
	"eco-alarm/internal/store"

	"go.uber.org/zap"
)

// DefaultKeyPrefix 报警配置存储键前缀
const DefaultKeyPrefix = "eco:alert-settings:"

// Store 报警配置存储（每个用户一个 JSON 值）
type Store struct {
	kv        store.KV
	keyPrefix string
	logger    *zap.Logger
}

// NewStore 创建配置存储
func NewStore(kv store.KV, keyPrefix string, logger *zap.Logger) *Store {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &Store{
		kv:        kv,
		keyPrefix: keyPrefix,
		logger:    logger,
	}
}

func (s *Store) settingsKey(userID string) string {
	return s.keyPrefix + userID
}

func (s *Store) versionKey(userID string) string {
	return s.keyPrefix + userID + ":version"
}

// Load 读取用户配置，缺失字段用默认值补齐
// 不存在、损坏或读取失败时返回默认配置，不向调用方返回错误
func (s *Store) Load(ctx context.Context, userID string) models.AlertSettings {
	raw, err := s.kv.Get(ctx, s.settingsKey(userID))
	if err != nil {
		if !errors.Is(err, store.ErrMiss) {
			s.logger.Error("Failed to read alert settings, using defaults",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
		return models.DefaultAlertSettings()
	}

	merged, err := Merge(models.DefaultAlertSettings(), []byte(raw))
	if err != nil {
		s.logger.Warn("Stored alert settings are corrupt, using defaults",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return models.DefaultAlertSettings()
	}

	return merged
}

// Save 整体覆盖保存，并递增配置版本
// 配置已写入后版本递增失败只记录日志：冷却仍按旧版本计，最多延后一个冷却窗口
func (s *Store) Save(ctx context.Context, userID string, settings models.AlertSettings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal alert settings: %w", err)
	}

	if err := s.kv.Set(ctx, s.settingsKey(userID), string(data), 0); err != nil {
		return fmt.Errorf("failed to save alert settings: %w", err)
	}

	version, err := s.kv.Incr(ctx, s.versionKey(userID))
	if err != nil {
		s.logger.Error("Alert settings saved but version bump failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil
	}

	s.logger.Debug("Alert settings saved",
		zap.String("user_id", userID),
		zap.Int64("version", version),
	)

	return nil
}

// Version 返回配置版本，从未保存过时为 0
func (s *Store) Version(ctx context.Context, userID string) (int64, error) {
	raw, err := s.kv.Get(ctx, s.versionKey(userID))
	if err != nil {
		if errors.Is(err, store.ErrMiss) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read alert settings version: %w", err)
	}

	version, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid alert settings version %q: %w", raw, err)
	}
	return version, nil
}

// Merge 将 JSON 中出现的字段覆盖到 base 上（嵌套对象逐字段覆盖）
// JSON 中缺失或为 null 的字段保持 base 的值
func Merge(base models.AlertSettings, raw []byte) (models.AlertSettings, error) {
	merged := base
	if err := json.Unmarshal(raw, &merged); err != nil {
		return base, fmt.Errorf("failed to unmarshal alert settings: %w", err)
	}
	return merged, nil
}

package service

import (
	"context"
	"fmt"

	"eco-alarm/internal/models"
	"eco-alarm/internal/repository"

	"go.uber.org/zap"
)

// maxExportRows 单次导出的最大记录数
const maxExportRows = 5000

// NotificationService 通知历史服务层
type NotificationService struct {
	repo   repository.NotificationsRepo
	logger *zap.Logger
}

// NewNotificationService 创建通知历史服务
func NewNotificationService(repo repository.NotificationsRepo, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		repo:   repo,
		logger: logger,
	}
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// NormalizePage 实际生效的分页参数：page 默认 1，size 默认 20，最大 100
func NormalizePage(page, size int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

// ListNotifications 分页查询通知历史
// 业务规则：
// - user_id 必填
// - 分页参数按 NormalizePage 归一化
func (s *NotificationService) ListNotifications(
	ctx context.Context,
	userID string,
	filters repository.NotificationFilters,
	page, size int,
) ([]*models.NotificationRecord, int, error) {
	if userID == "" {
		return nil, 0, fmt.Errorf("user_id is required")
	}
	page, size = NormalizePage(page, size)
	if filters.StartTime != nil && filters.EndTime != nil && filters.EndTime.Before(*filters.StartTime) {
		return nil, 0, fmt.Errorf("end_time must not be before start_time")
	}

	records, total, err := s.repo.ListNotifications(ctx, userID, filters, page, size)
	if err != nil {
		s.logger.Error("Failed to list notifications",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}

	return records, total, nil
}

// ExportNotifications 导出用的全量查询（最多 maxExportRows 条）
func (s *NotificationService) ExportNotifications(
	ctx context.Context,
	userID string,
	filters repository.NotificationFilters,
) ([]*models.NotificationRecord, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	records, _, err := s.repo.ListNotifications(ctx, userID, filters, 1, maxExportRows)
	if err != nil {
		s.logger.Error("Failed to export notifications",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to export notifications: %w", err)
	}
	return records, nil
}

package repository

import (
	"context"
	"time"

	"eco-alarm/internal/models"
)

// NotificationFilters 通知历史过滤条件
type NotificationFilters struct {
	StartTime *time.Time // created_at >= StartTime
	EndTime   *time.Time // created_at <= EndTime
	Success   *bool
}

// NotificationsRepo 通知历史仓库
type NotificationsRepo interface {
	CreateNotification(ctx context.Context, record *models.NotificationRecord) error
	ListNotifications(ctx context.Context, userID string, filters NotificationFilters, page, size int) ([]*models.NotificationRecord, int, error)
}

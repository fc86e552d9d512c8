package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"eco-alarm/internal/models"
)

// MemoryNotificationsRepo 内存实现（DB 未启用时使用）
type MemoryNotificationsRepo struct {
	mu      sync.RWMutex
	byUser  map[string][]*models.NotificationRecord
	maxKeep int
}

// NewMemoryNotificationsRepo 每个用户最多保留 maxKeep 条（<=0 不限制）
func NewMemoryNotificationsRepo(maxKeep int) *MemoryNotificationsRepo {
	return &MemoryNotificationsRepo{
		byUser:  map[string][]*models.NotificationRecord{},
		maxKeep: maxKeep,
	}
}

func (r *MemoryNotificationsRepo) CreateNotification(_ context.Context, record *models.NotificationRecord) error {
	if record == nil {
		return fmt.Errorf("record is required")
	}
	if record.UserID == "" {
		return fmt.Errorf("user_id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *record
	list := append(r.byUser[record.UserID], &cp)
	if r.maxKeep > 0 && len(list) > r.maxKeep {
		list = list[len(list)-r.maxKeep:]
	}
	r.byUser[record.UserID] = list
	return nil
}

func (r *MemoryNotificationsRepo) ListNotifications(_ context.Context, userID string, filters NotificationFilters, page, size int) ([]*models.NotificationRecord, int, error) {
	if userID == "" {
		return nil, 0, fmt.Errorf("user_id is required")
	}
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}

	r.mu.RLock()
	var matched []*models.NotificationRecord
	for _, rec := range r.byUser[userID] {
		if filters.StartTime != nil && rec.CreatedAt.Before(*filters.StartTime) {
			continue
		}
		if filters.EndTime != nil && rec.CreatedAt.After(*filters.EndTime) {
			continue
		}
		if filters.Success != nil && rec.Success != *filters.Success {
			continue
		}
		cp := *rec
		matched = append(matched, &cp)
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := (page - 1) * size
	if start >= total {
		return []*models.NotificationRecord{}, total, nil
	}
	end := start + size
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

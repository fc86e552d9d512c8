package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"eco-alarm/internal/models"
	"eco-alarm/internal/repository"
	"eco-alarm/internal/service"

	"go.uber.org/zap"
)

// NotificationHandler 通知历史 Handler
type NotificationHandler struct {
	notifications *service.NotificationService
	logger        *zap.Logger
}

// NewNotificationHandler 创建通知历史 Handler
func NewNotificationHandler(notifications *service.NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		notifications: notifications,
		logger:        logger,
	}
}

type notificationList struct {
	Items []*models.NotificationRecord `json:"items"`
	Total int                          `json:"total"`
	Page  int                          `json:"page"`
	Size  int                          `json:"size"`
}

// filtersFromReq 解析 start_time / end_time / success
func filtersFromReq(r *http.Request) repository.NotificationFilters {
	q := r.URL.Query()
	filters := repository.NotificationFilters{
		StartTime: parseTime(q.Get("start_time")),
		EndTime:   parseTime(q.Get("end_time")),
	}
	if s := strings.TrimSpace(q.Get("success")); s != "" {
		if b, err := strconv.ParseBool(s); err == nil {
			filters.Success = &b
		}
	}
	return filters
}

// ListNotifications 分页查询通知历史
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	userID, ok := userIDFromReq(w, r)
	if !ok {
		return
	}

	page, size := service.NormalizePage(
		parseInt(r.URL.Query().Get("page"), 1),
		parseInt(r.URL.Query().Get("page_size"), 0),
	)

	records, total, err := h.notifications.ListNotifications(r.Context(), userID, filtersFromReq(r), page, size)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(notificationList{Items: records, Total: total, Page: page, Size: size}))
}

// ExportNotifications 导出通知历史 Excel
func (h *NotificationHandler) ExportNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	userID, ok := userIDFromReq(w, r)
	if !ok {
		return
	}

	records, err := h.notifications.ExportNotifications(r.Context(), userID, filtersFromReq(r))
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	excelData, err := GenerateNotificationsExport(records)
	if err != nil {
		h.logger.Error("Failed to generate notifications export",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Fail("failed to generate export"))
		return
	}

	filename := fmt.Sprintf("alert_notifications_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(excelData)
}

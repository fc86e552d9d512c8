package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"eco-alarm/internal/models"

	"go.uber.org/zap"
)

// PostgresNotificationsRepo 通知历史仓库（alert_notifications 表）
type PostgresNotificationsRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresNotificationsRepo 创建通知历史仓库
func NewPostgresNotificationsRepo(db *sql.DB, logger *zap.Logger) *PostgresNotificationsRepo {
	return &PostgresNotificationsRepo{
		db:     db,
		logger: logger,
	}
}

const createNotificationsTable = `
	CREATE TABLE IF NOT EXISTS alert_notifications (
		notification_id UUID PRIMARY KEY,
		user_id         TEXT        NOT NULL,
		alert_method    TEXT        NOT NULL,
		alerts          JSONB       NOT NULL DEFAULT '[]',
		attempts        JSONB       NOT NULL DEFAULT '[]',
		success         BOOLEAN     NOT NULL,
		message         TEXT        NOT NULL DEFAULT '',
		created_at      TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_alert_notifications_user_created
		ON alert_notifications (user_id, created_at DESC);
`

// EnsureSchema 创建表（幂等）
func (r *PostgresNotificationsRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createNotificationsTable); err != nil {
		return fmt.Errorf("failed to ensure alert_notifications schema: %w", err)
	}
	return nil
}

// CreateNotification 写入一条通知记录
func (r *PostgresNotificationsRepo) CreateNotification(ctx context.Context, record *models.NotificationRecord) error {
	if record == nil {
		return fmt.Errorf("record is required")
	}
	if record.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if record.NotificationID == "" {
		return fmt.Errorf("notification_id is required")
	}

	query := `
		INSERT INTO alert_notifications (
			notification_id,
			user_id,
			alert_method,
			alerts,
			attempts,
			success,
			message,
			created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
	`

	_, err := r.db.ExecContext(ctx,
		query,
		record.NotificationID,
		record.UserID,
		string(record.AlertMethod),
		jsonOrDefault(record.Alerts, "[]"),
		jsonOrDefault(record.Attempts, "[]"),
		record.Success,
		record.Message,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// buildWhereClause 构建 WHERE 子句
func (r *PostgresNotificationsRepo) buildWhereClause(userID string, filters NotificationFilters, args *[]interface{}, argN *int) []string {
	where := []string{fmt.Sprintf("user_id = $%d", *argN)}
	*args = append(*args, userID)
	*argN++

	if filters.StartTime != nil {
		where = append(where, fmt.Sprintf("created_at >= $%d", *argN))
		*args = append(*args, *filters.StartTime)
		*argN++
	}
	if filters.EndTime != nil {
		where = append(where, fmt.Sprintf("created_at <= $%d", *argN))
		*args = append(*args, *filters.EndTime)
		*argN++
	}
	if filters.Success != nil {
		where = append(where, fmt.Sprintf("success = $%d", *argN))
		*args = append(*args, *filters.Success)
		*argN++
	}

	return where
}

// ListNotifications 分页查询通知历史（按时间倒序），返回记录和总数
func (r *PostgresNotificationsRepo) ListNotifications(ctx context.Context, userID string, filters NotificationFilters, page, size int) ([]*models.NotificationRecord, int, error) {
	if userID == "" {
		return nil, 0, fmt.Errorf("user_id is required")
	}
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}

	args := []interface{}{}
	argN := 1
	where := strings.Join(r.buildWhereClause(userID, filters, &args, &argN), " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM alert_notifications WHERE %s`, where)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT
			notification_id,
			user_id,
			alert_method,
			alerts,
			attempts,
			success,
			message,
			created_at
		FROM alert_notifications
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, argN, argN+1)
	args = append(args, size, (page-1)*size)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	records := []*models.NotificationRecord{}
	for rows.Next() {
		var rec models.NotificationRecord
		var method string
		var alerts, attempts []byte
		if err := rows.Scan(
			&rec.NotificationID,
			&rec.UserID,
			&method,
			&alerts,
			&attempts,
			&rec.Success,
			&rec.Message,
			&rec.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan notification: %w", err)
		}
		rec.AlertMethod = models.AlertMethod(method)
		rec.Alerts = json.RawMessage(jsonOrDefault(alerts, "[]"))
		rec.Attempts = json.RawMessage(jsonOrDefault(attempts, "[]"))
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate notifications: %w", err)
	}

	return records, total, nil
}

// jsonOrDefault 空 JSONB 字段使用默认值
func jsonOrDefault(raw []byte, def string) string {
	if len(raw) == 0 {
		return def
	}
	return string(raw)
}

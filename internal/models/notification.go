package models

import (
	"encoding/json"
	"time"
)

// Channel 通知通道
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// ContactTier 联系人层级
type ContactTier string

const (
	TierPrimary   ContactTier = "primary"
	TierSecondary ContactTier = "secondary"
)

// DeliveryAttempt 单次投递尝试
type DeliveryAttempt struct {
	Channel Channel     `json:"channel"`
	Tier    ContactTier `json:"tier"`
	Address string      `json:"address"`
	Success bool        `json:"success"`
	Error   string      `json:"error,omitempty"`
}

// NotificationRecord 通知历史（对应 alert_notifications 表）
type NotificationRecord struct {
	NotificationID string          `json:"notification_id" db:"notification_id"`
	UserID         string          `json:"user_id" db:"user_id"`
	AlertMethod    AlertMethod     `json:"alert_method" db:"alert_method"`
	Alerts         json.RawMessage `json:"alerts" db:"alerts"`     // JSONB
	Attempts       json.RawMessage `json:"attempts" db:"attempts"` // JSONB
	Success        bool            `json:"success" db:"success"`
	Message        string          `json:"message" db:"message"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// AlertOutcome 推送给前端 toast 的结果
type AlertOutcome struct {
	UserID    string        `json:"user_id"`
	Success   bool          `json:"success"`
	Title     string        `json:"title"`
	Message   string        `json:"message"`
	Alerts    []BreachEvent `json:"alerts"`
	CreatedAt time.Time     `json:"created_at"`
}

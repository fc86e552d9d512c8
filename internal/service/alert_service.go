package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"eco-alarm/internal/config"
	"eco-alarm/internal/cooldown"
	"eco-alarm/internal/evaluator"
	"eco-alarm/internal/metrics"
	"eco-alarm/internal/models"
	"eco-alarm/internal/notifier"
	"eco-alarm/internal/repository"
	"eco-alarm/internal/settings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	outcomeTitleSent   = "Alert Notification Sent"
	outcomeTitleFailed = "Alert Notification Failed"
	outcomeFailedText  = "Failed to send alert notification. Please check your contact information."
)

// ErrInvalidSettings 配置请求体无法解析
var ErrInvalidSettings = errors.New("invalid alert settings payload")

// Sender 报警发送（notifier.Notifier 实现）
type Sender interface {
	Send(ctx context.Context, alerts []models.BreachEvent, settings models.AlertSettings) notifier.Outcome
}

// AlertService 报警服务：读取配置 → 评估 → 冷却 → 通知 → 记录结果
type AlertService struct {
	config   *config.Config
	settings *settings.Store
	sender   Sender
	gate     cooldown.Gate
	outcomes OutcomeSink
	history  repository.NotificationsRepo
	logger   *zap.Logger
	now      func() time.Time
}

// NewAlertService 创建报警服务
// gate / outcomes / history 可为 nil，对应环节跳过
func NewAlertService(
	cfg *config.Config,
	store *settings.Store,
	sender Sender,
	gate cooldown.Gate,
	outcomes OutcomeSink,
	history repository.NotificationsRepo,
	logger *zap.Logger,
) *AlertService {
	return &AlertService{
		config:   cfg,
		settings: store,
		sender:   sender,
		gate:     gate,
		outcomes: outcomes,
		history:  history,
		logger:   logger,
		now:      time.Now,
	}
}

// GetSettings 读取用户配置（缺失字段已补齐默认值）
func (s *AlertService) GetSettings(ctx context.Context, userID string) models.AlertSettings {
	return s.settings.Load(ctx, userID)
}

// SaveSettings 解析、校验并整体保存配置
// 返回保存后的配置和所有提示（含非阻断性）
func (s *AlertService) SaveSettings(ctx context.Context, userID string, raw []byte) (models.AlertSettings, []settings.Issue, error) {
	parsed, err := settings.Merge(models.DefaultAlertSettings(), raw)
	if err != nil {
		return models.AlertSettings{}, nil, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}

	issues := settings.Validate(parsed)
	if err := settings.CheckBlocking(issues); err != nil {
		return parsed, issues, err
	}

	if err := s.settings.Save(ctx, userID, parsed); err != nil {
		return parsed, issues, err
	}

	s.logger.Info("Alert settings updated",
		zap.String("user_id", userID),
		zap.Bool("enabled", parsed.Enabled),
		zap.String("alert_method", string(parsed.AlertMethod)),
	)
	return parsed, issues, nil
}

// Evaluate 仅评估，不发送通知
func (s *AlertService) Evaluate(ctx context.Context, userID string, reading models.Reading) models.EvaluationResult {
	return evaluator.Evaluate(reading, s.settings.Load(ctx, userID))
}

// NotifyUser 评估读数，越限时发送通知并输出一条结果
// 无论通知是否成功都返回完整评估结果
func (s *AlertService) NotifyUser(ctx context.Context, userID string, reading models.Reading) models.EvaluationResult {
	current := s.settings.Load(ctx, userID)
	result := evaluator.Evaluate(reading, current)

	if !result.IsAlert {
		metrics.EvaluationsTotal.WithLabelValues("normal").Inc()
		return result
	}
	metrics.EvaluationsTotal.WithLabelValues("alert").Inc()
	for _, alert := range result.Alerts {
		metrics.BreachesTotal.WithLabelValues(string(alert.Type), string(alert.Level)).Inc()
	}

	due := s.admit(ctx, userID, result.Alerts)
	if len(due) == 0 {
		s.logger.Debug("All breaches in cool-down, skipping notification",
			zap.String("user_id", userID),
		)
		return result
	}

	start := s.now()
	sent := s.sender.Send(ctx, due, current)
	metrics.NotificationDuration.Observe(s.now().Sub(start).Seconds())
	metrics.NotificationsTotal.WithLabelValues(string(current.AlertMethod), metrics.StatusLabel(sent.Success)).Inc()
	for _, attempt := range sent.Attempts {
		metrics.DeliveryAttemptsTotal.WithLabelValues(
			string(attempt.Channel),
			string(attempt.Tier),
			metrics.StatusLabel(attempt.Success),
		).Inc()
	}

	outcome := BuildOutcome(userID, current.AlertMethod, due, sent.Success, s.now())
	if sent.Success {
		s.logger.Info("Alert notification sent",
			zap.String("user_id", userID),
			zap.Strings("metrics", metricNames(due)),
			zap.String("alert_method", string(current.AlertMethod)),
		)
	} else {
		s.logger.Warn("Alert notification failed",
			zap.String("user_id", userID),
			zap.Strings("metrics", metricNames(due)),
			zap.Int("attempts", len(sent.Attempts)),
		)
	}

	s.publishOutcome(ctx, outcome)
	s.recordHistory(ctx, current.AlertMethod, outcome, sent)

	return result
}

// admit 按冷却闸门过滤报警；闸门出错时放行
func (s *AlertService) admit(ctx context.Context, userID string, alerts []models.BreachEvent) []models.BreachEvent {
	if s.gate == nil {
		return alerts
	}

	version, err := s.settings.Version(ctx, userID)
	if err != nil {
		s.logger.Warn("Failed to read settings version for cool-down",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}

	window := s.config.Alarm.Cooldown
	if window <= 0 {
		window = cooldown.DefaultWindow
	}

	due := make([]models.BreachEvent, 0, len(alerts))
	for _, alert := range alerts {
		key := cooldown.Key(s.config.Alarm.Cache.CooldownKeyPrefix, userID, version, alert.Type)
		ok, err := s.gate.Acquire(ctx, key, window)
		if err != nil {
			s.logger.Warn("Cool-down gate unavailable, allowing notification",
				zap.String("key", key),
				zap.Error(err),
			)
			ok = true
		}
		if !ok {
			metrics.CooldownSuppressedTotal.WithLabelValues(string(alert.Type)).Inc()
			continue
		}
		due = append(due, alert)
	}
	return due
}

func (s *AlertService) publishOutcome(ctx context.Context, outcome models.AlertOutcome) {
	if s.outcomes == nil {
		return
	}
	if err := s.outcomes.Publish(ctx, outcome); err != nil {
		metrics.SideEffectErrorsTotal.WithLabelValues("outcomes").Inc()
		s.logger.Error("Failed to publish alert outcome",
			zap.String("user_id", outcome.UserID),
			zap.Error(err),
		)
	}
}

func (s *AlertService) recordHistory(ctx context.Context, method models.AlertMethod, outcome models.AlertOutcome, sent notifier.Outcome) {
	if s.history == nil {
		return
	}

	alerts, _ := json.Marshal(outcome.Alerts)
	attempts, _ := json.Marshal(sent.Attempts)
	record := &models.NotificationRecord{
		NotificationID: uuid.New().String(),
		UserID:         outcome.UserID,
		AlertMethod:    method,
		Alerts:         alerts,
		Attempts:       attempts,
		Success:        outcome.Success,
		Message:        outcome.Message,
		CreatedAt:      outcome.CreatedAt,
	}
	if err := s.history.CreateNotification(ctx, record); err != nil {
		metrics.SideEffectErrorsTotal.WithLabelValues("history").Inc()
		s.logger.Error("Failed to record notification history",
			zap.String("user_id", outcome.UserID),
			zap.Error(err),
		)
	}
}

// LatestOutcomes 最近的通知结果
func (s *AlertService) LatestOutcomes(ctx context.Context, userID string, count int64) ([]models.AlertOutcome, error) {
	if s.outcomes == nil {
		return []models.AlertOutcome{}, nil
	}
	if count <= 0 {
		count = 10
	}
	return s.outcomes.Latest(ctx, userID, count)
}

// BuildOutcome 生成一条用户可见的通知结果
func BuildOutcome(userID string, method models.AlertMethod, alerts []models.BreachEvent, success bool, at time.Time) models.AlertOutcome {
	outcome := models.AlertOutcome{
		UserID:    userID,
		Success:   success,
		Alerts:    alerts,
		CreatedAt: at,
	}
	if success {
		outcome.Title = outcomeTitleSent
		outcome.Message = fmt.Sprintf("An alert for elevated %s levels has been sent via %s.",
			strings.Join(metricNames(alerts), ", "), method)
	} else {
		outcome.Title = outcomeTitleFailed
		outcome.Message = outcomeFailedText
	}
	return outcome
}

func metricNames(alerts []models.BreachEvent) []string {
	names := make([]string, 0, len(alerts))
	for _, m := range evaluator.Metrics(alerts) {
		names = append(names, string(m))
	}
	return names
}

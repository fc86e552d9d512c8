package notifier

import (
	"context"
	"fmt"
	"strings"

	"eco-alarm/internal/models"

	"go.uber.org/zap"
)

// Outcome 一次发送的汇总结果
type Outcome struct {
	Success  bool                     `json:"success"`
	Attempts []models.DeliveryAttempt `json:"attempts"`
}

// Notifier 按配置的通道发送报警
// 每个通道先投递主联系人，失败后才尝试备用联系人；各通道互不影响
type Notifier struct {
	transport Transport
	logger    *zap.Logger
}

// NewNotifier 创建通知器
func NewNotifier(transport Transport, logger *zap.Logger) *Notifier {
	return &Notifier{
		transport: transport,
		logger:    logger,
	}
}

// Send 发送报警，任一通道成功即返回成功
func (n *Notifier) Send(ctx context.Context, alerts []models.BreachEvent, settings models.AlertSettings) Outcome {
	outcome := Outcome{Attempts: []models.DeliveryAttempt{}}
	message := BuildMessage(alerts)

	if settings.AlertMethod.UsesEmail() {
		ok, attempts := n.sendChannel(ctx, models.ChannelEmail,
			settings.ContactInfo.Email, settings.ContactInfo.SecondaryEmail, message)
		outcome.Attempts = append(outcome.Attempts, attempts...)
		outcome.Success = outcome.Success || ok
	}

	if settings.AlertMethod.UsesSMS() {
		ok, attempts := n.sendChannel(ctx, models.ChannelSMS,
			settings.ContactInfo.Phone, settings.ContactInfo.SecondaryPhone, message)
		outcome.Attempts = append(outcome.Attempts, attempts...)
		outcome.Success = outcome.Success || ok
	}

	return outcome
}

// sendChannel 单通道：主联系人 → 备用联系人，最多两次
func (n *Notifier) sendChannel(ctx context.Context, channel models.Channel, primary, secondary, message string) (bool, []models.DeliveryAttempt) {
	if primary == "" {
		n.logger.Debug("No primary contact configured, skipping channel",
			zap.String("channel", string(channel)),
		)
		return false, nil
	}

	first := n.attempt(ctx, channel, models.TierPrimary, primary, message)
	attempts := []models.DeliveryAttempt{first}
	if first.Success {
		return true, attempts
	}

	if secondary == "" {
		return false, attempts
	}

	second := n.attempt(ctx, channel, models.TierSecondary, secondary, message)
	attempts = append(attempts, second)
	return second.Success, attempts
}

func (n *Notifier) attempt(ctx context.Context, channel models.Channel, tier models.ContactTier, address, message string) models.DeliveryAttempt {
	a := models.DeliveryAttempt{
		Channel: channel,
		Tier:    tier,
		Address: address,
	}

	err := n.transport.Deliver(WithTier(ctx, tier), channel, address, message)
	if err != nil {
		a.Error = err.Error()
		n.logger.Warn("Alert delivery failed",
			zap.String("channel", string(channel)),
			zap.String("tier", string(tier)),
			zap.Error(err),
		)
		return a
	}

	a.Success = true
	n.logger.Info("Alert delivered",
		zap.String("channel", string(channel)),
		zap.String("tier", string(tier)),
	)
	return a
}

// BuildMessage 生成通知正文，每个越限事件一行
func BuildMessage(alerts []models.BreachEvent) string {
	var b strings.Builder
	b.WriteString("Environmental alert: the following readings are out of range.\n")
	for _, a := range alerts {
		fmt.Fprintf(&b, "- %s: %s (%s)\n", a.Type, FormatValue(a.Type, a.Value), a.Level)
	}
	return b.String()
}

// FormatValue 带单位的读数
func FormatValue(metric models.Metric, value float64) string {
	switch metric {
	case models.MetricTemperature:
		return fmt.Sprintf("%.1f°C", value)
	case models.MetricHumidity:
		return fmt.Sprintf("%.1f%%", value)
	case models.MetricCO2:
		return fmt.Sprintf("%.0f ppm", value)
	}
	return fmt.Sprintf("%g", value)
}

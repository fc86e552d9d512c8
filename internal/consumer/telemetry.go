package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"eco-alarm/internal/metrics"
	"eco-alarm/internal/models"

	"go.uber.org/zap"
)

// Subscriber MQTT 订阅能力（common/mqtt.Client 实现）
type Subscriber interface {
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte) error) error
	Unsubscribe(topics ...string) error
}

// TelemetrySubscriber 订阅传感器读数并写入读数缓存
// 主题格式：eco/<userID>/readings
type TelemetrySubscriber struct {
	cache  *CacheManager
	topic  string
	qos    byte
	logger *zap.Logger
	now    func() time.Time
}

// NewTelemetrySubscriber 创建遥测订阅者
func NewTelemetrySubscriber(cache *CacheManager, topic string, qos byte, logger *zap.Logger) *TelemetrySubscriber {
	return &TelemetrySubscriber{
		cache:  cache,
		topic:  topic,
		qos:    qos,
		logger: logger,
		now:    time.Now,
	}
}

// Start 订阅主题
func (s *TelemetrySubscriber) Start(sub Subscriber) error {
	if err := sub.Subscribe(s.topic, s.qos, s.HandleMessage); err != nil {
		return err
	}
	s.logger.Info("Telemetry subscriber started", zap.String("topic", s.topic))
	return nil
}

// Stop 取消订阅
func (s *TelemetrySubscriber) Stop(sub Subscriber) error {
	return sub.Unsubscribe(s.topic)
}

// HandleMessage 处理一条读数消息
func (s *TelemetrySubscriber) HandleMessage(topic string, payload []byte) error {
	userID, err := userIDFromTopic(topic)
	if err != nil {
		metrics.TelemetryMessagesTotal.WithLabelValues("rejected").Inc()
		return err
	}

	var reading models.Reading
	if err := json.Unmarshal(payload, &reading); err != nil {
		metrics.TelemetryMessagesTotal.WithLabelValues("rejected").Inc()
		return fmt.Errorf("failed to decode reading from %s: %w", topic, err)
	}
	metrics.TelemetryMessagesTotal.WithLabelValues("accepted").Inc()
	if reading.Timestamp == 0 {
		reading.Timestamp = s.now().Unix()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.cache.SetReading(ctx, userID, reading)
}

// userIDFromTopic 取主题第二段作为用户 ID
func userIDFromTopic(topic string) (string, error) {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 || parts[1] == "" {
		return "", fmt.Errorf("unexpected telemetry topic: %s", topic)
	}
	return parts[1], nil
}

package service

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	"eco-alarm/common/database"
	commonmqtt "eco-alarm/common/mqtt"
	commonredis "eco-alarm/common/redis"
	"eco-alarm/internal/config"
	"eco-alarm/internal/consumer"
	"eco-alarm/internal/cooldown"
	"eco-alarm/internal/notifier"
	"eco-alarm/internal/recommend"
	"eco-alarm/internal/repository"
	"eco-alarm/internal/settings"
	"eco-alarm/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// App 报警服务（整合各层）
// Redis / PostgreSQL 不可用时退化为内存实现，服务仍可运行
type App struct {
	config      *config.Config
	db          *sql.DB
	redisClient *redis.Client
	mqttClient  *commonmqtt.Client
	logger      *zap.Logger

	Alerts        *AlertService
	Notifications *NotificationService
	Recommender   *recommend.Client

	cacheManager  *consumer.CacheManager
	cacheConsumer *consumer.CacheConsumer
	telemetry     *consumer.TelemetrySubscriber
}

// NewApp 创建报警服务
func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	app := &App{config: cfg, logger: logger}

	// 1. 连接 Redis
	var kv store.KV
	var gate cooldown.Gate
	var outcomes OutcomeSink
	redisClient, err := commonredis.Connect(ctx, &cfg.Redis)
	if err != nil {
		logger.Warn("Redis unavailable, using in-memory stores",
			zap.String("addr", cfg.Redis.Addr),
			zap.Error(err),
		)
		kv = store.NewMemoryKV()
		gate = cooldown.NewMemoryGate(nil)
		outcomes = NewMemoryOutcomeSink(int(cfg.Alarm.Outcomes.MaxLen))
	} else {
		app.redisClient = redisClient
		kv = store.NewRedisKV(redisClient)
		gate = cooldown.NewRedisGate(redisClient)
		outcomes = NewRedisOutcomeSink(redisClient, cfg.Alarm.Outcomes.Stream, cfg.Alarm.Outcomes.MaxLen)
	}

	// 2. 连接数据库（可选）
	var history repository.NotificationsRepo = repository.NewMemoryNotificationsRepo(1000)
	if cfg.DBEnabled {
		db, err := database.NewPostgresDB(ctx, &cfg.Database)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to connect database: %w", err)
		}
		app.db = db

		repo := repository.NewPostgresNotificationsRepo(db, logger)
		if err := repo.EnsureSchema(ctx); err != nil {
			app.Close()
			return nil, err
		}
		history = repo
	}

	// 3. 通知通道
	transport := buildTransport(cfg, logger)

	// 4. 业务层
	settingsStore := settings.NewStore(kv, cfg.Alarm.Cache.SettingsKeyPrefix, logger)
	app.Alerts = NewAlertService(
		cfg,
		settingsStore,
		notifier.NewNotifier(transport, logger),
		gate,
		outcomes,
		history,
		logger,
	)
	app.Notifications = NewNotificationService(history, logger)
	app.Recommender = recommend.NewClient(cfg.Recommend.Endpoint, cfg.Recommend.APIKey, cfg.Recommend.Timeout, logger)

	// 5. 读数缓存 + 轮询
	app.cacheManager = consumer.NewCacheManager(cfg, kv, logger)
	app.cacheConsumer = consumer.NewCacheConsumer(cfg, app.cacheManager, logger)

	// 6. MQTT 遥测（可选）
	if cfg.MQTT.Enabled {
		mqttClient, err := commonmqtt.NewClient(&cfg.MQTT.MQTTConfig, logger)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to connect mqtt: %w", err)
		}
		app.mqttClient = mqttClient
		app.telemetry = consumer.NewTelemetrySubscriber(app.cacheManager, cfg.MQTT.Topic, cfg.MQTT.QoS, logger)
	}

	return app, nil
}

// buildTransport 按配置组装邮件/短信通道，未配置的通道按需使用模拟通道
func buildTransport(cfg *config.Config, logger *zap.Logger) notifier.Transport {
	var simulated notifier.Transport
	if cfg.Alarm.Simulate {
		simulated = notifier.NewSimulatedTransport(rand.New(rand.NewSource(time.Now().UnixNano())), logger)
	}

	var email, sms notifier.Transport = simulated, simulated
	if cfg.SMTP.IsConfigured() {
		email = notifier.NewEmailTransport(cfg.SMTP, logger)
	}
	if cfg.SMS.IsConfigured() {
		sms = notifier.NewSMSTransport(cfg.SMS)
	}

	logger.Info("Notification transports configured",
		zap.Bool("smtp", cfg.SMTP.IsConfigured()),
		zap.Bool("sms_gateway", cfg.SMS.IsConfigured()),
		zap.Bool("simulated_fallback", cfg.Alarm.Simulate),
	)
	return notifier.NewRouter(email, sms)
}

// Readings 读数缓存
func (a *App) Readings() *consumer.CacheManager {
	return a.cacheManager
}

// Start 启动后台任务（MQTT 订阅 + 轮询），阻塞到 ctx 取消
func (a *App) Start(ctx context.Context) error {
	a.logger.Info("Starting alarm service")

	if a.telemetry != nil {
		if err := a.telemetry.Start(a.mqttClient); err != nil {
			return fmt.Errorf("failed to start telemetry subscriber: %w", err)
		}
	}

	if err := a.cacheConsumer.Start(ctx, a.Alerts); err != nil {
		return fmt.Errorf("failed to start cache consumer: %w", err)
	}
	return nil
}

// Ready 依赖健康检查
func (a *App) Ready(ctx context.Context) map[string]string {
	status := map[string]string{"redis": "memory", "database": "memory", "mqtt": "disabled"}
	if a.redisClient != nil {
		status["redis"] = "ok"
		if err := commonredis.Ping(ctx, a.redisClient); err != nil {
			status["redis"] = err.Error()
		}
	}
	if a.db != nil {
		status["database"] = "ok"
		if err := a.db.PingContext(ctx); err != nil {
			status["database"] = err.Error()
		}
	}
	if a.mqttClient != nil {
		status["mqtt"] = "ok"
		if !a.mqttClient.IsConnected() {
			status["mqtt"] = "disconnected"
		}
	}
	return status
}

// Close 释放连接
func (a *App) Close() {
	a.logger.Info("Stopping alarm service")

	if a.telemetry != nil && a.mqttClient != nil {
		if err := a.telemetry.Stop(a.mqttClient); err != nil {
			a.logger.Warn("Failed to unsubscribe telemetry", zap.Error(err))
		}
	}
	if a.mqttClient != nil {
		a.mqttClient.Disconnect()
	}

	if err := database.Close(a.db); err != nil {
		a.logger.Error("Failed to close database",
			zap.Error(err),
		)
	}

	if a.redisClient != nil {
		if err := commonredis.Close(a.redisClient); err != nil {
			a.logger.Error("Failed to close redis",
				zap.Error(err),
			)
		}
	}
}

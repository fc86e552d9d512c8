package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eco-alarm/common/logger"
	"eco-alarm/internal/config"
	httpapi "eco-alarm/internal/http"
	"eco-alarm/internal/service"

	"go.uber.org/zap"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. 初始化日志
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "eco-alarm")
	if err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer log.Sync()

	// 3. 创建上下文（支持优雅关闭）
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. 创建服务
	app, err := service.NewApp(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to create alarm service",
			zap.Error(err),
		)
	}
	defer app.Close()

	// 5. HTTP 路由
	router := httpapi.NewRouter(log)
	router.RegisterAlertRoutes(
		httpapi.NewAlertHandler(app.Alerts, app.Readings(), app.Recommender, log),
		httpapi.NewNotificationHandler(app.Notifications, log),
		[]byte(cfg.HTTP.JWTSecret),
	)
	router.RegisterOpsRoutes(app.Ready)
	srv := service.NewServer(cfg.HTTP.Addr, httpapi.Chain(router, httpapi.Recovery(log), httpapi.Logging(log)), log)

	// 6. 启动后台任务和 HTTP 服务
	errChan := make(chan error, 2)
	go func() {
		if err := app.Start(ctx); err != nil {
			errChan <- err
		}
	}()
	go func() {
		if err := srv.Start(); err != nil {
			errChan <- err
		}
	}()

	// 7. 等待信号（优雅关闭）
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info("Received signal, shutting down",
			zap.String("signal", sig.String()),
		)
	case err := <-errChan:
		log.Error("Service error, shutting down",
			zap.Error(err),
		)
	}
	cancel() // 取消上下文，停止轮询

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Warn("HTTP server shutdown error", zap.Error(err))
	}

	log.Info("Alarm service stopped")
}

package service

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server eco-alarm 的 HTTP 入口；Stop 之后 Start/Serve 返回 nil
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

func NewServer(addr string, handler http.Handler, logger *zap.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			// 导出 Excel 可能较慢
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  2 * time.Minute,
		},
		logger: logger,
	}
}

// Start 监听配置的地址并阻塞处理请求
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve 在给定 listener 上处理请求
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("eco-alarm HTTP server listening", zap.String("addr", ln.Addr().String()))
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop 优雅关闭，等待进行中的请求直到 ctx 到期
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("eco-alarm HTTP server stopping")
	return s.httpServer.Shutdown(ctx)
}

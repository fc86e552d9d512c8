package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler 支持 http.Handler 接口（用于 /metrics 等）
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterAlertRoutes 注册报警相关路由（需要 Bearer JWT）
func (r *Router) RegisterAlertRoutes(a *AlertHandler, n *NotificationHandler, jwtSecret []byte) {
	authed := func(h http.HandlerFunc) http.Handler {
		return Chain(h, RequireAuth(jwtSecret))
	}

	r.HandleHandler("/api/v1/alert-settings", authed(a.Settings))
	r.HandleHandler("/api/v1/alert-settings/defaults", http.HandlerFunc(a.DefaultSettings))
	r.HandleHandler("/api/v1/readings", authed(a.SubmitReading))
	r.HandleHandler("/api/v1/readings/evaluate", authed(a.EvaluateReading))
	r.HandleHandler("/api/v1/alert-outcomes", authed(a.Outcomes))
	r.HandleHandler("/api/v1/recommendations", authed(a.Recommendations))

	if n != nil {
		r.HandleHandler("/api/v1/notifications", authed(n.ListNotifications))
		r.HandleHandler("/api/v1/notifications/export", authed(n.ExportNotifications))
	}
}

// ReadinessFunc 返回各依赖状态
type ReadinessFunc func(ctx context.Context) map[string]string

// RegisterOpsRoutes 注册 /healthz 与 /metrics
func (r *Router) RegisterOpsRoutes(ready ReadinessFunc) {
	r.Handle("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		status := map[string]string{}
		if ready != nil {
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()
			status = ready(ctx)
		}
		writeJSON(w, http.StatusOK, Ok(status))
	})
	r.HandleHandler("/metrics", promhttp.Handler())
}

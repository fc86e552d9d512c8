package httpapi

import (
	"errors"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"eco-alarm/internal/auth"
	"eco-alarm/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// responseWriter 记录状态码和响应大小
type responseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (rw *responseWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if rw.status == 0 {
		rw.status = http.StatusOK
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// unmatchedRoute 未命中任何路由的请求统一归到这个 endpoint 标签
const unmatchedRoute = "unmatched"

// routeLabel 用 ServeMux 命中的 pattern 作指标标签，避免按原始路径产生无界序列
func routeLabel(r *http.Request) string {
	if r.Pattern == "" {
		return unmatchedRoute
	}
	return r.Pattern
}

// Logging 请求日志 + 指标
func Logging(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.New().String()
			}
			w.Header().Set("X-Request-ID", requestID)

			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)

			duration := time.Since(start)
			logger.Debug("request completed",
				zap.String("request_id", requestID),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rw.status),
				zap.Int("response_size", rw.size),
				zap.Duration("duration", duration),
			)

			// ServeMux 在同一个 *http.Request 上记录命中的 pattern
			route := routeLabel(r)
			status := strconv.Itoa(rw.status)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route, status).Observe(duration.Seconds())
		})
	}
}

// Recovery 捕获 handler panic
func Recovery(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered",
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.Any("panic", err),
						zap.ByteString("stack", debug.Stack()),
					)
					writeJSON(w, http.StatusInternalServerError, Fail("internal server error"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth 校验 Bearer JWT，将用户 ID 写入 context
func RequireAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, Fail("authentication required"))
				return
			}

			claims, err := auth.ValidateToken(token, secret)
			if err != nil {
				if errors.Is(err, auth.ErrExpiredToken) {
					writeJSON(w, http.StatusUnauthorized, TokenExpired())
					return
				}
				writeJSON(w, http.StatusUnauthorized, Fail("invalid token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), claims.Subject)))
		})
	}
}

// Chain 按顺序套用中间件
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// userIDFromReq 取认证后的用户 ID
func userIDFromReq(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Fail("authentication required"))
		return "", false
	}
	return userID, true
}

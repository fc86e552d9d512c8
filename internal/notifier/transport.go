package notifier

import (
	"context"
	"errors"
	"fmt"

	"eco-alarm/internal/models"
)

// ErrChannelNotConfigured 通道没有可用的传输实现
var ErrChannelNotConfigured = errors.New("notification channel not configured")

// Transport 投递一条通知到指定地址，失败返回 error
type Transport interface {
	Deliver(ctx context.Context, channel models.Channel, address, message string) error
}

// TransportFunc 函数适配器
type TransportFunc func(ctx context.Context, channel models.Channel, address, message string) error

func (f TransportFunc) Deliver(ctx context.Context, channel models.Channel, address, message string) error {
	return f(ctx, channel, address, message)
}

// Router 按通道选择传输实现
type Router struct {
	routes map[models.Channel]Transport
}

// NewRouter 创建路由；nil 的传输会被忽略
func NewRouter(email, sms Transport) *Router {
	r := &Router{routes: map[models.Channel]Transport{}}
	if email != nil {
		r.routes[models.ChannelEmail] = email
	}
	if sms != nil {
		r.routes[models.ChannelSMS] = sms
	}
	return r
}

func (r *Router) Deliver(ctx context.Context, channel models.Channel, address, message string) error {
	t, ok := r.routes[channel]
	if !ok {
		return fmt.Errorf("%w: %s", ErrChannelNotConfigured, channel)
	}
	return t.Deliver(ctx, channel, address, message)
}

type tierKey struct{}

// WithTier 在 context 中标记当前投递的联系人层级
func WithTier(ctx context.Context, tier models.ContactTier) context.Context {
	return context.WithValue(ctx, tierKey{}, tier)
}

// TierFromContext 读取联系人层级，默认 primary
func TierFromContext(ctx context.Context) models.ContactTier {
	if tier, ok := ctx.Value(tierKey{}).(models.ContactTier); ok {
		return tier
	}
	return models.TierPrimary
}

package notifier

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"eco-alarm/internal/models"

	"go.uber.org/zap"
)

// 开发模式下的模拟成功率
const (
	SimulatedPrimarySuccessRate   = 0.7
	SimulatedSecondarySuccessRate = 0.9
)

// ErrSimulatedFailure 模拟投递失败
var ErrSimulatedFailure = errors.New("simulated delivery failure")

// SimulatedTransport 不真正发送，按概率返回成功/失败（无 SMTP/短信网关时使用）
type SimulatedTransport struct {
	mu     sync.Mutex
	rng    *rand.Rand
	logger *zap.Logger
}

// NewSimulatedTransport 创建模拟传输；rng 为 nil 时使用时间种子
func NewSimulatedTransport(rng *rand.Rand, logger *zap.Logger) *SimulatedTransport {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &SimulatedTransport{rng: rng, logger: logger}
}

func (t *SimulatedTransport) Deliver(ctx context.Context, channel models.Channel, address, message string) error {
	rate := SimulatedPrimarySuccessRate
	tier := TierFromContext(ctx)
	if tier == models.TierSecondary {
		rate = SimulatedSecondarySuccessRate
	}

	t.mu.Lock()
	roll := t.rng.Float64()
	t.mu.Unlock()

	t.logger.Info("Simulated alert delivery",
		zap.String("channel", string(channel)),
		zap.String("tier", string(tier)),
		zap.Bool("success", roll < rate),
	)

	if roll >= rate {
		return ErrSimulatedFailure
	}
	return nil
}

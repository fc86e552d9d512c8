package notifier

import (
	"context"
	"math/rand"
	"testing"

	"eco-alarm/internal/models"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// fixedSource 让 Float64() 恒定返回 v
type fixedSource struct{ v float64 }

func (s fixedSource) Int63() int64 { return int64(s.v * (1 << 63)) }
func (s fixedSource) Seed(int64)   {}

func TestSimulatedTransport_TierRates(t *testing.T) {
	// 0.8：主联系人（0.7）失败，备用联系人（0.9）成功
	st := NewSimulatedTransport(rand.New(fixedSource{v: 0.8}), zap.NewNop())
	ctx := context.Background()

	err := st.Deliver(WithTier(ctx, models.TierPrimary), models.ChannelEmail, "a@example.com", "msg")
	assert.ErrorIs(t, err, ErrSimulatedFailure)

	err = st.Deliver(WithTier(ctx, models.TierSecondary), models.ChannelEmail, "b@example.com", "msg")
	assert.NoError(t, err)
}

func TestSimulatedTransport_WithNotifier(t *testing.T) {
	st := NewSimulatedTransport(rand.New(fixedSource{v: 0.5}), zap.NewNop())
	n := NewNotifier(st, zap.NewNop())

	outcome := n.Send(context.Background(), criticalTemp, settingsWith(models.AlertMethodEmail, models.ContactInfo{
		Email: "a@example.com",
	}))

	assert.True(t, outcome.Success)
	assert.Len(t, outcome.Attempts, 1)
}

func TestSimulatedTransport_Distribution(t *testing.T) {
	st := NewSimulatedTransport(rand.New(rand.NewSource(42)), zap.NewNop())
	ctx := context.Background()

	ok := 0
	const runs = 2000
	for i := 0; i < runs; i++ {
		if st.Deliver(ctx, models.ChannelEmail, "a@example.com", "msg") == nil {
			ok++
		}
	}

	rate := float64(ok) / runs
	assert.InDelta(t, SimulatedPrimarySuccessRate, rate, 0.05)
}

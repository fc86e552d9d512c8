package consumer

import (
	"context"
	"sync"
	"testing"
	"time"

	"eco-alarm/internal/models"
	"eco-alarm/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingNotifier struct {
	mu    sync.Mutex
	calls map[string]models.Reading
	order []string
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{calls: map[string]models.Reading{}}
}

func (n *recordingNotifier) NotifyUser(_ context.Context, userID string, reading models.Reading) models.EvaluationResult {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls[userID] = reading
	n.order = append(n.order, userID)
	return models.EvaluationResult{Alerts: []models.BreachEvent{}}
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.order)
}

func TestCacheConsumer_EvaluateAll(t *testing.T) {
	cache := NewCacheManager(testConfig(), store.NewMemoryKV(), zap.NewNop())
	ctx := context.Background()

	for _, id := range []string{"user-c", "user-a", "user-b"} {
		require.NoError(t, cache.SetReading(ctx, id, models.Reading{Temperature: 31}))
	}

	notifier := newRecordingNotifier()
	consumer := NewCacheConsumer(testConfig(), cache, zap.NewNop())

	require.NoError(t, consumer.EvaluateAll(ctx, notifier))

	assert.Equal(t, []string{"user-a", "user-b", "user-c"}, notifier.order)
	assert.Equal(t, 31.0, notifier.calls["user-b"].Temperature)
}

func TestCacheConsumer_EvaluateAll_CancelledContext(t *testing.T) {
	cache := NewCacheManager(testConfig(), store.NewMemoryKV(), zap.NewNop())
	require.NoError(t, cache.SetReading(context.Background(), "user-a", models.Reading{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	notifier := newRecordingNotifier()
	err := NewCacheConsumer(testConfig(), cache, zap.NewNop()).EvaluateAll(ctx, notifier)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, notifier.count())
}

func TestCacheConsumer_StartStopsOnCancel(t *testing.T) {
	cache := NewCacheManager(testConfig(), store.NewMemoryKV(), zap.NewNop())
	require.NoError(t, cache.SetReading(context.Background(), "user-a", models.Reading{}))

	notifier := newRecordingNotifier()
	consumer := NewCacheConsumer(testConfig(), cache, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- consumer.Start(ctx, notifier) }()

	assert.Eventually(t, func() bool { return notifier.count() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}

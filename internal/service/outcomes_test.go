package service

import (
	"context"
	"testing"
	"time"

	"eco-alarm/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisOutcomeSink_PublishLatest(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	sink := NewRedisOutcomeSink(client, "eco:alert-outcomes", 100)
	ctx := context.Background()

	for i, msg := range []string{"first", "second", "third"} {
		require.NoError(t, sink.Publish(ctx, models.AlertOutcome{
			UserID:    "user-1",
			Success:   i%2 == 0,
			Message:   msg,
			CreatedAt: time.Unix(int64(1700000000+i), 0).UTC(),
		}))
	}
	require.NoError(t, sink.Publish(ctx, models.AlertOutcome{UserID: "user-2", Message: "other"}))

	assert.True(t, mr.Exists("eco:alert-outcomes:user-1"))

	latest, err := sink.Latest(ctx, "user-1", 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "third", latest[0].Message)
	assert.Equal(t, "second", latest[1].Message)
	assert.False(t, latest[1].Success)
}

func TestRedisOutcomeSink_EmptyStream(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	latest, err := NewRedisOutcomeSink(client, "eco:alert-outcomes", 0).Latest(context.Background(), "nobody", 5)

	require.NoError(t, err)
	assert.Empty(t, latest)
}

func TestMemoryOutcomeSink_TrimsAndOrders(t *testing.T) {
	sink := NewMemoryOutcomeSink(2)
	ctx := context.Background()

	for _, msg := range []string{"a", "b", "c"} {
		require.NoError(t, sink.Publish(ctx, models.AlertOutcome{UserID: "u", Message: msg}))
	}

	latest, err := sink.Latest(ctx, "u", 10)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "c", latest[0].Message)
	assert.Equal(t, "b", latest[1].Message)
}

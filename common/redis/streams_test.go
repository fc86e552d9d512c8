package redis

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiniRedis(t *testing.T) *redis.Client {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestPublishToStream_StringifiesValues(t *testing.T) {
	client := setupMiniRedis(t)
	ctx := context.Background()

	id, err := PublishToStream(ctx, client, "test:stream", 0, map[string]interface{}{
		"s":    "text",
		"n":    42,
		"ok":   true,
		"list": []string{"a", "b"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	msgs, err := ReadLatestFromStream(ctx, client, "test:stream", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "text", msgs[0].Values["s"])
	assert.Equal(t, "42", msgs[0].Values["n"])
	assert.Equal(t, "true", msgs[0].Values["ok"])
	assert.Equal(t, `["a","b"]`, msgs[0].Values["list"])
}

func TestReadLatestFromStream_NewestFirst(t *testing.T) {
	client := setupMiniRedis(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		_, err := PublishJSONToStream(ctx, client, "test:stream", 0, map[string]int{"seq": i})
		require.NoError(t, err)
	}

	msgs, err := ReadLatestFromStream(ctx, client, "test:stream", 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	var first map[string]int
	require.NoError(t, json.Unmarshal([]byte(msgs[0].Values["data"].(string)), &first))
	assert.Equal(t, 3, first["seq"])
	assert.Contains(t, msgs[0].Values, "timestamp")
}

func TestReadLatestFromStream_Empty(t *testing.T) {
	client := setupMiniRedis(t)

	msgs, err := ReadLatestFromStream(context.Background(), client, "missing", 5)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

package settings

import (
	"context"
	"errors"
	"testing"
	"time"

	"eco-alarm/internal/models"
	"eco-alarm/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingKV struct{}

func (failingKV) Get(context.Context, string) (string, error) {
	return "", errors.New("connection refused")
}
func (failingKV) Set(context.Context, string, string, time.Duration) error {
	return errors.New("connection refused")
}
func (failingKV) Incr(context.Context, string) (int64, error) {
	return 0, errors.New("connection refused")
}
func (failingKV) ScanKeys(context.Context, string) ([]string, error) {
	return nil, errors.New("connection refused")
}

func newMemoryStore(t *testing.T) (*store.MemoryKV, *Store) {
	kv := store.NewMemoryKV()
	return kv, NewStore(kv, "", zap.NewNop())
}

func TestStore_Load_Empty(t *testing.T) {
	_, s := newMemoryStore(t)

	got := s.Load(context.Background(), "user-1")

	assert.Equal(t, models.DefaultAlertSettings(), got)
}

func TestStore_Load_Corrupt(t *testing.T) {
	kv, s := newMemoryStore(t)
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, DefaultKeyPrefix+"user-1", "{not json", 0))

	got := s.Load(ctx, "user-1")

	assert.Equal(t, models.DefaultAlertSettings(), got)
}

func TestStore_Load_WrongTypeIsCorrupt(t *testing.T) {
	kv, s := newMemoryStore(t)
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, DefaultKeyPrefix+"user-1", `{"enabled":"yes","alertMethod":"sms"}`, 0))

	got := s.Load(ctx, "user-1")

	assert.Equal(t, models.DefaultAlertSettings(), got)
}

func TestStore_Load_StorageErrorFallsBack(t *testing.T) {
	s := NewStore(failingKV{}, "", zap.NewNop())

	got := s.Load(context.Background(), "user-1")

	assert.Equal(t, models.DefaultAlertSettings(), got)
}

func TestStore_Load_BackfillsNestedFields(t *testing.T) {
	kv, s := newMemoryStore(t)
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, DefaultKeyPrefix+"user-1", `{"enabled":false}`, 0))

	got := s.Load(ctx, "user-1")

	want := models.DefaultAlertSettings()
	want.Enabled = false
	assert.Equal(t, want, got)
}

func TestStore_Load_BackfillsSecondaryContacts(t *testing.T) {
	kv, s := newMemoryStore(t)
	ctx := context.Background()
	// 旧版本数据：没有 secondaryEmail / secondaryPhone，且只配置了部分阈值
	stored := `{
		"enabled": true,
		"alertMethod": "both",
		"contactInfo": {"email": "a@example.com", "phone": "+15550001"},
		"thresholds": {"co2": {"high": 900}}
	}`
	require.NoError(t, kv.Set(ctx, DefaultKeyPrefix+"user-1", stored, 0))

	got := s.Load(ctx, "user-1")

	assert.Equal(t, models.AlertMethodBoth, got.AlertMethod)
	assert.Equal(t, "a@example.com", got.ContactInfo.Email)
	assert.Equal(t, "", got.ContactInfo.SecondaryEmail)
	assert.Equal(t, "+15550001", got.ContactInfo.Phone)
	assert.Equal(t, float64(900), got.Thresholds.CO2.High)
	assert.Equal(t, float64(1200), got.Thresholds.CO2.Critical)
	assert.Equal(t, models.DefaultAlertSettings().Thresholds.Temperature, got.Thresholds.Temperature)
	assert.Equal(t, models.DefaultAlertSettings().Thresholds.Humidity, got.Thresholds.Humidity)
}

func TestStore_Load_NullNestedObject(t *testing.T) {
	kv, s := newMemoryStore(t)
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, DefaultKeyPrefix+"user-1", `{"contactInfo":null,"thresholds":null}`, 0))

	got := s.Load(ctx, "user-1")

	assert.Equal(t, models.DefaultAlertSettings(), got)
}

func TestStore_SaveThenLoad_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	s := NewStore(store.NewRedisKV(client), "", zap.NewNop())
	ctx := context.Background()

	in := models.DefaultAlertSettings()
	in.AlertMethod = models.AlertMethodSMS
	in.ContactInfo.Phone = "+15550001"
	in.ContactInfo.SecondaryPhone = "+15550002"
	in.Thresholds.Temperature = models.ThresholdPair{High: 25, Critical: 27}

	require.NoError(t, s.Save(ctx, "user-1", in))
	assert.Equal(t, in, s.Load(ctx, "user-1"))

	version, err := s.Version(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	// 后写覆盖
	in.Enabled = false
	require.NoError(t, s.Save(ctx, "user-1", in))
	assert.False(t, s.Load(ctx, "user-1").Enabled)

	version, err = s.Version(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
}

func TestStore_Version_NeverSaved(t *testing.T) {
	_, s := newMemoryStore(t)

	version, err := s.Version(context.Background(), "nobody")

	require.NoError(t, err)
	assert.Equal(t, int64(0), version)
}

func TestStore_Save_StorageError(t *testing.T) {
	s := NewStore(failingKV{}, "", zap.NewNop())

	err := s.Save(context.Background(), "user-1", models.DefaultAlertSettings())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save alert settings")
}

// incrFailingKV 写入正常、版本递增失败
type incrFailingKV struct {
	*store.MemoryKV
}

func (incrFailingKV) Incr(context.Context, string) (int64, error) {
	return 0, errors.New("incr refused")
}

func TestStore_Save_VersionBumpFailureStillSaves(t *testing.T) {
	kv := incrFailingKV{MemoryKV: store.NewMemoryKV()}
	s := NewStore(kv, "", zap.NewNop())
	ctx := context.Background()

	settings := models.DefaultAlertSettings()
	settings.ContactInfo.Email = "a@example.com"

	require.NoError(t, s.Save(ctx, "user-1", settings))
	assert.Equal(t, settings, s.Load(ctx, "user-1"))

	version, err := s.Version(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)
}

func TestMerge_KeepsExplicitZeroValues(t *testing.T) {
	base := models.DefaultAlertSettings()
	base.ContactInfo.Email = "default@example.com"

	got, err := Merge(base, []byte(`{"contactInfo":{"email":""},"thresholds":{"humidity":{"high":0}}}`))

	require.NoError(t, err)
	assert.Equal(t, "", got.ContactInfo.Email)
	assert.Equal(t, float64(0), got.Thresholds.Humidity.High)
	assert.Equal(t, float64(80), got.Thresholds.Humidity.Critical)
	assert.True(t, got.Enabled)
}

package navigationRepository

import (
	"FocusDetect/internal/api/navigation"
	"FocusDetect/internal/entity"
	"FocusDetect/pkg/redis"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fakeRedis struct {
	mu     sync.Mutex
	values map[string]string
	ttls   map[string]time.Duration
	err    error

	refreshes int
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) SetValue(_ context.Context, key, value string, exp time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.values[key] = value
	f.ttls[key] = exp
	return nil
}

func (f *fakeRedis) GetValue(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	v, ok := f.values[key]
	if !ok {
		return "", redis.ErrNotFound
	}
	return v, nil
}

func (f *fakeRedis) GetAndRefresh(ctx context.Context, key string, exp time.Duration) (string, error) {
	v, err := f.GetValue(ctx, key)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	f.ttls[key] = exp
	f.refreshes++
	f.mu.Unlock()
	return v, nil
}

func (f *fakeRedis) DeleteValue(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.values, key)
	return nil
}

func (f *fakeRedis) Ping(context.Context) error { return f.err }
func (f *fakeRedis) Close() error               { return nil }

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository(time.Hour, quietLogger())

	_, err := repo.GetState(ctx, "s1")
	assert.ErrorIs(t, err, navigation.ErrSessionNotFound)

	require.NoError(t, repo.SetState(ctx, "s1", entity.UIStateWebcam))
	require.NoError(t, repo.SetState(ctx, "s2", entity.UIStateUpload))

	got, err := repo.GetState(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, entity.UIStateWebcam, got)

	got, err = repo.GetState(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, entity.UIStateUpload, got)
}

func TestMemoryRepositoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

	repo := newMemoryRepository(time.Minute, quietLogger())
	repo.now = func() time.Time { return now }

	require.NoError(t, repo.SetState(ctx, "s1", entity.UIStateUpload))

	now = now.Add(59 * time.Second)
	got, err := repo.GetState(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, entity.UIStateUpload, got)

	now = now.Add(2 * time.Second)
	got, err = repo.GetState(ctx, "s1")
	assert.ErrorIs(t, err, navigation.ErrSessionNotFound)
	assert.Equal(t, entity.UIStateLanding, got)
	assert.Equal(t, 0, repo.len())
}

func TestMemoryRepositoryReadsKeepSessionAlive(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

	repo := newMemoryRepository(time.Minute, quietLogger())
	repo.now = func() time.Time { return now }

	require.NoError(t, repo.SetState(ctx, "s1", entity.UIStateWebcam))

	// Reloading every 45s for five minutes never leaves the session idle
	// for a full minute.
	for i := 0; i < 7; i++ {
		now = now.Add(45 * time.Second)
		got, err := repo.GetState(ctx, "s1")
		require.NoError(t, err, "read %d", i)
		assert.Equal(t, entity.UIStateWebcam, got)
	}

	now = now.Add(61 * time.Second)
	_, err := repo.GetState(ctx, "s1")
	assert.ErrorIs(t, err, navigation.ErrSessionNotFound)
}

func TestMemoryRepositorySweep(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

	repo := newMemoryRepository(time.Minute, quietLogger())
	repo.now = func() time.Time { return now }
	repo.sweepEvery = 3

	require.NoError(t, repo.SetState(ctx, "old1", entity.UIStateUpload))
	require.NoError(t, repo.SetState(ctx, "old2", entity.UIStateUpload))

	now = now.Add(time.Hour)
	require.NoError(t, repo.SetState(ctx, "fresh", entity.UIStateWebcam))

	assert.Equal(t, 1, repo.len())
}

func TestRedisRepository(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	repo := New(fake, 2*time.Hour, quietLogger())

	_, err := repo.GetState(ctx, "abc")
	assert.ErrorIs(t, err, navigation.ErrSessionNotFound)

	require.NoError(t, repo.SetState(ctx, "abc", entity.UIStateWebcam))
	assert.Equal(t, "webcam", fake.values["focusdetect:session:abc"])
	assert.Equal(t, 2*time.Hour, fake.ttls["focusdetect:session:abc"])

	fake.ttls["focusdetect:session:abc"] = time.Minute
	got, err := repo.GetState(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, entity.UIStateWebcam, got)
	assert.Equal(t, 2*time.Hour, fake.ttls["focusdetect:session:abc"])
	assert.Equal(t, 1, fake.refreshes)
}

func TestRedisRepositoryCorruptValue(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	fake.values["focusdetect:session:abc"] = "settings"

	repo := New(fake, time.Hour, quietLogger())
	got, err := repo.GetState(ctx, "abc")
	assert.ErrorIs(t, err, navigation.ErrSessionNotFound)
	assert.Equal(t, entity.UIStateLanding, got)
}

func TestRedisRepositoryBackendError(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	fake.err = errors.New("connection refused")

	repo := New(fake, time.Hour, quietLogger())
	_, err := repo.GetState(ctx, "abc")
	assert.EqualError(t, err, "connection refused")
	assert.Error(t, repo.SetState(ctx, "abc", entity.UIStateUpload))
}

func TestNewDefaultsToMemory(t *testing.T) {
	repo := New(nil, 0, quietLogger())
	mem, ok := repo.(*memoryRepository)
	require.True(t, ok)
	assert.Equal(t, DefaultSessionTTL, mem.ttl)
}

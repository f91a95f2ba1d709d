package limits

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, limit int, window time.Duration) (*Limiter, *miniredis.Miniredis, *time.Time) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	l := New(client, limit, window, WithClock(func() time.Time { return now }))
	return l, mr, &now
}

func TestAllow_first_use(t *testing.T) {
	l, _, _ := newTestLimiter(t, 1, 24*time.Hour)

	d, err := l.Allow(context.Background(), "device-1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
}

func TestAllow_denies_over_quota_and_reports_reset(t *testing.T) {
	l, _, now := newTestLimiter(t, 1, 24*time.Hour)

	first, err := l.Allow(context.Background(), "device-1")
	require.NoError(t, err)
	require.True(t, first.Allowed)

	*now = now.Add(2 * time.Hour)
	d, err := l.Allow(context.Background(), "device-1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	// Window resets 24h after the first (oldest) use, not after this denial.
	assert.Equal(t, now.Add(22*time.Hour), d.ResetAt)
}

func TestAllow_window_slides(t *testing.T) {
	l, _, now := newTestLimiter(t, 1, 24*time.Hour)

	_, err := l.Allow(context.Background(), "device-1")
	require.NoError(t, err)

	*now = now.Add(25 * time.Hour)
	d, err := l.Allow(context.Background(), "device-1")
	require.NoError(t, err)
	assert.True(t, d.Allowed, "use outside the window must be allowed again")
}

func TestAllow_devices_are_independent(t *testing.T) {
	l, _, _ := newTestLimiter(t, 1, 24*time.Hour)

	a, err := l.Allow(context.Background(), "device-a")
	require.NoError(t, err)
	b, err := l.Allow(context.Background(), "device-b")
	require.NoError(t, err)
	assert.True(t, a.Allowed)
	assert.True(t, b.Allowed)
}

func TestAllow_multi_use_quota(t *testing.T) {
	l, _, _ := newTestLimiter(t, 3, time.Hour)

	for i := 0; i < 3; i++ {
		d, err := l.Allow(context.Background(), "device-1")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "use %d", i+1)
		assert.Equal(t, 2-i, d.Remaining)
	}
	d, err := l.Allow(context.Background(), "device-1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
}

func TestAllow_redis_down_returns_error(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	l := New(client, 1, time.Hour)
	mr.Close()

	_, err := l.Allow(context.Background(), "device-1")
	assert.Error(t, err, "caller must see the failure to decide about degradation")
}

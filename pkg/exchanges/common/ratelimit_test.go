package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterHeader(t *testing.T) {
	rl := NewRateLimiter(1200, time.Minute, zerolog.Nop())
	rl.UpdateFromHeader("")
	rl.UpdateFromHeader("abc")
	used, _, _ := rl.Usage()
	assert.Zero(t, used)

	rl.UpdateFromHeader("600")
	used, limit, pct := rl.Usage()
	assert.Equal(t, 600, used)
	assert.Equal(t, 1200, limit)
	assert.InDelta(t, 50, pct, 1e-9)
	assert.False(t, rl.ShouldDelay())

	rl.UpdateFromHeader("1100")
	assert.True(t, rl.ShouldDelay())
}

func TestTimeSync(t *testing.T) {
	server := time.Now().UnixMilli() + 5000
	ts := NewTimeSync(func(context.Context) (int64, error) { return server, nil }, time.Minute, zerolog.Nop())
	assert.True(t, ts.Stale())

	require.NoError(t, ts.Sync(context.Background()))
	assert.False(t, ts.Stale())
	assert.InDelta(t, 5000, ts.Offset(), 100)

	failing := NewTimeSync(func(context.Context) (int64, error) { return 0, errors.New("down") }, 0, zerolog.Nop())
	assert.Error(t, failing.Sync(context.Background()))
	assert.True(t, failing.Stale())
}

func TestOrderStatusTerminal(t *testing.T) {
	assert.True(t, StatusFilled.Terminal())
	assert.True(t, StatusRejected.Terminal())
	assert.False(t, StatusNew.Terminal())
}

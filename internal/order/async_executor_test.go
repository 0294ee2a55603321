package order

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal-core/pkg/exchanges/common"
)

func TestAsyncExecutorDeliversResults(t *testing.T) {
	r := NewRouter(nil, NewPaperLedger(10000, 0), zerolog.Nop())
	ex := NewAsyncExecutor(r, 2, 10, zerolog.Nop())
	ex.Start(context.Background())

	for range 5 {
		require.True(t, ex.Submit(testOrder(ModePaper)))
	}
	ex.Close()

	n := 0
	for e := range ex.Results() {
		assert.True(t, e.Result.Filled())
		n++
	}
	assert.Equal(t, 5, n)
}

func TestAsyncExecutorQueueFull(t *testing.T) {
	b := &fakeBroker{res: common.OrderResult{Status: common.StatusFilled}, delay: 100 * time.Millisecond}
	r := NewRouter(b, nil, zerolog.Nop())
	ex := NewAsyncExecutor(r, 1, 1, zerolog.Nop())
	// workers not started so the queue stays full

	require.True(t, ex.Submit(testOrder(ModeLive)))
	assert.False(t, ex.Submit(testOrder(ModeLive)))

	select {
	case e := <-ex.Results():
		assert.Equal(t, StatusFailed, e.Result.Status)
		assert.Equal(t, "execution queue full", e.Result.Reason)
	case <-time.After(time.Second):
		t.Fatal("expected failed result for dropped order")
	}
}

func TestAsyncExecutorCanceledContext(t *testing.T) {
	r := NewRouter(nil, nil, zerolog.Nop())
	ex := NewAsyncExecutor(r, 1, 4, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.True(t, ex.Submit(testOrder(ModePaper)))
	ex.Start(ctx)
	ex.Close()

	e, ok := <-ex.Results()
	require.True(t, ok)
	assert.Equal(t, StatusFailed, e.Result.Status)
	assert.False(t, ex.Submit(testOrder(ModePaper)))
}

func TestAsyncExecutorCountsUnreportedRejections(t *testing.T) {
	r := NewRouter(&fakeBroker{}, nil, zerolog.Nop())
	// not started: nothing drains the queue or the results
	ex := NewAsyncExecutor(r, 1, 1, zerolog.Nop())

	require.True(t, ex.Submit(testOrder(ModeLive)))
	for range 2 {
		assert.False(t, ex.Submit(testOrder(ModeLive)))
	}
	assert.Zero(t, ex.Dropped())

	assert.False(t, ex.Submit(testOrder(ModeLive)))
	assert.Equal(t, uint64(1), ex.Dropped())

	ex.Close()
	n := 0
	for e := range ex.Results() {
		assert.Equal(t, "execution queue full", e.Result.Reason)
		n++
	}
	assert.Equal(t, 2, n)
}

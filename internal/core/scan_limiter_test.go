package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanLimiter_AcquireRelease(t *testing.T) {
	limiter := NewScanLimiter(2, time.Second)
	ctx := context.Background()

	assert.Equal(t, 0, limiter.ActiveCount())
	assert.Equal(t, 2, limiter.Available())

	require.NoError(t, limiter.Acquire(ctx))
	require.NoError(t, limiter.Acquire(ctx))
	assert.Equal(t, 2, limiter.ActiveCount())
	assert.Equal(t, 0, limiter.Available())

	limiter.Release()
	assert.Equal(t, 1, limiter.ActiveCount())
	limiter.Release()
	assert.Equal(t, 0, limiter.ActiveCount())
}

func TestScanLimiter_BlocksWhenFull(t *testing.T) {
	limiter := NewScanLimiter(1, 50*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, limiter.Acquire(ctx))
	defer limiter.Release()

	start := time.Now()
	err := limiter.Acquire(ctx)
	assert.ErrorIs(t, err, ErrTooManyScans)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
	assert.False(t, limiter.TryAcquire())
}

func TestScanLimiter_CallerCancellation(t *testing.T) {
	limiter := NewScanLimiter(1, time.Second)
	require.True(t, limiter.TryAcquire())
	defer limiter.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, limiter.Acquire(ctx), context.Canceled)
}

func TestScanLimiter_Defaults(t *testing.T) {
	limiter := NewScanLimiter(0, 0)
	assert.Equal(t, DefaultMaxConcurrentScans, limiter.MaxConcurrent())
	assert.Equal(t, ScanLimiterStatus{Active: 0, Available: DefaultMaxConcurrentScans, MaxConcurrent: DefaultMaxConcurrentScans}, limiter.Status())
}

func TestScanLimiter_WaitForDrain(t *testing.T) {
	limiter := NewScanLimiter(3, time.Second)
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Acquire(context.Background()))
		wg.Add(1)
		go func() {
			defer wg.Done()
			time.Sleep(20 * time.Millisecond)
			limiter.Release()
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, limiter.WaitForDrain(ctx))
	wg.Wait()
	assert.Equal(t, 0, limiter.ActiveCount())
}

func TestScanLimiter_WaitForDrainTimeout(t *testing.T) {
	limiter := NewScanLimiter(1, time.Second)
	require.True(t, limiter.TryAcquire())
	defer limiter.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, limiter.WaitForDrain(ctx), context.DeadlineExceeded)
}

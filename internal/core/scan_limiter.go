package core

// scan_limiter.go bounds how many full scans run at once.
//
// A dashboard scan reads every file under the data root into memory, so
// concurrent requests are admitted through a weighted semaphore. Requests
// that cannot get a slot within maxWait fail with ErrTooManyScans.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrTooManyScans is returned when every scan slot stays busy for the whole
// wait window. Clients should retry after a short delay.
var ErrTooManyScans = errors.New("too many concurrent scans, please try again later")

const (
	DefaultMaxConcurrentScans = 4
	DefaultMaxScanWait        = 30 * time.Second
)

// ScanLimiter admits at most maxConcurrent scans at a time.
type ScanLimiter struct {
	sem     *semaphore.Weighted
	size    int64
	maxWait time.Duration
	active  atomic.Int64
}

// NewScanLimiter creates a limiter. Non-positive arguments fall back to the
// defaults.
func NewScanLimiter(maxConcurrent int, maxWait time.Duration) *ScanLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentScans
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxScanWait
	}
	return &ScanLimiter{
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		size:    int64(maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire waits for a slot. The caller must Release on success.
func (l *ScanLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	if err := l.sem.Acquire(waitCtx, 1); err != nil {
		// Distinguish caller cancellation from our own wait timeout.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyScans
	}
	l.active.Add(1)
	return nil
}

// TryAcquire takes a slot without waiting.
func (l *ScanLimiter) TryAcquire() bool {
	if !l.sem.TryAcquire(1) {
		return false
	}
	l.active.Add(1)
	return true
}

// Release frees a slot taken by Acquire or TryAcquire.
func (l *ScanLimiter) Release() {
	l.active.Add(-1)
	l.sem.Release(1)
}

// ActiveCount returns the number of scans holding a slot.
func (l *ScanLimiter) ActiveCount() int {
	return int(l.active.Load())
}

// MaxConcurrent returns the slot count.
func (l *ScanLimiter) MaxConcurrent() int {
	return int(l.size)
}

// Available returns the number of free slots.
func (l *ScanLimiter) Available() int {
	return int(l.size - l.active.Load())
}

// WaitForDrain blocks until no scan holds a slot or ctx is done.
// Used during graceful shutdown.
func (l *ScanLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ScanLimiterStatus is a point-in-time view of slot usage.
type ScanLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state.
func (l *ScanLimiter) Status() ScanLimiterStatus {
	return ScanLimiterStatus{
		Active:        l.ActiveCount(),
		Available:     l.Available(),
		MaxConcurrent: l.MaxConcurrent(),
	}
}

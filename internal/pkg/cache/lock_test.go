package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLocker_SerializesSameKey(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(ctx, "product:1", time.Second)
			require.NoError(t, err)
			defer release()

			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
}

func TestLocalLocker_DifferentKeysDoNotBlock(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	releaseA, err := l.Acquire(ctx, "a", time.Second)
	require.NoError(t, err)
	defer releaseA()

	releaseB, err := l.Acquire(ctx, "b", time.Second)
	require.NoError(t, err)
	releaseB()
}

func TestLocalLocker_TimesOut(t *testing.T) {
	l := NewLocalLocker()

	release, err := l.Acquire(context.Background(), "k", time.Second)
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx, "k", time.Second)
	assert.True(t, errors.Is(err, ErrLockTimeout))
}

func TestLocalLocker_ReleaseIsIdempotent(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	release, err := l.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)
	release()
	release()

	release2, err := l.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)
	release2()
}

func (l *LocalLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func TestLocalLocker_ForgetsReleasedKeys(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		release, err := l.Acquire(ctx, fmt.Sprintf("pricing:product:%d", i), time.Second)
		require.NoError(t, err)
		release()
	}
	assert.Equal(t, 0, l.size())
}

func TestLocalLocker_KeepsKeyWhileWaitersRemain(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	release, err := l.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)

	acquired := make(chan func())
	go func() {
		r, err := l.Acquire(ctx, "k", time.Second)
		if err == nil {
			acquired <- r
		}
	}()

	require.Eventually(t, func() bool {
		l.mu.Lock()
		defer l.mu.Unlock()
		return l.locks["k"] != nil && l.locks["k"].refs == 2
	}, time.Second, time.Millisecond)

	release()
	second := <-acquired
	assert.Equal(t, 1, l.size())
	second()
	assert.Equal(t, 0, l.size())
}

func TestLocalLocker_TimedOutWaiterIsForgotten(t *testing.T) {
	l := NewLocalLocker()
	release, err := l.Acquire(context.Background(), "k", time.Second)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx, "k", time.Second)
	require.ErrorIs(t, err, ErrLockTimeout)

	release()
	assert.Equal(t, 0, l.size())
}

func TestSetupCache_WithoutHost(t *testing.T) {
	assert.Nil(t, SetupCache(Options{}))
	_, ok := NewLocker(nil).(*LocalLocker)
	assert.True(t, ok)
}

package lock

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workforce/backend/internal/pkg/apperr"
)

func TestLocal_SerializesSameKey(t *testing.T) {
	l := NewLocal(Options{Attempts: 100, Backoff: 50 * time.Millisecond})

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "shift:lock:1001:2026-03-02")
			require.NoError(t, err)
			defer unlock()

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
	assert.Empty(t, l.slots)
}

func TestLocal_IndependentKeys(t *testing.T) {
	l := NewLocal(Options{Attempts: 1, Backoff: 10 * time.Millisecond})

	unlockA, err := l.Lock(context.Background(), "shift:lock:1001:2026-03-02")
	require.NoError(t, err)
	defer unlockA()

	unlockB, err := l.Lock(context.Background(), "shift:lock:1001:2026-03-03")
	require.NoError(t, err)
	unlockB()
}

func TestLocal_Timeout(t *testing.T) {
	l := NewLocal(Options{Attempts: 2, Backoff: 5 * time.Millisecond})
	key := "shift:lock:1001:2026-03-02"

	unlock, err := l.Lock(context.Background(), key)
	require.NoError(t, err)

	_, err = l.Lock(context.Background(), key)
	assert.Equal(t, apperr.LockTimeout, apperr.KindOf(err))
	assert.True(t, apperr.Retryable(err))

	unlock()
	unlock()

	again, err := l.Lock(context.Background(), key)
	require.NoError(t, err)
	again()
}

func TestLocal_ContextCancelled(t *testing.T) {
	l := NewLocal(Options{Attempts: 1, Backoff: time.Minute})
	key := "shift:lock:1002:2026-03-02"

	unlock, err := l.Lock(context.Background(), key)
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = l.Lock(ctx, key)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocal_DropsUnusedSlots(t *testing.T) {
	l := NewLocal(Options{Attempts: 1, Backoff: 5 * time.Millisecond})

	for day := 1; day <= 30; day++ {
		unlock, err := l.Lock(context.Background(), fmt.Sprintf("shift:lock:1001:2026-03-%02d", day))
		require.NoError(t, err)
		unlock()
	}
	assert.Empty(t, l.slots)

	key := "shift:lock:1001:2026-04-01"
	unlock, err := l.Lock(context.Background(), key)
	require.NoError(t, err)

	_, err = l.Lock(context.Background(), key)
	assert.Equal(t, apperr.LockTimeout, apperr.KindOf(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Lock(ctx, key)
	assert.ErrorIs(t, err, context.Canceled)

	require.Len(t, l.slots, 1)
	assert.Equal(t, 1, l.slots[key].refs)

	unlock()
	unlock()
	assert.Empty(t, l.slots)
}

func TestOptions_Defaults(t *testing.T) {
	o := Options{Backoff: -1}.withDefaults()
	assert.Equal(t, 5*time.Second, o.TTL)
	assert.Equal(t, 3, o.Attempts)
	assert.Equal(t, time.Duration(0), o.Backoff)
}

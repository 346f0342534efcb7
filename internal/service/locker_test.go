package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"taskMaster/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedLocker_MutualExclusion(t *testing.T) {
	locker := service.NewKeyedLocker()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		inside  int
		maxSeen int
		mtx     sync.Mutex
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, "task-1")
			if !assert.NoError(t, err) {
				return
			}

			mtx.Lock()
			inside++
			maxSeen = max(maxSeen, inside)
			mtx.Unlock()

			time.Sleep(time.Millisecond)

			mtx.Lock()
			inside--
			mtx.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, locker.Len())
}

func TestKeyedLocker_DifferentKeysDoNotContend(t *testing.T) {
	locker := service.NewKeyedLocker()
	ctx := context.Background()

	unlockA, err := locker.Lock(ctx, "a")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	unlockB, err := locker.Lock(ctx, "b")
	require.NoError(t, err)
	unlockB()
}

func TestKeyedLocker_ContextCancelledWhileWaiting(t *testing.T) {
	locker := service.NewKeyedLocker()

	unlock, err := locker.Lock(context.Background(), "task-1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = locker.Lock(ctx, "task-1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, locker.Len())

	unlock()
	assert.Equal(t, 0, locker.Len())
}

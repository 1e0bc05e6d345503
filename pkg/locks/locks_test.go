package locks

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunLockLocalExclusivity(t *testing.T) {
	lock := NewRunLock(nil, time.Minute)
	ctx := context.Background()

	acquired, err := lock.Acquire(ctx, "assignment:program-1", "owner-a")
	require.NoError(t, err)
	require.True(t, acquired)

	acquired, err = lock.Acquire(ctx, "assignment:program-1", "owner-b")
	require.NoError(t, err)
	require.False(t, acquired)

	// Another program is independent.
	acquired, err = lock.Acquire(ctx, "assignment:program-2", "owner-b")
	require.NoError(t, err)
	require.True(t, acquired)
}

func TestRunLockReleaseChecksOwner(t *testing.T) {
	lock := NewRunLock(nil, time.Minute)
	ctx := context.Background()

	acquired, err := lock.Acquire(ctx, "assignment:program-1", "owner-a")
	require.NoError(t, err)
	require.True(t, acquired)

	// A foreign owner cannot release the lock.
	require.NoError(t, lock.Release(ctx, "assignment:program-1", "owner-b"))
	acquired, err = lock.Acquire(ctx, "assignment:program-1", "owner-b")
	require.NoError(t, err)
	require.False(t, acquired)

	require.NoError(t, lock.Release(ctx, "assignment:program-1", "owner-a"))
	acquired, err = lock.Acquire(ctx, "assignment:program-1", "owner-b")
	require.NoError(t, err)
	require.True(t, acquired)
}

func TestKeyedMutexSerializesPerKey(t *testing.T) {
	km := NewKeyedMutex()
	var counter int
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.Lock("group-1|2026-03-02")
			counter++
			km.Unlock("group-1|2026-03-02")
		}()
	}
	wg.Wait()
	require.Equal(t, 50, counter)
}

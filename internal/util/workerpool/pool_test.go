package workerpool_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NikodemGapski/storage-system/internal/util/workerpool"
)

func TestPool_ExecutesAllTasks(t *testing.T) {
	pool := workerpool.New(&workerpool.Config{Name: "test", MaxWorkers: 4, QueueSize: 8})

	var executed uint64
	for i := 0; i < 50; i++ {
		err := pool.Submit(context.Background(), workerpool.Task{
			ID: fmt.Sprintf("task-%d", i),
			Run: func(context.Context) error {
				atomic.AddUint64(&executed, 1)
				return nil
			},
		})
		require.NoError(t, err)
	}

	pool.Close()

	assert.Equal(t, uint64(50), atomic.LoadUint64(&executed))
	stats := pool.Stats()
	assert.Equal(t, uint64(50), stats.SubmittedTasks)
	assert.Equal(t, uint64(50), stats.CompletedTasks)
	assert.Equal(t, uint64(0), stats.FailedTasks)
}

func TestPool_CountsFailures(t *testing.T) {
	pool := workerpool.New(&workerpool.Config{Name: "test", MaxWorkers: 2, QueueSize: 4})

	require.NoError(t, pool.Submit(context.Background(), workerpool.Task{
		ID:  "failing",
		Run: func(context.Context) error { return fmt.Errorf("boom") },
	}))
	require.NoError(t, pool.Submit(context.Background(), workerpool.Task{
		ID:  "ok",
		Run: func(context.Context) error { return nil },
	}))

	pool.Close()

	stats := pool.Stats()
	assert.Equal(t, uint64(1), stats.CompletedTasks)
	assert.Equal(t, uint64(1), stats.FailedTasks)
}

func TestPool_RecoversFromPanic(t *testing.T) {
	pool := workerpool.New(&workerpool.Config{Name: "test", MaxWorkers: 1, QueueSize: 1})

	require.NoError(t, pool.Submit(context.Background(), workerpool.Task{
		ID:  "panicking",
		Run: func(context.Context) error { panic("boom") },
	}))
	require.NoError(t, pool.Submit(context.Background(), workerpool.Task{
		ID:  "after",
		Run: func(context.Context) error { return nil },
	}))

	pool.Close()

	stats := pool.Stats()
	assert.Equal(t, uint64(1), stats.FailedTasks)
	assert.Equal(t, uint64(1), stats.CompletedTasks)
}

func TestPool_SubmitHonorsContext(t *testing.T) {
	pool := workerpool.New(&workerpool.Config{Name: "test", MaxWorkers: 1, QueueSize: 1})
	defer pool.Close()

	block := make(chan struct{})
	defer close(block)

	// Occupy the single worker and fill the queue.
	require.NoError(t, pool.Submit(context.Background(), workerpool.Task{
		ID:  "blocker",
		Run: func(context.Context) error { <-block; return nil },
	}))
	require.Eventually(t, func() bool {
		return pool.Stats().ActiveWorkers == 1
	}, 2*time.Second, time.Millisecond)
	require.NoError(t, pool.Submit(context.Background(), workerpool.Task{
		ID:  "queued",
		Run: func(context.Context) error { return nil },
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := pool.Submit(ctx, workerpool.Task{
		ID:  "rejected",
		Run: func(context.Context) error { return nil },
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

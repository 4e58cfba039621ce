package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisQueue(t *testing.T) Queue {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedis(rdb)
}

func newMemoryQueue(*testing.T) Queue { return NewMemory() }

func TestQueues(t *testing.T) {
	impls := map[string]func(*testing.T) Queue{
		"memory": newMemoryQueue,
		"redis":  newRedisQueue,
	}
	for name, newQ := range impls {
		t.Run(name, func(t *testing.T) {
			t.Run("priority order", func(t *testing.T) { testPriorityOrder(t, newQ(t)) })
			t.Run("delayed", func(t *testing.T) { testDelayed(t, newQ(t)) })
			t.Run("retry reinserts", func(t *testing.T) { testRetry(t, newQ(t)) })
			t.Run("complete and fail", func(t *testing.T) { testCompleteAndFail(t, newQ(t)) })
			t.Run("requeue stale", func(t *testing.T) { testRequeueStale(t, newQ(t)) })
			t.Run("late finish after requeue", func(t *testing.T) { testLateFinishAfterRequeue(t, newQ(t)) })
		})
	}
}

func testPriorityOrder(t *testing.T, q Queue) {
	ctx := context.Background()
	now := time.Now()

	sweep := NewJob(KindSweep, "", PrioritySweep, now.Add(-time.Second), 3)
	normal := NewJob(KindSettleGame, "g1", PriorityNormal, now.Add(-time.Second), 3)
	urgent := NewJob(KindSettleGame, "g2", PriorityImmediate, now, 3)
	require.NoError(t, q.Enqueue(ctx, sweep))
	require.NoError(t, q.Enqueue(ctx, normal))
	require.NoError(t, q.Enqueue(ctx, urgent))

	var got []string
	for i := 0; i < 3; i++ {
		j, ok, err := q.Dequeue(ctx, now.Add(time.Millisecond))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, StateActive, j.State)
		got = append(got, j.ID)
	}
	assert.Equal(t, []string{urgent.ID, normal.ID, sweep.ID}, got)

	_, ok, err := q.Dequeue(ctx, now)
	require.NoError(t, err)
	assert.False(t, ok)
}

func testDelayed(t *testing.T, q Queue) {
	ctx := context.Background()
	now := time.Now()

	j := NewJob(KindSettleGame, "g1", PriorityNormal, now.Add(time.Hour), 3)
	require.NoError(t, q.Enqueue(ctx, j))

	st, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.Delayed)
	assert.Equal(t, int64(0), st.Waiting)

	_, ok, err := q.Dequeue(ctx, now)
	require.NoError(t, err)
	assert.False(t, ok)

	got, ok, err := q.Dequeue(ctx, now.Add(time.Hour+time.Second))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, j.ID, got.ID)
}

func testRetry(t *testing.T, q Queue) {
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, q.Enqueue(ctx, NewJob(KindSettleGame, "g1", PriorityImmediate, now, 3)))
	first, ok, err := q.Dequeue(ctx, now.Add(time.Millisecond))
	require.NoError(t, err)
	require.True(t, ok)

	next, err := q.Retry(ctx, first, now.Add(5*time.Second), errors.New("store unavailable"))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, next.ID)
	assert.Equal(t, first.Origin, next.Origin)
	assert.Equal(t, 1, next.Attempts)
	assert.Equal(t, "store unavailable", next.LastError)

	_, ok, err = q.Dequeue(ctx, now.Add(time.Second))
	require.NoError(t, err)
	assert.False(t, ok, "retry must wait for its backoff")

	again, ok, err := q.Dequeue(ctx, now.Add(6*time.Second))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, next.ID, again.ID)
	assert.Equal(t, 1, again.Attempts)
	assert.Equal(t, "g1", again.GameID)
}

func testCompleteAndFail(t *testing.T, q Queue) {
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, q.Enqueue(ctx, NewJob(KindSettleGame, "g1", PriorityNormal, now, 1)))
	require.NoError(t, q.Enqueue(ctx, NewJob(KindSettleGame, "g2", PriorityNormal, now, 1)))

	a, ok, err := q.Dequeue(ctx, now.Add(time.Millisecond))
	require.NoError(t, err)
	require.True(t, ok)
	b, ok, err := q.Dequeue(ctx, now.Add(time.Millisecond))
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, q.Complete(ctx, a))
	failed, err := q.Fail(ctx, b, errors.New("boom"))
	require.NoError(t, err)
	assert.Equal(t, StateFailed, failed.State)
	assert.False(t, failed.CanRetry())

	st, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Completed: 1, Failed: 1}, st)

	list, err := q.Failed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)
	assert.Equal(t, "boom", list[0].LastError)
}

func testRequeueStale(t *testing.T, q Queue) {
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, q.Enqueue(ctx, NewJob(KindSettleGame, "g1", PriorityNormal, now, 3)))
	j, ok, err := q.Dequeue(ctx, now.Add(time.Millisecond))
	require.NoError(t, err)
	require.True(t, ok)

	n, err := q.RequeueStale(ctx, now.Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = q.RequeueStale(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	again, ok, err := q.Dequeue(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, j.ID, again.ID)
}

// o worker original termina depois do RequeueStale; o registro tem que sobreviver
func testLateFinishAfterRequeue(t *testing.T, q Queue) {
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, q.Enqueue(ctx, NewJob(KindSettleGame, "g1", PriorityNormal, now, 3)))
	j, ok, err := q.Dequeue(ctx, now.Add(time.Millisecond))
	require.NoError(t, err)
	require.True(t, ok)

	n, err := q.RequeueStale(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, 1, n)

	assert.ErrorIs(t, q.Complete(ctx, j), ErrJobNotFound)
	_, err = q.Retry(ctx, j, now.Add(time.Hour), errors.New("late"))
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, err = q.Fail(ctx, j, errors.New("late"))
	assert.ErrorIs(t, err, ErrJobNotFound)

	again, ok, err := q.Dequeue(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, j.ID, again.ID)
	assert.Equal(t, j.Attempts, again.Attempts)

	st, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, st.Completed)
	assert.Zero(t, st.Delayed)
	assert.Zero(t, st.Failed)
	assert.Equal(t, int64(1), st.Active)
}

func TestJob_CanRetry(t *testing.T) {
	j := NewJob(KindSettleGame, "g", PriorityNormal, time.Time{}, 3)
	assert.True(t, j.CanRetry())
	j.Attempts = 2
	assert.False(t, j.CanRetry())
	assert.False(t, j.RunAt.IsZero())
}

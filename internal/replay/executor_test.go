package replay_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/replayd/internal/replay"
)

func TestMapBounded_RespectsLimitAndOrder(t *testing.T) {
	t.Parallel()

	items := make([]int, 50)
	for i := range items {
		items[i] = i
	}

	var inFlight, peak atomic.Int64
	mapper := func(_ context.Context, v int) (int, error) {
		cur := inFlight.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		// Later items finish first to scramble completion order.
		time.Sleep(time.Duration(50-v) * 100 * time.Microsecond)
		inFlight.Add(-1)
		return v * v, nil
	}

	concurrent := replay.MapBounded(context.Background(), items, 6, mapper)
	sequential := replay.MapBounded(context.Background(), items, 1, mapper)

	assert.LessOrEqual(t, peak.Load(), int64(6))
	assert.Equal(t, sequential, concurrent)
	for i, r := range concurrent {
		require.True(t, r.OK())
		assert.Equal(t, i*i, r.Value)
	}
}

func TestMapBounded_ErrorsStayPerItem(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("boom")
	results := replay.MapBounded(context.Background(), []int{1, 2, 3, 4}, 2, func(_ context.Context, v int) (string, error) {
		if v%2 == 0 {
			return "", errBoom
		}
		return "ok", nil
	})

	require.Len(t, results, 4)
	assert.True(t, results[0].OK())
	require.ErrorIs(t, results[1].Err, errBoom)
	assert.True(t, results[2].OK())
	require.ErrorIs(t, results[3].Err, errBoom)
	assert.Equal(t, 2, replay.Failed(results))
	assert.Equal(t, []string{"ok", "-", "ok", "-"}, replay.Values(results, "-"))
}

func TestMapBounded_RecoversPanics(t *testing.T) {
	t.Parallel()

	results := replay.MapBounded(context.Background(), []int{0, 1}, 2, func(_ context.Context, v int) (int, error) {
		if v == 1 {
			panic("bad record")
		}
		return 10, nil
	})

	assert.Equal(t, 10, results[0].Value)
	require.ErrorIs(t, results[1].Err, replay.ErrMapperPanic)
}

func TestMapBounded_EdgeCases(t *testing.T) {
	t.Parallel()

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()

		called := false
		results := replay.MapBounded(context.Background(), []int{}, 4, func(_ context.Context, v int) (int, error) {
			called = true
			return v, nil
		})
		assert.Empty(t, results)
		assert.False(t, called)
	})

	t.Run("non-positive limit still makes progress", func(t *testing.T) {
		t.Parallel()

		results := replay.MapBounded(context.Background(), []int{1, 2, 3}, 0, func(_ context.Context, v int) (int, error) {
			return v + 1, nil
		})
		assert.Equal(t, []int{2, 3, 4}, replay.Values(results, 0))
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var calls atomic.Int64
		results := replay.MapBounded(ctx, []int{1, 2, 3}, 2, func(_ context.Context, v int) (int, error) {
			calls.Add(1)
			return v, nil
		})
		assert.Equal(t, int64(0), calls.Load())
		for _, r := range results {
			require.ErrorIs(t, r.Err, context.Canceled)
		}
	})
}

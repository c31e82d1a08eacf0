package batch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessor_Process(t *testing.T) {
	items := make([]int, 25)
	for i := range items {
		items[i] = i
	}

	t.Run("Sequential", func(t *testing.T) {
		p, err := NewProcessor[int](10)
		require.NoError(t, err)

		var seen []int
		var sizes []int
		err = p.Process(context.Background(), items, func(_ context.Context, batch []int, _ int) error {
			seen = append(seen, batch...)
			sizes = append(sizes, len(batch))
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, items, seen)
		assert.Equal(t, []int{10, 10, 5}, sizes)
	})

	t.Run("Progress", func(t *testing.T) {
		var last Progress
		calls := 0
		p := NewProcessorWithDefaults[int]().WithProgress(func(pr Progress) {
			calls++
			last = pr
		})

		err := p.Process(context.Background(), items, func(context.Context, []int, int) error { return nil })
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
		assert.True(t, last.IsComplete())
		assert.InDelta(t, 100.0, last.PercentComplete(), 0.001)
	})

	t.Run("ErrorStopsProcessing", func(t *testing.T) {
		p, _ := NewProcessor[int](10)
		calls := 0
		err := p.Process(context.Background(), items, func(_ context.Context, _ []int, batchIndex int) error {
			calls++
			if batchIndex == 1 {
				return errors.New("fail")
			}
			return nil
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "batch 1 failed")
		assert.Equal(t, 2, calls)
	})

	t.Run("Cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		p := NewProcessorWithDefaults[int]()
		err := p.Process(ctx, items, func(context.Context, []int, int) error { return nil })
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("EmptyItems", func(t *testing.T) {
		p := NewProcessorWithDefaults[int]()
		err := p.Process(context.Background(), nil, func(context.Context, []int, int) error {
			t.Fatal("callback must not run")
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("NilCallback", func(t *testing.T) {
		p := NewProcessorWithDefaults[int]()
		assert.Equal(t, ErrNilCallback, p.Process(context.Background(), items, nil))
	})

	t.Run("InvalidBatchSize", func(t *testing.T) {
		_, err := NewProcessor[int](0)
		require.ErrorIs(t, err, ErrInvalidBatchSize)
		_, err = NewProcessor[int](2000)
		require.ErrorIs(t, err, ErrInvalidBatchSize)
	})
}

func TestProcessor_Bounds(t *testing.T) {
	p, _ := NewProcessor[string](4)
	assert.Nil(t, p.Bounds(0))
	assert.Equal(t, [][2]int{{0, 4}, {4, 8}, {8, 9}}, p.Bounds(9))
	assert.Equal(t, 4, p.BatchSize())
}

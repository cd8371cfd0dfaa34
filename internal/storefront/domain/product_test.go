package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecreaseStock(t *testing.T) {
	t.Run("normal decrement", func(t *testing.T) {
		p := &Product{Stock: 5, IsAvailable: true}
		require.NoError(t, p.DecreaseStock(2))
		assert.Equal(t, int64(3), p.Stock)
		assert.True(t, p.IsAvailable)
	})

	t.Run("decrement to zero switches availability off", func(t *testing.T) {
		p := &Product{Stock: 2, IsAvailable: true}
		require.NoError(t, p.DecreaseStock(2))
		assert.Equal(t, int64(0), p.Stock)
		assert.False(t, p.IsAvailable)
	})

	t.Run("insufficient stock is rejected without clamping", func(t *testing.T) {
		p := &Product{Stock: 1, IsAvailable: true}
		err := p.DecreaseStock(3)
		assert.ErrorIs(t, err, ErrInsufficientStock)
		assert.Equal(t, int64(1), p.Stock)
		assert.True(t, p.IsAvailable)
	})

	t.Run("non-positive quantity is rejected", func(t *testing.T) {
		p := &Product{Stock: 5, IsAvailable: true}
		assert.ErrorIs(t, p.DecreaseStock(0), ErrInvalidQuantity)
		assert.ErrorIs(t, p.DecreaseStock(-1), ErrInvalidQuantity)
		assert.Equal(t, int64(5), p.Stock)
	})
}

func TestSetStock(t *testing.T) {
	t.Run("zero to positive reports restock", func(t *testing.T) {
		p := &Product{Stock: 0, IsAvailable: false}
		restocked := p.SetStock(10)
		assert.True(t, restocked)
		assert.Equal(t, int64(10), p.Stock)
		assert.True(t, p.IsAvailable)
	})

	t.Run("positive to positive is not a restock", func(t *testing.T) {
		p := &Product{Stock: 3, IsAvailable: true}
		assert.False(t, p.SetStock(10))
	})

	t.Run("set to zero switches availability off", func(t *testing.T) {
		p := &Product{Stock: 3, IsAvailable: true}
		assert.False(t, p.SetStock(0))
		assert.False(t, p.IsAvailable)
	})
}

package linhash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudgetAllocator(t *testing.T) {
	b := NewBudgetAllocator(100)
	assert.Equal(t, int64(100), b.Limit())

	require.NoError(t, b.Allocate(60))
	assert.ErrorIs(t, b.Allocate(50), ErrMemoryLimitExceeded)
	assert.Equal(t, int64(60), b.Used())

	require.NoError(t, b.Reallocate(60, 100))
	assert.Equal(t, int64(100), b.Used())

	assert.ErrorIs(t, b.Reallocate(100, 101), ErrMemoryLimitExceeded)
	assert.Equal(t, int64(100), b.Used())

	require.NoError(t, b.Reallocate(100, 40))
	assert.Equal(t, int64(40), b.Used())

	b.Release(40)
	assert.Zero(t, b.Used())
}

func TestBudgetAllocator_Unlimited(t *testing.T) {
	b := NewBudgetAllocator(0)
	assert.Zero(t, b.Limit())

	require.NoError(t, b.Allocate(1<<40))
	assert.Equal(t, int64(1<<40), b.Used())

	b.Release(1 << 40)
	assert.Zero(t, b.Used())
}

func TestBudgetAllocator_OOMHandler(t *testing.T) {
	var calls []int64

	b := NewBudgetAllocator(10)
	require.NoError(t, b.Allocate(10))

	b.oom = func(need int64) bool {
		calls = append(calls, need)
		b.Release(10)
		return true
	}

	require.NoError(t, b.Allocate(4))
	assert.Equal(t, []int64{4}, calls)
	assert.Equal(t, int64(4), b.Used())
}

func TestBudgetAllocator_OOMHandlerDeclines(t *testing.T) {
	b := NewBudgetAllocator(8, WithOOMHandler(func(int64) bool { return false }))

	require.NoError(t, b.Allocate(8))
	assert.ErrorIs(t, b.Allocate(1), ErrMemoryLimitExceeded)
	assert.Equal(t, int64(8), b.Used())
}

func TestBudgetAllocator_SharedByArrays(t *testing.T) {
	b := NewBudgetAllocator(4 * 8)

	a1, err := NewArray(2, 2, WithArrayAllocator[int64](b))
	require.NoError(t, err)
	a2, err := NewArray(2, 2, WithArrayAllocator[int64](b))
	require.NoError(t, err)

	require.NoError(t, a1.Append(1))
	require.NoError(t, a1.Append(2))

	// a1 cannot grow while a2 holds the rest of the budget.
	require.ErrorIs(t, a1.Append(3), ErrAllocationFailure)

	a2.Release()
	require.NoError(t, a1.Append(3))
	assert.Equal(t, int64(4*8), b.Used())
}

package linhash

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNoMemory = errors.New("no memory")

// switchAllocator refuses every request while fail is set.
type switchAllocator struct {
	fail     bool
	requests int
}

func (a *switchAllocator) Allocate(int64) error {
	a.requests++
	if a.fail {
		return errNoMemory
	}
	return nil
}

func (a *switchAllocator) Reallocate(int64, int64) error {
	a.requests++
	if a.fail {
		return errNoMemory
	}
	return nil
}

func (a *switchAllocator) Release(int64) {}

func TestNewArray_Increment(t *testing.T) {
	tests := []struct {
		name    string
		new     func() (int, int)
		wantInc int
		wantCap int
	}{
		{
			name: "derived from element size",
			new: func() (int, int) {
				a, err := NewArray[int64](0, 0)
				require.NoError(t, err)
				return a.Increment(), a.Cap()
			},
			wantInc: (arrayBlockSize - mallocOverhead) / 8,
			wantCap: (arrayBlockSize - mallocOverhead) / 8,
		},
		{
			name: "narrowed to twice the initial count",
			new: func() (int, int) {
				a, err := NewArray[[16]byte](100, 0)
				require.NoError(t, err)
				return a.Increment(), a.Cap()
			},
			wantInc: 200,
			wantCap: 100,
		},
		{
			name: "small initial count keeps derived increment",
			new: func() (int, int) {
				a, err := NewArray[[16]byte](4, 0)
				require.NoError(t, err)
				return a.Increment(), a.Cap()
			},
			wantInc: (arrayBlockSize - mallocOverhead) / 16,
			wantCap: 4,
		},
		{
			name: "floored at the minimum increment",
			new: func() (int, int) {
				a, err := NewArray[[1024]byte](0, 0)
				require.NoError(t, err)
				return a.Increment(), a.Cap()
			},
			wantInc: arrayMinIncrement,
			wantCap: arrayMinIncrement,
		},
		{
			name: "explicit increment",
			new: func() (int, int) {
				a, err := NewArray[int](3, 5)
				require.NoError(t, err)
				return a.Increment(), a.Cap()
			},
			wantInc: 5,
			wantCap: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inc, capacity := tt.new()
			assert.Equal(t, tt.wantInc, inc)
			assert.Equal(t, tt.wantCap, capacity)
		})
	}
}

func TestArray_AppendGrows(t *testing.T) {
	a, err := NewArray[int](2, 3)
	require.NoError(t, err)

	for i := range 7 {
		require.NoError(t, a.Append(i*10))
	}

	assert.Equal(t, 7, a.Len())
	assert.Equal(t, 8, a.Cap()) // 2 -> 5 -> 8

	for i := range 7 {
		v, ok := a.Get(i)
		require.True(t, ok)
		assert.Equal(t, i*10, v)
	}
}

func TestArray_Get_OutOfRange(t *testing.T) {
	a, err := NewArray[[2]int](4, 4)
	require.NoError(t, err)
	require.NoError(t, a.Append([2]int{1, 2}))

	v, ok := a.Get(1)
	assert.False(t, ok)
	assert.Equal(t, [2]int{}, v)

	_, ok = a.Get(-1)
	assert.False(t, ok)
}

func TestArray_Pop(t *testing.T) {
	a, err := NewArray[int](4, 4)
	require.NoError(t, err)

	assert.Nil(t, a.Pop())

	require.NoError(t, a.Append(1))
	require.NoError(t, a.Append(2))

	last := a.Pop()
	require.NotNil(t, last)
	assert.Equal(t, 2, *last)
	assert.Equal(t, 1, a.Len())

	last = a.Pop()
	require.NotNil(t, last)
	assert.Equal(t, 1, *last)
	assert.Nil(t, a.Pop())
}

func TestArray_Set(t *testing.T) {
	t.Run("past the end zero-fills", func(t *testing.T) {
		a, err := NewArray[int](2, 4)
		require.NoError(t, err)
		require.NoError(t, a.Append(1))

		require.NoError(t, a.Set(9, 7))
		assert.Equal(t, 10, a.Len())
		assert.Equal(t, 12, a.Cap())

		for i := 1; i < 9; i++ {
			v, ok := a.Get(i)
			require.True(t, ok)
			assert.Zero(t, v)
		}

		v, ok := a.Get(9)
		require.True(t, ok)
		assert.Equal(t, 7, v)
	})

	t.Run("gap over popped slots is cleared", func(t *testing.T) {
		a, err := NewArray[int](8, 8)
		require.NoError(t, err)
		for i := 1; i <= 3; i++ {
			require.NoError(t, a.Append(i))
		}
		a.Pop()

		require.NoError(t, a.Set(4, 9))

		v, ok := a.Get(2)
		require.True(t, ok)
		assert.Zero(t, v)
	})

	t.Run("in range overwrites", func(t *testing.T) {
		a, err := NewArray[int](4, 4)
		require.NoError(t, err)
		require.NoError(t, a.Append(1))

		require.NoError(t, a.Set(0, 5))
		v, _ := a.Get(0)
		assert.Equal(t, 5, v)
		assert.Equal(t, 1, a.Len())
	})

	t.Run("negative index", func(t *testing.T) {
		a, err := NewArray[int](4, 4)
		require.NoError(t, err)
		assert.ErrorIs(t, a.Set(-1, 1), ErrOutOfRange)
	})
}

func TestArray_Delete(t *testing.T) {
	a, err := NewArray[int](8, 8)
	require.NoError(t, err)
	for i := range 5 {
		require.NoError(t, a.Append(i))
	}

	require.True(t, a.Delete(1))
	require.False(t, a.Delete(10))

	var got []int
	for _, v := range a.All() {
		got = append(got, v)
	}
	assert.Equal(t, []int{0, 2, 3, 4}, got)
}

func TestArray_Borrowed(t *testing.T) {
	buf := make([]int, 3)
	a, err := NewArray(3, 2, WithBuffer(buf))
	require.NoError(t, err)
	require.True(t, a.Borrowed())

	for i := range 3 {
		require.NoError(t, a.Append(i+1))
	}
	assert.Equal(t, []int{1, 2, 3}, buf)

	// Growing copies the borrowed buffer into an owned one.
	require.NoError(t, a.Append(4))
	assert.False(t, a.Borrowed())
	assert.Equal(t, 5, a.Cap())

	require.NoError(t, a.Set(0, 100))
	assert.Equal(t, 1, buf[0], "borrowed buffer must not be written after growth")

	v, _ := a.Get(3)
	assert.Equal(t, 4, v)
}

func TestArray_Borrowed_ReleaseKeepsBuffer(t *testing.T) {
	buf := make([]int, 4)
	budget := NewBudgetAllocator(0)

	a, err := NewArray(4, 4, WithBuffer(buf), WithArrayAllocator[int](budget))
	require.NoError(t, err)
	require.NoError(t, a.Append(1))

	a.Release()
	assert.Equal(t, 0, a.Len())
	assert.Equal(t, 4, a.Cap())
	assert.Zero(t, budget.Used())

	require.NoError(t, a.ShrinkToFit())
	assert.Equal(t, 4, a.Cap())
}

func TestArray_AllocFailure(t *testing.T) {
	alloc := &switchAllocator{}
	a, err := NewArray(2, 2, WithArrayAllocator[int](alloc))
	require.NoError(t, err)

	require.NoError(t, a.Append(1))
	require.NoError(t, a.Append(2))

	alloc.fail = true

	slot, err := a.Alloc()
	assert.Nil(t, slot)
	require.ErrorIs(t, err, ErrAllocationFailure)
	require.ErrorIs(t, err, errNoMemory)

	assert.Equal(t, 2, a.Len())
	assert.Equal(t, 2, a.Cap())

	require.ErrorIs(t, a.Set(5, 1), ErrAllocationFailure)
	assert.Equal(t, 2, a.Len())

	alloc.fail = false
	require.NoError(t, a.Append(3))
	assert.Equal(t, 3, a.Len())
}

func TestNewArray_InitialAllocFailure(t *testing.T) {
	alloc := &switchAllocator{fail: true}

	a, err := NewArray(8, 4, WithArrayAllocator[int](alloc))
	require.ErrorIs(t, err, ErrAllocationFailure)
	require.NotNil(t, a)
	assert.Equal(t, 0, a.Cap())
	assert.Equal(t, 0, a.Len())

	alloc.fail = false
	require.NoError(t, a.Append(42))

	v, ok := a.Get(0)
	require.True(t, ok)
	assert.Equal(t, 42, v)
	assert.Equal(t, 4, a.Cap())
}

func TestArray_ShrinkToFit(t *testing.T) {
	budget := NewBudgetAllocator(0)
	a, err := NewArray(16, 16, WithArrayAllocator[int64](budget))
	require.NoError(t, err)
	assert.Equal(t, int64(16*8), budget.Used())

	require.NoError(t, a.Append(1))
	require.NoError(t, a.Append(2))

	require.NoError(t, a.ShrinkToFit())
	assert.Equal(t, 2, a.Cap())
	assert.Equal(t, int64(2*8), budget.Used())

	a.Reset()
	require.NoError(t, a.ShrinkToFit())
	assert.Equal(t, 1, a.Cap())

	a.Release()
	assert.Equal(t, 0, a.Cap())
	assert.Zero(t, budget.Used())
}

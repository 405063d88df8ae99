package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_FIFOOrder(t *testing.T) {
	q := newQueue[int]()
	for i := 0; i < 5; i++ {
		require.True(t, q.push(i))
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, q.drain(10))
}

func TestQueue_DrainLimitsBatch(t *testing.T) {
	q := newQueue[int]()
	for i := 0; i < 5; i++ {
		q.push(i)
	}
	assert.Equal(t, []int{0, 1, 2}, q.drain(3))
	assert.Equal(t, []int{3, 4}, q.drain(10))
}

func TestQueue_DrainEmptyReturnsNil(t *testing.T) {
	q := newQueue[int]()
	assert.Nil(t, q.drain(10))
}

func TestQueue_CloseRejectsFurtherPushes(t *testing.T) {
	q := newQueue[int]()
	require.True(t, q.push(1))
	q.close()
	assert.False(t, q.push(2))
	assert.False(t, q.isClosedAndEmpty(), "queue still holds the pre-close item")
	q.drain(10)
	assert.True(t, q.isClosedAndEmpty())
}

func TestQueue_CloseIsIdempotent(t *testing.T) {
	q := newQueue[int]()
	q.close()
	q.close()
	assert.True(t, q.isClosedAndEmpty())
}

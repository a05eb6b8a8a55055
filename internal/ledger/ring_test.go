package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingPushFrontEvictsTail(t *testing.T) {
	r := NewRing[int](3)

	for i := 1; i <= 3; i++ {
		_, evicted := r.PushFront(i)
		assert.False(t, evicted)
	}
	assert.Equal(t, []int{3, 2, 1}, r.Slice())

	old, evicted := r.PushFront(4)
	assert.True(t, evicted)
	assert.Equal(t, 1, old)
	assert.Equal(t, []int{4, 3, 2}, r.Slice())
	assert.Equal(t, 3, r.Len())

	front, ok := r.Front()
	assert.True(t, ok)
	assert.Equal(t, 4, front)
}

func TestRingRemoveAt(t *testing.T) {
	r := NewRing[string](4)
	for _, v := range []string{"a", "b", "c", "d", "e"} {
		r.PushFront(v)
	}
	assert.Equal(t, []string{"e", "d", "c", "b"}, r.Slice())

	removed, ok := r.RemoveAt(1)
	assert.True(t, ok)
	assert.Equal(t, "d", removed)
	assert.Equal(t, []string{"e", "c", "b"}, r.Slice())

	_, ok = r.RemoveAt(3)
	assert.False(t, ok)
	_, ok = r.RemoveAt(-1)
	assert.False(t, ok)

	r.PushFront("f")
	assert.Equal(t, []string{"f", "e", "c", "b"}, r.Slice())

	r.Clear()
	assert.Equal(t, 0, r.Len())
	_, ok = r.Front()
	assert.False(t, ok)
	r.PushFront("g")
	assert.Equal(t, []string{"g"}, r.Slice())
}

package ledger

// Ring 固定容量的双端队列，头部插入，满时淘汰尾部
type Ring[T any] struct {
	items []T
	head  int
	size  int
}

// NewRing 创建指定容量的队列
func NewRing[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ring[T]{items: make([]T, capacity)}
}

// Cap 容量
func (r *Ring[T]) Cap() int { return len(r.items) }

// Len 当前长度
func (r *Ring[T]) Len() int { return r.size }

// PushFront 头部插入，满时返回被淘汰的尾部元素
func (r *Ring[T]) PushFront(v T) (evicted T, ok bool) {
	if r.size == len(r.items) {
		tail := r.index(r.size - 1)
		evicted, ok = r.items[tail], true
		r.size--
	}
	r.head = (r.head - 1 + len(r.items)) % len(r.items)
	r.items[r.head] = v
	r.size++
	return evicted, ok
}

// At 按位置读取，0 为最新
func (r *Ring[T]) At(i int) (T, bool) {
	var zero T
	if i < 0 || i >= r.size {
		return zero, false
	}
	return r.items[r.index(i)], true
}

// Front 最新元素
func (r *Ring[T]) Front() (T, bool) {
	return r.At(0)
}

// RemoveAt 删除指定位置，越界时返回 false
func (r *Ring[T]) RemoveAt(i int) (T, bool) {
	var zero T
	if i < 0 || i >= r.size {
		return zero, false
	}

	removed := r.items[r.index(i)]
	for j := i; j < r.size-1; j++ {
		r.items[r.index(j)] = r.items[r.index(j+1)]
	}
	r.items[r.index(r.size-1)] = zero
	r.size--
	return removed, true
}

// Clear 清空
func (r *Ring[T]) Clear() {
	var zero T
	for i := range r.items {
		r.items[i] = zero
	}
	r.head = 0
	r.size = 0
}

// Slice 按从新到旧复制
func (r *Ring[T]) Slice() []T {
	out := make([]T, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.items[r.index(i)]
	}
	return out
}

func (r *Ring[T]) index(i int) int {
	return (r.head + i) % len(r.items)
}

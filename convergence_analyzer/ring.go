package convergence_analyzer

// ring is a fixed-capacity history buffer. Pushing beyond capacity evicts the
// oldest entry.
type ring[T any] struct {
	buf   []T
	head  int
	count int
}

func newRing[T any](capacity int) *ring[T] {
	return &ring[T]{buf: make([]T, capacity)}
}

func (r *ring[T]) push(value T) {
	if r.count < len(r.buf) {
		r.buf[(r.head+r.count)%len(r.buf)] = value
		r.count++
		return
	}
	r.buf[r.head] = value
	r.head = (r.head + 1) % len(r.buf)
}

func (r *ring[T]) length() int {
	return r.count
}

// at returns the i-th retained entry, 0 being the oldest.
func (r *ring[T]) at(i int) T {
	return r.buf[(r.head+i)%len(r.buf)]
}

// last returns up to n most recent entries, oldest first.
func (r *ring[T]) last(n int) []T {
	if n > r.count {
		n = r.count
	}
	out := make([]T, n)
	for i := 0; i < n; i++ {
		out[i] = r.at(r.count - n + i)
	}
	return out
}

func (r *ring[T]) clear() {
	var zero T
	for i := range r.buf {
		r.buf[i] = zero
	}
	r.head = 0
	r.count = 0
}

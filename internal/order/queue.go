package order

// Queue buffers orders before execution.
type Queue struct {
	ch chan Order
}

func NewQueue(size int) *Queue {
	if size <= 0 {
		size = 100
	}
	return &Queue{ch: make(chan Order, size)}
}

// TryEnqueue adds o unless the queue is full.
func (q *Queue) TryEnqueue(o Order) bool {
	select {
	case q.ch <- o:
		return true
	default:
		return false
	}
}

func (q *Queue) Chan() <-chan Order {
	return q.ch
}

func (q *Queue) Len() int { return len(q.ch) }

func (q *Queue) Close() {
	close(q.ch)
}

package workerpool

// taskRing is a fixed-capacity FIFO of tasks. It is not safe for
// concurrent use; the pool guards it with its mutex.
type taskRing struct {
	buf   []Task
	head  int
	count int
}

func newTaskRing(limit int) *taskRing {
	return &taskRing{buf: make([]Task, limit)}
}

func (r *taskRing) len() int {
	return r.count
}

func (r *taskRing) full() bool {
	return r.count == len(r.buf)
}

func (r *taskRing) push(t Task) {
	r.buf[(r.head+r.count)%len(r.buf)] = t
	r.count++
}

func (r *taskRing) pop() Task {
	t := r.buf[r.head]
	r.buf[r.head] = nil
	r.head = (r.head + 1) % len(r.buf)
	r.count--
	return t
}

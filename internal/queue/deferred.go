package queue

// Deferred collects callbacks to be run after the current editing operation
// finishes, in the order they were queued. Callbacks queued while draining
// run in the same drain pass.
type Deferred struct {
	queue *Queue[func()]
}

// NewDeferred creates an empty deferred-callback queue.
func NewDeferred() *Deferred {
	return &Deferred{queue: New[func()]()}
}

// Defer queues a callback.
func (d *Deferred) Defer(fn func()) {
	if fn == nil {
		return
	}
	d.queue.Push(fn)
}

// Run drains the queue, executing every callback in order. Returns the
// number of callbacks executed.
func (d *Deferred) Run() int {
	n := 0
	for {
		batch := d.queue.GetAndEmpty()
		if len(batch) == 0 {
			return n
		}
		for _, fn := range batch {
			fn()
			n++
		}
	}
}

// Pending returns the number of callbacks waiting to run.
func (d *Deferred) Pending() int {
	return d.queue.Len()
}

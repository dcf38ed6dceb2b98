package engine

import "sync"

// Request is a user-submitted pair, kept in the order it was typed.
type Request struct {
	First  string
	Second string
}

// requestQueue is a thread-safe FIFO queue of user requests.
//
// The shell goroutine enqueues while the exploration loop dequeues. The
// queue is unbounded so typing never blocks on a slow oracle.
type requestQueue struct {
	mu       sync.Mutex
	requests []Request
	closed   bool
}

func newRequestQueue() *requestQueue {
	return &requestQueue{requests: make([]Request, 0, 16)}
}

// Enqueue adds a request to the back of the queue.
// Returns false if the queue is closed.
func (q *requestQueue) Enqueue(r Request) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.requests = append(q.requests, r)
	return true
}

// TryDequeue removes the front request without blocking.
func (q *requestQueue) TryDequeue() (Request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.requests) == 0 {
		return Request{}, false
	}
	r := q.requests[0]
	q.requests[0] = Request{}
	if len(q.requests) == 1 {
		q.requests = q.requests[:0]
	} else {
		q.requests = q.requests[1:]
	}
	return r, true
}

// Len returns the current queue length.
func (q *requestQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.requests)
}

// Close rejects further requests. Queued requests can still be dequeued.
func (q *requestQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}

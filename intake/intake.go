/*
 * MIT License
 *
 * Copyright (c) 2026 logshipper authors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package intake is the front door of the pipeline: application goroutines
// call Push and return immediately, never blocking on the durable buffer or
// the network. The worker goroutine is the only consumer, via DrainBatch.
package intake

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/sabouaram/logshipper/event"
)

// Queue is an unbounded, single-consumer FIFO. Push never blocks: it grows
// an in-process list guarded by a mutex; notify is a 1-buffered channel the
// single consumer selects on, the standard unbounded-channel-adapter shape,
// since nothing in the dependency pack models an unbounded channel.
type Queue struct {
	mu     sync.Mutex
	items  *list.List
	notify chan struct{}
	closed bool
}

// New returns an empty Queue.
func New() *Queue {
	return &Queue{
		items:  list.New(),
		notify: make(chan struct{}, 1),
	}
}

// Push enqueues a payload for later draining. It never blocks and never
// fails: callers on the hot path (the host application's logging call
// site) must never be slowed down or broken by the shipping pipeline.
func (q *Queue) Push(payload []byte, at time.Time) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.items.PushBack(event.Item{Payload: payload, IntakeTime: at})
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// DrainBatch blocks until at least one item is available, maxWait elapses,
// or ctx is done, then returns up to limit items in push order. The result
// is nil only when ctx ended the wait before any item was seen; otherwise
// it is a (possibly empty) slice.
func (q *Queue) DrainBatch(ctx context.Context, maxWait time.Duration, limit int) []event.Item {
	if q.Len() == 0 {
		timer := time.NewTimer(maxWait)
		defer timer.Stop()

		select {
		case <-q.notify:
		case <-timer.C:
		case <-ctx.Done():
			return nil
		}
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]event.Item, 0, limit)
	for q.items.Len() > 0 && len(out) < limit {
		front := q.items.Front()
		out = append(out, front.Value.(event.Item))
		q.items.Remove(front)
	}

	// Re-arm notify if items remain past limit, so the next DrainBatch
	// doesn't wait out a full maxWait for a batch that's already ready.
	if q.items.Len() > 0 {
		select {
		case q.notify <- struct{}{}:
		default:
		}
	}

	return out
}

// Len reports the number of items currently queued.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// Close marks the queue closed: further Push calls are dropped. A
// DrainBatch already blocked in select will still only return once
// maxWait or ctx ends it -- Close does not itself wake a waiter, since a
// closed intake queue still needs its already-pushed backlog drained.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}

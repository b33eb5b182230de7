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

// Package memory is a buffer.Buffer backed by an in-process FIFO: no
// persistence across restart, used for tests and for hosts that accept
// losing the spill on crash in exchange for not touching the filesystem.
package memory

import (
	"container/list"
	"context"
	"sync"

	"time"

	"github.com/sabouaram/logshipper/buffer"
	"github.com/sabouaram/logshipper/event"
)

// Buffer is an in-memory, FIFO-ordered buffer.Buffer implementation.
type Buffer struct {
	mu     sync.Mutex
	order  *list.List // *event.Row, enqueue order preserved regardless of state
	byID   map[int64]*list.Element
	nextID int64
	closed bool
}

// New returns an empty in-memory Buffer.
func New() *Buffer {
	return &Buffer{
		order: list.New(),
		byID:  make(map[int64]*list.Element),
	}
}

func (b *Buffer) Enqueue(_ context.Context, payload []byte, at time.Time) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, buffer.ErrorClosed.Error(nil)
	}

	b.nextID++
	row := &event.Row{
		ID:           b.nextID,
		Payload:      payload,
		PendingSince: at,
		State:        event.Queued,
	}
	el := b.order.PushBack(row)
	b.byID[row.ID] = el

	return row.ID, nil
}

func (b *Buffer) ClaimBatch(_ context.Context, limit int) ([]event.Row, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, buffer.ErrorClosed.Error(nil)
	}

	out := make([]event.Row, 0, limit)
	for el := b.order.Front(); el != nil && len(out) < limit; el = el.Next() {
		row := el.Value.(*event.Row)
		if row.State != event.Queued {
			continue
		}
		row.State = event.InFlight
		out = append(out, *row)
	}

	return out, nil
}

func (b *Buffer) Ack(_ context.Context, ids []int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return buffer.ErrorClosed.Error(nil)
	}

	for _, id := range ids {
		if el, ok := b.byID[id]; ok {
			b.order.Remove(el)
			delete(b.byID, id)
		}
	}

	return nil
}

func (b *Buffer) Requeue(_ context.Context, ids []int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return buffer.ErrorClosed.Error(nil)
	}

	for _, id := range ids {
		if el, ok := b.byID[id]; ok {
			row := el.Value.(*event.Row)
			row.State = event.Queued
		}
	}

	return nil
}

func (b *Buffer) Expire(_ context.Context, now time.Time, ttl time.Duration) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, buffer.ErrorClosed.Error(nil)
	}

	dropped := 0
	var next *list.Element
	for el := b.order.Front(); el != nil; el = next {
		next = el.Next()
		row := el.Value.(*event.Row)
		if row.Expired(now, ttl) {
			b.order.Remove(el)
			delete(b.byID, row.ID)
			dropped++
		}
	}

	return dropped, nil
}

func (b *Buffer) Size(_ context.Context) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.order.Len(), nil
}

func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	b.order.Init()
	b.byID = make(map[int64]*list.Element)

	return nil
}

var _ buffer.Buffer = (*Buffer)(nil)

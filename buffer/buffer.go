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

// Package buffer defines the durable spill contract between the intake
// queue and the transport worker. A Buffer survives process restart: rows
// claimed but never acknowledged before a crash must resurface as Queued
// the next time the buffer is opened.
//
// A row is always in exactly one of Queued or InFlight. ClaimBatch never
// returns a row already InFlight to another caller until Requeue has
// returned it to Queued. Ack and Expire permanently remove a row; it
// never resurfaces. Row IDs are monotonically assigned and never reused.
package buffer

import (
	"context"
	"time"

	"github.com/sabouaram/logshipper/event"
)

// Buffer is the durable spill store a worker cycle drives: claim a batch,
// then either Ack it away on a successful send or Requeue it for the next
// attempt. Expire sweeps rows that outlived the configured TTL regardless
// of their state.
type Buffer interface {
	// Enqueue appends a new row in the Queued state and returns its
	// assigned, monotonically increasing ID.
	Enqueue(ctx context.Context, payload []byte, at time.Time) (int64, error)

	// ClaimBatch marks up to limit Queued rows as InFlight and returns
	// them in enqueue order.
	ClaimBatch(ctx context.Context, limit int) ([]event.Row, error)

	// Ack permanently removes the given rows.
	Ack(ctx context.Context, ids []int64) error

	// Requeue returns the given rows from InFlight back to Queued, for a
	// later retry.
	Requeue(ctx context.Context, ids []int64) error

	// Expire removes every row -- Queued or InFlight -- older than ttl as
	// of now, and reports how many rows were dropped.
	Expire(ctx context.Context, now time.Time, ttl time.Duration) (int, error)

	// Size reports the total number of rows currently held, Queued or
	// InFlight.
	Size(ctx context.Context) (int, error)

	// Close releases any underlying resource (file handle, connection
	// pool). A persistent backend keeps every row for the next open; the
	// in-memory backend discards its rows.
	Close() error
}

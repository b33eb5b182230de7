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

// Package event defines the immutable record shipped through the pipeline:
// from intake, through the durable buffer, to the transport.
package event

import "time"

// SendState tracks where a buffered event sits in the claim/ack cycle.
type SendState uint8

const (
	// Queued means the row is eligible for the next ClaimBatch.
	Queued SendState = iota
	// InFlight means a worker cycle has claimed the row for a transmission attempt.
	InFlight
)

func (s SendState) String() string {
	switch s {
	case Queued:
		return "queued"
	case InFlight:
		return "in_flight"
	default:
		return "unknown"
	}
}

// Item is the shape handed from the intake queue to the worker: a formatted
// payload plus the wall-clock time it was accepted.
type Item struct {
	Payload    []byte
	IntakeTime time.Time
}

// Row is a single durable buffer record.
type Row struct {
	ID           int64
	Payload      []byte
	PendingSince time.Time
	State        SendState
}

// Expired reports whether this row has outlived ttl as of now.
func (r Row) Expired(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(r.PendingSince) > ttl
}

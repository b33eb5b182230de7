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

// Package ratelimit provides a monotonic clock source and a fixed-window
// rate limiter used to keep the worker's own diagnostic logging from
// flooding the host application when a remote collector is unreachable.
package ratelimit

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	liberr "github.com/nabbar/golib/errors"
)

// Unit is one of the accepted rate-spec time units.
type Unit uint8

const (
	Second Unit = iota
	Minute
	Hour
	Day
)

// Duration returns the wall-clock duration spanned by one window of this unit.
func (u Unit) Duration() time.Duration {
	switch u {
	case Second:
		return time.Second
	case Minute:
		return time.Minute
	case Hour:
		return time.Hour
	case Day:
		return 24 * time.Hour
	default:
		return 0
	}
}

func (u Unit) String() string {
	switch u {
	case Second:
		return "second"
	case Minute:
		return "minute"
	case Hour:
		return "hour"
	case Day:
		return "day"
	default:
		return "unknown"
	}
}

// Spec is a parsed rate specification, e.g. "3 per minute".
type Spec struct {
	Count  int
	Window time.Duration
}

// Enabled reports whether this spec describes an active limit. The zero
// value is the disabled spec: should_emit always returns true.
func (s Spec) Enabled() bool {
	return s.Count > 0 && s.Window > 0
}

// ParseSpec parses a string of the form "<N> per <unit>" where unit is one
// of second, minute, hour, day (plural forms accepted). An empty string
// yields the disabled Spec, matching "disabled when the configured rate
// string is absent".
func ParseSpec(s string) (Spec, liberr.Error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Spec{}, nil
	}

	fields := strings.Fields(s)
	if len(fields) != 3 || !strings.EqualFold(fields[1], "per") {
		return Spec{}, ErrorInvalidSpec.Error(fmt.Errorf("got %q", s))
	}

	n, err := strconv.Atoi(fields[0])
	if err != nil || n <= 0 {
		return Spec{}, ErrorInvalidSpec.Error(fmt.Errorf("invalid count in %q", s))
	}

	unit := strings.ToLower(strings.TrimSuffix(fields[2], "s"))
	var u Unit
	switch unit {
	case "second":
		u = Second
	case "minute":
		u = Minute
	case "hour":
		u = Hour
	case "day":
		u = Day
	default:
		return Spec{}, ErrorInvalidSpec.Error(fmt.Errorf("unknown unit %q in %q", fields[2], s))
	}

	return Spec{Count: n, Window: u.Duration()}, nil
}

// Clock is a small indirection over wall-clock time so tests can control it.
type Clock interface {
	Now() time.Time
}

// SystemClock is the default Clock backed by time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type bucket struct {
	windowStart time.Time
	count       int
	suppressed  int
}

// Limiter enforces a per-fingerprint window: a window opens at the first
// call for a fingerprint and is replaced by a fresh one on the first call
// more than Spec.Window after it opened; no more than Spec.Count emissions
// are allowed within one window. Two adjacent windows can together emit up
// to 2*Spec.Count within an interval shorter than Spec.Window. It is safe
// for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	spec    Spec
	clock   Clock
	buckets map[string]*bucket
}

// New builds a Limiter from a parsed Spec. A zero Spec (Enabled() == false)
// produces a Limiter that never suppresses.
func New(spec Spec, clock Clock) *Limiter {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Limiter{
		spec:    spec,
		clock:   clock,
		buckets: make(map[string]*bucket),
	}
}

// ShouldEmit reports whether a message with the given fingerprint should be
// emitted right now. When the limiter is disabled it always returns
// (true, 0). When a suppressed streak just ended, suppressedSinceLast
// carries the number of messages dropped during that streak so the caller
// can annotate the emitted message.
func (l *Limiter) ShouldEmit(fingerprint string) (emit bool, suppressedSinceLast int) {
	if !l.spec.Enabled() {
		return true, 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	b, ok := l.buckets[fingerprint]
	if !ok || now.Sub(b.windowStart) > l.spec.Window {
		// Fresh window: either never seen, or overflowed past window+unit.
		// Carry the prior window's suppressed count forward so a streak
		// that ran right up to the rollover is still reported on the
		// first emit of the new window, rather than silently dropped.
		carried := 0
		if ok {
			carried = b.suppressed
		}
		b = &bucket{windowStart: now, suppressed: carried}
		l.buckets[fingerprint] = b
	}

	b.count++

	if b.count > l.spec.Count {
		b.suppressed++
		return false, 0
	}

	if b.suppressed > 0 {
		n := b.suppressed
		b.suppressed = 0
		return true, n
	}

	return true, 0
}

// SuppressionNotice renders the standard annotation appended to a message
// once suppression on its fingerprint has ended.
func SuppressionNotice(suppressed int) string {
	if suppressed <= 0 {
		return ""
	}
	return fmt.Sprintf(" (further messages of this kind will be dropped for the remaining window; %d suppressed)", suppressed)
}

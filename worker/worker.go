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

// Package worker is the pipeline core: a single background goroutine that
// drains the intake queue into the durable buffer, flushes the buffer to
// the transport on a cadence or a count trigger, applies exponential
// backoff on failure, and expires stale rows. It is the sole mutator of
// the buffer and the sole owner of the transport session.
package worker

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sabouaram/logshipper/buffer"
	"github.com/sabouaram/logshipper/event"
	"github.com/sabouaram/logshipper/intake"
	"github.com/sabouaram/logshipper/ratelimit"
	"github.com/sabouaram/logshipper/transport"

	liblog "github.com/nabbar/golib/logger"
	loglvl "github.com/nabbar/golib/logger/level"
	runstp "github.com/nabbar/golib/runner/startStop"
)

// Config carries every tunable the main loop reads once at Start and
// never again -- an immutable snapshot taken for the lifetime of the
// worker.
type Config struct {
	SocketTimeout      time.Duration
	QueueCheckInterval time.Duration
	FlushInterval      time.Duration
	FlushCount         int
	EventTTL           time.Duration
	IntakeDrainSoftCap int
	ErrorRateLimit     ratelimit.Spec
}

func (c Config) backoffBase() time.Duration {
	if c.SocketTimeout <= 0 {
		return 5 * time.Second
	}
	return c.SocketTimeout
}

func (c Config) backoffCap() time.Duration {
	d := 60 * time.Second
	if c.FlushInterval > d {
		d = c.FlushInterval
	}
	return d
}

// Worker runs the pipeline's main loop on its own goroutine via
// runner/startStop.StartStop.
type Worker struct {
	cfg     Config
	intake  *intake.Queue
	buf     buffer.Buffer
	trans   transport.Transport
	diag    liblog.Logger
	limiter *ratelimit.Limiter

	runner runstp.StartStop

	flushRequested atomic.Bool
	mu             sync.Mutex
	lastFlushTime  time.Time
	consecutive    int
	backoffUntil   time.Time
}

// New builds a Worker. The transport is opened lazily on the first flush
// that has something to send.
func New(cfg Config, q *intake.Queue, buf buffer.Buffer, trans transport.Transport, diag liblog.Logger) *Worker {
	w := &Worker{
		cfg:     cfg,
		intake:  q,
		buf:     buf,
		trans:   trans,
		diag:    diag,
		limiter: ratelimit.New(cfg.ErrorRateLimit, nil),
	}
	w.runner = runstp.New(w.run, w.shutdown)
	return w
}

// Start launches the background goroutine. Starting an already-running
// Worker is a no-op.
func (w *Worker) Start(ctx context.Context) error {
	return w.runner.Start(ctx)
}

// Stop signals shutdown and blocks until the worker's final flush and
// resource teardown complete.
func (w *Worker) Stop(ctx context.Context) error {
	return w.runner.Stop(ctx)
}

// IsRunning reports whether the background goroutine is active.
func (w *Worker) IsRunning() bool {
	return w.runner.IsRunning()
}

// RequestFlush edge-triggers an out-of-cadence flush on the next loop
// iteration, the mechanism behind the facade's Flush().
func (w *Worker) RequestFlush() {
	w.flushRequested.Store(true)
}

// Size reports the durable buffer's current row count, used by the
// facade's Monitor.
func (w *Worker) Size(ctx context.Context) (int, error) {
	return w.buf.Size(ctx)
}

func (w *Worker) run(ctx context.Context) error {
	checkTicker := time.NewTicker(w.queueCheckInterval())
	defer checkTicker.Stop()

	flushTicker := time.NewTicker(w.flushInterval())
	defer flushTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-checkTicker.C:
			w.drainStep(ctx)
			w.ttlStep(ctx)
			w.maybeFlush(ctx, false)
		case <-flushTicker.C:
			w.ttlStep(ctx)
			w.maybeFlush(ctx, true)
		}
	}
}

func (w *Worker) shutdown(ctx context.Context) error {
	w.drainStep(ctx)
	w.ttlStep(ctx)
	w.finalFlush(ctx)

	if w.trans != nil {
		_ = w.trans.Close()
	}
	if w.buf != nil {
		_ = w.buf.Close()
	}

	return nil
}

// finalFlush attempts exactly one flush cycle regardless of the backoff
// deadline, per the documented shutdown sequence.
func (w *Worker) finalFlush(ctx context.Context) {
	rows, err := w.buf.ClaimBatch(ctx, w.flushCount())
	if err != nil {
		w.logInternal(err, "shutdown: claim batch failed")
		return
	}
	if len(rows) == 0 {
		return
	}
	w.sendBatch(ctx, rows)
}

func (w *Worker) flushCount() int {
	if w.cfg.FlushCount <= 0 {
		return 50
	}
	return w.cfg.FlushCount
}

// queueCheckInterval and flushInterval defensively default their tunables
// the same way flushCount and drainSoftCap do: time.NewTicker panics on a
// non-positive duration, and Config.Validate places no lower bound on
// either field.
func (w *Worker) queueCheckInterval() time.Duration {
	if w.cfg.QueueCheckInterval <= 0 {
		return 2 * time.Second
	}
	return w.cfg.QueueCheckInterval
}

func (w *Worker) flushInterval() time.Duration {
	if w.cfg.FlushInterval <= 0 {
		return 10 * time.Second
	}
	return w.cfg.FlushInterval
}

func (w *Worker) drainSoftCap() int {
	if w.cfg.IntakeDrainSoftCap <= 0 {
		return 1000
	}
	return w.cfg.IntakeDrainSoftCap
}

// drainStep moves items from the intake queue into the durable buffer,
// raising flushRequested once the queued count reaches FlushCount.
func (w *Worker) drainStep(ctx context.Context) {
	items := w.intake.DrainBatch(ctx, 0, w.drainSoftCap())
	if len(items) == 0 {
		return
	}

	for _, it := range items {
		if _, err := w.buf.Enqueue(ctx, it.Payload, it.IntakeTime); err != nil {
			w.logInternal(err, "drain: buffer insert failed")
		}
	}

	if size, err := w.buf.Size(ctx); err == nil && size >= w.flushCount() {
		w.RequestFlush()
	}
}

func (w *Worker) ttlStep(ctx context.Context) {
	if w.cfg.EventTTL <= 0 {
		return
	}
	if _, err := w.buf.Expire(ctx, time.Now(), w.cfg.EventTTL); err != nil {
		w.logInternal(err, "ttl: expire failed")
	}
}

// maybeFlush runs the flush step described in the main-loop spec: it only
// proceeds when requested or the interval elapsed, and only when the
// backoff deadline has passed.
func (w *Worker) maybeFlush(ctx context.Context, intervalElapsed bool) {
	w.mu.Lock()
	due := time.Now().After(w.backoffUntil) || time.Now().Equal(w.backoffUntil)
	w.mu.Unlock()

	if !due {
		return
	}
	if !w.flushRequested.Load() && !intervalElapsed {
		return
	}

	rows, err := w.buf.ClaimBatch(ctx, w.flushCount())
	if err != nil {
		w.logInternal(err, "flush: claim batch failed")
		return
	}

	if len(rows) == 0 {
		w.flushRequested.Store(false)
		w.mu.Lock()
		w.lastFlushTime = time.Now()
		w.mu.Unlock()
		return
	}

	w.sendBatch(ctx, rows)
}

func (w *Worker) sendBatch(ctx context.Context, rows []event.Row) {
	ids := make([]int64, len(rows))
	payloads := make([][]byte, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
		payloads[i] = r.Payload
	}

	if err := w.ensureTransportOpen(ctx); err != nil {
		w.onSendFailure(ctx, ids, err)
		return
	}

	if err := w.trans.Send(ctx, payloads); err != nil {
		w.onSendFailure(ctx, ids, err)
		return
	}

	w.onSendSuccess(ctx, ids)
}

func (w *Worker) ensureTransportOpen(ctx context.Context) error {
	return w.trans.Open(ctx)
}

func (w *Worker) onSendSuccess(ctx context.Context, ids []int64) {
	if err := w.buf.Ack(ctx, ids); err != nil {
		w.logInternal(err, "flush: ack failed")
	}

	w.mu.Lock()
	w.consecutive = 0
	w.lastFlushTime = time.Now()
	w.mu.Unlock()

	w.flushRequested.Store(false)

	if size, err := w.buf.Size(ctx); err == nil && size > 0 {
		w.RequestFlush()
	}
}

func (w *Worker) onSendFailure(ctx context.Context, ids []int64, cause error) {
	_ = w.trans.Close()

	if err := w.buf.Requeue(ctx, ids); err != nil {
		w.logInternal(err, "flush: requeue failed")
	}

	w.mu.Lock()
	w.consecutive++
	n := w.consecutive
	w.backoffUntil = time.Now().Add(w.backoff(n))
	w.mu.Unlock()

	w.logInternal(cause, "flush: send failed")
}

// backoff computes min(cap, base*2^(n-1)) * uniform(0.5, 1.5).
func (w *Worker) backoff(n int) time.Duration {
	base := w.cfg.backoffBase()
	ceiling := w.cfg.backoffCap()

	if n < 1 {
		n = 1
	}

	// Double one step at a time and stop as soon as the ceiling is
	// reached, so base*2^(n-1) cannot overflow before the min() against
	// ceiling.
	d := base
	for i := 1; i < n && d < ceiling; i++ {
		d *= 2
	}
	if d <= 0 || d > ceiling {
		d = ceiling
	}

	jitter := 0.5 + rand.Float64()
	return time.Duration(float64(d) * jitter)
}

func (w *Worker) logInternal(err error, msg string) {
	if w.diag == nil {
		return
	}

	fingerprint := msg
	emit, suppressed := w.limiter.ShouldEmit(fingerprint)
	if !emit {
		return
	}

	text := msg
	if suppressed > 0 {
		text += ratelimit.SuppressionNotice(suppressed)
	}

	w.diag.Entry(loglvl.ErrorLevel, text).ErrorAdd(true, err).Log()
}

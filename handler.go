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

// Package logshipper is the handler facade: it wires the intake queue,
// durable buffer, transport and worker together behind three operations
// -- Emit, Flush, Close -- that never surface an error to the caller,
// plus a Monitor/Prometheus addition for host observability.
package logshipper

import (
	"context"
	"sync"
	"time"

	"github.com/sabouaram/logshipper/buffer"
	"github.com/sabouaram/logshipper/buffer/memory"
	"github.com/sabouaram/logshipper/buffer/sqlite"
	"github.com/sabouaram/logshipper/format"
	"github.com/sabouaram/logshipper/intake"
	"github.com/sabouaram/logshipper/ratelimit"
	"github.com/sabouaram/logshipper/transport"
	"github.com/sabouaram/logshipper/worker"

	liblog "github.com/nabbar/golib/logger"
	loglvl "github.com/nabbar/golib/logger/level"
)

// Handler is the embedded asynchronous log-shipping pipeline's public
// surface. Construction starts the worker goroutine immediately; Close
// stops it.
type Handler struct {
	cfg     Config
	in      *intake.Queue
	buf     buffer.Buffer
	trans   transport.Transport
	wrk     *worker.Worker
	fmt     format.Formatter
	diag    liblog.Logger
	limiter *ratelimit.Limiter

	metrics *metricsSet

	mu     sync.Mutex
	closed bool
}

// New builds and starts a Handler. diagnostic is an injected logger handle
// distinct from the one the host application feeds through this same
// handler, breaking the feedback loop between the pipeline's own errors
// and the logs it ships.
func New(ctx context.Context, cfg Config, formatter format.Formatter, diagnostic liblog.Logger) (*Handler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	buf, err := openBuffer(cfg)
	if err != nil {
		return nil, ErrorBufferOpen.Error(err)
	}

	trans, err := transport.Default().New(cfg.TransportName, transport.Config{
		Host:          cfg.Host,
		Port:          cfg.Port,
		SSLEnable:     cfg.SSLEnable,
		SSLVerify:     cfg.SSLVerify,
		KeyFile:       cfg.KeyFile,
		CertFile:      cfg.CertFile,
		CACerts:       cfg.CACerts,
		SocketTimeout: cfg.SocketTimeout.Seconds(),
	})
	if err != nil {
		_ = buf.Close()
		return nil, ErrorTransportBuild.Error(err)
	}

	rateSpec, rErr := ratelimit.ParseSpec(cfg.ErrorLogRateLimit)
	if rErr != nil {
		_ = buf.Close()
		_ = trans.Close()
		return nil, rErr
	}

	q := intake.New()

	h := &Handler{
		cfg:     cfg,
		in:      q,
		buf:     buf,
		trans:   trans,
		fmt:     formatter,
		diag:    diagnostic,
		limiter: ratelimit.New(rateSpec, nil),
		metrics: newMetricsSet(),
	}

	h.wrk = worker.New(worker.Config{
		SocketTimeout:      cfg.SocketTimeout,
		QueueCheckInterval: cfg.QueueCheckInterval,
		FlushInterval:      cfg.FlushInterval,
		FlushCount:         cfg.FlushCount,
		EventTTL:           cfg.EventTTL,
		IntakeDrainSoftCap: cfg.IntakeDrainSoftCap,
		ErrorRateLimit:     rateSpec,
	}, q, buf, trans, diagnostic)

	if err = h.wrk.Start(ctx); err != nil {
		_ = buf.Close()
		_ = trans.Close()
		return nil, err
	}

	return h, nil
}

func openBuffer(cfg Config) (buffer.Buffer, error) {
	if cfg.DatabasePath == "" {
		return memory.New(), nil
	}
	return sqlite.Open(cfg.DatabasePath, cfg.DatabaseEventChunkSize, cfg.DatabaseTimeout)
}

// Emit formats record and hands it to the intake queue. It never blocks
// and never raises. A disabled handler drops the record silently; a
// formatter error or an oversized payload drops it and logs the drop to
// the diagnostic logger, gated by the ErrorLogRateLimit limiter (every
// drop is logged when no limit is configured).
func (h *Handler) Emit(record format.Record) {
	if !h.cfg.Enable {
		return
	}

	payload, err := h.fmt.Format(record)
	if err != nil {
		h.logDropped("emit: formatter error", err)
		return
	}

	if h.cfg.MaxPayloadSize > 0 && len(payload) > h.cfg.MaxPayloadSize {
		h.logDropped("emit: payload exceeds max-payload-size", nil)
		h.metrics.droppedOversized.Inc()
		return
	}

	h.in.Push(payload, time.Now().UTC())
	h.metrics.emitted.Inc()
}

// Flush edge-triggers an out-of-cadence worker flush. Best-effort: it
// returns immediately and carries no delivery guarantee.
func (h *Handler) Flush() {
	h.wrk.RequestFlush()
}

// Close signals shutdown, waits for the worker's final flush and
// resource teardown, and is idempotent: a second call is a no-op.
func (h *Handler) Close(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	h.in.Close()
	_ = h.wrk.Stop(ctx)
	return nil
}

func (h *Handler) logDropped(msg string, err error) {
	if h.diag == nil {
		return
	}

	emit, suppressed := h.limiter.ShouldEmit(msg)
	if !emit {
		return
	}

	text := msg
	if suppressed > 0 {
		text += ratelimit.SuppressionNotice(suppressed)
	}

	h.diag.Entry(loglvl.WarnLevel, text).ErrorAdd(true, err).Log()
}

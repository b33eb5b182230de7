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

package logshipper

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "logshipper"

// metricsSet is the handler's Prometheus surface: counters for the
// events the facade itself touches directly (Emit-side drops), plus a
// gauge bound to the durable buffer's live size so an operator can graph
// backlog growth during an outage.
type metricsSet struct {
	emitted          prometheus.Counter
	droppedOversized prometheus.Counter
	bufferSize       prometheus.GaugeFunc
}

func newMetricsSet() *metricsSet {
	return &metricsSet{
		emitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_emitted_total",
			Help:      "Records accepted by Emit and pushed to the intake queue.",
		}),
		droppedOversized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_dropped_oversized_total",
			Help:      "Records dropped at Emit time for exceeding MaxPayloadSize.",
		}),
	}
}

// bindBufferGauge wires a GaugeFunc that reads the live buffer size on
// every scrape, grounded on the same pull-based pattern as
// database/gorm's pool-size gauges.
func (h *Handler) bindBufferGauge() {
	h.metrics.bufferSize = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "buffer_size",
		Help:      "Current row count of the durable buffer (Queued + InFlight).",
	}, func() float64 {
		n, err := h.buf.Size(context.Background())
		if err != nil {
			return -1
		}
		return float64(n)
	})
}

// Collectors returns every Prometheus collector this Handler exposes, for
// the host application to register with its own registry
// (prometheus.Registry.MustRegister(handler.Collectors()...)).
func (h *Handler) Collectors() []prometheus.Collector {
	if h.metrics.bufferSize == nil {
		h.bindBufferGauge()
	}
	return []prometheus.Collector{h.metrics.emitted, h.metrics.droppedOversized, h.metrics.bufferSize}
}

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

package worker_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sabouaram/logshipper/buffer/memory"
	"github.com/sabouaram/logshipper/intake"
	"github.com/sabouaram/logshipper/worker"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// fakeTransport is an in-process transport.Transport double: it either
// records every sent batch or fails every Send, depending on failUntil.
type fakeTransport struct {
	mu        sync.Mutex
	open      bool
	opens     int
	sent      [][][]byte
	failUntil int // Send fails for the first failUntil calls
	sendCalls int
}

func (f *fakeTransport) Open(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = true
	f.opens++
	return nil
}

func (f *fakeTransport) Send(ctx context.Context, payloads [][]byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sendCalls++
	if f.sendCalls <= f.failUntil {
		return errors.New("simulated send failure")
	}

	cp := make([][]byte, len(payloads))
	copy(cp, payloads)
	f.sent = append(f.sent, cp)
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = false
	return nil
}

func (f *fakeTransport) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, batch := range f.sent {
		n += len(batch)
	}
	return n
}

var _ = Describe("Worker", func() {
	var (
		q   *intake.Queue
		buf *memory.Buffer
		tr  *fakeTransport
		cfg worker.Config
	)

	BeforeEach(func() {
		q = intake.New()
		buf = memory.New()
		tr = &fakeTransport{}
		cfg = worker.Config{
			SocketTimeout:      200 * time.Millisecond,
			QueueCheckInterval: 20 * time.Millisecond,
			FlushInterval:      30 * time.Millisecond,
			FlushCount:         50,
		}
	})

	It("delivers an emitted record within a couple of cycles", func() {
		w := worker.New(cfg, q, buf, tr, nil)

		Expect(w.Start(context.Background())).To(BeNil())
		defer w.Stop(context.Background())

		q.Push([]byte(`{"message":"hello"}`), time.Now())

		Eventually(func() int { return tr.sentCount() }, 2*time.Second, 10*time.Millisecond).Should(Equal(1))

		Eventually(func() (int, error) {
			return buf.Size(context.Background())
		}, time.Second).Should(Equal(0))
	})

	It("requeues a batch and retries after a transient failure", func() {
		tr.failUntil = 1
		w := worker.New(cfg, q, buf, tr, nil)

		Expect(w.Start(context.Background())).To(BeNil())
		defer w.Stop(context.Background())

		q.Push([]byte(`{"message":"retry-me"}`), time.Now())

		Eventually(func() int { return tr.sentCount() }, 3*time.Second, 10*time.Millisecond).Should(Equal(1))
	})

	It("delivers a final flush on shutdown even mid-backoff", func() {
		// The first Send fails; with a one-minute base the backoff after
		// it lasts at least 30s, so Stop below lands mid-backoff.
		tr.failUntil = 1
		cfg.SocketTimeout = time.Minute
		w := worker.New(cfg, q, buf, tr, nil)
		Expect(w.Start(context.Background())).To(BeNil())

		q.Push([]byte(`{"message":"final"}`), time.Now())

		Eventually(func() (int, error) {
			return buf.Size(context.Background())
		}, time.Second).ShouldNot(Equal(0))

		Eventually(func() int {
			tr.mu.Lock()
			defer tr.mu.Unlock()
			return tr.sendCalls
		}, time.Second, 10*time.Millisecond).Should(Equal(1))

		Expect(w.Stop(context.Background())).To(BeNil())
		Expect(tr.sentCount()).To(Equal(1))
	})
})

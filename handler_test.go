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

package logshipper_test

import (
	"context"
	"sync"
	"time"

	logshipper "github.com/sabouaram/logshipper"
	"github.com/sabouaram/logshipper/format"
	"github.com/sabouaram/logshipper/format/logstash"
	"github.com/sabouaram/logshipper/transport"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const fakeTransportName = "fake-test-transport"

// fakeTransport records every batch handed to Send, standing in for a
// real collector in these facade-level tests -- the worker/transport
// interaction itself is covered in worker/*_test.go.
type fakeTransport struct {
	mu   sync.Mutex
	sent [][]byte
}

func (f *fakeTransport) Open(ctx context.Context) error { return nil }

func (f *fakeTransport) Send(ctx context.Context, payloads [][]byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, payloads...)
	return nil
}

func (f *fakeTransport) Close() error { return nil }

func (f *fakeTransport) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

var sharedFake *fakeTransport

func init() {
	transport.Default().Register(fakeTransportName, func(cfg transport.Config) (transport.Transport, error) {
		sharedFake = &fakeTransport{}
		return sharedFake, nil
	})
}

func testConfig() logshipper.Config {
	cfg := logshipper.DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 5959
	cfg.TransportName = fakeTransportName
	cfg.QueueCheckInterval = 20 * time.Millisecond
	cfg.FlushInterval = 30 * time.Millisecond
	return cfg
}

var _ = Describe("Handler", func() {
	var fmtr format.Formatter

	BeforeEach(func() {
		var err error
		fmtr, err = logstash.New(format.Options{MessageType: "python-logstash"})
		Expect(err).ToNot(HaveOccurred())
	})

	It("ships an emitted record to the transport within a couple of cycles", func() {
		h, err := logshipper.New(context.Background(), testConfig(), fmtr, nil)
		Expect(err).ToNot(HaveOccurred())
		defer h.Close(context.Background())

		h.Emit(format.Record{Level: "INFO", Message: "hello", Time: time.Now()})

		Eventually(func() int { return sharedFake.count() }, 2*time.Second, 10*time.Millisecond).Should(Equal(1))
	})

	It("drops silently when disabled", func() {
		cfg := testConfig()
		cfg.Enable = false

		h, err := logshipper.New(context.Background(), cfg, fmtr, nil)
		Expect(err).ToNot(HaveOccurred())
		defer h.Close(context.Background())

		h.Emit(format.Record{Level: "INFO", Message: "should not ship", Time: time.Now()})

		Consistently(func() int { return sharedFake.count() }, 200*time.Millisecond, 20*time.Millisecond).Should(Equal(0))
	})

	It("rejects an invalid config before starting a worker", func() {
		cfg := testConfig()
		cfg.Host = ""

		h, err := logshipper.New(context.Background(), cfg, fmtr, nil)
		Expect(err).To(HaveOccurred())
		Expect(h).To(BeNil())
	})

	It("is idempotent on Close", func() {
		h, err := logshipper.New(context.Background(), testConfig(), fmtr, nil)
		Expect(err).ToNot(HaveOccurred())

		Expect(h.Close(context.Background())).To(BeNil())
		Expect(h.Close(context.Background())).To(BeNil())
	})

	It("exposes Prometheus collectors without panicking", func() {
		h, err := logshipper.New(context.Background(), testConfig(), fmtr, nil)
		Expect(err).ToNot(HaveOccurred())
		defer h.Close(context.Background())

		cols := h.Collectors()
		Expect(cols).To(HaveLen(3))
	})
})

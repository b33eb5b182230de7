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

package memory_test

import (
	"context"
	"time"

	"github.com/sabouaram/logshipper/buffer/memory"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Buffer", func() {
	var (
		ctx = context.Background()
		b   *memory.Buffer
	)

	BeforeEach(func() {
		b = memory.New()
	})

	It("assigns monotonically increasing ids", func() {
		id1, err := b.Enqueue(ctx, []byte("a"), time.Now())
		Expect(err).To(BeNil())
		id2, err := b.Enqueue(ctx, []byte("b"), time.Now())
		Expect(err).To(BeNil())
		Expect(id2).To(BeNumerically(">", id1))
	})

	It("never returns an in-flight row to a second claim", func() {
		_, _ = b.Enqueue(ctx, []byte("a"), time.Now())
		_, _ = b.Enqueue(ctx, []byte("b"), time.Now())

		first, err := b.ClaimBatch(ctx, 1)
		Expect(err).To(BeNil())
		Expect(first).To(HaveLen(1))

		second, err := b.ClaimBatch(ctx, 10)
		Expect(err).To(BeNil())
		Expect(second).To(HaveLen(1))
		Expect(second[0].Payload).To(Equal([]byte("b")))
	})

	It("permanently drops acked rows", func() {
		id, _ := b.Enqueue(ctx, []byte("a"), time.Now())
		_, _ = b.ClaimBatch(ctx, 10)

		Expect(b.Ack(ctx, []int64{id})).To(BeNil())

		n, err := b.Size(ctx)
		Expect(err).To(BeNil())
		Expect(n).To(Equal(0))
	})

	It("returns requeued rows to Queued for the next claim", func() {
		id, _ := b.Enqueue(ctx, []byte("a"), time.Now())
		_, _ = b.ClaimBatch(ctx, 10)

		Expect(b.Requeue(ctx, []int64{id})).To(BeNil())

		rows, err := b.ClaimBatch(ctx, 10)
		Expect(err).To(BeNil())
		Expect(rows).To(HaveLen(1))
		Expect(rows[0].ID).To(Equal(id))
	})

	It("expires rows older than ttl regardless of state", func() {
		old := time.Now().Add(-time.Hour)
		_, _ = b.Enqueue(ctx, []byte("a"), old)
		_, _ = b.Enqueue(ctx, []byte("b"), time.Now())
		// Claim the stale row so it is InFlight when Expire runs.
		_, _ = b.ClaimBatch(ctx, 1)

		dropped, err := b.Expire(ctx, time.Now(), time.Minute)
		Expect(err).To(BeNil())
		Expect(dropped).To(Equal(1))

		n, _ := b.Size(ctx)
		Expect(n).To(Equal(1))
	})

	It("rejects further operations after Close", func() {
		Expect(b.Close()).To(BeNil())

		_, err := b.Enqueue(ctx, []byte("a"), time.Now())
		Expect(err).ToNot(BeNil())
	})
})

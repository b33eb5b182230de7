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

package ratelimit_test

import (
	"time"

	"github.com/sabouaram/logshipper/ratelimit"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// fakeClock lets tests move time forward deterministically.
type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }
func (f *fakeClock) Advance(d time.Duration) {
	f.now = f.now.Add(d)
}

var _ = Describe("ParseSpec", func() {
	It("parses a valid spec", func() {
		s, err := ratelimit.ParseSpec("3 per minute")
		Expect(err).To(BeNil())
		Expect(s.Count).To(Equal(3))
		Expect(s.Window).To(Equal(time.Minute))
		Expect(s.Enabled()).To(BeTrue())
	})

	It("is case-insensitive and accepts plural units", func() {
		s, err := ratelimit.ParseSpec("10 PER seconds")
		Expect(err).To(BeNil())
		Expect(s.Count).To(Equal(10))
		Expect(s.Window).To(Equal(time.Second))
	})

	It("treats an empty spec as disabled", func() {
		s, err := ratelimit.ParseSpec("")
		Expect(err).To(BeNil())
		Expect(s.Enabled()).To(BeFalse())
	})

	It("rejects malformed specs", func() {
		_, err := ratelimit.ParseSpec("not a spec")
		Expect(err).ToNot(BeNil())
	})

	It("rejects unknown units", func() {
		_, err := ratelimit.ParseSpec("3 per fortnight")
		Expect(err).ToNot(BeNil())
	})
})

var _ = Describe("Limiter", func() {
	It("always emits when disabled", func() {
		l := ratelimit.New(ratelimit.Spec{}, nil)
		for i := 0; i < 100; i++ {
			emit, suppressed := l.ShouldEmit("boom")
			Expect(emit).To(BeTrue())
			Expect(suppressed).To(Equal(0))
		}
	})

	It("suppresses sound soundness: fewer than N+1 emissions per window", func() {
		clk := &fakeClock{now: time.Now()}
		spec, _ := ratelimit.ParseSpec("3 per minute")
		l := ratelimit.New(spec, clk)

		emitted := 0
		for i := 0; i < 10; i++ {
			if emit, _ := l.ShouldEmit("boom"); emit {
				emitted++
			}
		}
		Expect(emitted).To(Equal(3))
	})

	It("reports the suppressed count when a window rolls over", func() {
		clk := &fakeClock{now: time.Now()}
		spec, _ := ratelimit.ParseSpec("2 per minute")
		l := ratelimit.New(spec, clk)

		Expect(firstOf(l.ShouldEmit("boom"))).To(BeTrue())
		Expect(firstOf(l.ShouldEmit("boom"))).To(BeTrue())

		emit, suppressed := l.ShouldEmit("boom")
		Expect(emit).To(BeFalse())
		Expect(suppressed).To(Equal(0))

		emit, suppressed = l.ShouldEmit("boom")
		Expect(emit).To(BeFalse())

		clk.Advance(2 * time.Minute)

		emit, suppressed = l.ShouldEmit("boom")
		Expect(emit).To(BeTrue())
		Expect(suppressed).To(Equal(2))
	})

	It("tracks distinct fingerprints independently", func() {
		clk := &fakeClock{now: time.Now()}
		spec, _ := ratelimit.ParseSpec("1 per minute")
		l := ratelimit.New(spec, clk)

		Expect(firstOf(l.ShouldEmit("a"))).To(BeTrue())
		Expect(firstOf(l.ShouldEmit("b"))).To(BeTrue())
		Expect(firstOf(l.ShouldEmit("a"))).To(BeFalse())
	})
})

var _ = Describe("SuppressionNotice", func() {
	It("is empty when nothing was suppressed", func() {
		Expect(ratelimit.SuppressionNotice(0)).To(Equal(""))
	})

	It("mentions the drop and the count otherwise", func() {
		msg := ratelimit.SuppressionNotice(5)
		Expect(msg).To(ContainSubstring("further messages of this kind will be dropped"))
		Expect(msg).To(ContainSubstring("5"))
	})
})

func firstOf(b bool, _ int) bool { return b }

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
	"os"
	"path/filepath"

	logshipper "github.com/sabouaram/logshipper"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config", func() {
	It("accepts a minimally-filled default config", func() {
		cfg := logshipper.DefaultConfig()
		cfg.Host = "collector.internal"
		cfg.Port = 5959

		Expect(cfg.Validate()).To(BeNil())
	})

	It("rejects a missing host", func() {
		cfg := logshipper.DefaultConfig()
		cfg.Port = 5959

		Expect(cfg.Validate()).To(HaveOccurred())
	})

	It("rejects an out-of-range port", func() {
		cfg := logshipper.DefaultConfig()
		cfg.Host = "collector.internal"
		cfg.Port = 70000

		Expect(cfg.Validate()).To(HaveOccurred())
	})

	It("clones CACerts independently", func() {
		cfg := logshipper.DefaultConfig()
		cfg.CACerts = []string{"/etc/ca/root.pem"}

		clone := cfg.Clone()
		clone.CACerts[0] = "/tmp/other.pem"

		Expect(cfg.CACerts[0]).To(Equal("/etc/ca/root.pem"))
	})

	It("loads a config file over the defaults", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "logshipper.yaml")

		content := "host: collector.internal\nport: 5959\nflush-count: 25\n"
		Expect(os.WriteFile(path, []byte(content), 0o600)).To(Succeed())

		cfg, err := logshipper.LoadConfig(path)
		Expect(err).ToNot(HaveOccurred())
		Expect(cfg.Host).To(Equal("collector.internal"))
		Expect(cfg.Port).To(Equal(5959))
		Expect(cfg.FlushCount).To(Equal(25))
		// Untouched fields keep their documented default.
		Expect(cfg.FlushInterval.Seconds()).To(Equal(10.0))
	})

	It("round-trips through SaveConfig and LoadConfig", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "roundtrip.yaml")

		cfg := logshipper.DefaultConfig()
		cfg.Host = "collector.internal"
		cfg.Port = 5959
		cfg.EventTTL = 5 * 60 * 1e9 // 5 minutes, expressed in nanoseconds like time.Duration

		Expect(logshipper.SaveConfig(path, cfg)).To(Succeed())

		loaded, err := logshipper.LoadConfig(path)
		Expect(err).ToNot(HaveOccurred())
		Expect(loaded.Host).To(Equal(cfg.Host))
		Expect(loaded.Port).To(Equal(cfg.Port))
	})
})

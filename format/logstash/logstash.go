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

// Package logstash is the reference Formatter: it renders a generic
// python-logstash-compatible document, the canonical consumer being
// Logstash's tcp input with the json codec.
package logstash

import (
	"bytes"
	"encoding/json"
	"net"
	"os"
	"strings"

	"github.com/sabouaram/logshipper/format"
)

const defaultMessageType = "python-logstash"

// Formatter renders Record values into the reserved-field document shape
// described by the formatter contract.
type Formatter struct {
	opts format.Options
	pid  int
	host string
}

// New builds a Formatter bound to the running process's pid and hostname
// (or FQDN, per opts.FQDN).
func New(opts format.Options) (*Formatter, error) {
	h, err := hostName(opts.FQDN)
	if err != nil {
		return nil, err
	}

	return &Formatter{
		opts: opts,
		pid:  os.Getpid(),
		host: h,
	}, nil
}

func hostName(fqdn bool) (string, error) {
	h, err := os.Hostname()
	if err != nil {
		return "", err
	}
	if !fqdn {
		return h, nil
	}
	if full := lookupFQDN(h); full != "" {
		return full, nil
	}
	// A true FQDN lookup needs a resolver round trip; fall back to the
	// short hostname if none is configured in this environment.
	return h, nil
}

// lookupFQDN resolves short to an address and reverse-resolves that
// address back to a canonical name, the same forward-then-reverse dance
// getaddrinfo(AI_CANONNAME) performs. Any failure along the way yields an
// empty string so the caller falls back to the short hostname.
func lookupFQDN(short string) string {
	addrs, err := net.LookupHost(short)
	if err != nil || len(addrs) == 0 {
		return ""
	}
	names, err := net.LookupAddr(addrs[0])
	if err != nil || len(names) == 0 {
		return ""
	}
	return strings.TrimSuffix(names[0], ".")
}

func (f *Formatter) messageType() string {
	if f.opts.MessageType != "" {
		return f.opts.MessageType
	}
	return defaultMessageType
}

// Document builds the reserved-field document shape described by the
// formatter contract, without encoding it. Exported so other Formatter
// variants (format/django) can inject additional fields before encoding.
func (f *Formatter) Document(rec format.Record) map[string]interface{} {
	doc := make(map[string]interface{}, 16)

	extras := doc
	if f.opts.ExtraPrefix != "" {
		nested := make(map[string]interface{})
		doc[f.opts.ExtraPrefix] = nested
		extras = nested
	}

	for k, v := range f.opts.Extra {
		if format.SkipListed(k) {
			continue
		}
		extras[k] = v
	}
	for k, v := range rec.Extra {
		if format.SkipListed(k) {
			continue
		}
		extras[k] = v
	}

	// Reserved fields always win, per the documented precedence for the
	// extra_prefix == "" collision case.
	doc["@timestamp"] = rec.Time.UTC().Format("2006-01-02T15:04:05.000Z")
	doc["@version"] = "1"
	doc["host"] = f.host
	doc["level"] = rec.Level
	doc["logsource"] = f.host
	doc["message"] = rec.Message
	doc["pid"] = f.pid
	doc["port"] = f.opts.Port
	doc["program"] = os.Args[0]
	doc["type"] = f.messageType()

	if len(f.opts.Tags) > 0 {
		doc["tags"] = f.opts.Tags
	}

	return doc
}

// Options returns a copy of the Formatter's options, letting a wrapping
// Formatter variant reuse this one's EnsureASCII setting when encoding.
func (f *Formatter) Options() format.Options {
	return f.opts
}

// Format implements format.Formatter.
func (f *Formatter) Format(rec format.Record) ([]byte, error) {
	return Encode(f.Document(rec), f.opts.EnsureASCII)
}

// Encode renders doc as the newline-free UTF-8 JSON document the wire
// format requires, honoring ensureASCII the same way Format does.
func Encode(doc map[string]interface{}, ensureASCII bool) ([]byte, error) {
	// encoding/json already emits raw UTF-8 for non-ASCII runes by
	// default (it only escapes HTML-sensitive runes and U+2028/U+2029),
	// which is exactly the ensure_ascii=false behaviour. ensure_ascii=true
	// needs an explicit re-escape pass since the stdlib has no such mode.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	out := bytes.TrimRight(buf.Bytes(), "\n")

	if ensureASCII {
		out = escapeNonASCII(out)
	}

	return out, nil
}

// escapeNonASCII rewrites a UTF-8 JSON document so every rune outside the
// ASCII range (U+0080 and above) is escaped as \uXXXX (and surrogate pairs for
// runes above the BMP), matching ensure_ascii=true in the formatter
// contract.
func escapeNonASCII(in []byte) []byte {
	out := make([]byte, 0, len(in))
	for _, r := range string(in) {
		if r < 0x80 {
			out = append(out, byte(r))
			continue
		}
		if r > 0xFFFF {
			r1, r2 := utf16Pair(r)
			out = append(out, []byte(`\u`)...)
			out = append(out, hex4(r1)...)
			out = append(out, []byte(`\u`)...)
			out = append(out, hex4(r2)...)
			continue
		}
		out = append(out, []byte(`\u`)...)
		out = append(out, hex4(uint16(r))...)
	}
	return out
}

func utf16Pair(r rune) (uint16, uint16) {
	r -= 0x10000
	return uint16(0xD800 + (r >> 10)), uint16(0xDC00 + (r & 0x3FF))
}

func hex4(v uint16) []byte {
	const hexDigits = "0123456789abcdef"
	return []byte{
		hexDigits[(v>>12)&0xF],
		hexDigits[(v>>8)&0xF],
		hexDigits[(v>>4)&0xF],
		hexDigits[v&0xF],
	}
}

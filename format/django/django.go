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

// Package django is a Formatter variant for hosts embedding this handler in
// a Django-style web framework: it injects the request-scoped fields a web
// framework typically carries (method, path, status, duration) in addition
// to the generic logstash document, differing from logstash.Formatter only
// in which extra fields it injects.
package django

import (
	"github.com/sabouaram/logshipper/format"
	"github.com/sabouaram/logshipper/format/logstash"
)

// requestKey is the format.Record.Extra key a caller populates with a
// RequestInfo to have it injected as top-level document fields.
const requestKey = "request"

// RequestInfo carries the web-framework fields this variant injects. It is
// expected to travel in format.Record.Extra under the key "request", either
// as a value or a pointer.
type RequestInfo struct {
	Method     string `json:"method,omitempty"`
	Path       string `json:"path,omitempty"`
	Status     int    `json:"status,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
}

// Formatter wraps the generic logstash.Formatter: it always sets
// message_type to "django" unless the caller overrode it explicitly, and
// flattens a RequestInfo riding in Record.Extra into top-level "method",
// "path", "status" and "duration_ms" document fields instead of letting it
// pass through as an opaque nested extra.
type Formatter struct {
	inner *logstash.Formatter
}

// New builds a Django-aware Formatter.
func New(opts format.Options) (*Formatter, error) {
	if opts.MessageType == "" {
		opts.MessageType = "django"
	}
	inner, err := logstash.New(opts)
	if err != nil {
		return nil, err
	}
	return &Formatter{inner: inner}, nil
}

// Format implements format.Formatter.
func (f *Formatter) Format(rec format.Record) ([]byte, error) {
	info, ok := takeRequestInfo(&rec)

	doc := f.inner.Document(rec)
	if ok {
		injectRequestInfo(doc, info)
	}

	return logstash.Encode(doc, f.inner.Options().EnsureASCII)
}

// takeRequestInfo extracts a RequestInfo from rec.Extra[requestKey], if
// present, and returns rec with that entry removed so it doesn't also
// leak through as an opaque nested extra alongside the flattened fields.
func takeRequestInfo(rec *format.Record) (RequestInfo, bool) {
	if rec.Extra == nil {
		return RequestInfo{}, false
	}

	raw, present := rec.Extra[requestKey]
	if !present {
		return RequestInfo{}, false
	}

	var info RequestInfo
	switch v := raw.(type) {
	case RequestInfo:
		info = v
	case *RequestInfo:
		if v == nil {
			return RequestInfo{}, false
		}
		info = *v
	default:
		return RequestInfo{}, false
	}

	cleaned := make(map[string]interface{}, len(rec.Extra)-1)
	for k, v := range rec.Extra {
		if k == requestKey {
			continue
		}
		cleaned[k] = v
	}
	rec.Extra = cleaned

	return info, true
}

// injectRequestInfo writes the request-scoped fields directly into doc,
// the "method, path, status, duration" fields the package doc promises.
func injectRequestInfo(doc map[string]interface{}, info RequestInfo) {
	if info.Method != "" {
		doc["method"] = info.Method
	}
	if info.Path != "" {
		doc["path"] = info.Path
	}
	if info.Status != 0 {
		doc["status"] = info.Status
	}
	if info.DurationMS != 0 {
		doc["duration_ms"] = info.DurationMS
	}
}

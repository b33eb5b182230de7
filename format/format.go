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

// Package format defines the formatter contract: the boundary between the
// host application's logging framework and the shipping pipeline. Only the
// output contract (a newline-free UTF-8 JSON document) matters to the
// pipeline; this package also ships two reference formatter implementations.
package format

import "time"

// Record is the single log record the host's logging framework hands to
// the handler on emission. Level, Message and Time are always present;
// Extra carries per-call structured fields.
type Record struct {
	Level   string
	Message string
	Time    time.Time
	Extra   map[string]interface{}
}

// Options configures a Formatter's output. Field semantics are exactly
// those of the external formatter contract.
type Options struct {
	// MessageType sets the value of the reserved "type" field.
	MessageType string
	// Tags is merged into the "tags" array on every record.
	Tags []string
	// FQDN selects the system FQDN for "host" instead of the bare hostname.
	FQDN bool
	// Port sets the value of the reserved "port" field -- conventionally
	// the collector port this process ships to, letting a multi-tenant
	// collector attribute a document to the pipeline that sent it.
	Port int
	// ExtraPrefix nests per-call and static extras under this key; empty
	// means merge extras at the top level, where a reserved field always
	// wins over an extra with the same key.
	ExtraPrefix string
	// Extra is a static mapping merged into the extras namespace on every
	// record, in addition to the per-call Record.Extra.
	Extra map[string]interface{}
	// EnsureASCII escapes non-ASCII runes as \uXXXX when true; otherwise
	// non-ASCII UTF-8 is emitted directly.
	EnsureASCII bool
}

// Formatter renders a Record into the wire payload: newline-free UTF-8
// JSON. The returned bytes must never contain an embedded '\n' -- the
// transport is responsible for the newline framing between events.
type Formatter interface {
	Format(rec Record) ([]byte, error)
}

// ReservedFields lists the top-level keys that a Formatter may write and
// that therefore must never be overwritten by extras -- see the
// "reserved wins" precedence rule documented on Options.ExtraPrefix.
var ReservedFields = map[string]struct{}{
	"@timestamp": {},
	"@version":   {},
	"host":       {},
	"level":      {},
	"logsource":  {},
	"message":    {},
	"pid":        {},
	"port":       {},
	"program":    {},
	"type":       {},
}

// SkipListed reports whether a record attribute name must never leak into
// the extras namespace (it either collides with a field the formatter
// manages directly, or is a framework-internal bookkeeping field).
func SkipListed(name string) bool {
	switch name {
	case "args", "exc_info", "exc_text", "stack_info", "created", "msecs",
		"relativeCreated", "levelno", "pathname", "filename", "module",
		"funcName", "lineno", "processName", "threadName":
		return true
	}
	return false
}

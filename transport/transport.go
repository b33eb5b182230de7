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

// Package transport is the shipping side of the pipeline: a Transport owns
// at most one live connection to the remote collector and knows nothing of
// buffering, backoff or rate limiting -- those are the worker's job.
package transport

import (
	"context"
	"fmt"
	"sync"
)

// Transport sends already-formatted payloads to a remote collector over a
// single, worker-owned connection.
type Transport interface {
	// Open establishes the underlying connection. Calling Open on an
	// already-open Transport is a no-op.
	Open(ctx context.Context) error

	// Send writes every payload in order over the current connection. A
	// partial failure (connection dropped mid-batch) must return an error
	// so the worker can requeue the whole batch; Send never partially
	// acknowledges a batch itself.
	Send(ctx context.Context, payloads [][]byte) error

	// Close tears down the underlying connection, if any.
	Close() error
}

// Config is the subset of logshipper.Config a Transport constructor needs.
// Concrete transports only read the fields relevant to them.
type Config struct {
	Host          string
	Port          int
	SSLEnable     bool
	SSLVerify     bool
	KeyFile       string
	CertFile      string
	CACerts       []string
	SocketTimeout float64 // seconds
	OnError       func(error)
	OnInfo        func(string)
}

// Constructor builds a Transport from a Config. Concrete transports
// register one under a name via Register.
type Constructor func(cfg Config) (Transport, error)

// Registry is a name -> Constructor lookup, the re-architected replacement
// for loading a transport dynamically by import path: every transport this
// module ships is compiled in and registered by init().
type Registry struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

var defaultRegistry = &Registry{ctors: make(map[string]Constructor)}

// Default returns the process-wide transport registry every transport
// package registers itself into from its own init().
func Default() *Registry {
	return defaultRegistry
}

// Register adds a named constructor. Registering the same name twice
// panics at init time, the same way a duplicate error-code registration
// does in this codebase's errors packages.
func (r *Registry) Register(name string, fn Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.ctors[name]; exists {
		panic(fmt.Sprintf("transport: constructor already registered for %q", name))
	}
	r.ctors[name] = fn
}

// New builds a Transport by name.
func (r *Registry) New(name string, cfg Config) (Transport, error) {
	r.mu.RLock()
	fn, ok := r.ctors[name]
	r.mu.RUnlock()

	if !ok {
		return nil, ErrorUnknownTransport.Error(fmt.Errorf("no transport registered for %q", name))
	}
	return fn(cfg)
}

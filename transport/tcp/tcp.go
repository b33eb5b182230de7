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

// Package tcp is the reference transport.Transport: a single TCP (optionally
// TLS) connection, newline-framed payloads, reconnect-on-error. Open and
// Send play the roles of Connect and Write in golib's socket/client/tcp;
// IsConnected, RegisterFuncError and RegisterFuncInfo keep that package's
// names.
package tcp

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sabouaram/logshipper/transport"

	tlscas "github.com/nabbar/golib/certificates/ca"
	tlscrt "github.com/nabbar/golib/certificates/certs"
	libtls "github.com/nabbar/golib/certificates"
	lbuuid "github.com/hashicorp/go-uuid"
)

// Name is the registry key this package registers itself under.
const Name = "tcp"

func init() {
	transport.Default().Register(Name, New)
}

// Transport is a single-connection TCP/TLS transport.Transport.
type Transport struct {
	mu        sync.Mutex
	cfg       transport.Config
	tlsConf   *tls.Config
	conn      net.Conn
	sessionID string

	onError func(error)
	onInfo  func(string)
}

// New builds a tcp.Transport from a transport.Config. It is registered
// into transport.Default() under Name so it can be selected by name from
// the facade's TransportName configuration field.
func New(cfg transport.Config) (transport.Transport, error) {
	t := &Transport{
		cfg:     cfg,
		onError: cfg.OnError,
		onInfo:  cfg.OnInfo,
	}

	if cfg.SSLEnable {
		tc, err := buildTLSConfig(cfg)
		if err != nil {
			return nil, err
		}
		t.tlsConf = tc
	}

	return t, nil
}

func buildTLSConfig(cfg transport.Config) (*tls.Config, error) {
	c := &libtls.Config{}

	if cfg.KeyFile != "" && cfg.CertFile != "" {
		pair, err := tlscrt.ParsePair(cfg.KeyFile, cfg.CertFile)
		if err != nil {
			return nil, ErrorTLSConfig.Error(err)
		}
		c.Certs = append(c.Certs, pair.Model())
	}

	for _, ca := range cfg.CACerts {
		cert, err := tlscas.Parse(ca)
		if err != nil {
			return nil, ErrorTLSConfig.Error(err)
		}
		c.RootCA = append(c.RootCA, cert)
	}

	tc := c.New().TlsConfig(cfg.Host)
	tc.InsecureSkipVerify = !cfg.SSLVerify

	return tc, nil
}

func (t *Transport) address() string {
	return fmt.Sprintf("%s:%d", t.cfg.Host, t.cfg.Port)
}

func (t *Transport) timeout() time.Duration {
	if t.cfg.SocketTimeout <= 0 {
		return 5 * time.Second
	}
	return time.Duration(t.cfg.SocketTimeout * float64(time.Second))
}

// Open implements transport.Transport. Calling Open while already connected
// is a no-op, matching IsConnected-guarded Connect in the socket client
// package this is grounded on.
func (t *Transport) Open(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		return nil
	}

	dialer := &net.Dialer{Timeout: t.timeout()}

	var conn net.Conn
	var err error

	if t.tlsConf != nil {
		conn, err = tls.DialWithDialer(dialer, "tcp", t.address(), t.tlsConf)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", t.address())
	}

	if err != nil {
		t.emitError(err)
		return ErrorConnect.Error(err)
	}

	if t.sessionID == "" {
		// A fresh id per connection lets the collector (and the host's own
		// diagnostic log) distinguish reconnects from a single long-lived
		// session without depending on socket-local addressing.
		if id, uerr := lbuuid.GenerateUUID(); uerr == nil {
			t.sessionID = id
		}
	}

	t.conn = conn
	t.emitInfo(fmt.Sprintf("connected to %s [session %s]", t.address(), t.sessionID))

	return nil
}

// Send implements transport.Transport: each payload is newline-framed and
// written in a single batched write. On any write error the connection is
// torn down so the next Send (after a fresh Open) starts clean -- partial
// sends are never acknowledged to the caller.
func (t *Transport) Send(ctx context.Context, payloads [][]byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return transport.ErrorNotOpen.Error(nil)
	}

	var buf bytes.Buffer
	for _, p := range payloads {
		buf.Write(p)
		buf.WriteByte('\n')
	}

	if dl, ok := ctx.Deadline(); ok {
		_ = t.conn.SetWriteDeadline(dl)
	} else {
		_ = t.conn.SetWriteDeadline(time.Now().Add(t.timeout()))
	}

	if _, err := t.conn.Write(buf.Bytes()); err != nil {
		t.emitError(err)
		_ = t.conn.Close()
		t.conn = nil
		t.sessionID = ""
		return ErrorSend.Error(err)
	}

	return nil
}

// Close implements transport.Transport.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return nil
	}

	err := t.conn.Close()
	t.conn = nil
	t.sessionID = ""
	return err
}

// IsConnected reports whether a live connection is currently held.
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil
}

// SessionID returns the identifier assigned to the current connection, or
// "" when not connected.
func (t *Transport) SessionID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sessionID
}

// RegisterFuncError installs the callback invoked on every transport-level
// error, mirroring socket/client/tcp's RegisterFuncError.
func (t *Transport) RegisterFuncError(fct func(error)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onError = fct
}

// RegisterFuncInfo installs the callback invoked on informational
// transport events (connect, reconnect), mirroring RegisterFuncInfo.
func (t *Transport) RegisterFuncInfo(fct func(string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onInfo = fct
}

func (t *Transport) emitError(err error) {
	if t.onError != nil {
		t.onError(err)
	}
}

func (t *Transport) emitInfo(msg string) {
	if t.onInfo != nil {
		t.onInfo(msg)
	}
}

var _ transport.Transport = (*Transport)(nil)

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

package tcp_test

import (
	"bufio"
	"context"
	"net"
	"time"

	"github.com/sabouaram/logshipper/transport"
	"github.com/sabouaram/logshipper/transport/tcp"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// lineServer accepts one connection and records every newline-framed line
// it receives, standing in for the remote collector in these tests.
type lineServer struct {
	ln    net.Listener
	lines chan string
}

func startLineServer() *lineServer {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	Expect(err).To(BeNil())

	s := &lineServer{ln: ln, lines: make(chan string, 64)}
	go s.accept()
	return s
}

func (s *lineServer) accept() {
	conn, err := s.ln.Accept()
	if err != nil {
		return
	}
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		s.lines <- scanner.Text()
	}
}

func (s *lineServer) hostPort() (string, int) {
	addr := s.ln.Addr().(*net.TCPAddr)
	return "127.0.0.1", addr.Port
}

func (s *lineServer) close() {
	_ = s.ln.Close()
}

var _ = Describe("Transport", func() {
	var srv *lineServer

	BeforeEach(func() {
		srv = startLineServer()
	})

	AfterEach(func() {
		srv.close()
	})

	It("registers itself under \"tcp\" in the default registry", func() {
		host, port := srv.hostPort()
		tr, err := transport.Default().New(tcp.Name, transport.Config{Host: host, Port: port})
		Expect(err).To(BeNil())
		Expect(tr).ToNot(BeNil())
	})

	It("opens a connection and ships newline-framed payloads", func() {
		host, port := srv.hostPort()
		tr, err := tcp.New(transport.Config{Host: host, Port: port, SocketTimeout: 2})
		Expect(err).To(BeNil())

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		Expect(tr.Open(ctx)).To(BeNil())
		defer tr.Close()

		Expect(tr.Send(ctx, [][]byte{[]byte(`{"a":1}`), []byte(`{"b":2}`)})).To(BeNil())

		Eventually(srv.lines).Should(Receive(Equal(`{"a":1}`)))
		Eventually(srv.lines).Should(Receive(Equal(`{"b":2}`)))
	})

	It("fails Send before Open", func() {
		host, port := srv.hostPort()
		tr, err := tcp.New(transport.Config{Host: host, Port: port})
		Expect(err).To(BeNil())

		err = tr.Send(context.Background(), [][]byte{[]byte("x")})
		Expect(err).ToNot(BeNil())
	})

	It("fails Open against a closed port", func() {
		// Grab an address then close the listener immediately so nothing
		// is bound there.
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).To(BeNil())
		addr := ln.Addr().(*net.TCPAddr)
		Expect(ln.Close()).To(BeNil())

		tr, err := tcp.New(transport.Config{
			Host:          "127.0.0.1",
			Port:          addr.Port,
			SocketTimeout: 0.5,
		})
		Expect(err).To(BeNil())

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		Expect(tr.Open(ctx)).ToNot(BeNil())
	})
})

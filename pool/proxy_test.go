/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
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
 */

package pool_test

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/nabbar/go-s3crt/certificates"
	. "github.com/nabbar/go-s3crt/pool"
	"github.com/nabbar/go-s3crt/runtimecrt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// connectProxy is a minimal CONNECT-tunneling proxy: it accepts one TCP
// connection at a time, reads a CONNECT request, optionally enforces HTTP
// Basic auth, then splices the accepted connection to target.
type connectProxy struct {
	ln          net.Listener
	target      string
	wantUser    string
	wantPass    string
	requireAuth bool
}

func newConnectProxy(target string) *connectProxy {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	Expect(err).To(BeNil())

	p := &connectProxy{ln: ln, target: target}
	go p.serve()
	return p
}

func (p *connectProxy) addr() (string, uint16) {
	host, portStr, _ := net.SplitHostPort(p.ln.Addr().String())
	port, _ := strconv.Atoi(portStr)
	return host, uint16(port)
}

func (p *connectProxy) close() { _ = p.ln.Close() }

func (p *connectProxy) serve() {
	for {
		c, err := p.ln.Accept()
		if err != nil {
			return
		}
		go p.handle(c)
	}
}

func (p *connectProxy) handle(c net.Conn) {
	defer func() { _ = c.Close() }()

	req, err := http.ReadRequest(bufio.NewReader(c))
	if err != nil || req.Method != http.MethodConnect {
		return
	}

	if p.requireAuth {
		user, pass, ok := req.BasicAuth()
		if !ok || user != p.wantUser || pass != p.wantPass {
			_, _ = c.Write([]byte("HTTP/1.1 407 Proxy Authentication Required\r\n\r\n"))
			return
		}
	}

	target, err := net.Dial("tcp", p.target)
	if err != nil {
		_, _ = c.Write([]byte("HTTP/1.1 502 Bad Gateway\r\n\r\n"))
		return
	}
	defer func() { _ = target.Close() }()

	if _, err := c.Write([]byte("HTTP/1.1 200 Connection Established\r\n\r\n")); err != nil {
		return
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); _, _ = io.Copy(target, c) }()
	go func() { defer wg.Done(); _, _ = io.Copy(c, target) }()
	wg.Wait()
}

var _ = Describe("Proxy CONNECT tunnel", func() {
	var (
		target *httptest.Server
		proxy  *connectProxy
	)

	AfterEach(func() {
		if target != nil {
			target.Close()
		}
		if proxy != nil {
			proxy.close()
		}
	})

	It("routes a request through an unauthenticated CONNECT proxy", func() {
		target = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(200)
			_, _ = w.Write([]byte("via-proxy"))
		}))

		targetHost := target.Listener.Addr().String()
		proxy = newConnectProxy(targetHost)
		pHost, pPort := proxy.addr()

		key, err := ParseEndpoint(target.URL)
		Expect(err).To(BeNil())

		opts := DefaultOptions()
		opts.Proxy = &ProxyConfig{Host: pHost, Port: pPort}

		p := NewPool(key, opts, runtimecrt.Acquire(), certificates.NewCache(), nil)
		resp, derr := p.Do(context.Background(), &Request{Method: "GET", Path: "/"})

		Expect(derr).To(BeNil())
		Expect(resp.Body).To(Equal([]byte("via-proxy")))
	})

	It("attaches HTTP Basic Proxy-Authorization when credentials are set", func() {
		target = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(200)
		}))

		targetHost := target.Listener.Addr().String()
		proxy = newConnectProxy(targetHost)
		proxy.requireAuth = true
		proxy.wantUser, proxy.wantPass = "alice", "s3cret"
		pHost, pPort := proxy.addr()

		key, err := ParseEndpoint(target.URL)
		Expect(err).To(BeNil())

		opts := DefaultOptions()
		opts.Proxy = &ProxyConfig{Host: pHost, Port: pPort, Username: "alice", Password: "s3cret"}

		p := NewPool(key, opts, runtimecrt.Acquire(), certificates.NewCache(), nil)
		resp, derr := p.Do(context.Background(), &Request{Method: "GET", Path: "/"})

		Expect(derr).To(BeNil())
		Expect(resp.StatusCode).To(Equal(200))
	})

	It("surfaces a ProxyError when the proxy rejects the CONNECT request", func() {
		target = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(200)
		}))

		targetHost := target.Listener.Addr().String()
		proxy = newConnectProxy(targetHost)
		proxy.requireAuth = true
		proxy.wantUser, proxy.wantPass = "alice", "s3cret"
		pHost, pPort := proxy.addr()

		key, err := ParseEndpoint(target.URL)
		Expect(err).To(BeNil())

		opts := DefaultOptions()
		opts.Proxy = &ProxyConfig{Host: pHost, Port: pPort, Username: "alice", Password: "wrong"}

		p := NewPool(key, opts, runtimecrt.Acquire(), certificates.NewCache(), nil)
		_, derr := p.Do(context.Background(), &Request{Method: "GET", Path: "/"})

		Expect(derr).ToNot(BeNil())
		Expect(derr.GetCode()).To(Equal(ErrorProxy))
	})
})

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

package pool

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/nabbar/go-s3crt/runtimecrt"
)

// conn is one pooled connection. It is owned exclusively by its current
// user: the pool never hands the same *conn to two concurrent requests. br
// persists across requests on the same connection so bytes read ahead of a
// response boundary (pipelined or not) are never dropped on reuse.
type conn struct {
	key   EndpointKey
	raw   net.Conn
	br    *bufio.Reader
	tls   bool
	state connState

	lastUsedAt time.Time
}

// errProxy marks a failure that occurred while establishing or
// authenticating the CONNECT tunnel through a configured proxy, so callers
// can surface the distinct proxy error kind instead of a connection error.
type errProxy struct{ err error }

func (e *errProxy) Error() string { return "proxy: " + e.err.Error() }
func (e *errProxy) Unwrap() error { return e.err }

func dial(ctx context.Context, rt *runtimecrt.Runtime, key EndpointKey, tlsCfg *tls.Config, connectTimeout time.Duration, proxy *ProxyConfig) (*conn, error) {
	dctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	var (
		raw net.Conn
		err error
	)

	if proxy != nil {
		raw, err = dialThroughProxy(dctx, rt, key, proxy)
	} else {
		raw, err = rt.DialContext(dctx, "tcp", key.Addr())
	}
	if err != nil {
		return nil, err
	}

	c := &conn{key: key, raw: raw, state: connInUse, lastUsedAt: time.Now()}

	if key.Scheme == "https" {
		tc := tls.Client(raw, tlsCfg)
		if err := tc.HandshakeContext(dctx); err != nil {
			_ = raw.Close()
			return nil, err
		}
		c.raw = tc
		c.tls = true
	}

	c.br = bufio.NewReaderSize(c.raw, 4096)
	return c, nil
}

// dialThroughProxy opens a TCP connection to proxy and issues CONNECT for
// key's target, attaching HTTP Basic auth if proxy carries credentials.
// The returned net.Conn is the raw tunnel; TLS (if any) is
// negotiated end-to-end through it by the caller exactly as for a direct
// dial, so the proxy never sees plaintext for an https endpoint.
func dialThroughProxy(ctx context.Context, rt *runtimecrt.Runtime, key EndpointKey, proxy *ProxyConfig) (net.Conn, error) {
	proxyAddr := net.JoinHostPort(proxy.Host, strconv.Itoa(int(proxy.Port)))

	raw, err := rt.DialContext(ctx, "tcp", proxyAddr)
	if err != nil {
		return nil, &errProxy{err: err}
	}

	req := &http.Request{
		Method: http.MethodConnect,
		URL:    &url.URL{Opaque: key.Addr()},
		Host:   key.Addr(),
		Header: make(http.Header),
	}
	if proxy.Username != "" {
		req.Header.Set("Proxy-Authorization", "Basic "+base64.StdEncoding.EncodeToString(
			[]byte(proxy.Username+":"+proxy.Password)))
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = raw.SetDeadline(deadline)
	}

	if err := req.Write(raw); err != nil {
		_ = raw.Close()
		return nil, &errProxy{err: err}
	}

	br := bufio.NewReader(raw)
	resp, err := http.ReadResponse(br, req)
	if err != nil {
		_ = raw.Close()
		return nil, &errProxy{err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_ = raw.Close()
		return nil, &errProxy{err: fmt.Errorf("CONNECT %s: proxy returned %s", key.Addr(), resp.Status)}
	}

	_ = raw.SetDeadline(time.Time{})
	return raw, nil
}

func (c *conn) markIdle() {
	c.state = connIdle
	c.lastUsedAt = time.Now()
}

func (c *conn) isExpired(maxIdle time.Duration) bool {
	return c.state == connIdle && time.Since(c.lastUsedAt) > maxIdle
}

func (c *conn) close() {
	c.state = connClosing
	_ = c.raw.Close()
	c.state = connDead
}

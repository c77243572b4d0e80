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
	"context"
	"crypto/tls"
	"errors"
	"net"
	"sync"

	"github.com/nabbar/go-s3crt/certificates"
	liberr "github.com/nabbar/go-s3crt/errors"
	"github.com/nabbar/go-s3crt/internal/semutil"
	liblog "github.com/nabbar/go-s3crt/logger"
	"github.com/nabbar/go-s3crt/runtimecrt"
)

// Pool is the connection pool for a single EndpointKey. At most
// Options.MaxConnections connections exist at once across the Idle and
// InUse states; a semaphore permit is held for a conn's entire
// lifetime from dial to close, so "permit held" and "counts toward M" are
// the same fact.
type Pool struct {
	key  EndpointKey
	opts Options
	rt   *runtimecrt.Runtime
	tls  *certificates.Cache
	log  liblog.FuncLog

	sem *semutil.Group

	mu     sync.Mutex
	idle   []*conn
	closed bool
}

// NewPool builds a Pool bound to key using opts. rt supplies the shared
// dialer; tlsCache memoizes the *tls.Config built from opts' TLS fields. log
// may be nil.
func NewPool(key EndpointKey, opts Options, rt *runtimecrt.Runtime, tlsCache *certificates.Cache, log liblog.FuncLog) *Pool {
	if opts.MaxConnections <= 0 {
		opts = DefaultOptions()
	}

	return &Pool{
		key:  key,
		opts: opts,
		rt:   rt,
		tls:  tlsCache,
		log:  log,
		sem:  semutil.New(opts.MaxConnections),
		idle: make([]*conn, 0, opts.MaxConnections),
	}
}

func (p *Pool) logger() liblog.Logger {
	if p.log == nil {
		return nil
	}
	if l := p.log(); l != nil {
		return l.WithFields(liblog.Fields{"endpoint": p.key.String()})
	}
	return nil
}

// Endpoint returns the endpoint this Pool serves.
func (p *Pool) Endpoint() EndpointKey {
	return p.key
}

func (p *Pool) tlsConfig() (*tls.Config, error) {
	if p.key.Scheme != "https" {
		return nil, nil
	}

	return p.tls.Get(certificates.CacheKey{
		VerifyPeer:   p.opts.SSLVerifyPeer,
		CaBundlePath: p.opts.SSLCABundle,
	}, p.key.Host)
}

// evictExpired drops idle connections whose T_idle has elapsed, closing
// each one and returning its semaphore permit. Caller must hold p.mu.
func (p *Pool) evictExpired() {
	if len(p.idle) == 0 {
		return
	}

	kept := p.idle[:0]
	for _, c := range p.idle {
		if c.isExpired(p.opts.MaxConnectionIdle) {
			c.close()
			p.sem.Release()
			continue
		}
		kept = append(kept, c)
	}
	p.idle = kept
}

// acquire returns a ready-to-use connection: a reused Idle one (an Idle
// conn past its max idle time is closed before it can be handed out) or a
// freshly dialed one once a semaphore permit is free.
func (p *Pool) acquire(ctx context.Context) (*conn, liberr.Error) {
	log := p.logger()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrorPoolClosed.Error(nil)
	}

	p.evictExpired()

	if n := len(p.idle); n > 0 {
		c := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		c.state = connInUse
		return c, nil
	}
	p.mu.Unlock()

	if err := p.sem.Acquire(ctx); err != nil {
		if log != nil {
			log.Warning("semaphore acquire timed out", err)
		}
		return nil, ErrorTimeout.Error(err)
	}

	tlsCfg, err := p.tlsConfig()
	if err != nil {
		p.sem.Release()
		if log != nil {
			log.Error("tls config build failed", err)
		}
		return nil, ErrorTLS.Error(err)
	}

	c, err := dial(ctx, p.rt, p.key, tlsCfg, p.opts.ConnectTimeout, p.opts.Proxy)
	if err != nil {
		p.sem.Release()
		if log != nil {
			log.Error("dial failed", err)
		}
		var pe *errProxy
		if errors.As(err, &pe) {
			return nil, ErrorProxy.Error(err)
		}
		return nil, wrapTransport(ErrorConnection, p.key.String(), err)
	}

	if log != nil {
		log.Debug("dialed new connection", nil)
	}
	return c, nil
}

// release returns c to the pool, either back into the Idle set or, if c is
// unusable or the pool has been closed, by closing it and returning its
// permit. Closing then Dead is the only way a connection leaves the pool.
func (p *Pool) release(c *conn, reusable bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || !reusable {
		c.close()
		p.sem.Release()
		return
	}

	c.markIdle()
	p.idle = append(p.idle, c)
}

// Close drains and closes every Idle connection and marks the pool unusable
// for future Acquire calls. InUse connections close themselves on release.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	for _, c := range p.idle {
		c.close()
		p.sem.Release()
	}
	p.idle = nil
}

// classifyRequestErr picks the transport error kind a request-path error
// represents: a read/connect-timeout deadline expiry (a
// net.Error with Timeout() == true, per SetDeadline in httpexec.go/
// connection.go) becomes ErrorTimeout; anything else is ErrorConnection.
func classifyRequestErr(endpoint string, err error) liberr.Error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return wrapTransport(ErrorTimeout, endpoint, err)
	}
	return wrapTransport(ErrorConnection, endpoint, err)
}

// Do executes req and returns the fully-buffered Response.
func (p *Pool) Do(ctx context.Context, req *Request) (*Response, liberr.Error) {
	c, aerr := p.acquire(ctx)
	if aerr != nil {
		return nil, aerr
	}

	resp, reusable, err := doBuffered(ctx, c, p.key.Host, req, p.opts.ReadTimeout)
	p.release(c, reusable)

	if err != nil {
		if log := p.logger(); log != nil {
			log.Error("request failed", err, "method", req.Method, "path", req.Path)
		}
		return nil, classifyRequestErr(p.key.String(), err)
	}

	resp.Headers = resp.Headers.Merged()
	return resp, nil
}

// DoStream executes req and delivers the response body to sink, chunk by
// chunk, in strict receive order. The returned Response's
// Body is always nil; its Headers and StatusCode are populated as usual.
func (p *Pool) DoStream(ctx context.Context, req *Request, sink ChunkSink) (*Response, liberr.Error) {
	c, aerr := p.acquire(ctx)
	if aerr != nil {
		return nil, aerr
	}

	resp, reusable, err := doStreaming(ctx, c, p.key.Host, req, p.opts.ReadTimeout, sink)
	p.release(c, reusable)

	if err != nil {
		return nil, classifyRequestErr(p.key.String(), err)
	}

	resp.Headers = resp.Headers.Merged()
	return resp, nil
}

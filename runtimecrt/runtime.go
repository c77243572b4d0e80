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

// Package runtimecrt is the process-wide bundle every pool and S3 client
// shares: one dialer, one DNS override layer, one worker-count hint. Go has
// no separate "event loop group" to bootstrap; the equivalent is a shared
// *net.Dialer plus a default worker count sized off runtime.GOMAXPROCS(0).
package runtimecrt

import (
	"context"
	"net"
	"runtime"
	"sync"
	"time"

	libatm "github.com/nabbar/go-s3crt/atomic"
)

// Runtime is the shared handle returned by Acquire. All fields are read-only
// after Acquire's first call.
type Runtime struct {
	Dialer        *net.Dialer
	DefaultWorker int
	resolver      DNSResolver
}

// DNSResolver lets callers override hostname resolution, e.g. to route a
// meta-request at a local mock S3 endpoint during tests.
type DNSResolver interface {
	// Resolve returns a replacement "host:port" for addr, or addr unchanged
	// if no override is registered.
	Resolve(addr string) string
	// Register adds (or replaces) a static override.
	Register(addr, replacement string)
}

type staticResolver struct {
	mu map[string]string
	l  sync.RWMutex
}

func newStaticResolver() *staticResolver {
	return &staticResolver{mu: make(map[string]string)}
}

func (s *staticResolver) Resolve(addr string) string {
	s.l.RLock()
	defer s.l.RUnlock()

	if v, ok := s.mu[addr]; ok {
		return v
	}
	return addr
}

func (s *staticResolver) Register(addr, replacement string) {
	s.l.Lock()
	defer s.l.Unlock()

	s.mu[addr] = replacement
}

// Resolver returns the runtime's DNS override layer.
func (r *Runtime) Resolver() DNSResolver {
	return r.resolver
}

// DialContext dials addr, honoring any registered static override before
// delegating to the shared *net.Dialer.
func (r *Runtime) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	return r.Dialer.DialContext(ctx, network, r.resolver.Resolve(addr))
}

var (
	once    sync.Once
	shared  = libatm.NewValue[*Runtime]()
)

// Acquire returns the process-wide Runtime, building it exactly once even
// under concurrent first-callers: every caller observes the same handle and
// one initialization.
func Acquire() *Runtime {
	once.Do(func() {
		shared.Store(&Runtime{
			Dialer: &net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 15 * time.Second,
			},
			DefaultWorker: runtime.GOMAXPROCS(0),
			resolver:      newStaticResolver(),
		})
	})

	return shared.Load()
}

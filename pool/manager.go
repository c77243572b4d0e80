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
	"sync"

	"github.com/nabbar/go-s3crt/certificates"
	liblog "github.com/nabbar/go-s3crt/logger"
	"github.com/nabbar/go-s3crt/runtimecrt"
)

// Manager lazily creates and caches one Pool per EndpointKey. The first
// lookup for a key builds a pool from the manager's stored default Options;
// every subsequent lookup, no matter how many run concurrently, returns
// that same *Pool.
type Manager struct {
	rt   *runtimecrt.Runtime
	tls  *certificates.Cache
	opts Options
	log  liblog.FuncLog

	mu    sync.Mutex
	pools map[EndpointKey]*Pool
}

// NewManager returns a Manager that creates pools with defaultOpts, dialing
// through rt and resolving TLS configs through tlsCache. log may be nil.
func NewManager(defaultOpts Options, rt *runtimecrt.Runtime, tlsCache *certificates.Cache, log liblog.FuncLog) *Manager {
	return &Manager{
		rt:    rt,
		tls:   tlsCache,
		opts:  defaultOpts,
		log:   log,
		pools: make(map[EndpointKey]*Pool),
	}
}

// Get returns the Pool for key, creating it on first lookup.
func (m *Manager) Get(key EndpointKey) *Pool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.pools[key]; ok {
		return p
	}

	p := NewPool(key, m.opts, m.rt, m.tls, m.log)
	m.pools[key] = p
	return p
}

// CloseAll closes every pool the manager has created so far.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.pools {
		p.Close()
	}
	m.pools = make(map[EndpointKey]*Pool)
}

// Len reports the number of distinct endpoints currently pooled.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.pools)
}

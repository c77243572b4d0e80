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

package certificates

import (
	"crypto/tls"
	"sync"
)

// CacheKey identifies one memoized *tls.Config: whether the peer certificate
// is verified, and which CA bundle file (if any) backs the root pool.
//
// macOS note: crypto/tls never calls into a platform trust-store API that
// would reject a custom RootCAs pool, so the "platform cannot consume custom
// bundles" boundary condition called out in the original design does not
// apply here; a nil RootCAs pool still falls back to the OS trust store on
// every platform Go supports.
type CacheKey struct {
	VerifyPeer   bool
	CaBundlePath string
}

// Cache memoizes TlsConfig-derived *tls.Config values keyed by CacheKey so
// repeated pool/endpoint construction does not re-parse the same CA bundle.
// The cached entry carries no ServerName: one Cache is shared by every pool
// a Manager creates, so the per-endpoint name is stamped onto a clone at
// Get time rather than baked into the shared entry, where the first host
// would leak its SNI into every later handshake with the same trust
// settings.
type Cache struct {
	mu sync.Mutex
	m  map[CacheKey]*tls.Config
}

// NewCache returns an empty, ready-to-use Cache.
func NewCache() *Cache {
	return &Cache{m: make(map[CacheKey]*tls.Config)}
}

// Get returns a *tls.Config for key with ServerName set to serverName,
// building the underlying entry on first miss via the package's TlsConfig
// builder. If CaBundlePath is non-empty, it is loaded as a root CA bundle;
// a load failure is surfaced to the caller rather than swallowed.
func (c *Cache) Get(key CacheKey, serverName string) (*tls.Config, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	base, ok := c.m[key]
	if !ok {
		cfg := New()

		if key.CaBundlePath != "" {
			if err := cfg.AddRootCAFile(key.CaBundlePath); err != nil {
				return nil, err
			}
		}

		base = cfg.TlsConfig("")
		if !key.VerifyPeer {
			/* #nosec */
			base.InsecureSkipVerify = true
		}

		c.m[key] = base
	}

	tc := base.Clone()
	tc.ServerName = serverName
	return tc, nil
}

// Len reports the number of distinct TLS configurations currently cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.m)
}

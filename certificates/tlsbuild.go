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

// Package certificates builds and memoizes *tls.Config values for the
// connection pool. An S3 meta-request client only ever needs a server name
// and an optional custom CA bundle, so the surface stops there: no client
// certificates, cipher suite allow-lists, curve preferences or TLS version
// pinning.
package certificates

import (
	"crypto/tls"
	"crypto/x509"
	"os"
	"sync"
)

// TLSConfig builds *tls.Config values for a given server name from whatever
// root CA material has been registered.
type TLSConfig interface {
	AddRootCAFile(pemFile string) error
	AddRootCA(pemBlock []byte) bool
	TlsConfig(serverName string) *tls.Config
}

// New returns an empty, ready-to-use TLSConfig builder.
func New() TLSConfig {
	return &config{}
}

type config struct {
	mu     sync.Mutex
	caRoot *x509.CertPool
}

func (c *config) pool() *x509.CertPool {
	if c.caRoot == nil {
		c.caRoot = x509.NewCertPool()
	}
	return c.caRoot
}

// AddRootCA appends a PEM-encoded CA bundle already read into memory.
func (c *config) AddRootCA(pemBlock []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.pool().AppendCertsFromPEM(pemBlock)
}

// AddRootCAFile reads pemFile and appends it to the root CA pool.
func (c *config) AddRootCAFile(pemFile string) error {
	data, err := os.ReadFile(pemFile)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.pool().AppendCertsFromPEM(data) {
		return &x509.CertificateInvalidError{Reason: x509.NotAuthorizedToSign}
	}
	return nil
}

// TlsConfig builds a *tls.Config for serverName from the currently
// registered root CA material. It never fails on an empty config: with no
// CAs registered, RootCAs stays nil and crypto/tls falls back to the
// platform trust store.
func (c *config) TlsConfig(serverName string) *tls.Config {
	c.mu.Lock()
	defer c.mu.Unlock()

	cnf := &tls.Config{
		ServerName: serverName,
		MinVersion: tls.VersionTLS12,
	}

	if c.caRoot != nil {
		cnf.RootCAs = c.caRoot
	}

	return cnf
}

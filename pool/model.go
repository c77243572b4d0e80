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

// Package pool implements the per-endpoint HTTP/1.1 connection pool and
// pool manager: acquire/release, idle eviction, a concurrency bound, and the
// request executor that serializes requests and parses responses either
// buffered or as a strictly-ordered stream of chunks.
package pool

import (
	"time"
)

// ProxyConfig is a {host, port, username?, password?} triplet. When set on
// a Pool, every outgoing request routes through the proxy,
// with basic authentication attached if Username is non-empty.
type ProxyConfig struct {
	Host     string
	Port     uint16
	Username string
	Password string
}

// Options configures a Pool.
type Options struct {
	MaxConnections      int
	MaxConnectionIdle   time.Duration
	ConnectTimeout      time.Duration
	ReadTimeout         time.Duration
	SSLVerifyPeer       bool
	SSLCABundle         string
	Proxy               *ProxyConfig
}

// DefaultOptions returns the stock pool configuration.
func DefaultOptions() Options {
	return Options{
		MaxConnections:    25,
		MaxConnectionIdle: 60 * time.Second,
		ConnectTimeout:    60 * time.Second,
		ReadTimeout:       60 * time.Second,
		SSLVerifyPeer:     true,
	}
}

// ChunkSink receives one ordered, non-overlapping byte slice of a streamed
// response body per call. The pool calls it in strict receive order and at
// most once concurrently per request.
type ChunkSink func(chunk []byte) error

// Request is the pool's (method, path+query, headers, body?) tuple. Body
// is a contiguous buffer; nil and an empty slice both mean a
// zero-length body and neither adds Transfer-Encoding: chunked automatically.
type Request struct {
	Method  string
	Path    string
	Headers Headers
	Body    []byte
}

// Response is the pool's (status_code, headers, body) tuple.
// Body is populated only by the buffered Request variant; the streaming
// variant delivers bytes through a ChunkSink instead and leaves Body nil.
type Response struct {
	StatusCode int
	Headers    Headers
	Body       []byte
}

// Successful reports status_code in [200, 300).
func (r *Response) Successful() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

type connState int

const (
	connIdle connState = iota
	connInUse
	connClosing
	connDead
)

func (s connState) String() string {
	switch s {
	case connIdle:
		return "Idle"
	case connInUse:
		return "InUse"
	case connClosing:
		return "Closing"
	case connDead:
		return "Dead"
	default:
		return "Unknown"
	}
}

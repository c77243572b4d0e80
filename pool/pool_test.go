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
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/nabbar/go-s3crt/certificates"
	. "github.com/nabbar/go-s3crt/pool"
	"github.com/nabbar/go-s3crt/runtimecrt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func newTestPool(srv *httptest.Server, opts Options) *Pool {
	key, err := ParseEndpoint(srv.URL)
	Expect(err).To(BeNil())

	if opts.MaxConnections == 0 {
		opts = DefaultOptions()
	}

	return NewPool(key, opts, runtimecrt.Acquire(), certificates.NewCache(), nil)
}

var _ = Describe("Pool.Do and Pool.DoStream", func() {
	var srv *httptest.Server

	AfterEach(func() {
		if srv != nil {
			srv.Close()
		}
	})

	Describe("small GET buffered", func() {
		It("returns status, headers and body for a 2-byte body", func() {
			srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Length", "2")
				w.WriteHeader(200)
				_, _ = w.Write([]byte("ok"))
			}))

			p := newTestPool(srv, Options{})
			resp, err := p.Do(context.Background(), &Request{Method: "GET", Path: "/"})

			Expect(err).To(BeNil())
			Expect(resp.StatusCode).To(Equal(200))
			Expect(resp.Body).To(Equal([]byte("ok")))
			Expect(resp.Headers.Get("Content-Length")).To(Equal("2"))
			Expect(resp.Successful()).To(BeTrue())
		})
	})

	Describe("large streaming equals buffered", func() {
		It("streams at least two chunks whose concatenation equals the buffered body", func() {
			body := bytes.Repeat([]byte("x"), 128*1024)

			srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Length", "131072")
				w.WriteHeader(200)
				// Force several TCP writes instead of one, so the client
				// observes more than one chunk.
				for i := 0; i < len(body); i += 32 * 1024 {
					end := i + 32*1024
					if end > len(body) {
						end = len(body)
					}
					_, _ = w.Write(body[i:end])
					if f, ok := w.(http.Flusher); ok {
						f.Flush()
					}
				}
			}))

			bufPool := newTestPool(srv, Options{})
			bufResp, err := bufPool.Do(context.Background(), &Request{Method: "GET", Path: "/"})
			Expect(err).To(BeNil())
			Expect(bufResp.Body).To(HaveLen(131072))
			Expect(bufResp.Body).To(Equal(body))

			streamPool := newTestPool(srv, Options{})
			var (
				mu       sync.Mutex
				chunks   [][]byte
				received []byte
			)
			_, serr := streamPool.DoStream(context.Background(), &Request{Method: "GET", Path: "/"}, func(chunk []byte) error {
				mu.Lock()
				defer mu.Unlock()
				chunks = append(chunks, append([]byte(nil), chunk...))
				received = append(received, chunk...)
				return nil
			})

			Expect(serr).To(BeNil())
			Expect(len(chunks)).To(BeNumerically(">=", 2))
			Expect(received).To(Equal(bufResp.Body))
		})
	})

	Describe("duplicate header merge", func() {
		It("merges X-Foo into a single comma-joined entry", func() {
			srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Add("X-Foo", "a")
				w.Header().Add("X-Foo", "b")
				w.Header().Add("X-Foo", "c")
				w.WriteHeader(200)
			}))

			p := newTestPool(srv, Options{})
			resp, err := p.Do(context.Background(), &Request{Method: "GET", Path: "/"})

			Expect(err).To(BeNil())
			Expect(resp.Headers.Values("X-Foo")).To(Equal([]string{"a, b, c"}))
		})
	})

	Describe("read timeout", func() {
		It("raises a timeout error within 2s when the server never writes", func() {
			block := make(chan struct{})
			srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				<-block
			}))
			defer close(block)

			opts := DefaultOptions()
			opts.ReadTimeout = 200 * time.Millisecond

			p := newTestPool(srv, opts)

			start := time.Now()
			_, err := p.Do(context.Background(), &Request{Method: "GET", Path: "/"})
			elapsed := time.Since(start)

			Expect(err).ToNot(BeNil())
			Expect(err.GetCode()).To(Equal(ErrorTimeout))
			Expect(elapsed).To(BeNumerically("<", 2*time.Second))
		})
	})

	Describe("HEAD responses", func() {
		It("carries no body regardless of headers", func() {
			srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Length", "5")
				w.WriteHeader(200)
			}))

			p := newTestPool(srv, Options{})
			resp, err := p.Do(context.Background(), &Request{Method: "HEAD", Path: "/"})

			Expect(err).To(BeNil())
			Expect(resp.Body).To(BeEmpty())
		})
	})

	Describe("absent body", func() {
		It("sends no Content-Length when Request.Body is nil", func() {
			var gotCL string
			srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotCL = r.Header.Get("Content-Length")
				w.WriteHeader(204)
			}))

			p := newTestPool(srv, Options{})
			_, err := p.Do(context.Background(), &Request{Method: "GET", Path: "/"})

			Expect(err).To(BeNil())
			Expect(gotCL).To(BeEmpty())
		})
	})

	Describe("concurrent requests through one pool", func() {
		It("completes K concurrent requests without cross-request mixing", func() {
			srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				id := r.Header.Get("X-Correlation-Id")
				w.Header().Set("X-Correlation-Id", id)
				w.WriteHeader(200)
				_, _ = w.Write([]byte(id))
			}))

			p := newTestPool(srv, Options{})

			const n = 20
			var wg sync.WaitGroup
			errsCh := make(chan error, n)

			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					id := "req-" + string(rune('A'+i))
					var h Headers
					h.Add("X-Correlation-Id", id)
					resp, err := p.Do(context.Background(), &Request{Method: "GET", Path: "/", Headers: h})
					if err != nil {
						errsCh <- err
						return
					}
					if string(resp.Body) != id {
						errsCh <- context.DeadlineExceeded
						return
					}
					errsCh <- nil
				}(i)
			}

			wg.Wait()
			close(errsCh)

			for e := range errsCh {
				Expect(e).To(BeNil())
			}
		})
	})
})

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
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// maxHeaderBytes bounds a response's status line plus headers at 256 KiB
// so a misbehaving server cannot pin a connection's buffer growth
// unbounded.
const maxHeaderBytes = 256 * 1024

var errHeaderTooLarge = errors.New("pool: response header section exceeds 256 KiB")

// writeRequest serializes req onto c as an HTTP/1.1 request, sending a Host
// header when the caller did not supply one and, when req.Body is
// non-empty, an explicit Content-Length (the pool never chunks request
// bodies; Body is always a fully-buffered slice).
func writeRequest(c *conn, host string, req *Request) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s HTTP/1.1\r\n", req.Method, req.Path)

	hasHost := false
	hasLength := false
	for _, h := range req.Headers {
		if strings.EqualFold(h.Name, "host") {
			hasHost = true
		}
		if strings.EqualFold(h.Name, "content-length") {
			hasLength = true
		}
	}

	// A caller-supplied Host wins; only one Host line is ever sent.
	if !hasHost {
		fmt.Fprintf(&b, "Host: %s\r\n", host)
	}
	for _, h := range req.Headers {
		fmt.Fprintf(&b, "%s: %s\r\n", h.Name, h.Value)
	}

	if !hasLength && len(req.Body) > 0 {
		fmt.Fprintf(&b, "Content-Length: %d\r\n", len(req.Body))
	}

	b.WriteString("\r\n")

	if _, err := io.WriteString(c.raw, b.String()); err != nil {
		return err
	}
	if len(req.Body) > 0 {
		if _, err := c.raw.Write(req.Body); err != nil {
			return err
		}
	}
	return nil
}

// readStatusLine reads and parses "HTTP/1.x <code> <reason>".
func readStatusLine(br *bufio.Reader, budget *int) (int, error) {
	line, err := readLimitedLine(br, budget)
	if err != nil {
		return 0, err
	}

	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 {
		return 0, fmt.Errorf("pool: malformed status line %q", line)
	}

	code, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("pool: malformed status code %q", parts[1])
	}
	if code < 100 || code > 599 {
		return 0, fmt.Errorf("pool: status code %d out of range", code)
	}

	return code, nil
}

func readLimitedLine(br *bufio.Reader, budget *int) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil {
		return "", err
	}

	*budget -= len(line)
	if *budget < 0 {
		return "", errHeaderTooLarge
	}

	return strings.TrimRight(line, "\r\n"), nil
}

// readHeaders reads header lines until a blank line, enforcing maxHeaderBytes
// across the status line and every header line combined.
func readHeaders(br *bufio.Reader, budget *int) (Headers, error) {
	var hdrs Headers

	for {
		line, err := readLimitedLine(br, budget)
		if err != nil {
			return nil, err
		}
		if line == "" {
			return hdrs, nil
		}

		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			continue
		}

		name := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		hdrs.Add(name, value)
	}
}

// framing says how the response body is delimited, per RFC 9112 §6.
type framing int

const (
	framingNone framing = iota
	framingLength
	framingChunked
	framingUntilClose
)

func frameResponse(method string, status int, hdrs Headers) (framing, int64) {
	if method == "HEAD" || status == 204 || status == 304 || (status >= 100 && status < 200) {
		return framingNone, 0
	}

	if te := hdrs.Get("Transfer-Encoding"); strings.EqualFold(te, "chunked") {
		return framingChunked, 0
	}

	if cl := hdrs.Get("Content-Length"); cl != "" {
		if n, err := strconv.ParseInt(cl, 10, 64); err == nil && n >= 0 {
			return framingLength, n
		}
	}

	return framingUntilClose, 0
}

func connectionClose(hdrs Headers) bool {
	return strings.EqualFold(hdrs.Get("Connection"), "close")
}

// readBody drains the response body as framed by f, forwarding every chunk
// to sink in receive order.
func readBody(br *bufio.Reader, f framing, length int64, sink ChunkSink) error {
	switch f {
	case framingNone:
		return nil

	case framingLength:
		return readExactly(br, length, sink)

	case framingChunked:
		return readChunked(br, sink)

	case framingUntilClose:
		buf := make([]byte, 32*1024)
		for {
			n, err := br.Read(buf)
			if n > 0 {
				if serr := sink(append([]byte(nil), buf[:n]...)); serr != nil {
					return serr
				}
			}
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func readExactly(br *bufio.Reader, length int64, sink ChunkSink) error {
	remaining := length
	buf := make([]byte, 32*1024)

	for remaining > 0 {
		chunk := buf
		if int64(len(chunk)) > remaining {
			chunk = chunk[:remaining]
		}

		n, err := io.ReadFull(br, chunk)
		if n > 0 {
			if serr := sink(append([]byte(nil), chunk[:n]...)); serr != nil {
				return serr
			}
		}
		if err != nil {
			return err
		}

		remaining -= int64(n)
	}

	return nil
}

func readChunked(br *bufio.Reader, sink ChunkSink) error {
	for {
		sizeLine, err := br.ReadString('\n')
		if err != nil {
			return err
		}

		sizeLine = strings.TrimRight(sizeLine, "\r\n")
		if idx := strings.IndexByte(sizeLine, ';'); idx >= 0 {
			sizeLine = sizeLine[:idx]
		}

		size, err := strconv.ParseInt(strings.TrimSpace(sizeLine), 16, 64)
		if err != nil {
			return fmt.Errorf("pool: malformed chunk size %q", sizeLine)
		}

		if size == 0 {
			// Trailer section, possibly empty; consume through the final CRLF.
			for {
				line, err := br.ReadString('\n')
				if err != nil {
					return err
				}
				if strings.TrimRight(line, "\r\n") == "" {
					return nil
				}
			}
		}

		if err := readExactly(br, size, sink); err != nil {
			return err
		}

		// Each chunk is followed by a bare CRLF.
		if _, err := br.ReadString('\n'); err != nil {
			return err
		}
	}
}

func deadline(ctx context.Context, c *conn, readTimeout time.Duration) {
	d := time.Now().Add(readTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(d) {
		d = dl
	}
	_ = c.raw.SetDeadline(d)
}

// doBuffered writes req on c and returns the fully-assembled Response. The
// second return reports whether c remains reusable by the pool.
func doBuffered(ctx context.Context, c *conn, host string, req *Request, readTimeout time.Duration) (*Response, bool, error) {
	var body []byte
	sink := func(b []byte) error {
		body = append(body, b...)
		return nil
	}

	resp, reusable, err := execute(ctx, c, host, req, readTimeout, sink)
	if err != nil {
		return nil, reusable, err
	}

	resp.Body = body
	return resp, reusable, nil
}

// doStreaming writes req on c and forwards the response body to sink in
// strict order, leaving Response.Body nil.
func doStreaming(ctx context.Context, c *conn, host string, req *Request, readTimeout time.Duration, sink ChunkSink) (*Response, bool, error) {
	return execute(ctx, c, host, req, readTimeout, sink)
}

func execute(ctx context.Context, c *conn, host string, req *Request, readTimeout time.Duration, sink ChunkSink) (*Response, bool, error) {
	deadline(ctx, c, readTimeout)

	if err := writeRequest(c, host, req); err != nil {
		return nil, false, err
	}

	budget := maxHeaderBytes

	status, err := readStatusLine(c.br, &budget)
	if err != nil {
		return nil, false, err
	}

	hdrs, err := readHeaders(c.br, &budget)
	if err != nil {
		return nil, false, err
	}

	f, length := frameResponse(req.Method, status, hdrs)
	if err := readBody(c.br, f, length, sink); err != nil {
		return nil, false, err
	}

	reusable := f != framingUntilClose && !connectionClose(hdrs)

	return &Response{StatusCode: status, Headers: hdrs}, reusable, nil
}

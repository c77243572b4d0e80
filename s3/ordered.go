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

package s3

import (
	"io"
	"sync"
)

// partTarget receives one part's bytes at its byte offset. fileTarget writes
// at the offset directly and needs no reordering; sinkTarget and
// orderedWriter below deliver parts in strict byte-offset order.
type partTarget interface {
	writeAt(offset int64, data []byte) error
	close() error
}

// fileTarget writes each part directly at its byte range via positional
// WriteAt; no staging buffer sits between the response body and the file.
type fileTarget struct {
	w interface {
		WriteAt(p []byte, off int64) (int, error)
		Close() error
	}
}

func (f *fileTarget) writeAt(offset int64, data []byte) error {
	_, err := f.w.WriteAt(data, offset)
	return err
}

func (f *fileTarget) close() error {
	return f.w.Close()
}

// sinkTarget forwards parts to a caller-supplied offset-aware callback in
// strict byte-offset order, one call at a time: completions that arrive
// ahead of the current frontier are buffered until their turn.
type sinkTarget struct {
	fn   func(offset int64, chunk []byte) error
	mu   sync.Mutex
	next int64
	buf  map[int64][]byte
}

func (s *sinkTarget) writeAt(offset int64, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.buf == nil {
		s.buf = make(map[int64][]byte)
	}
	s.buf[offset] = data

	for chunk, ok := s.buf[s.next]; ok; chunk, ok = s.buf[s.next] {
		if err := s.fn(s.next, chunk); err != nil {
			return err
		}
		delete(s.buf, s.next)
		s.next += int64(len(chunk))
	}
	return nil
}

func (s *sinkTarget) close() error { return nil }

// orderedWriter reassembles out-of-order part completions into strict
// byte-offset order before forwarding to a plain io.Writer, which has no
// notion of position. Completions that arrive ahead of the current frontier
// are buffered until their turn.
type orderedWriter struct {
	mu   sync.Mutex
	w    io.Writer
	next int64
	buf  map[int64][]byte
	err  error
}

func newOrderedWriter(w io.Writer) *orderedWriter {
	return &orderedWriter{w: w, buf: make(map[int64][]byte)}
}

func (o *orderedWriter) writeAt(offset int64, data []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.err != nil {
		return o.err
	}

	o.buf[offset] = data

	for {
		chunk, ok := o.buf[o.next]
		if !ok {
			return nil
		}

		if _, err := o.w.Write(chunk); err != nil {
			o.err = err
			return err
		}

		delete(o.buf, o.next)
		o.next += int64(len(chunk))
	}
}

func (o *orderedWriter) close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}

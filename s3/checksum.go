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
	"crypto/sha1"  // #nosec -- S3 checksum algorithm name, not used for security
	"crypto/sha256"
	"encoding/base64"
	"hash"
	"hash/crc32"
	"sync"
)

// crc32cTable is the Castagnoli polynomial table S3 uses for the CRC32C
// checksum algorithm (RFC 3720 §12.1).
var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

func newHasher(algo ChecksumAlgorithm) hash.Hash {
	switch algo {
	case ChecksumCRC32:
		return crc32.NewIEEE()
	case ChecksumCRC32C:
		return crc32.New(crc32cTable)
	case ChecksumSHA1:
		/* #nosec */
		return sha1.New()
	case ChecksumSHA256:
		return sha256.New()
	default:
		return nil
	}
}

// sequencedHasher accumulates a full-object checksum concurrently with the
// transfer, from byte ranges that may arrive out of order: ranges are
// buffered until the next expected offset is available, then fed to the
// hash in order.
type sequencedHasher struct {
	mu   sync.Mutex
	h    hash.Hash
	next int64
	buf  map[int64][]byte
}

func newSequencedHasher(algo ChecksumAlgorithm) *sequencedHasher {
	h := newHasher(algo)
	if h == nil {
		return nil
	}
	return &sequencedHasher{h: h, buf: make(map[int64][]byte)}
}

// write registers the bytes for [offset, offset+len(p)) and feeds the hash
// with every contiguous run starting at the current frontier.
func (s *sequencedHasher) write(offset int64, p []byte) {
	if s == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf[offset] = append([]byte(nil), p...)

	for {
		chunk, ok := s.buf[s.next]
		if !ok {
			return
		}
		s.h.Write(chunk)
		delete(s.buf, s.next)
		s.next += int64(len(chunk))
	}
}

func (s *sequencedHasher) sum() string {
	if s == nil {
		return ""
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return base64.StdEncoding.EncodeToString(s.h.Sum(nil))
}

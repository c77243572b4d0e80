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

// partStatus is one part's lifecycle state. planParts creates every part as
// Pending and the transfer marks it Done once it succeeds; retries happen
// inside withRetry without a status change, and InFlight and Failed are
// never assigned.
type partStatus int

const (
	partPending partStatus = iota
	partInFlight
	partDone
	partFailed
)

// part is one contiguous byte range of a multipart GET or PUT.
type part struct {
	index   int
	offset  int64
	length  int64
	attempt int
	status  partStatus

	// etag is populated for PUT parts once UploadPart succeeds.
	etag string
}

func (p *part) byteRange() (int64, int64) {
	return p.offset, p.offset + p.length - 1
}

// planParts partitions [0, size) into contiguous parts of at most partSize
// bytes, the last part possibly shorter.
func planParts(size, partSize int64) []*part {
	if size <= 0 {
		return nil
	}
	if partSize <= 0 {
		partSize = size
	}

	n := (size + partSize - 1) / partSize
	parts := make([]*part, 0, n)

	var off int64
	for i := int64(0); off < size; i++ {
		l := partSize
		if off+l > size {
			l = size - off
		}

		parts = append(parts, &part{index: int(i), offset: off, length: l, status: partPending})
		off += l
	}

	return parts
}

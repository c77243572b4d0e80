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
	"bytes"
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"sync"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	sdksss "github.com/aws/aws-sdk-go-v2/service/s3"
	sdktps "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	liberr "github.com/nabbar/go-s3crt/errors"
	errpool "github.com/nabbar/go-s3crt/errors/pool"
	liblog "github.com/nabbar/go-s3crt/logger"
	"github.com/nabbar/go-s3crt/s3/checkpoint"
)

func contentType(explicit, key string) string {
	if explicit != "" {
		return explicit
	}
	if t := mime.TypeByExtension(filepath.Ext(key)); t != "" {
		return t
	}
	return "application/octet-stream"
}

// PutObject performs a single PUT when the body is below the configured
// multipart threshold, or the three-phase CreateMultipartUpload ->
// UploadPart -> CompleteMultipartUpload protocol otherwise, with best-effort
// AbortMultipartUpload on any terminal failure after create.
func (c *Client) PutObject(ctx context.Context, p PutObjectParams) (*Response, liberr.Error) {
	if p.Bucket == "" || p.Key == "" {
		return nil, ErrorArgument.Error(fmt.Errorf("bucket and key are required"))
	}
	if p.Body != nil && p.Path != "" {
		return nil, ErrorArgument.Error(fmt.Errorf("body and path are mutually exclusive"))
	}
	if !p.ChecksumAlgorithm.valid() {
		return nil, ErrorArgument.Error(fmt.Errorf("unsupported checksum algorithm %q", p.ChecksumAlgorithm))
	}

	log := c.logger()
	if log != nil {
		log = log.WithFields(liblog.Fields{"bucket": p.Bucket, "key": p.Key, "request_id": uuid.NewString()})
	}

	size, reader, closer, err := c.openBody(p)
	if err != nil {
		return nil, ErrorArgument.Error(err)
	}
	if closer != nil {
		defer func() { _ = closer.close() }()
	}

	threshold := c.opts.threshold()
	progress := newProgressTracker(p.OnProgress)

	if log != nil {
		log.Debug("starting put object", nil, "size", size, "multipart", size >= threshold)
	}

	var (
		resp *Response
		perr liberr.Error
	)
	if size < threshold {
		resp, perr = c.putWhole(ctx, p, reader, size, progress)
	} else {
		resp, perr = c.putMultipart(ctx, p, reader, size, progress, log)
	}

	if perr != nil {
		if log != nil {
			log.Error("put object failed", perr)
		}
		return nil, perr
	}

	if log != nil {
		log.Info("put object complete", nil, "bytes", size)
	}
	return resp, nil
}

// bodySource abstracts reading a fixed-size byte range from either an
// in-memory buffer or a file.
type bodySource interface {
	readRange(offset, length int64) ([]byte, error)
}

type bufferSource struct{ data []byte }

func (b *bufferSource) readRange(offset, length int64) ([]byte, error) {
	if offset+length > int64(len(b.data)) {
		return nil, fmt.Errorf("s3: range out of bounds")
	}
	return b.data[offset : offset+length], nil
}

type fileSource struct {
	p interface {
		ReadAt(p []byte, off int64) (int, error)
	}
}

func (f *fileSource) readRange(offset, length int64) ([]byte, error) {
	buf := make([]byte, length)
	_, err := f.p.ReadAt(buf, offset)
	return buf, err
}

type closableSource interface {
	close() error
}

type noopCloser struct{}

func (noopCloser) close() error { return nil }

type fileCloser struct {
	f interface{ Close() error }
}

func (f *fileCloser) close() error { return f.f.Close() }

func (c *Client) openBody(p PutObjectParams) (int64, bodySource, closableSource, error) {
	if p.Path != "" {
		f, err := os.Open(p.Path)
		if err != nil {
			return 0, nil, nil, err
		}
		size := p.ContentLength
		if size <= 0 {
			if st, serr := f.Stat(); serr == nil {
				size = st.Size()
			}
		}
		return size, &fileSource{p: f}, &fileCloser{f: f}, nil
	}

	size := p.ContentLength
	if size <= 0 {
		size = int64(len(p.Body))
	}
	return size, &bufferSource{data: p.Body}, noopCloser{}, nil
}

func (c *Client) putWhole(ctx context.Context, p PutObjectParams, src bodySource, size int64, progress *progressTracker) (*Response, liberr.Error) {
	data, rerr := src.readRange(0, size)
	if rerr != nil {
		return nil, ErrorArgument.Error(rerr)
	}

	var hasher *sequencedHasher
	if p.ChecksumAlgorithm != "" {
		hasher = newSequencedHasher(p.ChecksumAlgorithm)
		hasher.write(0, data)
	}

	in := &sdksss.PutObjectInput{
		Bucket:      sdkaws.String(p.Bucket),
		Key:         sdkaws.String(p.Key),
		Body:        bytes.NewReader(data),
		ContentType: sdkaws.String(contentType(p.ContentType, p.Key)),
	}
	if p.ChecksumAlgorithm != "" {
		in.ChecksumAlgorithm = p.ChecksumAlgorithm.sdk()
	}

	out, err := c.cli.PutObject(ctx, in)
	if err != nil {
		return nil, classify(err)
	}
	if out.ETag == nil {
		return nil, ErrorService.Error(fmt.Errorf("put object response missing ETag"))
	}

	progress.add(size)

	resp := &Response{StatusCode: 200}
	if hasher != nil {
		resp.ChecksumValidated = hasher.sum()
	}
	return resp, nil
}

func (c *Client) putMultipart(ctx context.Context, p PutObjectParams, src bodySource, size int64, progress *progressTracker, log liblog.Logger) (*Response, liberr.Error) {
	parts := planParts(size, c.opts.partSize())

	created, err := c.cli.CreateMultipartUpload(ctx, &sdksss.CreateMultipartUploadInput{
		Bucket:      sdkaws.String(p.Bucket),
		Key:         sdkaws.String(p.Key),
		ContentType: sdkaws.String(contentType(p.ContentType, p.Key)),
	})
	if err != nil {
		return nil, classify(err)
	}
	uploadID := sdkaws.ToString(created.UploadId)
	if uploadID == "" {
		return nil, ErrorService.Error(fmt.Errorf("create multipart upload response missing UploadId"))
	}

	hasher := (*sequencedHasher)(nil)
	if p.ChecksumAlgorithm != "" {
		hasher = newSequencedHasher(p.ChecksumAlgorithm)
	}

	completed, uerr := c.uploadParts(ctx, p, src, parts, uploadID, progress, hasher, log)
	if uerr != nil {
		_, _ = c.cli.AbortMultipartUpload(context.Background(), &sdksss.AbortMultipartUploadInput{
			Bucket:   sdkaws.String(p.Bucket),
			Key:      sdkaws.String(p.Key),
			UploadId: sdkaws.String(uploadID),
		})
		return nil, ErrorTransport.Error(uerr)
	}

	sort.Slice(completed, func(i, j int) bool {
		return sdkaws.ToInt32(completed[i].PartNumber) < sdkaws.ToInt32(completed[j].PartNumber)
	})

	out, cerr := c.cli.CompleteMultipartUpload(ctx, &sdksss.CompleteMultipartUploadInput{
		Bucket:   sdkaws.String(p.Bucket),
		Key:      sdkaws.String(p.Key),
		UploadId: sdkaws.String(uploadID),
		MultipartUpload: &sdktps.CompletedMultipartUpload{
			Parts: completed,
		},
	})
	if cerr != nil {
		_, _ = c.cli.AbortMultipartUpload(context.Background(), &sdksss.AbortMultipartUploadInput{
			Bucket:   sdkaws.String(p.Bucket),
			Key:      sdkaws.String(p.Key),
			UploadId: sdkaws.String(uploadID),
		})
		return nil, classify(cerr)
	}
	if out.Key == nil {
		return nil, ErrorService.Error(fmt.Errorf("complete multipart upload response missing Key"))
	}

	resp := &Response{StatusCode: 200}
	if hasher != nil {
		resp.ChecksumValidated = hasher.sum()
	}
	return resp, nil
}

func (c *Client) uploadParts(ctx context.Context, p PutObjectParams, src bodySource, parts []*part, uploadID string, progress *progressTracker, hasher *sequencedHasher, log liblog.Logger) ([]sdktps.CompletedPart, error) {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		errs   = errpool.New()
		result = make([]sdktps.CompletedPart, 0, len(parts))
		ckptMu sync.Mutex
	)

	for _, pt := range parts {
		pt := pt

		if err := c.sem.Acquire(ctx); err != nil {
			errs.Add(err)
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer c.sem.Release()

			data, rerr := src.readRange(pt.offset, pt.length)
			if rerr != nil {
				errs.Add(rerr)
				return
			}

			var cp sdktps.CompletedPart
			err := withRetry(ctx, func(attempt int) error {
				pt.attempt = attempt + 1

				in := &sdksss.UploadPartInput{
					Bucket:     sdkaws.String(p.Bucket),
					Key:        sdkaws.String(p.Key),
					UploadId:   sdkaws.String(uploadID),
					PartNumber: sdkaws.Int32(int32(pt.index) + 1),
					Body:       bytes.NewReader(data),
				}
				if p.ChecksumAlgorithm != "" {
					in.ChecksumAlgorithm = p.ChecksumAlgorithm.sdk()
				}

				out, uerr := c.cli.UploadPart(ctx, in)
				if uerr != nil {
					return uerr
				}
				if out.ETag == nil {
					return fmt.Errorf("upload part %d response missing ETag", pt.index+1)
				}

				cp = sdktps.CompletedPart{ETag: out.ETag, PartNumber: sdkaws.Int32(int32(pt.index) + 1)}
				return nil
			}, func(attempt int, rerr error) {
				if log != nil {
					log.Warning("retrying part upload", rerr, "part", pt.index+1, "attempt", attempt+1)
				}
			})

			if err != nil {
				errs.Add(err)
				return
			}

			if hasher != nil {
				hasher.write(pt.offset, data)
			}
			progress.add(pt.length)
			pt.status = partDone
			pt.etag = sdkaws.ToString(cp.ETag)

			mu.Lock()
			result = append(result, cp)
			var snap []sdktps.CompletedPart
			if p.CheckpointPath != "" {
				snap = append(snap, result...)
			}
			mu.Unlock()

			if p.CheckpointPath != "" {
				ckptMu.Lock()
				_ = checkpoint.Save(p.CheckpointPath, snapshotCheckpoint(p, uploadID, snap))
				ckptMu.Unlock()
			}
		}()
	}

	wg.Wait()

	if err := errs.Error(); err != nil {
		return nil, err
	}
	return result, nil
}

func snapshotCheckpoint(p PutObjectParams, uploadID string, parts []sdktps.CompletedPart) checkpoint.State {
	st := checkpoint.State{
		Bucket:   p.Bucket,
		Key:      p.Key,
		UploadID: uploadID,
		Parts:    make([]checkpoint.CompletedPart, 0, len(parts)),
	}
	for _, cp := range parts {
		st.Parts = append(st.Parts, checkpoint.CompletedPart{
			PartNumber: sdkaws.ToInt32(cp.PartNumber),
			ETag:       sdkaws.ToString(cp.ETag),
		})
	}
	return st
}

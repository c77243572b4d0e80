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
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	sdksss "github.com/aws/aws-sdk-go-v2/service/s3"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	liberr "github.com/nabbar/go-s3crt/errors"
	errpool "github.com/nabbar/go-s3crt/errors/pool"
	liblog "github.com/nabbar/go-s3crt/logger"
)

func (c *Client) resolveTarget(p GetObjectParams) (partTarget, error) {
	switch {
	case p.ResponseTarget.Path != "":
		f, err := os.Create(p.ResponseTarget.Path)
		if err != nil {
			return nil, err
		}
		return &fileTarget{w: f}, nil

	case p.ResponseTarget.Sink != nil:
		return &sinkTarget{fn: p.ResponseTarget.Sink}, nil

	case p.ResponseTarget.Writer != nil:
		return newOrderedWriter(p.ResponseTarget.Writer), nil

	default:
		var buf []byte
		return &fileTarget{w: &memTarget{buf: &buf}}, nil
	}
}

// memTarget is the default in-memory sink used when the caller supplies no
// ResponseTarget: it behaves like a growable positional buffer.
type memTarget struct {
	mu  sync.Mutex
	buf *[]byte
}

func (m *memTarget) WriteAt(p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	end := off + int64(len(p))
	if int64(len(*m.buf)) < end {
		grown := make([]byte, end)
		copy(grown, *m.buf)
		*m.buf = grown
	}
	copy((*m.buf)[off:end], p)
	return len(p), nil
}

func (m *memTarget) Close() error { return nil }

// GetObject issues one or more ranged GETs, partitioning [0, size) into
// contiguous parts once the object exceeds the configured multipart
// threshold, dispatching up to K concurrent workers, and emitting bytes to
// the target in strict byte-offset order regardless of HTTP completion
// order.
func (c *Client) GetObject(ctx context.Context, p GetObjectParams) (*Response, liberr.Error) {
	if p.Bucket == "" || p.Key == "" {
		return nil, ErrorArgument.Error(fmt.Errorf("bucket and key are required"))
	}

	log := c.logger()
	if log != nil {
		log = log.WithFields(liblog.Fields{"bucket": p.Bucket, "key": p.Key, "request_id": uuid.NewString()})
	}

	head, err := c.cli.HeadObject(ctx, &sdksss.HeadObjectInput{
		Bucket: sdkaws.String(p.Bucket),
		Key:    sdkaws.String(p.Key),
	})
	if err != nil {
		if log != nil {
			log.Error("head object failed", err)
		}
		return nil, classify(err)
	}

	size := sdkaws.ToInt64(head.ContentLength)
	threshold := c.opts.threshold()
	partSize := c.opts.partSize()

	if log != nil {
		log.Debug("starting get object", nil, "size", size, "multipart", size > threshold)
	}

	target, terr := c.resolveTarget(p)
	if terr != nil {
		return nil, ErrorArgument.Error(terr)
	}

	progress := newProgressTracker(p.OnProgress)

	var (
		hasher        *sequencedHasher
		validatedAlgo ChecksumAlgorithm
		storedSum     string
	)
	if p.ChecksumMode == ChecksumModeEnabled {
		if algo, stored := storedChecksumAlgorithm(head); algo != "" {
			hasher = newSequencedHasher(algo)
			validatedAlgo = algo
			storedSum = stored
		}
	}

	if size <= threshold {
		if gerr := c.getWhole(ctx, p.Bucket, p.Key, target, progress, hasher); gerr != nil {
			return nil, classify(gerr)
		}
	} else {
		if gerr := c.getMultipart(ctx, p.Bucket, p.Key, size, partSize, target, progress, hasher, log); gerr != nil {
			return nil, classify(gerr)
		}
	}

	if cerr := target.close(); cerr != nil {
		return nil, ErrorTransport.Error(cerr)
	}

	resp := &Response{StatusCode: 200}
	if hasher != nil {
		sum := hasher.sum()
		if storedSum != "" && storedSum != sum {
			if log != nil {
				log.Error("checksum mismatch", nil, "got", sum, "want", storedSum)
			}
			return nil, ErrorChecksumMismatch.Error(fmt.Errorf("got %s, want %s", sum, storedSum))
		}
		// ChecksumValidated names the algorithm that was checked, not the
		// digest itself.
		resp.ChecksumValidated = string(validatedAlgo)
	}

	if log != nil {
		log.Info("get object complete", nil, "bytes", size)
	}

	return resp, nil
}

func storedChecksumAlgorithm(head *sdksss.HeadObjectOutput) (ChecksumAlgorithm, string) {
	switch {
	case sdkaws.ToString(head.ChecksumCRC32) != "":
		return ChecksumCRC32, sdkaws.ToString(head.ChecksumCRC32)
	case sdkaws.ToString(head.ChecksumCRC32C) != "":
		return ChecksumCRC32C, sdkaws.ToString(head.ChecksumCRC32C)
	case sdkaws.ToString(head.ChecksumSHA1) != "":
		return ChecksumSHA1, sdkaws.ToString(head.ChecksumSHA1)
	case sdkaws.ToString(head.ChecksumSHA256) != "":
		return ChecksumSHA256, sdkaws.ToString(head.ChecksumSHA256)
	default:
		return "", ""
	}
}

func (c *Client) getWhole(ctx context.Context, bucket, key string, target partTarget, progress *progressTracker, hasher *sequencedHasher) error {
	out, err := c.cli.GetObject(ctx, &sdksss.GetObjectInput{
		Bucket: sdkaws.String(bucket),
		Key:    sdkaws.String(key),
	})
	if err != nil {
		return err
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return err
	}

	if hasher != nil {
		hasher.write(0, data)
	}
	progress.add(int64(len(data)))

	return target.writeAt(0, data)
}

func (c *Client) getMultipart(ctx context.Context, bucket, key string, size, partSize int64, target partTarget, progress *progressTracker, hasher *sequencedHasher, log liblog.Logger) error {
	parts := planParts(size, partSize)
	mem := semaphore.NewWeighted(c.opts.memoryLimit())

	var (
		wg   sync.WaitGroup
		errs = errpool.New()
	)

	for _, pt := range parts {
		pt := pt

		if err := mem.Acquire(ctx, pt.length); err != nil {
			errs.Add(err)
			break
		}

		if err := c.sem.Acquire(ctx); err != nil {
			mem.Release(pt.length)
			errs.Add(err)
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer c.sem.Release()
			defer mem.Release(pt.length)

			err := withRetry(ctx, func(attempt int) error {
				pt.attempt = attempt + 1
				return c.fetchPart(ctx, bucket, key, pt, target, progress, hasher)
			}, func(attempt int, rerr error) {
				if log != nil {
					log.Warning("retrying part fetch", rerr, "part", pt.offset, "attempt", attempt+1)
				}
			})

			errs.Add(err)
		}()
	}

	wg.Wait()
	return errs.Error()
}

func (c *Client) fetchPart(ctx context.Context, bucket, key string, pt *part, target partTarget, progress *progressTracker, hasher *sequencedHasher) error {
	start, end := pt.byteRange()

	out, err := c.cli.GetObject(ctx, &sdksss.GetObjectInput{
		Bucket: sdkaws.String(bucket),
		Key:    sdkaws.String(key),
		Range:  sdkaws.String(fmt.Sprintf("bytes=%d-%d", start, end)),
	})
	if err != nil {
		return err
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return err
	}

	if hasher != nil {
		hasher.write(pt.offset, data)
	}
	progress.add(int64(len(data)))
	pt.status = partDone

	return target.writeAt(pt.offset, data)
}

// classify wraps a raw SDK/transport error into the s3 package's error
// taxonomy: HTTP status >= 400 becomes ErrorService, everything
// else is ErrorTransport.
func classify(err error) liberr.Error {
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() >= 400 {
		return ErrorService.Error(err, fmt.Errorf("status=%d", respErr.HTTPStatusCode()))
	}
	return ErrorTransport.Error(err)
}

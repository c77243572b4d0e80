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
	"net/http"
	"time"

	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	retryablehttp "github.com/hashicorp/go-retryablehttp"
)

// maxPartAttempts bounds how many times one part is attempted before its
// meta-request fails.
const maxPartAttempts = 5

var (
	retryBackoffMin = 200 * time.Millisecond
	retryBackoffMax = 10 * time.Second
)

// retriable classifies err: connection reset, 5xx, and throttling
// (408/429/503) are retriable; any other 4xx is terminal.
func retriable(err error) bool {
	if err == nil {
		return false
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		switch code {
		case "RequestTimeout", "SlowDown", "Throttling", "ThrottlingException",
			"RequestLimitExceeded", "ServiceUnavailable", "InternalError":
			return true
		default:
			return false
		}
	}

	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		code := respErr.HTTPStatusCode()
		if code >= 500 || code == 408 || code == 429 {
			return true
		}
		return false
	}

	// No structured classification available: treat as a transport-level
	// failure (connection reset, timeout, DNS failure) and retry.
	return true
}

// backoff returns the jittered delay before attempt, delegating the math
// to go-retryablehttp rather than hand-rolling it.
func backoff(attempt int) time.Duration {
	return retryablehttp.LinearJitterBackoff(retryBackoffMin, retryBackoffMax, attempt, (*http.Response)(nil))
}

// withRetry runs fn, retrying on retriable errors up to maxPartAttempts
// times with backoff, and returns the last error otherwise. ctx cancellation
// aborts the wait between attempts immediately. onRetry, if non-nil, is
// called before each backoff wait so callers can log the attempt.
func withRetry(ctx context.Context, fn func(attempt int) error, onRetry func(attempt int, err error)) error {
	var err error

	for attempt := 0; attempt < maxPartAttempts; attempt++ {
		if err = fn(attempt); err == nil {
			return nil
		}

		if !retriable(err) {
			return err
		}

		if attempt == maxPartAttempts-1 {
			break
		}

		if onRetry != nil {
			onRetry(attempt, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff(attempt)):
		}
	}

	return err
}

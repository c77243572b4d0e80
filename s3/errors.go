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
	"fmt"

	liberr "github.com/nabbar/go-s3crt/errors"
)

// CodeError range for the s3 meta-request engine: the ArgumentError /
// ServiceError / transport-error taxonomy applied to S3 operations.
const (
	ErrorArgument liberr.CodeError = iota + liberr.MinPkgS3Meta
	ErrorService
	ErrorTransport
	ErrorChecksumMismatch
	ErrorAborted
	ErrorCheckpoint
)

func init() {
	if liberr.ExistInMapMessage(ErrorArgument) {
		panic(fmt.Errorf("error code collision with package go-s3crt/s3"))
	}
	liberr.RegisterIdFctMessage(ErrorArgument, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorArgument:
		return "malformed S3 request: missing bucket/key, unknown checksum algorithm, or bad option combination"
	case ErrorService:
		return "S3 service returned an HTTP error response"
	case ErrorTransport:
		return "transport-level failure issuing an S3 request"
	case ErrorChecksumMismatch:
		return "computed checksum does not match the checksum stored on the object"
	case ErrorAborted:
		return "meta-request canceled before completion"
	case ErrorCheckpoint:
		return "multipart upload checkpoint could not be read or written"
	}

	return liberr.NullMessage
}

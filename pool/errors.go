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
	"fmt"

	liberr "github.com/nabbar/go-s3crt/errors"
)

// CodeError range for the pool package: the transport-error family.
const (
	ErrorArgument liberr.CodeError = iota + liberr.MinPkgPool
	ErrorConnection
	ErrorTimeout
	ErrorTLS
	ErrorProxy
	ErrorService
	ErrorPoolClosed
)

func init() {
	if liberr.ExistInMapMessage(ErrorArgument) {
		panic(fmt.Errorf("error code collision with package go-s3crt/pool"))
	}
	liberr.RegisterIdFctMessage(ErrorArgument, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorArgument:
		return "malformed endpoint or invalid pool option"
	case ErrorConnection:
		return "connection error: DNS failure, connection refused or socket error before any response bytes"
	case ErrorTimeout:
		return "connect or read timeout exceeded"
	case ErrorTLS:
		return "TLS handshake failure or certificate validation failure"
	case ErrorProxy:
		return "proxy connection or authentication failure"
	case ErrorService:
		return "HTTP response with status >= 400"
	case ErrorPoolClosed:
		return "the connection pool is closed"
	}

	return liberr.NullMessage
}

// wrapTransport builds a transport error of the given kind, embedding
// symbol as the diagnosable cause in the parent chain so the rendered
// message always names the underlying failure.
func wrapTransport(code liberr.CodeError, symbol string, parent error) liberr.Error {
	if symbol == "" {
		return code.Error(parent)
	}
	return code.Error(parent, fmt.Errorf("%s", symbol))
}

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

package cbor

import (
	"fmt"

	liberr "github.com/nabbar/go-s3crt/errors"
)

// CodeError range for the cbor codec's decoder and encoder failure modes.
const (
	ErrorOutOfBytes liberr.CodeError = iota + liberr.MinPkgCodec
	ErrorExtraBytes
	ErrorUnknownType
	ErrorUnexpectedBreak
	ErrorUnknownAdditionalInfo
	ErrorUnsupportedValue
)

func init() {
	if liberr.ExistInMapMessage(ErrorOutOfBytes) {
		panic(fmt.Errorf("error code collision with package go-s3crt/cbor"))
	}
	liberr.RegisterIdFctMessage(ErrorOutOfBytes, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorOutOfBytes:
		return "premature end of input decoding a CBOR item"
	case ErrorExtraBytes:
		return "trailing bytes after a complete CBOR item"
	case ErrorUnknownType:
		return "encoder given a Value with no RFC 8949 representation"
	case ErrorUnexpectedBreak:
		return "break byte (0xFF) encountered outside an indefinite-length context"
	case ErrorUnknownAdditionalInfo:
		return "reserved additional-information value (28..30)"
	case ErrorUnsupportedValue:
		return "well-formed item uses a feature this decoder does not support"
	}

	return liberr.NullMessage
}

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

package errors

import (
	"math"
	"reflect"
	"runtime"
	"strconv"
	"strings"
)

// idMsgFct maps the base code of each registered range (MinPkgPool,
// MinPkgS3Meta, ...) to the Message function rendering every code in that
// range. Codes resolve to the highest registered base that does not exceed
// them, so one registration covers a whole per-package block.
var idMsgFct = make(map[CodeError]Message)

// Message renders the human-readable text for one code of a registered
// range. A registered function must return NullMessage for codes outside
// its range.
type Message func(code CodeError) (message string)

// CodeError is a numeric error code in [0, 65535]. Each consumer package
// claims a contiguous block (see modules.go) so a code identifies both the
// failing subsystem and the failure kind, the way HTTP status codes do.
type CodeError uint16

const (
	// UnknownError is code 0, the fallback when no specific code applies.
	UnknownError CodeError = 0

	// UnknownMessage is rendered for UnknownError and unregistered codes.
	UnknownMessage = "unknown error"

	// NullMessage represents an empty error message.
	NullMessage = ""
)

// ParseCodeError converts an int64 into a CodeError, clamping negatives to
// UnknownError and anything at or above MaxUint16 to MaxUint16.
func ParseCodeError(i int64) CodeError {
	if i < 0 {
		return UnknownError
	} else if i >= int64(math.MaxUint16) {
		return math.MaxUint16
	}
	return CodeError(i)
}

// NewCodeError converts a raw uint16 into a CodeError.
func NewCodeError(code uint16) CodeError {
	return CodeError(code)
}

// Uint16 returns the code as a uint16.
func (c CodeError) Uint16() uint16 {
	return uint16(c)
}

// Int returns the code as an int.
func (c CodeError) Int() int {
	return int(c)
}

// String renders the code as its decimal string.
func (c CodeError) String() string {
	return strconv.Itoa(c.Int())
}

// GetMessage returns the string representation of the code.
// Deprecated: see Message
func (c CodeError) GetMessage() string {
	return c.String()
}

// Message resolves c against the registered ranges and returns the rendered
// text, or UnknownMessage when c is 0 or no range covers it.
func (c CodeError) Message() string {
	if c == UnknownError {
		return UnknownMessage
	}

	if f, ok := idMsgFct[findCodeErrorInMapMessage(c)]; ok {
		if m := f(c); m != "" {
			return m
		}
	}

	return UnknownMessage
}

// Error builds an Error carrying c, its registered message, and p as the
// parent chain.
func (c CodeError) Error(p ...error) Error {
	return New(c.Uint16(), c.Message(), p...)
}

// Errorf builds an Error whose message is c's registered text formatted
// with args. A message with no verb is used as-is; surplus args beyond the
// number of "%" verbs are dropped rather than rendered as !%(EXTRA...).
func (c CodeError) Errorf(args ...interface{}) Error {
	m := c.Message()

	if !strings.Contains(m, "%") {
		return New(c.Uint16(), m)
	}

	if n := strings.Count(m, "%"); n < len(args) {
		return Newf(c.Uint16(), m, args[:n]...)
	}
	return Newf(c.Uint16(), m, args...)
}

// IfError builds an Error from c and the parent list e, but only when the
// filtered list still contains at least one real error; otherwise nil.
func (c CodeError) IfError(e ...error) Error {
	return IfError(c.Uint16(), c.Message(), e...)
}

// GetCodePackages maps each registered range's base code to the source file
// that registered it, with paths made relative to rootPackage. Intended for
// diagnostics: it answers "which package owns code N".
func GetCodePackages(rootPackage string) map[CodeError]string {
	var res = make(map[CodeError]string)

	for i, f := range idMsgFct {
		p := reflect.ValueOf(f).Pointer()
		n, _ := runtime.FuncForPC(p).FileLine(p)

		if strings.Contains(n, "/vendor/") {
			a := strings.SplitN(n, "/vendor/", 2)
			n = a[1]
		}

		if strings.Contains(n, rootPackage) {
			a := strings.SplitN(n, rootPackage, 2)
			n = a[1]
		}

		if !strings.HasPrefix(n, "/") {
			n = "/" + n
		}

		res[i] = n
	}

	return res
}

// RegisterIdFctMessage registers fct as the message renderer for the code
// range starting at minCode. Consumer packages call this from init(), after
// probing ExistInMapMessage for collisions with an already-claimed range.
func RegisterIdFctMessage(minCode CodeError, fct Message) {
	if idMsgFct == nil {
		idMsgFct = make(map[CodeError]Message)
	}

	idMsgFct[minCode] = fct
}

// ExistInMapMessage reports whether some registered range already renders a
// non-empty message for code. Used as the collision probe before claiming a
// range.
func ExistInMapMessage(code CodeError) bool {
	if f, ok := idMsgFct[findCodeErrorInMapMessage(code)]; ok {
		if m := f(code); m != NullMessage {
			return true
		}
	}

	return false
}

// findCodeErrorInMapMessage returns the highest registered base code that
// is <= code, i.e. the range code falls into.
func findCodeErrorInMapMessage(code CodeError) CodeError {
	var res CodeError = 0

	for k := range idMsgFct {
		if k <= code && k > res {
			res = k
		}
	}

	return res
}

func isCodeInSlice(code CodeError, slice []CodeError) bool {
	for _, c := range slice {
		if c == code {
			return true
		}
	}

	return false
}

func unicCodeSlice(slice []CodeError) []CodeError {
	var res = make([]CodeError, 0)

	for _, c := range slice {
		if !isCodeInSlice(c, res) {
			res = append(res, c)
		}
	}

	return res
}

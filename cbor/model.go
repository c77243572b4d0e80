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

// Package cbor is a hand-rolled RFC 8949 codec over a small typed value
// tree. It exists to be read, not to compete with fxamacker/cbor/v2 (used
// elsewhere in this module for opaque checkpoint blobs) — this is the one
// subsystem the rest of the module treats as a third party would, so it is
// built directly against the RFC rather than wrapped around another CBOR
// library.
package cbor

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Value is the tagged union RFC 8949 items decode into. Maps preserve
// insertion order (MapValue is a slice of pairs, not a Go map).
type Value interface {
	isValue()
}

type Uint64Value uint64

func (Uint64Value) isValue() {}

// NegIntValue represents the CBOR major-type-1 integer -1-N for N == uint64(v).
type NegIntValue uint64

func (NegIntValue) isValue() {}

// BignumValue is a tag-2 (positive) or tag-3 (negative) arbitrary-precision
// integer outside [-2^64, 2^64).
type BignumValue struct {
	Negative  bool
	Magnitude *big.Int
}

func (BignumValue) isValue() {}

// DecimalValue is a tag-4 decimal fraction, backed by shopspring/decimal
// instead of a hand-rolled (exponent, mantissa) pair.
type DecimalValue struct {
	Value decimal.Decimal
}

func (DecimalValue) isValue() {}

type F32Value float32

func (F32Value) isValue() {}

type F64Value float64

func (F64Value) isValue() {}

type TextValue string

func (TextValue) isValue() {}

type ByteValue []byte

func (ByteValue) isValue() {}

type ArrayValue []Value

func (ArrayValue) isValue() {}

// MapEntry is one (key, value) pair of a MapValue, preserving source order.
type MapEntry struct {
	Key   Value
	Value Value
}

type MapValue []MapEntry

func (MapValue) isValue() {}

// TagValue is tag N wrapping an inner value, for any N not given a
// dedicated Go type above (tags 1 and 4 round-trip through TagValue{1, ...}
// and DecimalValue respectively; arbitrary application tags use this).
type TagValue struct {
	Tag   uint64
	Value Value
}

func (TagValue) isValue() {}

type BoolValue bool

func (BoolValue) isValue() {}

type NullValue struct{}

func (NullValue) isValue() {}

type UndefinedValue struct{}

func (UndefinedValue) isValue() {}

// BignumFromBigInt builds a BignumValue from a signed *big.Int.
func BignumFromBigInt(v *big.Int) BignumValue {
	neg := v.Sign() < 0
	mag := new(big.Int).Abs(v)
	return BignumValue{Negative: neg, Magnitude: mag}
}

// BigInt reconstructs the signed *big.Int the BignumValue represents.
func (b BignumValue) BigInt() *big.Int {
	v := new(big.Int).Set(b.Magnitude)
	if b.Negative {
		v.Neg(v)
	}
	return v
}

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
	"bytes"
	"encoding/binary"
	"math"
	"math/big"

	liberr "github.com/nabbar/go-s3crt/errors"
)

const (
	majorUint     = 0
	majorNegInt   = 1
	majorBytes    = 2
	majorText     = 3
	majorArray    = 4
	majorMap      = 5
	majorTag      = 6
	majorSimple   = 7
)

const (
	simpleFalse     = 20
	simpleTrue      = 21
	simpleNull      = 22
	simpleUndefined = 23
	simpleFloat32   = 26
	simpleFloat64   = 27
)

// Encode walks v and emits RFC 8949 bytes.
func Encode(v Value) ([]byte, liberr.Error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeHead(buf *bytes.Buffer, major byte, arg uint64) {
	m := major << 5

	switch {
	case arg < 24:
		buf.WriteByte(m | byte(arg))
	case arg <= math.MaxUint8:
		buf.WriteByte(m | 24)
		buf.WriteByte(byte(arg))
	case arg <= math.MaxUint16:
		buf.WriteByte(m | 25)
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(arg))
		buf.Write(b[:])
	case arg <= math.MaxUint32:
		buf.WriteByte(m | 26)
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(arg))
		buf.Write(b[:])
	default:
		buf.WriteByte(m | 27)
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], arg)
		buf.Write(b[:])
	}
}

func encodeValue(buf *bytes.Buffer, v Value) liberr.Error {
	switch t := v.(type) {
	case Uint64Value:
		writeHead(buf, majorUint, uint64(t))
		return nil

	case NegIntValue:
		writeHead(buf, majorNegInt, uint64(t))
		return nil

	case BignumValue:
		return encodeBignum(buf, t)

	case DecimalValue:
		return encodeDecimal(buf, t)

	case F32Value:
		writeHead(buf, majorSimple, simpleFloat32)
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], math.Float32bits(float32(t)))
		buf.Write(b[:])
		return nil

	case F64Value:
		return encodeF64(buf, float64(t))

	case TextValue:
		writeHead(buf, majorText, uint64(len(t)))
		buf.WriteString(string(t))
		return nil

	case ByteValue:
		writeHead(buf, majorBytes, uint64(len(t)))
		buf.Write(t)
		return nil

	case ArrayValue:
		writeHead(buf, majorArray, uint64(len(t)))
		for _, e := range t {
			if err := encodeValue(buf, e); err != nil {
				return err
			}
		}
		return nil

	case MapValue:
		writeHead(buf, majorMap, uint64(len(t)))
		for _, e := range t {
			if err := encodeValue(buf, e.Key); err != nil {
				return err
			}
			if err := encodeValue(buf, e.Value); err != nil {
				return err
			}
		}
		return nil

	case TagValue:
		writeHead(buf, majorTag, t.Tag)
		return encodeValue(buf, t.Value)

	case BoolValue:
		if t {
			writeHead(buf, majorSimple, simpleTrue)
		} else {
			writeHead(buf, majorSimple, simpleFalse)
		}
		return nil

	case NullValue:
		writeHead(buf, majorSimple, simpleNull)
		return nil

	case UndefinedValue:
		writeHead(buf, majorSimple, simpleUndefined)
		return nil

	default:
		return ErrorUnknownType.Error(nil)
	}
}

// encodeF64 picks the narrowest IEEE-754 width that round-trips exactly:
// 4 bytes when the value survives an f32 conversion, 8 otherwise. NaN and
// the infinities are representable in f32 bit patterns and take the 4-byte
// path like any other exactly-representable value.
func encodeF64(buf *bytes.Buffer, f float64) liberr.Error {
	f32 := float32(f)
	if math.IsNaN(f) || (float64(f32) == f) {
		writeHead(buf, majorSimple, simpleFloat32)
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], math.Float32bits(f32))
		buf.Write(b[:])
		return nil
	}

	writeHead(buf, majorSimple, simpleFloat64)
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(f))
	buf.Write(b[:])
	return nil
}

func encodeBignum(buf *bytes.Buffer, b BignumValue) liberr.Error {
	tag := uint64(2)

	mag := b.Magnitude
	if mag == nil {
		mag = big.NewInt(0)
	}

	// Tag 3's byte-string content is n where the value is -1-n, so a
	// negative bignum of magnitude m is carried as m-1 (RFC 8949 §3.4.3).
	if b.Negative {
		tag = 3
		mag = new(big.Int).Sub(mag, big.NewInt(1))
		if mag.Sign() < 0 {
			mag.SetInt64(0)
		}
	}

	writeHead(buf, majorTag, tag)
	raw := mag.Bytes()
	writeHead(buf, majorBytes, uint64(len(raw)))
	buf.Write(raw)
	return nil
}

// encodeDecimal emits tag 4 + [exponent, mantissa].
func encodeDecimal(buf *bytes.Buffer, d DecimalValue) liberr.Error {
	writeHead(buf, majorTag, 4)
	writeHead(buf, majorArray, 2)

	exp := int64(d.Value.Exponent())
	if err := encodeValue(buf, signedInt(exp)); err != nil {
		return err
	}

	mant := d.Value.Coefficient()
	if mant.Sign() < 0 {
		return encodeValue(buf, BignumFromBigInt(mant))
	}
	if mant.IsInt64() {
		return encodeValue(buf, Uint64Value(mant.Int64()))
	}
	return encodeValue(buf, BignumFromBigInt(mant))
}

// signedInt maps a Go int64 to the matching Uint64Value/NegIntValue major type.
func signedInt(v int64) Value {
	if v >= 0 {
		return Uint64Value(uint64(v))
	}
	return NegIntValue(uint64(-1 - v))
}

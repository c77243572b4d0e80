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
	"encoding/binary"
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"

	liberr "github.com/nabbar/go-s3crt/errors"
)

const breakByte = 0xFF

type decoder struct {
	buf []byte
	pos int
}

func (d *decoder) byte() (byte, liberr.Error) {
	if d.pos >= len(d.buf) {
		return 0, ErrorOutOfBytes.Error(nil)
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

func (d *decoder) bytes(n int) ([]byte, liberr.Error) {
	if n < 0 || d.pos+n > len(d.buf) {
		return nil, ErrorOutOfBytes.Error(nil)
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

// Decode parses exactly one RFC 8949 item from data. Any trailing bytes
// after the item produce an "extra bytes" error.
func Decode(data []byte) (Value, liberr.Error) {
	d := &decoder{buf: data}

	v, err := d.readValue()
	if err != nil {
		return nil, err
	}
	if d.pos != len(d.buf) {
		return nil, ErrorExtraBytes.Error(fmt.Errorf("%d trailing byte(s)", len(d.buf)-d.pos))
	}
	return v, nil
}

// readArg reads the additional-information bytes following a head byte and
// returns the decoded argument, plus whether the item is indefinite-length
// (additional info 31).
func (d *decoder) readArg(info byte) (uint64, bool, liberr.Error) {
	switch {
	case info < 24:
		return uint64(info), false, nil
	case info == 24:
		b, err := d.byte()
		if err != nil {
			return 0, false, err
		}
		return uint64(b), false, nil
	case info == 25:
		b, err := d.bytes(2)
		if err != nil {
			return 0, false, err
		}
		return uint64(binary.BigEndian.Uint16(b)), false, nil
	case info == 26:
		b, err := d.bytes(4)
		if err != nil {
			return 0, false, err
		}
		return uint64(binary.BigEndian.Uint32(b)), false, nil
	case info == 27:
		b, err := d.bytes(8)
		if err != nil {
			return 0, false, err
		}
		return binary.BigEndian.Uint64(b), false, nil
	case info >= 28 && info <= 30:
		return 0, false, ErrorUnknownAdditionalInfo.Error(fmt.Errorf("additional info %d", info))
	case info == 31:
		return 0, true, nil
	}
	return 0, false, ErrorUnknownAdditionalInfo.Error(fmt.Errorf("additional info %d", info))
}

func (d *decoder) readValue() (Value, liberr.Error) {
	head, err := d.byte()
	if err != nil {
		return nil, err
	}
	if head == breakByte {
		return nil, ErrorUnexpectedBreak.Error(nil)
	}

	major := head >> 5
	info := head & 0x1F

	arg, indef, err := d.readArg(info)
	if err != nil {
		return nil, err
	}

	// Additional info 31 is only meaningful for strings, arrays and maps;
	// an indefinite-length integer or tag head is malformed.
	if indef && (major == majorUint || major == majorNegInt || major == majorTag) {
		return nil, ErrorUnknownAdditionalInfo.Error(fmt.Errorf("additional info 31 invalid for major type %d", major))
	}

	switch major {
	case majorUint:
		return Uint64Value(arg), nil

	case majorNegInt:
		return NegIntValue(arg), nil

	case majorBytes:
		if indef {
			return d.readIndefiniteBytes()
		}
		b, berr := d.bytes(int(arg))
		if berr != nil {
			return nil, berr
		}
		out := make([]byte, len(b))
		copy(out, b)
		return ByteValue(out), nil

	case majorText:
		if indef {
			return d.readIndefiniteText()
		}
		b, berr := d.bytes(int(arg))
		if berr != nil {
			return nil, berr
		}
		return TextValue(string(b)), nil

	case majorArray:
		if indef {
			return d.readIndefiniteArray()
		}
		arr := make(ArrayValue, 0, arg)
		for i := uint64(0); i < arg; i++ {
			v, verr := d.readValue()
			if verr != nil {
				return nil, verr
			}
			arr = append(arr, v)
		}
		return arr, nil

	case majorMap:
		if indef {
			return d.readIndefiniteMap()
		}
		m := make(MapValue, 0, arg)
		for i := uint64(0); i < arg; i++ {
			k, kerr := d.readValue()
			if kerr != nil {
				return nil, kerr
			}
			v, verr := d.readValue()
			if verr != nil {
				return nil, verr
			}
			m = append(m, MapEntry{Key: k, Value: v})
		}
		return m, nil

	case majorTag:
		return d.readTagged(arg)

	case majorSimple:
		return d.readSimple(info, arg)
	}

	return nil, ErrorUnknownType.Error(fmt.Errorf("major type %d", major))
}

func (d *decoder) readIndefiniteBytes() (Value, liberr.Error) {
	var out []byte
	for {
		if d.pos < len(d.buf) && d.buf[d.pos] == breakByte {
			d.pos++
			return ByteValue(out), nil
		}
		v, err := d.readValue()
		if err != nil {
			return nil, err
		}
		chunk, ok := v.(ByteValue)
		if !ok {
			return nil, ErrorUnsupportedValue.Error(fmt.Errorf("indefinite byte string chunk is not a byte string"))
		}
		out = append(out, chunk...)
	}
}

func (d *decoder) readIndefiniteText() (Value, liberr.Error) {
	var out []byte
	for {
		if d.pos < len(d.buf) && d.buf[d.pos] == breakByte {
			d.pos++
			return TextValue(string(out)), nil
		}
		v, err := d.readValue()
		if err != nil {
			return nil, err
		}
		chunk, ok := v.(TextValue)
		if !ok {
			return nil, ErrorUnsupportedValue.Error(fmt.Errorf("indefinite text string chunk is not a text string"))
		}
		out = append(out, []byte(chunk)...)
	}
}

func (d *decoder) readIndefiniteArray() (Value, liberr.Error) {
	arr := make(ArrayValue, 0)
	for {
		if d.pos < len(d.buf) && d.buf[d.pos] == breakByte {
			d.pos++
			return arr, nil
		}
		v, err := d.readValue()
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
}

func (d *decoder) readIndefiniteMap() (Value, liberr.Error) {
	m := make(MapValue, 0)
	for {
		if d.pos < len(d.buf) && d.buf[d.pos] == breakByte {
			d.pos++
			return m, nil
		}
		k, kerr := d.readValue()
		if kerr != nil {
			return nil, kerr
		}
		v, verr := d.readValue()
		if verr != nil {
			return nil, verr
		}
		m = append(m, MapEntry{Key: k, Value: v})
	}
}

// readTagged dispatches tag 2/3 (bignum) and tag 4 (decimal fraction) to
// their dedicated Go types; every other tag round-trips through TagValue.
func (d *decoder) readTagged(tag uint64) (Value, liberr.Error) {
	switch tag {
	case 2, 3:
		v, err := d.readValue()
		if err != nil {
			return nil, err
		}
		b, ok := v.(ByteValue)
		if !ok {
			return nil, ErrorUnsupportedValue.Error(fmt.Errorf("bignum tag payload is not a byte string"))
		}
		mag := new(big.Int).SetBytes(b)
		if tag == 3 {
			// Content is n; the value is -1-n, so the magnitude is n+1.
			mag.Add(mag, big.NewInt(1))
		}
		return BignumValue{Negative: tag == 3, Magnitude: mag}, nil

	case 4:
		v, err := d.readValue()
		if err != nil {
			return nil, err
		}
		arr, ok := v.(ArrayValue)
		if !ok || len(arr) != 2 {
			return nil, ErrorUnsupportedValue.Error(fmt.Errorf("decimal fraction tag payload must be a 2-element array"))
		}
		exp, eok := toInt64(arr[0])
		if !eok {
			return nil, ErrorUnsupportedValue.Error(fmt.Errorf("decimal fraction exponent is not an integer"))
		}
		mant, mok := toBigInt(arr[1])
		if !mok {
			return nil, ErrorUnsupportedValue.Error(fmt.Errorf("decimal fraction mantissa is not an integer"))
		}
		return DecimalValue{Value: decimal.NewFromBigInt(mant, int32(exp))}, nil

	default:
		v, err := d.readValue()
		if err != nil {
			return nil, err
		}
		return TagValue{Tag: tag, Value: v}, nil
	}
}

func toInt64(v Value) (int64, bool) {
	switch t := v.(type) {
	case Uint64Value:
		return int64(t), true
	case NegIntValue:
		return -1 - int64(t), true
	}
	return 0, false
}

func toBigInt(v Value) (*big.Int, bool) {
	switch t := v.(type) {
	case Uint64Value:
		return new(big.Int).SetUint64(uint64(t)), true
	case NegIntValue:
		n := new(big.Int).SetUint64(uint64(t))
		n.Add(n, big.NewInt(1))
		return n.Neg(n), true
	case BignumValue:
		return t.BigInt(), true
	}
	return nil, false
}

func (d *decoder) readSimple(info byte, arg uint64) (Value, liberr.Error) {
	switch info {
	case simpleFalse:
		return BoolValue(false), nil
	case simpleTrue:
		return BoolValue(true), nil
	case simpleNull:
		return NullValue{}, nil
	case simpleUndefined:
		return UndefinedValue{}, nil
	case simpleFloat32:
		return F32Value(math.Float32frombits(uint32(arg))), nil
	case simpleFloat64:
		return F64Value(math.Float64frombits(arg)), nil
	default:
		return nil, ErrorUnsupportedValue.Error(fmt.Errorf("simple value %d not supported", info))
	}
}

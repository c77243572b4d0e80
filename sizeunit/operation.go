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

package sizeunit

import (
	"math"

	liberr "github.com/nabbar/go-s3crt/errors"
)

// Add adds n to s in place, saturating at math.MaxUint64.
func (s *Size) Add(n Size) {
	_ = s.AddErr(n)
}

// AddErr is like Add but reports overflow as an error instead of silently saturating.
func (s *Size) AddErr(n Size) liberr.Error {
	if math.MaxUint64-uint64(*s) < uint64(n) {
		*s = Size(math.MaxUint64)
		return ErrorOverflow.Error(nil)
	}

	*s = *s + n
	return nil
}

// Sub subtracts n from s in place, floored at zero.
func (s *Size) Sub(n Size) {
	_ = s.SubErr(n)
}

// SubErr is like Sub but reports underflow as an error instead of silently flooring.
func (s *Size) SubErr(n Size) liberr.Error {
	if n > *s {
		*s = SizeNul
		return ErrorUnderflow.Error(nil)
	}

	*s = *s - n
	return nil
}

// Mul multiplies s by f in place, rounding up (ceil) and saturating at MaxUint64.
// Negative multipliers are treated as zero.
func (s *Size) Mul(f float64) {
	_ = s.MulErr(f)
}

// MulErr is like Mul but reports overflow as an error.
func (s *Size) MulErr(f float64) liberr.Error {
	if f <= 0 {
		*s = SizeNul
		return nil
	}

	r := math.Ceil(float64(*s) * f)

	if r >= math.MaxUint64 {
		*s = Size(math.MaxUint64)
		return ErrorOverflow.Error(nil)
	}

	*s = Size(r)
	return nil
}

// Div divides s by f in place, rounding up (ceil). Dividing by zero leaves s unchanged.
func (s *Size) Div(f float64) {
	_ = s.DivErr(f)
}

// DivErr is like Div but reports a division-by-zero error.
func (s *Size) DivErr(f float64) liberr.Error {
	if f == 0 {
		return ErrorDivByZero.Error(nil)
	}

	r := math.Ceil(float64(*s) / f)

	if r < 0 {
		*s = SizeNul
	} else if r >= math.MaxUint64 {
		*s = Size(math.MaxUint64)
	} else {
		*s = Size(r)
	}

	return nil
}

// Floor truncates s down to the nearest multiple of unit.
func (s *Size) Floor(unit Size) {
	if unit == 0 {
		return
	}

	*s = (*s / unit) * unit
}

// KiloBytes returns s expressed as a fractional count of kilobytes.
func (s Size) KiloBytes() float64 { return float64(s) / float64(SizeKilo) }

// MegaBytes returns s expressed as a fractional count of megabytes.
func (s Size) MegaBytes() float64 { return float64(s) / float64(SizeMega) }

// GigaBytes returns s expressed as a fractional count of gigabytes.
func (s Size) GigaBytes() float64 { return float64(s) / float64(SizeGiga) }

// TeraBytes returns s expressed as a fractional count of terabytes.
func (s Size) TeraBytes() float64 { return float64(s) / float64(SizeTera) }

// PetaBytes returns s expressed as a fractional count of petabytes.
func (s Size) PetaBytes() float64 { return float64(s) / float64(SizePeta) }

// ExaBytes returns s expressed as a fractional count of exabytes.
func (s Size) ExaBytes() float64 { return float64(s) / float64(SizeExa) }

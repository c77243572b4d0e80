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
	"fmt"
	"strconv"
	"strings"

	liberr "github.com/nabbar/go-s3crt/errors"
)

// String renders s as a human-readable binary-unit string, e.g. "1.50Mi".
func (s Size) String() string {
	return s.Format(2)
}

// Format renders s with the given number of decimals, picking the largest
// unit under which the value is >= 1.
func (s Size) Format(decimals int) string {
	v := float64(s)
	unit := "B"

	switch {
	case s >= SizeExa:
		v, unit = s.ExaBytes(), "Ei"
	case s >= SizePeta:
		v, unit = s.PetaBytes(), "Pi"
	case s >= SizeTera:
		v, unit = s.TeraBytes(), "Ti"
	case s >= SizeGiga:
		v, unit = s.GigaBytes(), "Gi"
	case s >= SizeMega:
		v, unit = s.MegaBytes(), "Mi"
	case s >= SizeKilo:
		v, unit = s.KiloBytes(), "Ki"
	}

	return fmt.Sprintf("%.*f%s", decimals, v, unit)
}

// Parse decodes a human-readable size expression ("8Mi", "512k", "2 GiB", "1024")
// into a Size. A bare number is interpreted as bytes.
func Parse(expr string) (Size, liberr.Error) {
	e := strings.TrimSpace(expr)
	if e == "" {
		return SizeNul, ErrorParse.Error(nil)
	}

	i := 0
	for i < len(e) && (e[i] >= '0' && e[i] <= '9' || e[i] == '.') {
		i++
	}

	if i == 0 {
		return SizeNul, ErrorParse.Error(nil)
	}

	num, convErr := strconv.ParseFloat(e[:i], 64)
	if convErr != nil {
		return SizeNul, ErrorParse.Error(convErr)
	}

	suffix := strings.ToLower(strings.TrimSpace(e[i:]))
	suffix = strings.TrimSuffix(suffix, "b")
	suffix = strings.TrimSuffix(suffix, "i")

	var unit Size
	switch suffix {
	case "", "o":
		unit = SizeUnit
	case "k":
		unit = SizeKilo
	case "m":
		unit = SizeMega
	case "g":
		unit = SizeGiga
	case "t":
		unit = SizeTera
	case "p":
		unit = SizePeta
	case "e":
		unit = SizeExa
	default:
		return SizeNul, ErrorParse.Error(nil)
	}

	res := Size(num * float64(unit))
	return res, nil
}

// MarshalText implements encoding.TextMarshaler.
func (s Size) MarshalText() ([]byte, error) {
	return []byte(strconv.FormatUint(uint64(s), 10)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, accepting either a bare
// byte count or a human-readable expression ("8Mi").
func (s *Size) UnmarshalText(b []byte) error {
	txt := strings.TrimSpace(string(b))

	if n, err := strconv.ParseUint(txt, 10, 64); err == nil {
		*s = Size(n)
		return nil
	}

	v, e := Parse(txt)
	if e != nil {
		return e
	}

	*s = v
	return nil
}

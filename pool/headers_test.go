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

package pool_test

import (
	"strings"

	. "github.com/nabbar/go-s3crt/pool"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Headers", func() {
	It("looks up Get case-insensitively", func() {
		var h Headers
		h.Add("Content-Type", "text/plain")

		Expect(h.Get("content-type")).To(Equal("text/plain"))
		Expect(h.Get("CONTENT-TYPE")).To(Equal("text/plain"))
	})

	It("returns every value registered for a name via Values", func() {
		var h Headers
		h.Add("X-Foo", "a")
		h.Add("X-Foo", "b")

		Expect(h.Values("x-foo")).To(Equal([]string{"a", "b"}))
	})

	Describe("Merged", func() {
		It("joins duplicate non-Set-Cookie headers with \", \" in first-seen order", func() {
			var h Headers
			h.Add("X-Foo", "a")
			h.Add("X-Foo", "b")
			h.Add("X-Foo", "c")

			m := h.Merged()
			Expect(m).To(HaveLen(1))
			Expect(m[0].Name).To(Equal("X-Foo"))
			Expect(strings.Split(m[0].Value, ", ")).To(Equal([]string{"a", "b", "c"}))
		})

		It("preserves Set-Cookie as separate entries", func() {
			var h Headers
			h.Add("Set-Cookie", "a=1")
			h.Add("Set-Cookie", "b=2")

			m := h.Merged()
			Expect(m).To(HaveLen(2))
			Expect(m[0].Value).To(Equal("a=1"))
			Expect(m[1].Value).To(Equal("b=2"))
		})

		It("leaves single-valued headers untouched", func() {
			var h Headers
			h.Add("Content-Length", "2")

			m := h.Merged()
			Expect(m).To(Equal(Headers{{Name: "Content-Length", Value: "2"}}))
		})
	})
})

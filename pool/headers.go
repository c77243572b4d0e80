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

import "strings"

// Header is one (name, value) pair. Name preserves case as supplied; header
// lookups always compare case-insensitively.
type Header struct {
	Name  string
	Value string
}

// Headers is an ordered multimap of (name, value) pairs preserving
// insertion order.
type Headers []Header

// Add appends a header, preserving any existing entries with the same name.
func (h *Headers) Add(name, value string) {
	*h = append(*h, Header{Name: name, Value: value})
}

// Get returns the first value for name, case-insensitively, or "" if absent.
func (h Headers) Get(name string) string {
	for _, e := range h {
		if strings.EqualFold(e.Name, name) {
			return e.Value
		}
	}
	return ""
}

// Values returns every value registered for name, in insertion order.
func (h Headers) Values(name string) []string {
	res := make([]string, 0, 1)
	for _, e := range h {
		if strings.EqualFold(e.Name, name) {
			res = append(res, e.Value)
		}
	}
	return res
}

// Merged collapses duplicate header names other than Set-Cookie into a
// single entry joined by ", " in first-seen order. Set-Cookie entries are
// never merged.
func (h Headers) Merged() Headers {
	type slot struct {
		name string
		vals []string
	}

	order := make([]*slot, 0, len(h))
	byKey := make(map[string]*slot)

	for _, e := range h {
		key := strings.ToLower(e.Name)

		// Set-Cookie entries stay separate: one slot per occurrence.
		if key == "set-cookie" {
			order = append(order, &slot{name: e.Name, vals: []string{e.Value}})
			continue
		}

		if s, ok := byKey[key]; ok {
			s.vals = append(s.vals, e.Value)
			continue
		}

		s := &slot{name: e.Name, vals: []string{e.Value}}
		byKey[key] = s
		order = append(order, s)
	}

	res := make(Headers, 0, len(order))
	for _, s := range order {
		res = append(res, Header{Name: s.name, Value: strings.Join(s.vals, ", ")})
	}

	return res
}

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

// Package atomic wraps sync/atomic.Value and sync.Map behind generic
// interfaces, so callers get typed Load/Store without the interface{}
// assertions the stdlib types require. The runtime singleton and the error
// pool are the two consumers in this module.
package atomic

import (
	"sync"
	"sync/atomic"
)

// Value is a typed atomic.Value with configurable fallbacks: the load
// default is returned while nothing has been stored yet, and the store
// default replaces a zero value passed to Store/Swap/CompareAndSwap.
type Value[T any] interface {
	// SetDefaultLoad sets the value Load returns before the first Store.
	SetDefaultLoad(def T)
	// SetDefaultStore sets the value substituted when a zero T is stored.
	SetDefaultStore(def T)

	// Load returns the current value, or the load default if none is set.
	Load() (val T)
	// Store sets the value; a zero T is replaced by the store default.
	Store(val T)
	// Swap stores new and returns the prior value; zero values on either
	// side are replaced by the configured defaults.
	Swap(new T) (old T)
	// CompareAndSwap swaps to new only if the current value equals old,
	// after default substitution on both arguments. Reports whether the
	// swap happened.
	CompareAndSwap(old, new T) (swapped bool)
}

// Map is a sync.Map with a typed comparable key; values stay untyped. Use
// MapTyped when the value type is also fixed.
type Map[K comparable] interface {
	// Load returns the value for key, with ok false when absent.
	Load(key K) (value any, ok bool)
	// Store sets the value for key, replacing any prior entry.
	Store(key K, value any)

	// LoadOrStore returns the existing value for key if present, storing
	// and returning value otherwise. loaded reports which case ran.
	LoadOrStore(key K, value any) (actual any, loaded bool)
	// LoadAndDelete removes key, returning the value it held and whether
	// it was present.
	LoadAndDelete(key K) (value any, loaded bool)

	// Delete removes key, whether or not it was present.
	Delete(key K)
	// Swap stores value for key and returns the value previously held;
	// loaded is false when the key was absent.
	Swap(key K, value any) (previous any, loaded bool)

	// CompareAndSwap replaces old with new for key only if the current
	// value equals old. Reports whether the replacement happened.
	CompareAndSwap(key K, old, new any) bool
	// CompareAndDelete removes key only if its current value equals old.
	// Reports whether the removal happened.
	CompareAndDelete(key K, old any) (deleted bool)

	// Range calls f per entry, in unspecified order, stopping early when f
	// returns false.
	Range(f func(key K, value any) bool)
}

// MapTyped is Map with the value type fixed as well, so lookups return V
// directly. Entries whose stored value is not a V, or is V's zero value,
// read back as absent, and Range deletes them.
type MapTyped[K comparable, V any] interface {
	// Load returns the value for key, with ok false when absent.
	Load(key K) (value V, ok bool)
	// Store sets the value for key, replacing any prior entry.
	Store(key K, value V)

	// LoadOrStore returns the existing value for key if present, storing
	// and returning value otherwise. loaded reports which case ran.
	LoadOrStore(key K, value V) (actual V, loaded bool)
	// LoadAndDelete removes key, returning the value it held and whether
	// it was present.
	LoadAndDelete(key K) (value V, loaded bool)

	// Delete removes key, whether or not it was present.
	Delete(key K)
	// Swap stores value for key and returns the value previously held;
	// loaded is false when the key was absent.
	Swap(key K, value V) (previous V, loaded bool)

	// CompareAndSwap replaces old with new for key only if the current
	// value equals old. Reports whether the replacement happened.
	CompareAndSwap(key K, old, new V) bool
	// CompareAndDelete removes key only if its current value equals old.
	// Reports whether the removal happened.
	CompareAndDelete(key K, old V) (deleted bool)

	// Range calls f per entry, in unspecified order, stopping early when f
	// returns false.
	Range(f func(key K, value V) bool)
}

// NewValue returns a Value whose load and store defaults are both the zero
// value of T.
func NewValue[T any]() Value[T] {
	var (
		tmp1 T
		tmp2 T
	)

	return NewValueDefault[T](tmp1, tmp2)
}

// NewValueDefault returns a Value with explicit load and store defaults.
func NewValueDefault[T any](load, store T) Value[T] {
	o := &val[T]{
		av: new(atomic.Value),
		dl: new(atomic.Value),
		ds: new(atomic.Value),
	}

	o.SetDefaultLoad(load)
	o.SetDefaultStore(store)

	return o
}

// NewMapAny returns a Map backed by a sync.Map.
func NewMapAny[K comparable]() Map[K] {
	return &ma[K]{
		m: sync.Map{},
	}
}

// NewMapTyped returns a MapTyped layered over NewMapAny.
func NewMapTyped[K comparable, V any]() MapTyped[K, V] {
	return &mt[K, V]{
		m: NewMapAny[K](),
	}
}

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

// Package semutil bounds worker concurrency for the S3 meta-request engine's
// part scheduler. It is a thin named wrapper over golang.org/x/sync/semaphore
// so call sites read in terms of "workers" rather than raw weighted units.
package semutil

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Group bounds the number of concurrently running workers at K.
type Group struct {
	sem *semaphore.Weighted
	k   int64
}

// New returns a Group that admits at most k concurrent workers. k <= 0 is
// treated as 1 (no useful pool can run zero workers).
func New(k int) *Group {
	if k <= 0 {
		k = 1
	}

	return &Group{
		sem: semaphore.NewWeighted(int64(k)),
		k:   int64(k),
	}
}

// Limit returns the configured concurrency bound K.
func (g *Group) Limit() int {
	return int(g.k)
}

// Acquire blocks until a worker slot is available or ctx is done.
func (g *Group) Acquire(ctx context.Context) error {
	return g.sem.Acquire(ctx, 1)
}

// TryAcquire attempts to claim a worker slot without blocking.
func (g *Group) TryAcquire() bool {
	return g.sem.TryAcquire(1)
}

// Release returns a previously acquired worker slot.
func (g *Group) Release() {
	g.sem.Release(1)
}

// Go runs fn in a new goroutine once a worker slot is available, releasing
// the slot when fn returns. The returned error is nil unless ctx was done
// before a slot could be acquired, in which case fn never runs.
func (g *Group) Go(ctx context.Context, fn func()) error {
	if err := g.Acquire(ctx); err != nil {
		return err
	}

	go func() {
		defer g.Release()
		fn()
	}()

	return nil
}

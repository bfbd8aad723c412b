// Copyright 2020 Nathan Taylor (nbtaylor@gmail.com)
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package rbtree

import (
	"bytes"
	"sync/atomic"

	"github.com/dijkstracula/rbtree/internal/ilock"
)

// color is the red-black color of a node, held in an atomic word so readers
// can sample it without a lock.
type color uint32

const (
	red color = iota
	black
)

func (c color) String() string {
	if c == red {
		return "RED"
	}
	return "BLACK"
}

// node is one key/value pair and its position in the tree. Every field a
// concurrent reader might touch is atomic; key is the only field set once at
// construction and never mutated again.
//
// node is padded out to 128 bytes, two whole 64-byte cache lines, so that a
// reader spinning on version doesn't false-share with a neighboring node's
// allocation.
type node struct {
	key   []byte
	value atomic.Pointer[[]byte]

	left   atomic.Pointer[node]
	right  atomic.Pointer[node]
	parent atomic.Pointer[node]

	version atomic.Uint64
	color   atomic.Uint32

	mu *ilock.Mutex

	_ [48]byte // the fields above take 80 bytes on 64-bit; pad to 128
}

func newNode(key, value []byte) *node {
	n := &node{
		key: append([]byte(nil), key...),
		mu:  ilock.New(),
	}
	v := append([]byte(nil), value...)
	n.value.Store(&v)
	n.color.Store(uint32(red))
	return n
}

func (n *node) getColor() color {
	if n == nil {
		return black
	}
	return color(n.color.Load())
}

func (n *node) setColor(c color) {
	n.color.Store(uint32(c))
}

// loadValue returns a copy of the node's current value. Safe to call
// without holding any lock; it is the reader's half of the value handle
// swap described in the value-handle design note.
func (n *node) loadValue() []byte {
	p := n.value.Load()
	if p == nil {
		return nil
	}
	return append([]byte(nil), (*p)...)
}

// storeValue atomically replaces the node's value with a copy of v. Callers
// must hold n's write region (beginWrite/endWrite) and n.mu.
func (n *node) storeValue(v []byte) {
	cp := append([]byte(nil), v...)
	n.value.Store(&cp)
}

// beginWrite marks n as being mutated: its version becomes odd. No-op on a
// nil node. Callers must hold n.mu (or otherwise have exclusive access, as
// for a freshly allocated node not yet reachable from the tree).
func beginWrite(n *node) {
	if n == nil {
		return
	}
	v := n.version.Add(1)
	if v%2 == 0 {
		panic("rbtree: beginWrite observed an even version; a write region was already open")
	}
}

// endWrite closes n's write region, leaving its version even again. No-op
// on a nil node.
func endWrite(n *node) {
	if n == nil {
		return
	}
	v := n.version.Add(1)
	if v%2 != 0 {
		panic("rbtree: endWrite left an odd version; write region was not open")
	}
}

// loadVersion samples n's version. A nil node is reported as a stable
// (even) version of 0 so that descent code can treat a nil child uniformly.
func loadVersion(n *node) uint64 {
	if n == nil {
		return 0
	}
	return n.version.Load()
}

func isWriting(version uint64) bool {
	return version%2 != 0
}

// compareKeys returns -1, 0, or 1 as a < b, a == b, a > b under
// lexicographic ordering of unsigned byte values.
func compareKeys(a, b []byte) int {
	return bytes.Compare(a, b)
}

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
	"sort"
	"unsafe"
)

// lockSet is the set of node locks a writer acquires before mutating more
// than one node at once (rotations, the recolor case of fixInsert). It is
// built once per attempt, sorted by address and deduplicated, and always
// locked ascending / unlocked descending to keep the global lock order
// consistent across every writer and avoid deadlock.
type lockSet []*node

// newLockSet builds a lockSet from the given candidate nodes, dropping nils
// and duplicates and sorting by address.
func newLockSet(nodes ...*node) lockSet {
	set := make(lockSet, 0, len(nodes))
	for _, n := range nodes {
		if n != nil {
			set = append(set, n)
		}
	}
	sort.Slice(set, func(i, j int) bool {
		return addressOf(set[i]) < addressOf(set[j])
	})
	set = dedupSorted(set)
	return set
}

func dedupSorted(set lockSet) lockSet {
	if len(set) < 2 {
		return set
	}
	out := set[:1]
	for _, n := range set[1:] {
		if n != out[len(out)-1] {
			out = append(out, n)
		}
	}
	return out
}

// addressOf returns a node pointer's address as a totally ordered integer
// key, the idiomatic way to sort Go pointers when a canonical order (rather
// than identity alone) is needed.
func addressOf(n *node) uintptr {
	return uintptr(unsafe.Pointer(n))
}

// lock acquires every lock in the set, ascending by address.
func (s lockSet) lock() {
	for _, n := range s {
		n.mu.Lock()
	}
}

// unlock releases every lock in the set, descending by address (the
// reverse of acquisition order).
func (s lockSet) unlock() {
	for i := len(s) - 1; i >= 0; i-- {
		s[i].mu.Unlock()
	}
}

// beginWrites opens a write region on every node in the set. Order doesn't
// matter here: the set's locks are already held, so no reader can be
// concurrently validating any of these nodes against another writer.
func (s lockSet) beginWrites() {
	for _, n := range s {
		beginWrite(n)
	}
}

// endWrites closes the write region opened by beginWrites.
func (s lockSet) endWrites() {
	for _, n := range s {
		endWrite(n)
	}
}

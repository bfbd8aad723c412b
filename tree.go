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

// Package rbtree implements a concurrent ordered key-value map as a
// self-balancing binary search tree (red-black tree) that supports many
// simultaneous readers and writers without a global lock.
//
// Readers descend the tree optimistically and lock-free, validating what
// they saw against a per-node seqlock (node.version); they never block and
// never take a node's mutex. Writers that need to mutate more than one node
// (a rotation, the recolor case of insert-fixup) compute the exact set of
// nodes involved, lock them in address order (see lockSet), validate the
// shape is still what they expected, and retry the whole step from the top
// if it has changed underneath them. There is no global lock anywhere in
// this package.
//
// Keys and values are opaque byte sequences. Keys are compared
// lexicographically by unsigned byte value. Put replaces a key's value
// rather than inserting a duplicate. Deletion is out of scope: this is a
// grow-only map.
package rbtree

import (
	"math/rand"
	"sync/atomic"
	"time"
)

// NullValue is the sentinel returned by Get for a key that is absent. It is
// indistinguishable from a key stored with an explicit empty value; callers
// that need unambiguous presence/absence must never store an empty value.
var NullValue = []byte{}

const (
	startingBackoff = 50 * time.Microsecond
	maxBackoff      = 500 * time.Microsecond
	backoffFactor   = 2
)

// Tree is a concurrent red-black tree map from byte-sequence keys to
// byte-sequence values. The zero value is an empty, ready-to-use tree; New
// is provided for parity with the constructor-style API other collections
// in this module family use.
type Tree struct {
	root atomic.Pointer[node]
}

// New returns a new, empty Tree.
func New() *Tree {
	return &Tree{}
}

// backoff sleeps for an exponentially increasing, capped duration across
// repeated calls with the same delay variable, jittered to avoid every
// retrying goroutine waking in lockstep.
func backoff(delay *time.Duration) {
	if *delay == 0 {
		*delay = startingBackoff
	}
	jittered := time.Duration(rand.Int63n(int64(*delay)))
	time.Sleep(jittered)
	*delay *= backoffFactor
	if *delay > maxBackoff {
		*delay = maxBackoff
	}
}

// Get returns the value stored for key, or NullValue if no such key is
// present. Get never blocks: it validates every node it reads against that
// node's seqlock and restarts the descent from the root on any mismatch
// along the path; a mismatch while reading the matching node's value
// retries that node in place.
func (t *Tree) Get(key []byte) []byte {
	for {
		current := t.root.Load()
		if current == nil {
			return NullValue
		}

		value, restart := t.tryGet(current, key)
		if restart {
			continue
		}
		return value
	}
}

// tryGet performs one optimistic descent starting at current, looking for
// key. The second return value reports whether the caller must restart the
// whole descent from the root.
func (t *Tree) tryGet(current *node, key []byte) (value []byte, restart bool) {
	for {
		if current == nil {
			return NullValue, false
		}

		v1 := current.version.Load()
		if isWriting(v1) {
			return nil, true
		}

		cmp := compareKeys(current.key, key)
		if cmp == 0 {
			val := current.loadValue()
			v2 := current.version.Load()
			if v1 == v2 && !isWriting(v2) {
				return val, false
			}
			// Overlapped a writer; retry validating the same node rather
			// than restarting the whole descent.
			continue
		}

		var next *node
		if cmp < 0 {
			next = current.right.Load()
		} else {
			next = current.left.Load()
		}

		v2 := current.version.Load()
		if v2 != v1 || isWriting(v2) {
			return nil, true
		}

		current = next
	}
}

// Put inserts key with value, or replaces the value of an existing key.
func (t *Tree) Put(key, value []byte) {
	var delay time.Duration

	for {
		root := t.root.Load()
		if root == nil {
			candidate := newNode(key, value)
			if t.root.CompareAndSwap(nil, candidate) {
				candidate.setColor(black)
				return
			}
			backoff(&delay)
			continue
		}

		if restart := t.tryInsert(root, key, value); restart {
			backoff(&delay)
			continue
		}
		return
	}
}

// tryInsert performs one optimistic descent from current looking for key's
// insertion point (or the existing node to replace), and either replaces
// the value or links a new node once it finds where. It reports whether
// the shape changed underneath the reader and the whole Put must restart
// from the root.
func (t *Tree) tryInsert(current *node, key, value []byte) (restart bool) {
	for {
		v1 := current.version.Load()
		if isWriting(v1) {
			return true
		}

		cmp := compareKeys(current.key, key)
		if cmp == 0 {
			return t.replaceValue(current, v1, key, value)
		}

		goRight := cmp < 0
		var next *node
		if goRight {
			next = current.right.Load()
		} else {
			next = current.left.Load()
		}

		v2 := current.version.Load()
		if v2 != v1 || isWriting(v2) {
			return true
		}

		if next == nil {
			return t.linkChild(current, goRight, key, value, v1)
		}
		current = next
	}
}

// replaceValue swaps in a new value for an existing key, guarded by that
// node's own lock and write region. observedVersion is re-checked after
// acquiring the lock so a concurrent rotation that moved this node doesn't
// silently race the check.
func (t *Tree) replaceValue(n *node, observedVersion uint64, key, value []byte) (restart bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.version.Load() != observedVersion || compareKeys(n.key, key) != 0 {
		return true
	}

	beginWrite(n)
	n.storeValue(value)
	endWrite(n)
	return false
}

// linkChild attaches a freshly allocated node as parent's child in the
// goRight direction, after re-validating under parent's lock that no other
// writer beat this one to the same slot.
func (t *Tree) linkChild(parent *node, goRight bool, key, value []byte, observedVersion uint64) (restart bool) {
	parent.mu.Lock()

	if parent.version.Load() != observedVersion {
		parent.mu.Unlock()
		return true
	}

	var existing *node
	if goRight {
		existing = parent.right.Load()
	} else {
		existing = parent.left.Load()
	}
	if existing != nil {
		parent.mu.Unlock()
		return true
	}

	child := newNode(key, value)

	beginWrite(parent)
	child.parent.Store(parent)
	if goRight {
		parent.right.Store(child)
	} else {
		parent.left.Store(child)
	}
	endWrite(parent)
	parent.mu.Unlock()

	// fixInsert acquires its own lock sets (which may include parent) and
	// must run with parent's lock already released.
	t.fixInsert(child)
	return false
}

// Close releases the tree. It requires that no Put or Get call is
// concurrently in flight; behavior is undefined otherwise. Close walks the
// tree post-order, severing each node's pointers so reference cycles
// between parent and child are broken immediately rather than left for the
// garbage collector to untangle on its own schedule.
func (t *Tree) Close() {
	root := t.root.Load()
	t.root.Store(nil)
	freeSubtree(root)
}

func freeSubtree(n *node) {
	if n == nil {
		return
	}
	freeSubtree(n.left.Load())
	freeSubtree(n.right.Load())
	n.left.Store(nil)
	n.right.Store(nil)
	n.parent.Store(nil)
	n.value.Store(nil)
}

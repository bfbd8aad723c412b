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

// Package ilock implements a node-scoped exclusive lock for rbtree's writer
// coordination protocol.
//
// This began as a four-state intention lock (S / X / IS / IX) meant for
// hierarchical locking of a prefix trie, where holding a node in S or X
// implicitly covers its whole subtree and ancestors are held in IS/IX while
// descending. A red-black tree's writer protocol doesn't need any of that:
// every rotation and every fixup step already computes its exact lock set up
// front (see rbtree's lockSet) and acquires real per-node locks in address
// order, so there is never an "intention to lock a subtree" to express. Only
// one state survives from the original machine:
//
//     +---------------+----------+-----------+
//     |Request/Holding| Unlocked | Holding X  |
//     +---------------+----------+-----------+
//     |Request X      |   Yes    |    No      |
//     +---------------+----------+-----------+
//
// which is just a mutex. What's kept from the original is the shape of it: a
// condvar blocking threads whose requested state is incompatible with the
// one currently held, and the held/unheld state tracked in an atomic word.
// Every read and write of that word still happens with mtx held.
package ilock

import (
	"sync"
	"sync/atomic"
)

const (
	unheld uint64 = 0
	xHeld  uint64 = 1
)

// Mutex is a per-node exclusive lock. The zero value is not usable; callers
// must use New.
type Mutex struct {
	mtx   sync.Mutex
	c     *sync.Cond
	state atomic.Uint64
}

// New returns a ready-to-use Mutex.
func New() *Mutex {
	m := &Mutex{}
	m.c = sync.NewCond(&m.mtx)
	return m
}

// compatibleWithX reports whether the lock may be granted in the X state
// given the previously observed state word.
func compatibleWithX(state uint64) bool {
	return state == unheld
}

// Lock acquires the mutex, blocking until no other writer holds it.
func (m *Mutex) Lock() {
	m.mtx.Lock()
	for !compatibleWithX(m.state.Load()) {
		m.c.Wait()
	}
	m.state.Store(xHeld)
	m.mtx.Unlock()
}

// TryLock attempts to acquire the mutex without blocking.
func (m *Mutex) TryLock() bool {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if !compatibleWithX(m.state.Load()) {
		return false
	}
	m.state.Store(xHeld)
	return true
}

// Unlock releases the mutex and wakes any writer blocked in Lock.
func (m *Mutex) Unlock() {
	m.mtx.Lock()
	m.state.Store(unheld)
	m.mtx.Unlock()
	m.c.Broadcast()
}

package rbtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLockSetDropsNils(t *testing.T) {
	a := newNode(k("a"), k("1"))
	set := newLockSet(nil, a, nil)
	assert.Equal(t, lockSet{a}, set)
}

func TestNewLockSetDedupsAndSorts(t *testing.T) {
	a := newNode(k("a"), k("1"))
	b := newNode(k("b"), k("1"))
	c := newNode(k("c"), k("1"))

	// Build the candidate list out of address order and with a duplicate.
	nodes := []*node{c, a, b, a, c}
	set := newLockSet(nodes...)

	assert.Len(t, set, 3, "duplicates must be removed")

	for i := 1; i < len(set); i++ {
		assert.Less(t, addressOf(set[i-1]), addressOf(set[i]), "lock set must be sorted ascending by address")
	}

	seen := map[*node]bool{}
	for _, n := range set {
		seen[n] = true
	}
	assert.True(t, seen[a] && seen[b] && seen[c])
}

func TestLockSetEmpty(t *testing.T) {
	set := newLockSet(nil, nil)
	assert.Empty(t, set)
	// Locking/unlocking an empty set must be safe no-ops.
	set.lock()
	set.unlock()
}

func TestLockSetLockUnlockRoundTrip(t *testing.T) {
	a := newNode(k("a"), k("1"))
	b := newNode(k("b"), k("1"))
	set := newLockSet(a, b)

	set.lock()
	assert.False(t, a.mu.TryLock(), "a must still be held")
	assert.False(t, b.mu.TryLock(), "b must still be held")
	set.unlock()
	assert.True(t, a.mu.TryLock())
	assert.True(t, b.mu.TryLock())
	a.mu.Unlock()
	b.mu.Unlock()
}

func TestLockSetBeginEndWrites(t *testing.T) {
	a := newNode(k("a"), k("1"))
	b := newNode(k("b"), k("1"))
	set := newLockSet(a, b)

	set.beginWrites()
	assert.True(t, isWriting(a.version.Load()))
	assert.True(t, isWriting(b.version.Load()))
	set.endWrites()
	assert.False(t, isWriting(a.version.Load()))
	assert.False(t, isWriting(b.version.Load()))
}

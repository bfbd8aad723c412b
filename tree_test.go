package rbtree

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func k(s string) []byte { return []byte(s) }

func TestEmptyTreeGetMissing(t *testing.T) {
	tree := New()
	assert.Equal(t, NullValue, tree.Get(k("missing")))
}

func TestPutThenGet(t *testing.T) {
	tree := New()
	tree.Put(k("a"), k("v1"))
	assert.Equal(t, k("v1"), tree.Get(k("a")))
	assert.Equal(t, NullValue, tree.Get(k("z")))
}

func TestPutReplacesExistingKey(t *testing.T) {
	tree := New()
	tree.Put(k("k"), k("v1"))
	tree.Put(k("k"), k("v2"))
	assert.Equal(t, k("v2"), tree.Get(k("k")))
}

func TestAscendingAndDescendingInsertOrder(t *testing.T) {
	for _, desc := range []bool{false, true} {
		name := "ascending"
		if desc {
			name = "descending"
		}
		t.Run(name, func(t *testing.T) {
			tree := New()
			order := make([]int, 100)
			for i := range order {
				order[i] = i
			}
			if desc {
				for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
					order[i], order[j] = order[j], order[i]
				}
			}
			for _, i := range order {
				s := fmt.Sprintf("%d", i)
				tree.Put(k(s), k(s))
			}
			for i := 0; i < 100; i++ {
				s := fmt.Sprintf("%d", i)
				assert.Equal(t, k(s), tree.Get(k(s)), "key %d", i)
			}
			assertInvariants(t, tree)
		})
	}
}

func TestRandomInsertOrderInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	tree := New()
	keys := make([]int, 300)
	for i := range keys {
		keys[i] = i
	}
	rng.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })

	for _, i := range keys {
		s := fmt.Sprintf("%05d", i)
		tree.Put(k(s), k(s))
	}
	for i := range keys {
		s := fmt.Sprintf("%05d", i)
		require.Equal(t, k(s), tree.Get(k(s)))
	}
	assertInvariants(t, tree)
}

// assertInvariants checks the universal single-threaded invariants from
// spec.md §8: BST order, red-black properties, and parent consistency. It
// must only be called when no concurrent Put/Get is in flight.
func assertInvariants(t *testing.T, tree *Tree) {
	t.Helper()

	root := tree.root.Load()
	if root != nil {
		assert.Equal(t, black, root.getColor(), "root must be BLACK")
	}

	var prevKey []byte
	var havePrev bool
	var walkBST func(n *node)
	walkBST = func(n *node) {
		if n == nil {
			return
		}
		walkBST(n.left.Load())
		if havePrev {
			assert.True(t, compareKeys(prevKey, n.key) < 0, "keys must be strictly ascending: %q then %q", prevKey, n.key)
		}
		prevKey = n.key
		havePrev = true
		walkBST(n.right.Load())
	}
	walkBST(root)

	var checkRedRed func(n *node)
	checkRedRed = func(n *node) {
		if n == nil {
			return
		}
		if n.getColor() == red {
			assert.NotEqual(t, red, n.left.Load().getColor(), "red node %q has a red left child", n.key)
			assert.NotEqual(t, red, n.right.Load().getColor(), "red node %q has a red right child", n.key)
		}
		checkRedRed(n.left.Load())
		checkRedRed(n.right.Load())
	}
	checkRedRed(root)

	var blackHeight func(n *node) int
	blackHeight = func(n *node) int {
		if n == nil {
			return 1
		}
		lh := blackHeight(n.left.Load())
		rh := blackHeight(n.right.Load())
		assert.Equal(t, lh, rh, "unequal black height under %q", n.key)
		if n.getColor() == black {
			return lh + 1
		}
		return lh
	}
	blackHeight(root)

	var checkParents func(n *node)
	checkParents = func(n *node) {
		if n == nil {
			return
		}
		if n != root {
			p := n.parent.Load()
			require.NotNil(t, p, "non-root node %q has a nil parent", n.key)
			assert.True(t, p.left.Load() == n || p.right.Load() == n, "parent of %q does not point back to it", n.key)
		}
		checkParents(n.left.Load())
		checkParents(n.right.Load())
	}
	checkParents(root)
}

func TestCloseThenEmptyTreeBehavesAsEmpty(t *testing.T) {
	tree := New()
	tree.Put(k("a"), k("1"))
	tree.Close()
	assert.Equal(t, NullValue, tree.Get(k("a")))
}

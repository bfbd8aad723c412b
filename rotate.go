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

// leftRotate promotes n.right (p) into n's place; p's left child (s)
// becomes n's new right child. g = n.parent (possibly nil) keeps its child
// slot repointed at p, or, if g is nil, the tree's root is repointed at p.
//
// Returns false if there was nothing to rotate (n.right was nil) or if the
// locked shape no longer matched what was snapshotted, in which case the
// caller should retry from its own top rather than assume the rotation
// happened.
func (t *Tree) leftRotate(n *node) (rotated bool) {
	p := n.right.Load()
	if p == nil {
		return false
	}
	s := p.left.Load()
	g := n.parent.Load()

	set := newLockSet(g, n, p, s)
	set.lock()
	defer set.unlock()

	if n.right.Load() != p || p.left.Load() != s || n.parent.Load() != g || !childOf(g, n) {
		return false
	}

	set.beginWrites()
	defer set.endWrites()

	n.right.Store(s)
	if s != nil {
		s.parent.Store(n)
	}
	p.parent.Store(g)
	if g == nil {
		t.root.Store(p)
	} else if g.left.Load() == n {
		g.left.Store(p)
	} else {
		g.right.Store(p)
	}
	p.left.Store(n)
	n.parent.Store(p)

	return true
}

// rightRotate is the mirror of leftRotate: it promotes n.left into n's
// place.
func (t *Tree) rightRotate(n *node) (rotated bool) {
	p := n.left.Load()
	if p == nil {
		return false
	}
	s := p.right.Load()
	g := n.parent.Load()

	set := newLockSet(g, n, p, s)
	set.lock()
	defer set.unlock()

	if n.left.Load() != p || p.right.Load() != s || n.parent.Load() != g || !childOf(g, n) {
		return false
	}

	set.beginWrites()
	defer set.endWrites()

	n.left.Store(s)
	if s != nil {
		s.parent.Store(n)
	}
	p.parent.Store(g)
	if g == nil {
		t.root.Store(p)
	} else if g.left.Load() == n {
		g.left.Store(p)
	} else {
		g.right.Store(p)
	}
	p.right.Store(n)
	n.parent.Store(p)

	return true
}

// childOf reports whether g is nil (n is the root) or n is one of g's two
// children. Used by the rotation validation step, which must tolerate a
// nil grandparent.
func childOf(g, n *node) bool {
	return g == nil || g.left.Load() == n || g.right.Load() == n
}

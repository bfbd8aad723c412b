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

// fixInsert restores the red-black properties after a new red leaf z has
// been linked into the tree. It re-reads z's parent and grandparent on
// every iteration, since concurrent rotations elsewhere in the tree may
// have moved them since the last time around the loop.
func (t *Tree) fixInsert(z *node) {
	for {
		p := z.parent.Load()
		if p == nil || p.getColor() == black {
			break
		}

		g := p.parent.Load()
		if g == nil {
			break
		}

		parentIsLeft := g.left.Load() == p
		var u *node
		if parentIsLeft {
			u = g.right.Load()
		} else {
			u = g.left.Load()
		}

		if u.getColor() == red {
			if !t.recolorWithRedUncle(g, p, u, parentIsLeft) {
				// Validation failed; the shape moved under us. Retry this
				// same step rather than advancing z.
				continue
			}
			z = g
			continue
		}

		// Uncle is black (or nil, which counts as black). Rotate.
		if parentIsLeft {
			if z == p.right.Load() {
				if !t.leftRotate(p) {
					continue
				}
				z = p
				p = z.parent.Load()
				if p == nil {
					break
				}
				g = p.parent.Load()
				if g == nil {
					break
				}
			}
			if !t.rightRotate(g) {
				continue
			}
		} else {
			if z == p.left.Load() {
				if !t.rightRotate(p) {
					continue
				}
				z = p
				p = z.parent.Load()
				if p == nil {
					break
				}
				g = p.parent.Load()
				if g == nil {
					break
				}
			}
			if !t.leftRotate(g) {
				continue
			}
		}

		if !t.recolorAfterOuterRotation(p, g) {
			// Shape moved under us; retry the whole outer loop rather than
			// terminating on a stale p/g.
			continue
		}
		break
	}

	t.ensureRootBlack()
}

// recolorWithRedUncle implements the uncle-red case: p and u are both
// pushed to black, g is pushed to red, all under a single validated lock
// set. Returns false if the shape no longer matches what the caller
// observed, in which case the caller must retry this step without
// advancing.
func (t *Tree) recolorWithRedUncle(g, p, u *node, parentIsLeft bool) bool {
	set := newLockSet(g, p, u)
	set.lock()
	defer set.unlock()

	if p.parent.Load() != g {
		return false
	}
	if g.left.Load() != p && g.right.Load() != p {
		return false
	}
	var stillU *node
	if parentIsLeft {
		stillU = g.right.Load()
	} else {
		stillU = g.left.Load()
	}
	if stillU != u {
		return false
	}
	if p.getColor() != red || u.getColor() != red {
		return false
	}

	set.beginWrites()
	p.setColor(black)
	u.setColor(black)
	g.setColor(red)
	set.endWrites()
	return true
}

// recolorAfterOuterRotation implements the final recolor step following the
// outer rotation in the uncle-black case: p becomes black, g becomes red.
func (t *Tree) recolorAfterOuterRotation(p, g *node) bool {
	set := newLockSet(p, g)
	set.lock()
	defer set.unlock()

	if g.parent.Load() != p {
		return false
	}
	if p.left.Load() != g && p.right.Load() != g {
		return false
	}

	set.beginWrites()
	p.setColor(black)
	g.setColor(red)
	set.endWrites()
	return true
}

// ensureRootBlack restores the red-black invariant that the root is always
// black, which the rotation/recolor cases above may have disturbed.
func (t *Tree) ensureRootBlack() {
	root := t.root.Load()
	if root == nil {
		return
	}
	root.mu.Lock()
	defer root.mu.Unlock()

	beginWrite(root)
	root.setColor(black)
	endWrite(root)
}

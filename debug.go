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
	"fmt"
	"strings"
)

// String returns an in-order dump of the tree's keys, "k1 k2 k3 ...". It is
// a debugging aid only: it is not safe to call concurrently with any Put or
// Get, and it is not part of this package's stability contract.
func (t *Tree) String() string {
	var sb strings.Builder
	first := true
	var walk func(n *node)
	walk = func(n *node) {
		if n == nil {
			return
		}
		walk(n.left.Load())
		if !first {
			sb.WriteByte(' ')
		}
		first = false
		sb.Write(n.key)
		walk(n.right.Load())
	}
	walk(t.root.Load())
	return sb.String()
}

// DumpIndented renders a preorder, indented view of the tree showing each
// node's key and color, e.g.:
//
//	(BLACK) m
//	  (RED) e
//	  (RED) z
//
// Like String, this is a single-threaded-only debugging aid, not part of
// the stability contract.
func (t *Tree) DumpIndented() string {
	var sb strings.Builder
	var walk func(n *node, depth int)
	walk = func(n *node, depth int) {
		if n == nil {
			return
		}
		fmt.Fprintf(&sb, "%s(%s) %s\n", strings.Repeat("  ", depth), n.getColor(), n.key)
		walk(n.left.Load(), depth+1)
		walk(n.right.Load(), depth+1)
	}
	walk(t.root.Load(), 0)
	return sb.String()
}

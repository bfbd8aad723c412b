package rbtree_test

import (
	"fmt"

	"github.com/dijkstracula/rbtree"
)

func ExampleTree() {
	tree := rbtree.New()
	tree.Put([]byte("hello"), []byte("world"))
	fmt.Println(string(tree.Get([]byte("hello"))))
	// Output: world
}

// Package nav derives the navigation tree from document stubs.
package nav

import (
	"sort"
	"strings"

	"github.com/fwojciec/docview"
)

// Kind distinguishes category nodes from document leaves.
type Kind string

// Kind constants.
const (
	Category Kind = "category"
	Leaf     Kind = "leaf"
)

// CategoryPrefix prefixes the ids of category nodes.
const CategoryPrefix = "cat:"

// Node is a navigation tree node.
type Node struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Kind       Kind    `json:"kind"`
	Children   []*Node `json:"children,omitempty"`
	Collapsed  bool    `json:"collapsed"`
	DocumentID string  `json:"documentId,omitempty"`
}

// Overlay looks up the persisted collapsed flag of a node. ok is false when
// no flag is stored.
type Overlay func(nodeID string) (collapsed, ok bool)

// Build groups stubs by category path into nested category nodes. Leaves
// keep their declared order unless autoSort is set, in which case every
// child list is sorted case-insensitively with categories first. Collapsed
// flags come from overlay; nodes without a stored flag are expanded.
func Build(stubs []*docview.Stub, autoSort bool, overlay Overlay) []*Node {
	root := &Node{}
	categories := make(map[string]*Node)

	for _, stub := range stubs {
		parent := root
		for depth := range stub.Category {
			id := CategoryID(stub.Category[:depth+1])
			cat, ok := categories[id]
			if !ok {
				cat = &Node{ID: id, Title: stub.Category[depth], Kind: Category}
				categories[id] = cat
				parent.Children = append(parent.Children, cat)
			}
			parent = cat
		}
		parent.Children = append(parent.Children, &Node{
			ID:         stub.ID,
			Title:      stub.Title,
			Kind:       Leaf,
			DocumentID: stub.ID,
		})
	}

	Walk(root.Children, func(n *Node) bool {
		if overlay != nil {
			if collapsed, ok := overlay(n.ID); ok {
				n.Collapsed = collapsed
			}
		}
		if autoSort {
			sortChildren(n.Children)
		}
		return true
	})
	if autoSort {
		sortChildren(root.Children)
	}
	return root.Children
}

// CategoryID returns the node id of a category path.
func CategoryID(path []string) string {
	return CategoryPrefix + strings.Join(path, "/")
}

func sortChildren(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Kind != nodes[j].Kind {
			return nodes[i].Kind == Category
		}
		return strings.ToLower(nodes[i].Title) < strings.ToLower(nodes[j].Title)
	})
}

// Walk visits nodes depth first. Returning false from fn skips the
// children of that node.
func Walk(nodes []*Node, fn func(*Node) bool) {
	for _, n := range nodes {
		if fn(n) {
			Walk(n.Children, fn)
		}
	}
}

// Find returns the node with id, or nil.
func Find(nodes []*Node, id string) *Node {
	var found *Node
	Walk(nodes, func(n *Node) bool {
		if found != nil {
			return false
		}
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// Leaves returns the leaf nodes in display order.
func Leaves(nodes []*Node) []*Node {
	var out []*Node
	Walk(nodes, func(n *Node) bool {
		if n.Kind == Leaf {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Package cftrie implements the pattern index: an ordered trie over network
// rule patterns, with dedicated edges for the '*' (wildcard) and '^'
// (separator) metacharacters.
package cftrie

import (
	"github.com/veilmesh/cfengine/internal/cfrule"
)

// edgeKind distinguishes a literal character edge from the two metacharacter
// edges.  A literal edge with the same code point as a metacharacter is a
// distinct edge (invariant 2 of spec §3).
type edgeKind uint8

const (
	edgeLiteral edgeKind = iota
	edgeSeparator
	edgeWildcard
)

// Node is a single node of the pattern index.  Nodes own their children and
// never point back to a parent; the matcher carries its own path context
// (spec §9, "trie with owned nodes").
//
// The common case is a node with zero or one children, so children is a
// plain slice rather than a map: a linear scan over one or two elements
// beats a map's overhead, and the slice keeps the ^-before-literal ordering
// (invariant 1) trivial to maintain on insert.
type Node struct {
	children []*Node
	rules    []*cfrule.NetworkRule
	kind     edgeKind
	r        rune
}

// NewRoot returns a new, empty root node.
func NewRoot() (root *Node) {
	return &Node{}
}

// Rules returns the rules terminating at n.
func (n *Node) Rules() (rules []*cfrule.NetworkRule) {
	return n.rules
}

// WildcardChild returns n's '*' child, or nil if it has none.
func (n *Node) WildcardChild() (child *Node) {
	for _, c := range n.children {
		if c.kind == edgeWildcard {
			return c
		}
	}

	return nil
}

// SeparatorChild returns n's '^' child, or nil if it has none.  Because of
// invariant 1, if present it is always the first child.
func (n *Node) SeparatorChild() (child *Node) {
	if len(n.children) > 0 && n.children[0].kind == edgeSeparator {
		return n.children[0]
	}

	return nil
}

// LiteralChild returns n's literal child for rune r, or nil if it has none.
func (n *Node) LiteralChild(r rune) (child *Node) {
	for _, c := range n.children {
		if c.kind == edgeLiteral && c.r == r {
			return c
		}
	}

	return nil
}

// Insert adds rule to the index rooted at root, following the characters of
// pattern.  '^' and '*' in pattern follow their dedicated metacharacter
// edges; every other rune follows a literal edge.
func Insert(root *Node, pattern string, rule *cfrule.NetworkRule) {
	node := root
	for _, r := range pattern {
		node = node.child(r)
	}

	node.rules = append(node.rules, rule)
}

// child returns n's child for rune r, creating it if necessary and
// inserting it so as to preserve invariant 1 (all '^' children precede
// non-'^' children).
func (n *Node) child(r rune) (child *Node) {
	kind := edgeLiteral
	switch r {
	case '^':
		kind = edgeSeparator
	case '*':
		kind = edgeWildcard
	}

	for _, c := range n.children {
		if c.kind == kind && (kind != edgeLiteral || c.r == r) {
			return c
		}
	}

	child = &Node{kind: kind, r: r}
	if kind == edgeSeparator {
		// Separator edges must be attempted first during traversal.
		n.children = append(n.children, nil)
		copy(n.children[1:], n.children)
		n.children[0] = child
	} else {
		n.children = append(n.children, child)
	}

	return child
}

// NodeCount returns the number of nodes in the subtree rooted at root,
// including root itself.  It is intended for diagnostics and tests, not the
// hot path.
func NodeCount(root *Node) (n int) {
	if root == nil {
		return 0
	}

	n = 1
	for _, c := range root.children {
		n += NodeCount(c)
	}

	return n
}

// RuleCount returns the total number of rules reachable from root.  It is
// intended for diagnostics and tests.
func RuleCount(root *Node) (n int) {
	if root == nil {
		return 0
	}

	n = len(root.rules)
	for _, c := range root.children {
		n += RuleCount(c)
	}

	return n
}

// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package rebase

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/emirpasic/gods/maps/treemap"
)

// dependsOnRe matches a "Depends-On: <CL#>" tag, case-insensitive, the
// number captured in group 1. Only the first match in a description
// counts.
var dependsOnRe = regexp.MustCompile(`(?i)Depends-On:\s*(\d+)`)

// ParseDependsOn returns the parent CL# embedded in desc, or (0, false) if
// no tag is present.
func ParseDependsOn(desc string) (int, bool) {
	m := dependsOnRe.FindStringSubmatch(desc)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// SetDependsOn removes any existing Depends-On tag from desc and appends a
// fresh one pointing at newParent. Idempotent and deterministic; all other
// content is preserved verbatim.
func SetDependsOn(desc string, newParent int) string {
	clean := strings.TrimSpace(dependsOnRe.ReplaceAllString(desc, ""))
	return clean + "\n\nDepends-On: " + strconv.Itoa(newParent)
}

// PendingChange is the raw {cl#, desc} pair the VCS adapter returns for one
// of the current user's pending changelists.
type PendingChange struct {
	CL   int
	Desc string
}

// ShortDesc returns the first line of a changelist description.
func ShortDesc(desc string) string {
	line, _, _ := strings.Cut(desc, "\n")
	return strings.TrimSpace(line)
}

// Graph is a forest over pending CLs: every node has at most one parent,
// and is acyclic by construction (BuildGraph breaks any cycle it finds).
type Graph struct {
	// Parent maps a child CL to its parent CL (values are int). Absent
	// means the CL is a root (including CLs whose Depends-On: tag named
	// a non-pending or unknown CL). Kept ordered for deterministic
	// iteration in debug output.
	Parent *treemap.Map
	// Children maps a parent CL to its ordered (ascending) []int list of
	// children.
	Children *treemap.Map
	// Roots is the ascending-sorted list of CLs with no parent in the
	// graph.
	Roots []int
	// Descs carries every node's own description, for short_desc/
	// set_depends_on callers that only have a CL# in hand.
	Descs map[int]string
}

func (g *Graph) parentOf(cl int) (int, bool) {
	v, ok := g.Parent.Get(cl)
	if !ok {
		return 0, false
	}
	return v.(int), true
}

func (g *Graph) childrenOf(cl int) []int {
	v, ok := g.Children.Get(cl)
	if !ok {
		return nil
	}
	return v.([]int)
}

// BuildGraph parses Depends-On: tags out of every pending change's
// description and constructs the forest defined in §3: an edge
// child→parent exists iff the tag names another CL present in changes. A
// reference to anything not in changes makes the child a root. Any cycle
// the parsed edges would form is broken by dropping the back-edge whose
// child has the larger CL#, so that child becomes a root.
func BuildGraph(changes []PendingChange) *Graph {
	byCL := make(map[int]PendingChange, len(changes))
	for _, c := range changes {
		byCL[c.CL] = c
	}

	parent := make(map[int]int, len(changes))
	for _, c := range changes {
		if p, ok := ParseDependsOn(c.Desc); ok {
			if _, known := byCL[p]; known {
				parent[c.CL] = p
			}
		}
	}

	breakCycles(byCL, parent)

	children := make(map[int][]int, len(changes))
	var roots []int
	for _, c := range changes {
		if p, ok := parent[c.CL]; ok {
			children[p] = append(children[p], c.CL)
		} else {
			roots = append(roots, c.CL)
		}
	}
	for p := range children {
		sort.Ints(children[p])
	}
	sort.Ints(roots)

	g := &Graph{
		Parent:   treemap.NewWithIntComparator(),
		Children: treemap.NewWithIntComparator(),
		Roots:    roots,
		Descs:    make(map[int]string, len(changes)),
	}
	for cl, p := range parent {
		g.Parent.Put(cl, p)
	}
	for p, kids := range children {
		g.Children.Put(p, kids)
	}
	for _, c := range changes {
		g.Descs[c.CL] = c.Desc
	}
	return g
}

// breakCycles walks parent chains from every node; any chain that revisits
// a node indicates a cycle among the nodes visited since last breaking one.
// The back-edge whose child has the larger CL# is removed.
func breakCycles(byCL map[int]PendingChange, parent map[int]int) {
	for start := range byCL {
		visited := map[int]bool{start: true}
		order := []int{start}
		cur := start
		for {
			p, ok := parent[cur]
			if !ok {
				break
			}
			if visited[p] {
				// Cycle found among order[indexOf(p):]..cur->p. Break the
				// back-edge at the largest child CL# in that cycle.
				idx := indexOf(order, p)
				cycle := order[idx:]
				largest := cycle[0]
				for _, n := range cycle[1:] {
					if n > largest {
						largest = n
					}
				}
				delete(parent, largest)
				break
			}
			visited[p] = true
			order = append(order, p)
			cur = p
		}
	}
}

func indexOf(xs []int, v int) int {
	for i, x := range xs {
		if x == v {
			return i
		}
	}
	return -1
}

// IsPending reports whether cl is a node of the graph (i.e. a pending CL
// the engine knows about).
func (g *Graph) IsPending(cl int) bool {
	_, ok := g.Descs[cl]
	return ok
}

// DescendantsOf performs a breadth-first traversal of base's subtree,
// parent-first, visiting siblings in ascending CL# order. The result
// starts with base itself.
func (g *Graph) DescendantsOf(base int) []int {
	order := []int{base}
	queue := []int{base}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, kid := range g.childrenOf(cur) {
			order = append(order, kid)
			queue = append(queue, kid)
		}
	}
	return order
}

// AncestorsOf returns the ancestor chain of cl up to (and including) its
// root, ordered root-first.
func (g *Graph) AncestorsOf(cl int) []int {
	var chain []int
	cur := cl
	for {
		p, ok := g.parentOf(cur)
		if !ok {
			break
		}
		chain = append(chain, p)
		cur = p
	}
	// reverse to root-first
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// FindStackTip returns the highest-numbered CL anywhere in the graph, or
// (0, false) if the graph has no nodes.
func (g *Graph) FindStackTip() (int, bool) {
	tip, ok := 0, false
	for cl := range g.Descs {
		if !ok || cl > tip {
			tip, ok = cl, true
		}
	}
	return tip, ok
}

// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package rebase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDependsOn(t *testing.T) {
	cl, ok := ParseDependsOn("Fix bug\n\nDepends-On: 42")
	require.True(t, ok)
	assert.Equal(t, 42, cl)

	_, ok = ParseDependsOn("no tag here")
	assert.False(t, ok)
}

// S4 — set_depends_on replacement.
func TestSetDependsOnReplacesAndPreservesContent(t *testing.T) {
	in := "Fix bug\n\nDepends-On: 42\nextra trailing"
	out := SetDependsOn(in, 77)

	cl, ok := ParseDependsOn(out)
	require.True(t, ok)
	assert.Equal(t, 77, cl)

	count := 0
	for _, line := range splitLines(out) {
		if _, lineOK := ParseDependsOn(line); lineOK {
			count++
		}
	}
	assert.Equal(t, 1, count, "exactly one Depends-On: line")
	assert.Contains(t, out, "Fix bug")
	assert.Contains(t, out, "extra trailing")
}

// Invariant 1: set_depends_on is idempotent.
func TestSetDependsOnIdempotent(t *testing.T) {
	in := "Fix bug\n\nDepends-On: 42\nextra trailing"
	once := SetDependsOn(in, 77)
	twice := SetDependsOn(once, 77)
	assert.Equal(t, once, twice)
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i, c := range s {
		if c == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

func TestBuildGraphLinearStack(t *testing.T) {
	changes := []PendingChange{
		{CL: 100, Desc: "base"},
		{CL: 101, Desc: "Depends-On: 100"},
		{CL: 102, Desc: "Depends-On: 101"},
	}
	g := BuildGraph(changes)

	assert.Equal(t, []int{100}, g.Roots)
	assert.Equal(t, []int{100, 101, 102}, g.DescendantsOf(100))
	assert.Equal(t, []int{100, 101}, g.AncestorsOf(102))
}

// S3 — a Depends-On: tag naming a non-pending CL makes the child a root.
func TestBuildGraphNonPendingParentBecomesRoot(t *testing.T) {
	changes := []PendingChange{
		{CL: 200, Desc: "Depends-On: 199"},
	}
	g := BuildGraph(changes)

	assert.Equal(t, []int{200}, g.Roots)
	assert.Equal(t, []int{200}, g.DescendantsOf(200))
}

// Invariant 3: the graph is acyclic and every non-root node has exactly
// one parent, even when the input descriptions describe a cycle.
func TestBuildGraphBreaksCycles(t *testing.T) {
	changes := []PendingChange{
		{CL: 10, Desc: "Depends-On: 12"},
		{CL: 11, Desc: "Depends-On: 10"},
		{CL: 12, Desc: "Depends-On: 11"},
	}
	g := BuildGraph(changes)

	// The back-edge at the largest CL# in the cycle (12) is dropped, so 12
	// becomes a root.
	assert.Contains(t, g.Roots, 12)
	_, has12Parent := g.parentOf(12)
	assert.False(t, has12Parent)
}

func TestFindStackTip(t *testing.T) {
	changes := []PendingChange{
		{CL: 100, Desc: "base"},
		{CL: 101, Desc: "Depends-On: 100"},
	}
	g := BuildGraph(changes)
	tip, ok := g.FindStackTip()
	require.True(t, ok)
	assert.Equal(t, 101, tip)

	empty := BuildGraph(nil)
	_, ok = empty.FindStackTip()
	assert.False(t, ok)
}

func TestShortDesc(t *testing.T) {
	assert.Equal(t, "Fix bug", ShortDesc("Fix bug\n\nDepends-On: 42"))
}

// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package rebase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadLogRoundTrips(t *testing.T) {
	dir := t.TempDir()
	in := &OpLog{
		BaseCL:        100,
		StackToUpdate: []int{100, 101, 102},
		RebasedCLs:    []int{100},
		HasConflictCL: false,
	}
	in.SetPreStep(100, Snapshot{"a.txt": []byte("v1\n")})

	require.NoError(t, SaveLog(dir, in))
	assert.True(t, LogExists(dir))

	out, ok, err := LoadLog(dir)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, in.BaseCL, out.BaseCL)
	assert.Equal(t, in.StackToUpdate, out.StackToUpdate)
	assert.Equal(t, in.RebasedCLs, out.RebasedCLs)

	snap, ok := out.GetPreStep(100)
	require.True(t, ok)
	assert.Equal(t, "v1\n", string(snap["a.txt"]))
}

func TestLoadLogMissingFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	out, ok, err := LoadLog(dir)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, out)
}

func TestClearLogRemovesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, SaveLog(dir, &OpLog{BaseCL: 1, StackToUpdate: []int{1}}))
	require.True(t, LogExists(dir))

	require.NoError(t, ClearLog(dir))
	assert.False(t, LogExists(dir))

	// Clearing an already-absent log is not an error.
	require.NoError(t, ClearLog(dir))
}

func TestOpLogRemaining(t *testing.T) {
	l := &OpLog{
		StackToUpdate: []int{100, 101, 102},
		RebasedCLs:    []int{100},
	}
	assert.Equal(t, []int{101, 102}, l.Remaining())

	l.RebasedCLs = []int{100, 101, 102}
	assert.Empty(t, l.Remaining())
}

func TestGetPreStepMissingCL(t *testing.T) {
	l := &OpLog{}
	_, ok := l.GetPreStep(42)
	assert.False(t, ok)
}

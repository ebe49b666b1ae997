// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package rebase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Invariant 6: write_snapshot(read_snapshot(cl)) round-trips, for edits,
// adds, and deletes alike.
func TestWriteSnapshotRoundTripsThroughReadSnapshot(t *testing.T) {
	ctx := context.Background()
	fa := newFakeAdapter(t)
	fa.shelves[100] = Snapshot{
		"keep.txt":   []byte("unchanged\n"),
		"edit.txt":   []byte("before\n"),
		"remove.txt": []byte("gone soon\n"),
	}

	previous, fileToDepot, err := ReadSnapshot(ctx, fa, 100)
	require.NoError(t, err)

	desired := Snapshot{
		"keep.txt": previous["keep.txt"],
		"edit.txt": []byte("after\n"),
		"new.txt":  []byte("brand new\n"),
	}
	fileToDepot["new.txt"] = depotPathFor("new.txt")

	require.NoError(t, WriteSnapshot(ctx, fa, 100, desired, previous, fileToDepot))

	got, _, err := ReadSnapshot(ctx, fa, 100)
	require.NoError(t, err)
	assert.Equal(t, "unchanged\n", string(got["keep.txt"]))
	assert.Equal(t, "after\n", string(got["edit.txt"]))
	assert.Equal(t, "brand new\n", string(got["new.txt"]))
	_, stillThere := got["remove.txt"]
	assert.False(t, stillThere)
}

// WriteSnapshot deletes the whole shelf when desired is empty and previous
// wasn't.
func TestWriteSnapshotDeletesWholeShelf(t *testing.T) {
	ctx := context.Background()
	fa := newFakeAdapter(t)
	fa.shelves[100] = Snapshot{"a.txt": []byte("x\n")}

	previous, fileToDepot, err := ReadSnapshot(ctx, fa, 100)
	require.NoError(t, err)

	require.NoError(t, WriteSnapshot(ctx, fa, 100, Snapshot{}, previous, fileToDepot))

	got, _, err := ReadSnapshot(ctx, fa, 100)
	require.NoError(t, err)
	assert.Empty(t, got)
}

// A missing/empty CL yields empty maps, not an error.
func TestReadSnapshotEmptyShelfIsNotAnError(t *testing.T) {
	ctx := context.Background()
	fa := newFakeAdapter(t)

	snap, fileToDepot, err := ReadSnapshot(ctx, fa, 999)
	require.NoError(t, err)
	assert.Empty(t, snap)
	assert.Empty(t, fileToDepot)
}

// collisionAdapter shelves two distinct depot paths that happen to share a
// basename — something fakeAdapter's basename-keyed shelves can't express,
// since in real Perforce usage two different directories can each hold a
// same-named file open in the same CL.
type collisionAdapter struct {
	*fakeAdapter
	records []PrintRecord
}

func (c *collisionAdapter) PrintAt(ctx context.Context, cl int) ([]PrintRecord, error) {
	return c.records, nil
}

// Open Question 3 / spec §7: basename collisions within one CL's shelf are
// a fatal unknown-depot-path-class error, not a silent last-write-wins.
func TestReadSnapshotRejectsBasenameCollision(t *testing.T) {
	ctx := context.Background()
	ca := &collisionAdapter{
		fakeAdapter: newFakeAdapter(t),
		records: []PrintRecord{
			{DepotFile: "//depot/dir-a/foo.txt", Content: []byte("a\n")},
			{DepotFile: "//depot/dir-b/foo.txt", Content: []byte("b\n")},
		},
	}

	_, _, err := ReadSnapshot(ctx, ca, 100)
	require.Error(t, err)
	assert.True(t, IsErrUnknownDepotPath(err))
}

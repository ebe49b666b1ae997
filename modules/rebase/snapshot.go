// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package rebase implements the stacked-diff rebase engine: the snapshot
// model, three-way merger, stack graph, resumable operation log, and the
// engine that ties them together.
package rebase

import "context"

// Snapshot is an unordered mapping from basename to file content. Keyed by
// basename, not depot path, because that is the identity the three-way
// merger and the engine's in-memory scratch space both use.
type Snapshot map[string][]byte

// FileToDepot is the companion of a Snapshot: basename to full depot path.
// Required to re-materialize edits on the server; two snapshots for
// different CLs may disagree on the depot path of the same basename.
type FileToDepot map[string]string

// MergeResult is the outcome of a three-way merge on one file.
type MergeResult struct {
	Content    []byte
	HasConflict bool
}

// Adapter is the VCS surface the engine and its primitives consume (§6).
// Defined here (rather than imported from modules/vcs) to keep this
// package's dependency on the adapter narrow and mockable in tests; the
// concrete modules/vcs.Client satisfies it structurally.
type Adapter interface {
	ListPendingChanges(ctx context.Context) ([]PendingChange, error)
	PrintAt(ctx context.Context, cl int) ([]PrintRecord, error)
	OpenedFiles(ctx context.Context, cl int) ([]string, error)
	Unshelve(ctx context.Context, src, dst int) error
	Revert(ctx context.Context, cl int) error
	OpenForEdit(ctx context.Context, cl int, depotPaths ...string) error
	OpenForDelete(ctx context.Context, cl int, depotPaths ...string) error
	Where(ctx context.Context, depotPath string) (string, error)
	Shelve(ctx context.Context, cl int, force, delete bool) error
}

// PrintRecord is one shelved file's metadata paired with its content, as
// returned by the VCS adapter's print_at operation.
type PrintRecord struct {
	DepotFile string
	Content   []byte
}

// ReadSnapshot fetches the content of every file shelved in cl. A changelist
// with nothing shelved (or that does not exist) yields empty maps, not an
// error — only a genuine transport/parse failure is fatal. Two depot paths
// shelved in the same CL that share a basename are also fatal: basenames are
// the canonical snapshot key, so a collision makes the snapshot ambiguous.
func ReadSnapshot(ctx context.Context, adapter Adapter, cl int) (Snapshot, FileToDepot, error) {
	records, err := adapter.PrintAt(ctx, cl)
	if err != nil {
		return nil, nil, NewErrSnapshotReadFailed(cl, err)
	}
	snapshot := make(Snapshot, len(records))
	fileToDepot := make(FileToDepot, len(records))
	for _, rec := range records {
		basename := basenameOf(rec.DepotFile)
		if existing, seen := fileToDepot[basename]; seen && existing != rec.DepotFile {
			return nil, nil, NewErrUnknownDepotPath(basename)
		}
		snapshot[basename] = rec.Content
		fileToDepot[basename] = rec.DepotFile
	}
	return snapshot, fileToDepot, nil
}

// WriteSnapshot atomically updates the shelf of cl to exactly desired,
// using previous (the snapshot read before this step began) to compute the
// minimal edit/add/delete sets. fileToDepot must carry an entry for every
// basename in the union of desired and previous; a new basename with no
// mapping is a fatal ErrUnknownDepotPath.
func WriteSnapshot(ctx context.Context, adapter Adapter, cl int, desired, previous Snapshot, fileToDepot FileToDepot) error {
	if err := adapter.Revert(ctx, cl); err != nil {
		return NewErrOperationFailed("revert", err)
	}
	defer func() { _ = adapter.Revert(ctx, cl) }()

	var edit, add, del []string
	for basename, content := range desired {
		prev, existed := previous[basename]
		if !existed {
			add = append(add, basename)
		} else if !bytesEqual(prev, content) {
			edit = append(edit, basename)
		}
	}
	for basename := range previous {
		if _, stillPresent := desired[basename]; !stillPresent {
			del = append(del, basename)
		}
	}

	toWrite := append(append([]string{}, edit...), add...)
	if len(toWrite) > 0 {
		depotPaths := make([]string, 0, len(toWrite))
		for _, basename := range toWrite {
			depotPath, ok := fileToDepot[basename]
			if !ok {
				return NewErrUnknownDepotPath(basename)
			}
			depotPaths = append(depotPaths, depotPath)
		}
		if err := adapter.OpenForEdit(ctx, cl, depotPaths...); err != nil {
			return NewErrOperationFailed("open_for_edit", err)
		}
		for _, basename := range toWrite {
			localPath, err := adapter.Where(ctx, fileToDepot[basename])
			if err != nil {
				return NewErrOperationFailed("where", err)
			}
			if err := writeLocalFile(localPath, desired[basename]); err != nil {
				return NewErrOperationFailed("write local file", err)
			}
		}
	}

	if len(del) > 0 {
		depotPaths := make([]string, 0, len(del))
		for _, basename := range del {
			depotPath, ok := fileToDepot[basename]
			if !ok {
				return NewErrUnknownDepotPath(basename)
			}
			depotPaths = append(depotPaths, depotPath)
		}
		if err := adapter.OpenForDelete(ctx, cl, depotPaths...); err != nil {
			return NewErrOperationFailed("open_for_delete", err)
		}
	}

	switch {
	case len(toWrite) > 0 || len(del) > 0:
		if err := adapter.Shelve(ctx, cl, true, false); err != nil {
			return NewErrOperationFailed("shelve", err)
		}
	case len(desired) == 0 && len(previous) > 0:
		if err := adapter.Shelve(ctx, cl, false, true); err != nil {
			return NewErrOperationFailed("shelve delete", err)
		}
	}
	return nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package rebase

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAdapter is an in-memory VCS adapter satisfying Adapter, modeling
// shelves as basename->content maps and "opened for edit" state as a set
// of depot paths backed by real temp files, mirroring how p4 opens files
// against a workspace before a shelve picks them up.
type fakeAdapter struct {
	descs      []PendingChange
	shelves    map[int]Snapshot
	localPaths map[string]string
	openEdit   map[int]map[string]string
	openDel    map[int]map[string]string
	tmpDir     string
}

func newFakeAdapter(t *testing.T) *fakeAdapter {
	return &fakeAdapter{
		shelves:    make(map[int]Snapshot),
		localPaths: make(map[string]string),
		openEdit:   make(map[int]map[string]string),
		openDel:    make(map[int]map[string]string),
		tmpDir:     t.TempDir(),
	}
}

func depotPathFor(basename string) string { return "//depot/" + basename }

func (f *fakeAdapter) localPathFor(depotPath string) string {
	if p, ok := f.localPaths[depotPath]; ok {
		return p
	}
	p := filepath.Join(f.tmpDir, basenameOf(depotPath))
	f.localPaths[depotPath] = p
	return p
}

func (f *fakeAdapter) ListPendingChanges(ctx context.Context) ([]PendingChange, error) {
	return f.descs, nil
}

func (f *fakeAdapter) PrintAt(ctx context.Context, cl int) ([]PrintRecord, error) {
	var out []PrintRecord
	for basename, content := range f.shelves[cl] {
		out = append(out, PrintRecord{DepotFile: depotPathFor(basename), Content: content})
	}
	return out, nil
}

func (f *fakeAdapter) OpenedFiles(ctx context.Context, cl int) ([]string, error) {
	var out []string
	for _, depotPath := range f.openEdit[cl] {
		out = append(out, f.localPathFor(depotPath))
	}
	return out, nil
}

// Unshelve mirrors p4's real behavior of opening src's shelved files for
// edit in dst: it materializes each file locally and marks it open.
func (f *fakeAdapter) Unshelve(ctx context.Context, src, dst int) error {
	if f.openEdit[dst] == nil {
		f.openEdit[dst] = make(map[string]string)
	}
	for basename, content := range f.shelves[src] {
		depotPath := depotPathFor(basename)
		if err := os.WriteFile(f.localPathFor(depotPath), content, 0o644); err != nil {
			return err
		}
		f.openEdit[dst][basename] = depotPath
	}
	return nil
}

func (f *fakeAdapter) Revert(ctx context.Context, cl int) error {
	delete(f.openEdit, cl)
	delete(f.openDel, cl)
	return nil
}

func (f *fakeAdapter) OpenForEdit(ctx context.Context, cl int, depotPaths ...string) error {
	if f.openEdit[cl] == nil {
		f.openEdit[cl] = make(map[string]string)
	}
	for _, dp := range depotPaths {
		f.openEdit[cl][basenameOf(dp)] = dp
		if _, err := os.Stat(f.localPathFor(dp)); os.IsNotExist(err) {
			_ = os.WriteFile(f.localPathFor(dp), nil, 0o644)
		}
	}
	return nil
}

func (f *fakeAdapter) OpenForDelete(ctx context.Context, cl int, depotPaths ...string) error {
	if f.openDel[cl] == nil {
		f.openDel[cl] = make(map[string]string)
	}
	for _, dp := range depotPaths {
		f.openDel[cl][basenameOf(dp)] = dp
	}
	return nil
}

func (f *fakeAdapter) Where(ctx context.Context, depotPath string) (string, error) {
	return f.localPathFor(depotPath), nil
}

func (f *fakeAdapter) Shelve(ctx context.Context, cl int, force, delete bool) error {
	if delete {
		f.shelves[cl] = Snapshot{}
		delete(f.openEdit, cl)
		delete(f.openDel, cl)
		return nil
	}
	if f.shelves[cl] == nil {
		f.shelves[cl] = Snapshot{}
	}
	for basename, depotPath := range f.openEdit[cl] {
		content, err := os.ReadFile(f.localPathFor(depotPath))
		if err != nil {
			return err
		}
		f.shelves[cl][basename] = content
	}
	for basename := range f.openDel[cl] {
		delete(f.shelves[cl], basename)
	}
	delete(f.openEdit, cl)
	delete(f.openDel, cl)
	return nil
}

var _ Adapter = (*fakeAdapter)(nil)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.ErrorLevel)
	return l
}

// setFixedEditor points $EDITOR at a one-line shell script that overwrites
// every file it's given with content, standing in for a human fix.
func setFixedEditor(t *testing.T, content string) {
	dir := t.TempDir()
	script := filepath.Join(dir, "fake-editor.sh")
	src := "#!/bin/sh\nfor f in \"$@\"; do cat > \"$f\" <<'EOF'\n" + content + "EOF\ndone\n"
	require.NoError(t, os.WriteFile(script, []byte(src), 0o755))
	t.Setenv("EDITOR", script)
}

// S1 — linear propagate, no conflicts: disjoint files mean only the base
// CL's shelf changes.
func TestEngineS1LinearPropagateNoConflict(t *testing.T) {
	ctx := context.Background()
	fa := newFakeAdapter(t)
	fa.descs = []PendingChange{
		{CL: 100, Desc: "base"},
		{CL: 101, Desc: "Depends-On: 100"},
		{CL: 102, Desc: "Depends-On: 101"},
	}
	fa.shelves[100] = Snapshot{"a.txt": []byte("orig\n")}
	fa.shelves[101] = Snapshot{"b.txt": []byte("x\n")}
	fa.shelves[102] = Snapshot{"c.txt": []byte("y\n")}

	setFixedEditor(t, "orig\nFIX\n")

	dir := t.TempDir()
	engine := NewEngine(fa, dir, testLogger())
	err := engine.RebaseStack(ctx, 100)
	require.NoError(t, err)

	assert.Equal(t, "orig\nFIX\n", string(fa.shelves[100]["a.txt"]))
	assert.Equal(t, "x\n", string(fa.shelves[101]["b.txt"]))
	assert.Equal(t, "y\n", string(fa.shelves[102]["c.txt"]))
	assert.False(t, LogExists(dir))
}

// S2 — conflict propagate, then continue.
func TestEngineS2ConflictThenContinue(t *testing.T) {
	ctx := context.Background()
	fa := newFakeAdapter(t)
	fa.descs = []PendingChange{
		{CL: 100, Desc: "base"},
		{CL: 101, Desc: "Depends-On: 100"},
	}
	fa.shelves[100] = Snapshot{"foo.txt": []byte("A\n")}
	fa.shelves[101] = Snapshot{"foo.txt": []byte("A\nB\n")}

	setFixedEditor(t, "A\nC\n")

	dir := t.TempDir()
	engine := NewEngine(fa, dir, testLogger())
	err := engine.RebaseStack(ctx, 100)
	require.ErrorIs(t, err, ErrConflict)

	opLog, ok, loadErr := LoadLog(dir)
	require.NoError(t, loadErr)
	require.True(t, ok)
	assert.Equal(t, 101, opLog.ConflictCL)
	assert.Equal(t, []int{100}, opLog.RebasedCLs)
	assert.Contains(t, string(fa.shelves[101]["foo.txt"]), "<<<<<<<")

	// The user manually resolves the conflicted shelf: unshelve, edit,
	// leave open for the next `p4 shelve`.
	require.NoError(t, fa.Unshelve(ctx, 101, 101))
	require.NoError(t, os.WriteFile(fa.localPathFor(depotPathFor("foo.txt")), []byte("A\nCB\n"), 0o644))

	err = engine.ContinueRebase(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A\nCB\n", string(fa.shelves[101]["foo.txt"]))
	assert.False(t, LogExists(dir))
}

// S5 — empty shelf on descendant: a child that never opened the fixed
// file must stay empty, not receive it from the parent.
func TestEngineS5EmptyShelfOnDescendant(t *testing.T) {
	ctx := context.Background()
	fa := newFakeAdapter(t)
	fa.descs = []PendingChange{
		{CL: 100, Desc: "base"},
		{CL: 101, Desc: "Depends-On: 100"},
	}
	fa.shelves[100] = Snapshot{"a.txt": []byte("v1\n")}
	fa.shelves[101] = Snapshot{}

	setFixedEditor(t, "v1\nFIX\n")

	dir := t.TempDir()
	engine := NewEngine(fa, dir, testLogger())
	err := engine.RebaseStack(ctx, 100)
	require.NoError(t, err)

	assert.Empty(t, fa.shelves[101])
}

// S6 — log refuses overlapping start, without mutating any CL.
func TestEngineS6LogRefusesOverlappingStart(t *testing.T) {
	ctx := context.Background()
	fa := newFakeAdapter(t)
	fa.descs = []PendingChange{{CL: 100, Desc: "base"}}
	fa.shelves[100] = Snapshot{"a.txt": []byte("v1\n")}

	dir := t.TempDir()
	require.NoError(t, SaveLog(dir, &OpLog{BaseCL: 100, StackToUpdate: []int{100}}))

	engine := NewEngine(fa, dir, testLogger())
	err := engine.RebaseStack(ctx, 100)
	assert.True(t, IsErrLogExists(err))
	assert.Equal(t, "v1\n", string(fa.shelves[100]["a.txt"]))
}

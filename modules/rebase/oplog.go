// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package rebase

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// LogFileName is the on-disk name of the resumable operation log, written
// to the process's current working directory. Exactly one may exist at a
// time.
const LogFileName = ".p4-stack-state.toml"

// OpLog is the durable record of an in-progress rebase, sufficient to
// resume cleanly after a manual conflict resolution or a crash.
//
// PreStep carries, for every CL already visited, the shelf content it held
// the instant before this run touched it — keyed by CL number (as a
// string, since TOML map keys must be strings). A child's three-way merge
// needs its parent's pre-fix state as the merge base (§9 note 1, pinned
// down by scenario S2), and that state is gone from the server the moment
// the parent's own step overwrites its shelf, so it has to be captured and
// carried in the log itself to survive a pause-and-continue.
type OpLog struct {
	BaseCL        int                          `toml:"base_cl"`
	StackToUpdate []int                        `toml:"stack_to_update"`
	RebasedCLs    []int                        `toml:"rebased_cls"`
	ConflictCL    int                          `toml:"conflict_cl,omitempty"`
	HasConflictCL bool                         `toml:"has_conflict_cl"`
	PreStep       map[string]map[string]string `toml:"pre_step,omitempty"`
}

// SetPreStep records cl's shelf content as it stood before cl's own step
// ran, for later use as a merge base by cl's descendants.
func (l *OpLog) SetPreStep(cl int, snap Snapshot) {
	if l.PreStep == nil {
		l.PreStep = make(map[string]map[string]string)
	}
	m := make(map[string]string, len(snap))
	for basename, content := range snap {
		m[basename] = string(content)
	}
	l.PreStep[strconv.Itoa(cl)] = m
}

// GetPreStep retrieves the pre-step snapshot recorded for cl, if any.
func (l *OpLog) GetPreStep(cl int) (Snapshot, bool) {
	m, ok := l.PreStep[strconv.Itoa(cl)]
	if !ok {
		return nil, false
	}
	snap := make(Snapshot, len(m))
	for basename, content := range m {
		snap[basename] = []byte(content)
	}
	return snap, true
}

// Remaining computed stack_to_update members not yet in rebased_cls, in
// original order.
func (l *OpLog) Remaining() []int {
	done := make(map[int]bool, len(l.RebasedCLs))
	for _, cl := range l.RebasedCLs {
		done[cl] = true
	}
	var rest []int
	for _, cl := range l.StackToUpdate {
		if !done[cl] {
			rest = append(rest, cl)
		}
	}
	return rest
}

// SaveLog serializes the log as a whole-file replacement: written to a
// sibling temp file first, then renamed into place, so a reader never
// observes a partially written log. The file is created user-only
// read/write where the host filesystem supports it.
func SaveLog(dir string, l *OpLog) error {
	path := filepath.Join(dir, LogFileName)
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return NewErrOperationFailed("create operation log", err)
	}
	enc := toml.NewEncoder(f)
	if err := enc.Encode(l); err != nil {
		f.Close()
		os.Remove(tmp)
		return NewErrOperationFailed("encode operation log", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return NewErrOperationFailed("close operation log", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return NewErrOperationFailed("install operation log", err)
	}
	return nil
}

// LoadLog reads the log from dir. A missing or unparsable file is
// reported as (nil, false, nil) — the reader does not attempt recovery of
// a corrupt log; the caller is expected to discard it.
func LoadLog(dir string) (*OpLog, bool, error) {
	path := filepath.Join(dir, LogFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, NewErrOperationFailed("read operation log", err)
	}
	var l OpLog
	if _, err := toml.Decode(string(data), &l); err != nil {
		return nil, false, nil
	}
	return &l, true, nil
}

// ClearLog deletes the log file. A missing file is not an error.
func ClearLog(dir string) error {
	path := filepath.Join(dir, LogFileName)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return NewErrOperationFailed("remove operation log", err)
	}
	return nil
}

// LogExists reports whether a log file is present in dir.
func LogExists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, LogFileName))
	return err == nil
}

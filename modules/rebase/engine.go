// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package rebase

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Engine orchestrates C1–C4 over an Adapter (C6): the Rebase Engine (C5).
// It is single-threaded and synchronous per §5 — one blocking VCS call at
// a time, no goroutines.
type Engine struct {
	adapter Adapter
	dir     string // working directory holding the operation log
	log     *logrus.Logger

	// OnStep, if set, is called after each CL completes, with the current
	// rebased/total counts — purely cosmetic, e.g. driving pkg/progress. It
	// is not called for a CL that pauses on a conflict.
	OnStep func(rebased, total int)

	// Editor, if set, overrides $EDITOR for the base CL's fix step (e.g. a
	// config file's p4.editor). Empty falls back to $EDITOR, then vi.
	Editor string
}

// NewEngine builds an Engine that persists its operation log in dir (the
// process's current working directory per §3).
func NewEngine(adapter Adapter, dir string, logger *logrus.Logger) *Engine {
	return &Engine{adapter: adapter, dir: dir, log: logger}
}

// RebaseStack propagates a fix at baseCL to every descendant, per §4.5.
func (e *Engine) RebaseStack(ctx context.Context, baseCL int) error {
	if LogExists(e.dir) {
		return ErrLogExists
	}
	changes, err := e.adapter.ListPendingChanges(ctx)
	if err != nil {
		return err
	}
	graph := BuildGraph(changes)
	if !graph.IsPending(baseCL) {
		return NewErrCLNotInStack(baseCL)
	}

	order := graph.DescendantsOf(baseCL)
	opLog := &OpLog{BaseCL: baseCL, StackToUpdate: order, RebasedCLs: []int{}}
	if err := SaveLog(e.dir, opLog); err != nil {
		return err
	}
	return e.runLoop(ctx, graph, opLog)
}

// ContinueRebase resumes a paused rebase after the user has manually
// resolved the conflicted CL's shelf, per §4.5.
func (e *Engine) ContinueRebase(ctx context.Context) error {
	opLog, ok, err := LoadLog(e.dir)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoLog
	}
	if opLog.HasConflictCL {
		resolved := opLog.ConflictCL
		e.log.WithField("cl", resolved).Info("shelving manually resolved changelist")
		if err := e.adapter.Shelve(ctx, resolved, true, false); err != nil {
			return err
		}
		opLog.RebasedCLs = append(opLog.RebasedCLs, resolved)
		opLog.ConflictCL = 0
		opLog.HasConflictCL = false
		if err := SaveLog(e.dir, opLog); err != nil {
			return err
		}
	}

	changes, err := e.adapter.ListPendingChanges(ctx)
	if err != nil {
		return err
	}
	graph := BuildGraph(changes)
	return e.runLoop(ctx, graph, opLog)
}

// runLoop is the shared body of RebaseStack and ContinueRebase: process
// every CL in stack_to_update not yet in rebased_cls, strictly in order.
func (e *Engine) runLoop(ctx context.Context, graph *Graph, opLog *OpLog) error {
	for _, cl := range opLog.Remaining() {
		if err := e.adapter.Revert(ctx, cl); err != nil {
			return err
		}

		preStep, _, err := ReadSnapshot(ctx, e.adapter, cl)
		if err != nil {
			return err
		}
		opLog.SetPreStep(cl, preStep)
		if err := SaveLog(e.dir, opLog); err != nil {
			return err
		}

		if cl == opLog.BaseCL {
			if err := e.updateBase(ctx, cl); err != nil {
				return err
			}
		} else {
			parent, ok := graph.parentOf(cl)
			if !ok {
				return NewErrOperationFailed("rebase loop", errNoParent(cl))
			}
			conflicted, err := e.rebaseChild(ctx, cl, parent, preStep, opLog)
			if err != nil {
				return err
			}
			if conflicted {
				opLog.ConflictCL = cl
				opLog.HasConflictCL = true
				if err := SaveLog(e.dir, opLog); err != nil {
					return err
				}
				return ErrConflict
			}
		}

		opLog.RebasedCLs = append(opLog.RebasedCLs, cl)
		if err := SaveLog(e.dir, opLog); err != nil {
			return err
		}
		if e.OnStep != nil {
			e.OnStep(len(opLog.RebasedCLs), len(opLog.StackToUpdate))
		}
	}
	return ClearLog(e.dir)
}

// updateBase performs the "fix" step: unshelve the base CL into itself,
// launch the editor over its opened files, re-shelve. No merge required.
func (e *Engine) updateBase(ctx context.Context, cl int) error {
	e.log.WithField("cl", cl).Info("updating base changelist")
	if err := e.adapter.Unshelve(ctx, cl, cl); err != nil {
		return err
	}
	paths, err := e.adapter.OpenedFiles(ctx, cl)
	if err != nil {
		return err
	}
	if err := LaunchEditor(ctx, paths, e.Editor); err != nil {
		return err
	}
	return e.adapter.Shelve(ctx, cl, true, false)
}

// rebaseChild three-way merges cl's own shelf against its (possibly
// updated) parent's current shelf, per the contract pinned down by S2:
// ours is the child's own shelf (childSnapshot, read just before this
// step), theirs is the parent's current (possibly just-updated) shelf,
// and base is the parent's shelf as it stood right before the parent's
// own step ran — recorded in opLog.PreStep when the parent was visited.
// Using the child's current shelf as base (rather than the parent's
// pre-fix state) would make base equal ours whenever the child hasn't
// touched a file, and diff3 would then silently accept the parent's
// change instead of flagging the divergence S2 requires.
//
// The merge domain is restricted to basenames the child already shelves:
// per §S5, a file the child has never opened is not part of its delta
// and must not be pulled in just because the parent happens to touch it,
// so base and theirs are populated only for keys already present in
// ours.
func (e *Engine) rebaseChild(ctx context.Context, cl, parent int, childSnapshot Snapshot, opLog *OpLog) (conflicted bool, err error) {
	e.log.WithFields(logrus.Fields{"cl": cl, "parent": parent}).Info("rebasing child onto parent")

	_, childMap, err := ReadSnapshot(ctx, e.adapter, cl)
	if err != nil {
		return false, err
	}
	parentSnapshot, parentMap, err := ReadSnapshot(ctx, e.adapter, parent)
	if err != nil {
		return false, err
	}
	parentPreStep, ok := opLog.GetPreStep(parent)
	if !ok {
		return false, NewErrOperationFailed("rebase loop", errMissingPreStep(parent))
	}

	ours := childSnapshot
	base := make(Snapshot, len(ours))
	theirs := make(Snapshot, len(ours))
	for f := range ours {
		if v, ok := parentPreStep[f]; ok {
			base[f] = v
		}
		if v, ok := parentSnapshot[f]; ok {
			theirs[f] = v
		}
	}

	merged, err := MergeFolder(ctx, base, ours, theirs)
	if err != nil {
		return false, err
	}

	desired := make(Snapshot, len(merged))
	hasConflict := false
	fileToDepot := make(FileToDepot, len(childMap))
	for k, v := range childMap {
		fileToDepot[k] = v
	}
	for basename, result := range merged {
		desired[basename] = result.Content
		if result.HasConflict {
			hasConflict = true
		}
		if _, known := fileToDepot[basename]; !known {
			if depot, ok := parentMap[basename]; ok {
				fileToDepot[basename] = depot
			}
		}
	}

	if err := WriteSnapshot(ctx, e.adapter, cl, desired, childSnapshot, fileToDepot); err != nil {
		return false, err
	}
	return hasConflict, nil
}

type errNoParentT struct{ cl int }

func (e errNoParentT) Error() string { return "internal: changelist has no parent in stack graph" }

func errNoParent(cl int) error { return errNoParentT{cl: cl} }

type errMissingPreStepT struct{ cl int }

func (e errMissingPreStepT) Error() string {
	return "internal: no pre-step snapshot recorded for parent changelist"
}

func errMissingPreStep(cl int) error { return errMissingPreStepT{cl: cl} }

// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package rebase

import "fmt"

// Sentinel errors with no associated data. Callers compare with errors.Is.
var (
	ErrLogExists  = fmt.Errorf("rebase: a resumable operation log already exists")
	ErrNoLog      = fmt.Errorf("rebase: continue invoked without a paused rebase")
	ErrConflict   = fmt.Errorf("rebase: three-way merge requires manual resolution")
	ErrEditorNotFound = fmt.Errorf("rebase: editor binary not found")
)

// ErrLoginRequired means the VCS session has expired. The command layer
// renders guidance and exits 0; it is not treated as a failure.
type ErrLoginRequired struct {
	Cause error
}

func (err *ErrLoginRequired) Error() string {
	if err.Cause != nil {
		return fmt.Sprintf("login required: %v", err.Cause)
	}
	return "login required"
}

func (err *ErrLoginRequired) Unwrap() error { return err.Cause }

func NewErrLoginRequired(cause error) error {
	return &ErrLoginRequired{Cause: cause}
}

func IsErrLoginRequired(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*ErrLoginRequired)
	return ok
}

// ErrCLNotInStack means the base CL supplied to rebase_stack is not a
// pending changelist owned by the current user.
type ErrCLNotInStack struct {
	CL int
}

func (err *ErrCLNotInStack) Error() string {
	return fmt.Sprintf("changelist %d is not a pending changelist in the stack", err.CL)
}

func NewErrCLNotInStack(cl int) error {
	return &ErrCLNotInStack{CL: cl}
}

func IsErrCLNotInStack(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*ErrCLNotInStack)
	return ok
}

// ErrSnapshotReadFailed wraps a failure reading shelved content for a CL.
type ErrSnapshotReadFailed struct {
	CL    int
	Cause error
}

func (err *ErrSnapshotReadFailed) Error() string {
	return fmt.Sprintf("read snapshot for changelist %d: %v", err.CL, err.Cause)
}

func (err *ErrSnapshotReadFailed) Unwrap() error { return err.Cause }

func NewErrSnapshotReadFailed(cl int, cause error) error {
	return &ErrSnapshotReadFailed{CL: cl, Cause: cause}
}

func IsErrSnapshotReadFailed(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*ErrSnapshotReadFailed)
	return ok
}

// ErrUnknownDepotPath means a basename in a desired snapshot has no entry
// in the file-to-depot companion map.
type ErrUnknownDepotPath struct {
	Basename string
}

func (err *ErrUnknownDepotPath) Error() string {
	return fmt.Sprintf("no depot path known for basename %q", err.Basename)
}

func NewErrUnknownDepotPath(basename string) error {
	return &ErrUnknownDepotPath{Basename: basename}
}

func IsErrUnknownDepotPath(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*ErrUnknownDepotPath)
	return ok
}

// ErrMergeToolFailed wraps a diff3 invocation that exited with neither 0
// (clean) nor 1 (conflict).
type ErrMergeToolFailed struct {
	ExitCode int
	Cause    error
}

func (err *ErrMergeToolFailed) Error() string {
	return fmt.Sprintf("merge tool exited %d: %v", err.ExitCode, err.Cause)
}

func (err *ErrMergeToolFailed) Unwrap() error { return err.Cause }

func NewErrMergeToolFailed(exitCode int, cause error) error {
	return &ErrMergeToolFailed{ExitCode: exitCode, Cause: cause}
}

func IsErrMergeToolFailed(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*ErrMergeToolFailed)
	return ok
}

// ErrEditorFailed means the external editor exited non-zero.
type ErrEditorFailed struct {
	ExitCode int
}

func (err *ErrEditorFailed) Error() string {
	return fmt.Sprintf("editor exited with status %d", err.ExitCode)
}

func NewErrEditorFailed(exitCode int) error {
	return &ErrEditorFailed{ExitCode: exitCode}
}

func IsErrEditorFailed(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*ErrEditorFailed)
	return ok
}

// ErrOperationFailed wraps a generic VCS adapter failure not otherwise
// classified above.
type ErrOperationFailed struct {
	Op    string
	Cause error
}

func (err *ErrOperationFailed) Error() string {
	return fmt.Sprintf("%s: %v", err.Op, err.Cause)
}

func (err *ErrOperationFailed) Unwrap() error { return err.Cause }

func NewErrOperationFailed(op string, cause error) error {
	return &ErrOperationFailed{Op: op, Cause: cause}
}

func IsErrOperationFailed(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*ErrOperationFailed)
	return ok
}

func IsErrConflict(err error) bool {
	return err == ErrConflict
}

func IsErrLogExists(err error) bool {
	return err == ErrLogExists
}

func IsErrNoLog(err error) bool {
	return err == ErrNoLog
}

func IsErrEditorNotFound(err error) bool {
	return err == ErrEditorNotFound
}

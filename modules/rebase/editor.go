// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package rebase

import (
	"context"
	"os"
	"os/exec"

	"github.com/anmitsu/go-shlex"

	"github.com/minhkhoango/p4-stack-go/modules/command"
)

const defaultEditor = "vi"

// resolveEditor picks the editor command: override (e.g. a config file's
// p4.editor) wins, then $EDITOR, then vi, per §4.6. The editor string may
// itself contain arguments (e.g. "code --wait"); go-shlex splits it the
// same way a shell would.
func resolveEditor(override string) (name string, args []string, err error) {
	editor := override
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = defaultEditor
	}
	parts, err := shlex.Split(editor, true)
	if err != nil || len(parts) == 0 {
		return editor, nil, nil
	}
	return parts[0], parts[1:], nil
}

// LaunchEditor opens paths in override (or else $EDITOR, or else vi),
// waits for it to exit, and classifies the outcome per §4.6: a missing
// binary is ErrEditorNotFound, a non-zero exit is ErrEditorFailed.
func LaunchEditor(ctx context.Context, paths []string, override string) error {
	if len(paths) == 0 {
		return nil
	}
	name, baseArgs, err := resolveEditor(override)
	if err != nil {
		return NewErrOperationFailed("resolve editor", err)
	}
	args := append(append([]string{}, baseArgs...), paths...)
	cmd := command.NewFromOptions(ctx, &command.RunOpts{
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		NoSetpgid: true,
	}, name, args...)
	err = cmd.Run()
	if err == nil {
		return nil
	}
	if ee, ok := err.(*exec.ExitError); ok {
		return NewErrEditorFailed(ee.ExitCode())
	}
	if isExecNotFound(err) {
		return ErrEditorNotFound
	}
	return NewErrOperationFailed("launch editor", err)
}

func isExecNotFound(err error) bool {
	return err == exec.ErrNotFound || os.IsNotExist(err)
}

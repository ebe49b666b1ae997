// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package rebase

import (
	"bytes"
	"context"
	"os"
	"os/exec"

	"github.com/minhkhoango/p4-stack-go/modules/command"
)

// mergeFile delegates to the system diff3 utility. Absent base/ours/theirs
// are passed through as empty content; the caller (MergeFolder) decides
// whether a file belongs in the closed add/delete case table or needs a
// genuine three-way merge.
func mergeFile(ctx context.Context, base, ours, theirs []byte) (MergeResult, error) {
	baseFile, err := writeTemp(base)
	if err != nil {
		return MergeResult{}, NewErrOperationFailed("write base temp file", err)
	}
	defer os.Remove(baseFile)

	oursFile, err := writeTemp(ours)
	if err != nil {
		return MergeResult{}, NewErrOperationFailed("write ours temp file", err)
	}
	defer os.Remove(oursFile)

	theirsFile, err := writeTemp(theirs)
	if err != nil {
		return MergeResult{}, NewErrOperationFailed("write theirs temp file", err)
	}
	defer os.Remove(theirsFile)

	var stdout bytes.Buffer
	cmd := command.NewFromOptions(ctx, &command.RunOpts{
		Stdout:    &stdout,
		NoSetpgid: true,
	}, "diff3", "-m", "-E", oursFile, baseFile, theirsFile)
	runErr := cmd.Run()

	exitCode := 0
	if runErr != nil {
		if ee, ok := runErr.(*exec.ExitError); ok {
			exitCode = ee.ExitCode()
		} else {
			return MergeResult{}, NewErrMergeToolFailed(-1, runErr)
		}
	}
	switch exitCode {
	case 0:
		return MergeResult{Content: stdout.Bytes(), HasConflict: false}, nil
	case 1:
		return MergeResult{Content: stdout.Bytes(), HasConflict: true}, nil
	default:
		return MergeResult{}, NewErrMergeToolFailed(exitCode, runErr)
	}
}

func writeTemp(content []byte) (string, error) {
	f, err := os.CreateTemp("", "p4stack-merge-*")
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := f.Write(content); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// MergeFolder merges three folder snapshots by case-analysis over each
// basename in the union of all three, following the closed table in §4.2:
// an add on exactly one side is taken verbatim; a delete matched by an
// unchanged sibling (or a delete on both sides) is accepted without
// invoking diff3; everything else is a genuine file-level merge, including
// delete-vs-modify, which surfaces as a conflict.
func MergeFolder(ctx context.Context, base, ours, theirs Snapshot) (map[string]MergeResult, error) {
	seen := make(map[string]struct{}, len(base)+len(ours)+len(theirs))
	for k := range base {
		seen[k] = struct{}{}
	}
	for k := range ours {
		seen[k] = struct{}{}
	}
	for k := range theirs {
		seen[k] = struct{}{}
	}

	result := make(map[string]MergeResult, len(seen))
	for basename := range seen {
		b, hasBase := base[basename]
		o, hasOurs := ours[basename]
		t, hasTheirs := theirs[basename]

		switch {
		case !hasBase && !hasTheirs && hasOurs:
			result[basename] = MergeResult{Content: o, HasConflict: false}
			continue
		case !hasBase && hasTheirs && !hasOurs:
			result[basename] = MergeResult{Content: t, HasConflict: false}
			continue
		case hasBase && !hasOurs && hasTheirs && bytesEqual(t, b):
			continue // delete accepted: ours deleted, theirs unchanged
		case hasBase && !hasTheirs && hasOurs && bytesEqual(o, b):
			continue // delete accepted: theirs deleted, ours unchanged
		case hasBase && !hasOurs && !hasTheirs:
			continue // deleted in both
		}

		merged, err := mergeFile(ctx, optional(hasBase, b), optional(hasOurs, o), optional(hasTheirs, t))
		if err != nil {
			return nil, err
		}
		result[basename] = merged
	}
	return result, nil
}

func optional(present bool, content []byte) []byte {
	if !present {
		return nil
	}
	return content
}

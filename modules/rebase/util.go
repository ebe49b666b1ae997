// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package rebase

import (
	"os"
	"path/filepath"
	"strings"
)

// basenameOf strips surrounding quotes the VCS may emit around a depot
// path and returns its last path component.
func basenameOf(depotPath string) string {
	trimmed := strings.Trim(depotPath, `'"`)
	return filepath.Base(trimmed)
}

func writeLocalFile(localPath string, content []byte) error {
	if dir := filepath.Dir(localPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(localPath, content, 0o644)
}

// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"os"
	"path/filepath"
)

var (
	version     = "dev"
	buildCommit string
	buildTime   string
)

// GetVersionString returns a standard version header for --version output.
func GetVersionString() string {
	return fmt.Sprintf("%s %v (%s), built %v", filepath.Base(os.Args[0]), version, buildCommit, buildTime)
}

func GetBuildCommit() string {
	return buildCommit
}

// GetVersion returns the semver compatible version number.
func GetVersion() string {
	return version
}

// GetUserAgent is sent on every request to the review-service HTTP client.
func GetUserAgent() string {
	if u, err := Uname(); err == nil {
		return fmt.Sprintf("p4-stack-go/%s (%s; %s; %s)", version, u.Name, u.Machine, u.Release)
	}
	return "p4-stack-go/" + version
}

// GetBuildTime returns the time at which the build took place.
func GetBuildTime() string {
	return buildTime
}

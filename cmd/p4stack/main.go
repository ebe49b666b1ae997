// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Command p4stack is the CLI surface over the stacked-diff rebase engine:
// create, list, submit, upload, review, rebase, and continue.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/minhkhoango/p4-stack-go/pkg/version"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "p4stack:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "p4stack",
		Short:         "Stacked-diff workflow on top of Perforce pending changelists",
		Version:       version.GetVersionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().String("p4user", "", "P4 user, overriding $P4USER")

	root.AddCommand(
		newCreateCmd(),
		newListCmd(),
		newSubmitCmd(),
		newUploadCmd(),
		newReviewCmd(),
		newRebaseCmd(),
		newContinueCmd(),
	)
	return root
}

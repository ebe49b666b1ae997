// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/minhkhoango/p4-stack-go/modules/rebase"
)

func newCreateCmd() *cobra.Command {
	var desc string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new stack entry from the files open in the default changelist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if desc == "" {
				return fmt.Errorf("-m/--message is required")
			}
			ctx := cmd.Context()
			client, _, err := connect(ctx, cmd)
			if err != nil {
				return err
			}

			files, err := client.FilesInDefault(ctx)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no files open in the default changelist")
			}

			changes, err := client.ListPendingChanges(ctx)
			if err != nil {
				return err
			}
			graph := rebase.BuildGraph(changes)
			if tip, ok := graph.FindStackTip(); ok {
				desc = rebase.SetDependsOn(desc, tip)
			}

			cl, err := client.CreateChange(ctx, desc)
			if err != nil {
				return err
			}
			if err := client.Reopen(ctx, cl, files...); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created changelist %d with %d file(s)\n", cl, len(files))
			return nil
		},
	}
	cmd.Flags().StringVarP(&desc, "message", "m", "", "changelist description")
	return cmd
}

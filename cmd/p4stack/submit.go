// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/minhkhoango/p4-stack-go/modules/rebase"
	"github.com/minhkhoango/p4-stack-go/modules/vcs"
)

func newSubmitCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "submit <base-cl>",
		Short: "Submit a stack base-to-tip, rewriting each child's Depends-On: tag as its parent submits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			baseCL, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid changelist number %q", args[0])
			}
			ctx := cmd.Context()
			client, _, err := connect(ctx, cmd)
			if err != nil {
				return err
			}

			changes, err := client.ListPendingChanges(ctx)
			if err != nil {
				return err
			}
			graph := rebase.BuildGraph(changes)
			if !graph.IsPending(baseCL) {
				return fmt.Errorf("changelist %d is not a pending changelist in the stack", baseCL)
			}

			order := graph.DescendantsOf(baseCL)
			submittedCLMap := make(map[int]int, len(order))
			out := cmd.OutOrStdout()

			for _, cl := range order {
				desc := graph.Descs[cl]
				if parent, ok := rebase.ParseDependsOn(desc); ok {
					if newParent, done := submittedCLMap[parent]; done {
						desc = rebase.SetDependsOn(desc, newParent)
						if err := client.UpdateDescription(ctx, cl, desc); err != nil {
							return err
						}
					}
				}

				if err := client.Unshelve(ctx, cl, cl); err != nil {
					return err
				}
				if err := client.Shelve(ctx, cl, false, true); err != nil {
					return err
				}
				submitted, err := client.Submit(ctx, cl)
				if err != nil {
					return err
				}
				submittedCLMap[cl] = submitted
				fmt.Fprintf(out, "submitted %d as %d\n", cl, submitted)
			}

			return deleteObsoletePending(ctx, cmd, client, order, yes)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "delete the now-obsolete pending changelists without prompting")
	return cmd
}

// deleteObsoletePending offers to delete the pending CLs just submitted,
// which p4 submit renumbers into a new changelist rather than removing
// the original outright.
func deleteObsoletePending(ctx context.Context, cmd *cobra.Command, client *vcs.Client, order []int, yes bool) error {
	out := cmd.OutOrStdout()
	if !yes {
		fmt.Fprintf(out, "delete the %d now-obsolete pending changelist(s)? [y/N] ", len(order))
		reader := bufio.NewReader(cmd.InOrStdin())
		line, _ := reader.ReadString('\n')
		if strings.TrimSpace(strings.ToLower(line)) != "y" {
			return nil
		}
	}
	for _, cl := range order {
		if shelved, err := client.IsShelved(ctx, cl); err == nil && shelved {
			if err := client.Shelve(ctx, cl, false, true); err != nil {
				return err
			}
		}
		if err := client.DeleteChange(ctx, cl); err != nil {
			return err
		}
		fmt.Fprintf(out, "deleted pending changelist %d\n", cl)
	}
	return nil
}

// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/minhkhoango/p4-stack-go/modules/rebase"
	"github.com/minhkhoango/p4-stack-go/modules/term"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the current user's pending changelists as a stack forest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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
			printStackForest(cmd.OutOrStdout(), graph)
			return nil
		},
	}
	return cmd
}

// printStackForest renders graph as an indented tree, one root per top-level
// stack, each node labeled "<cl> <short description>".
func printStackForest(w io.Writer, graph *rebase.Graph) {
	if len(graph.Roots) == 0 {
		fmt.Fprintln(w, "no pending changelists")
		return
	}
	for _, root := range graph.Roots {
		printStackNode(w, graph, root, "", "")
	}
}

// printStackNode prints cl's own line using linePrefix (the branch glyphs
// leading up to it), then recurses over its children using childPrefix as
// the base indent for their own branch glyphs.
func printStackNode(w io.Writer, graph *rebase.Graph, cl int, linePrefix, childPrefix string) {
	label := fmt.Sprintf("%d %s", cl, rebase.ShortDesc(graph.Descs[cl]))
	fmt.Fprintln(w, linePrefix+term.StdoutMode.Blue(label))

	kids, ok := graph.Children.Get(cl)
	if !ok {
		return
	}
	children := kids.([]int)
	for i, kid := range children {
		branch, nextChildPrefix := "├── ", childPrefix+"│   "
		if i == len(children)-1 {
			branch, nextChildPrefix = "└── ", childPrefix+"    "
		}
		printStackNode(w, graph, kid, childPrefix+branch, nextChildPrefix)
	}
}

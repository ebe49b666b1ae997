// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/minhkhoango/p4-stack-go/modules/rebase"
)

const (
	stackMarkerStart = "<!-- p4-stack:begin -->"
	stackMarkerEnd   = "<!-- p4-stack:end -->"
	stackWarning     = "_This review is part of a stack. Rebasing an earlier entry may change this one's diff until you rebase too._"
)

func newUploadCmd() *cobra.Command {
	var swarmURL string
	cmd := &cobra.Command{
		Use:   "upload <root-cl>",
		Short: "Create or update a Swarm review for every changelist in a stack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rootCL, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid changelist number %q", args[0])
			}
			ctx := cmd.Context()
			client, cfg, err := connect(ctx, cmd)
			if err != nil {
				return err
			}

			changes, err := client.ListPendingChanges(ctx)
			if err != nil {
				return err
			}
			graph := rebase.BuildGraph(changes)
			if !graph.IsPending(rootCL) {
				return fmt.Errorf("changelist %d is not a pending changelist in the stack", rootCL)
			}
			if _, hasParent := rebase.ParseDependsOn(graph.Descs[rootCL]); hasParent {
				return fmt.Errorf("changelist %d is not the root of its stack; upload from the root", rootCL)
			}

			url := swarmURL
			if url == "" {
				url = cfg.Swarm.URL
			}
			reviewClient, err := reviewClientFor(ctx, client, cfg, url)
			if err != nil {
				return err
			}

			order := graph.DescendantsOf(rootCL)
			clToReview := make(map[int]int, len(order))
			out := cmd.OutOrStdout()

			for _, cl := range order {
				id, found, err := reviewClient.GetReviewID(ctx, cl)
				if err != nil {
					return err
				}
				if !found {
					id, err = reviewClient.CreateReview(ctx, cl, graph.Descs[cl])
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "created review %d for changelist %d\n", id, cl)
				} else {
					fmt.Fprintf(out, "found existing review %d for changelist %d\n", id, cl)
				}
				clToReview[cl] = id
			}

			for _, cl := range order {
				desc := buildStackDescription(graph, order, clToReview, cl)
				if err := reviewClient.UpdateReviewDescription(ctx, clToReview[cl], desc); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&swarmURL, "swarm-url", "", "override the configured Swarm base URL")
	return cmd
}

// buildStackDescription appends a navigation block linking cl's review to
// every other review in the same stack, replacing any block a previous
// upload left behind.
func buildStackDescription(graph *rebase.Graph, order []int, clToReview map[int]int, cl int) string {
	base := stripExistingStackInfo(graph.Descs[cl])

	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\n\n")
	b.WriteString(stackMarkerStart)
	b.WriteString("\n")
	b.WriteString(stackWarning)
	b.WriteString("\n\n")
	for _, other := range order {
		marker := "- "
		if other == cl {
			marker = "- **"
		}
		fmt.Fprintf(&b, "%s#%d: %s", marker, other, rebase.ShortDesc(graph.Descs[other]))
		if other == cl {
			b.WriteString("** (this review)")
		}
		b.WriteString(fmt.Sprintf(" (review %d)\n", clToReview[other]))
	}
	b.WriteString(stackMarkerEnd)
	return b.String()
}

func stripExistingStackInfo(desc string) string {
	start := strings.Index(desc, stackMarkerStart)
	if start < 0 {
		return strings.TrimSpace(desc)
	}
	end := strings.Index(desc, stackMarkerEnd)
	if end < 0 || end < start {
		return strings.TrimSpace(desc[:start])
	}
	return strings.TrimSpace(desc[:start] + desc[end+len(stackMarkerEnd):])
}

// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/minhkhoango/p4-stack-go/modules/rebase"
	"github.com/minhkhoango/p4-stack-go/modules/vcs"
	"github.com/minhkhoango/p4-stack-go/pkg/config"
)

func newReviewCmd() *cobra.Command {
	var swarmURL string
	cmd := &cobra.Command{
		Use:   "review <base-cl>",
		Short: "Create one combined Swarm review for an entire stack via a temporary changelist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			baseCL, err := strconv.Atoi(args[0])
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
			if !graph.IsPending(baseCL) {
				return fmt.Errorf("changelist %d is not a pending changelist in the stack", baseCL)
			}
			order := graph.DescendantsOf(baseCL)

			desc := fmt.Sprintf("[p4-stack] Review for stack %d: %s", baseCL, rebase.ShortDesc(graph.Descs[baseCL]))
			tempCL, err := client.CreateChange(ctx, desc)
			if err != nil {
				return err
			}

			url := swarmURL
			if url == "" {
				url = cfg.Swarm.URL
			}
			reviewID, runErr := createCombinedReview(ctx, client, cfg, url, order, tempCL, desc)

			// Revert and delete the temporary changelist regardless of
			// whether the review was created successfully: it only ever
			// exists to stage a combined diff for Swarm.
			cleanupErr := client.Revert(ctx, tempCL)
			if cleanupErr == nil {
				cleanupErr = client.DeleteChange(ctx, tempCL)
			}

			if runErr != nil {
				return runErr
			}
			if cleanupErr != nil {
				return cleanupErr
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created combined review %d for stack %d (%d changelist(s))\n", reviewID, baseCL, len(order))
			return nil
		},
	}
	cmd.Flags().StringVar(&swarmURL, "swarm-url", "", "override the configured Swarm base URL")
	return cmd
}

// createCombinedReview unshelves every CL in order into tempCL so Swarm
// sees the whole stack's delta as one diff, then files a single review
// against it.
func createCombinedReview(ctx context.Context, client *vcs.Client, cfg *config.Config, swarmURL string, order []int, tempCL int, desc string) (int, error) {
	for _, cl := range order {
		if err := client.Unshelve(ctx, cl, tempCL); err != nil {
			return 0, err
		}
	}

	reviewClient, err := reviewClientFor(ctx, client, cfg, swarmURL)
	if err != nil {
		return 0, err
	}
	return reviewClient.CreateReview(ctx, tempCL, desc)
}

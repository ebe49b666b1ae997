// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/minhkhoango/p4-stack-go/modules/rebase"
	"github.com/minhkhoango/p4-stack-go/modules/trace"
	"github.com/minhkhoango/p4-stack-go/modules/vcs"
	"github.com/minhkhoango/p4-stack-go/pkg/config"
	"github.com/minhkhoango/p4-stack-go/pkg/review"
)

// loggerFor builds the CLI's logger from the --verbose flag shared by
// every subcommand.
func loggerFor(cmd *cobra.Command) *logrus.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	return trace.NewLogger(verbose)
}

// connect resolves the P4 user (flag, else $P4USER) and opens a VCS
// client, verifying the session is live.
func connect(ctx context.Context, cmd *cobra.Command) (*vcs.Client, *config.Config, error) {
	user, _ := cmd.Flags().GetString("p4user")
	if user == "" {
		user = os.Getenv("P4USER")
	}
	cfg, err := config.LoadDefault()
	if err != nil {
		return nil, nil, err
	}
	client, err := vcs.NewClient(ctx, user, cfg.P4.Port)
	if err != nil {
		return nil, nil, err
	}
	return client, cfg, nil
}

// engineFor builds a rebase.Engine rooted at the current working
// directory, where the operation log is kept, honoring cfg.P4.Editor as
// the fix-step editor override.
func engineFor(client *vcs.Client, cfg *config.Config, logger *logrus.Logger) (*rebase.Engine, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	engine := rebase.NewEngine(client, dir, logger)
	engine.Editor = cfg.P4.Editor
	return engine, nil
}

// reviewClientFor builds a review.Client for url, using the configured
// service account JWT when cfg.Swarm.ServiceAccountJWTSecret is set (for
// headless CI use that shouldn't depend on an interactive P4 ticket) and
// falling back to the interactive, P4-ticket-authenticated client otherwise.
func reviewClientFor(ctx context.Context, client *vcs.Client, cfg *config.Config, url string) (*review.Client, error) {
	if cfg.Swarm.ServiceAccountJWTSecret != "" {
		return review.NewServiceAccountClient(url, cfg.Swarm.ServiceAccountJWTSecret), nil
	}
	return review.NewClient(ctx, client, url)
}

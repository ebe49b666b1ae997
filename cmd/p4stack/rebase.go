// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/minhkhoango/p4-stack-go/modules/rebase"
	"github.com/minhkhoango/p4-stack-go/modules/term"
	"github.com/minhkhoango/p4-stack-go/modules/vcs"
	"github.com/minhkhoango/p4-stack-go/pkg/progress"
)

func newRebaseCmd() *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "rebase <base-cl>",
		Short: "Propagate a fix at base-cl through every dependent changelist",
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
			engine, err := engineFor(client, cfg, loggerFor(cmd))
			if err != nil {
				return err
			}
			tracker := newBarTracker(quiet)
			engine.OnStep = tracker.onStep
			err = engine.RebaseStack(ctx, baseCL)
			tracker.done()
			return renderRebaseResult(cmd, err)
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress the progress bar")
	return cmd
}

func newContinueCmd() *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "continue",
		Short: "Resume a rebase paused on a conflicted changelist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, cfg, err := connect(ctx, cmd)
			if err != nil {
				return err
			}
			engine, err := engineFor(client, cfg, loggerFor(cmd))
			if err != nil {
				return err
			}
			tracker := newBarTracker(quiet)
			engine.OnStep = tracker.onStep
			err = engine.ContinueRebase(ctx)
			tracker.done()
			return renderRebaseResult(cmd, err)
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress the progress bar")
	return cmd
}

// barTracker lazily builds a progress.RebaseBar on the first OnStep call,
// since the Engine only learns stack_to_update's size once it starts, not
// before.
type barTracker struct {
	quiet bool
	bar   *progress.RebaseBar
}

func newBarTracker(quiet bool) *barTracker {
	return &barTracker{quiet: quiet}
}

func (t *barTracker) onStep(rebased, total int) {
	if t.bar == nil {
		t.bar = progress.NewRebaseBar(total, t.quiet)
	}
	t.bar.Advance(rebased)
}

func (t *barTracker) done() {
	if t.bar != nil {
		t.bar.Done()
	}
}

// renderRebaseResult turns the Engine's terminal states into CLI-appropriate
// exit behavior: a conflict is reported and resolved by the user, not a CLI
// failure, and login expiry gets actionable guidance instead of a stack trace.
func renderRebaseResult(cmd *cobra.Command, err error) error {
	out := cmd.OutOrStdout()
	switch {
	case err == nil:
		fmt.Fprintln(out, term.StdoutMode.Green("rebase complete"))
		return nil
	case rebase.IsErrConflict(err):
		fmt.Fprintln(out, term.StdoutMode.Yellow("conflict: resolve the shelved files by hand, then run 'p4stack continue'"))
		return nil
	case rebase.IsErrLoginRequired(err), errors.As(err, new(*vcs.ErrLoginRequired)):
		fmt.Fprintln(out, term.StdoutMode.Red("perforce session expired, run 'p4 login' and retry"))
		return nil
	default:
		return err
	}
}

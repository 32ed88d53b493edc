package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"clipstudio/internal/api"
	"clipstudio/internal/ipc"
	"clipstudio/internal/services"
)

const defaultWaitTimeout = 10 * time.Minute

type actionSpec struct {
	use      string
	action   string
	short    string
	args     cobra.PositionalArgs
	waitable bool
}

func newSessionCommands(ctx *commandContext) []*cobra.Command {
	defs := []actionSpec{
		{use: "submit <prompt>", action: "submit", short: "Generate a clip from a prompt", args: cobra.MinimumNArgs(1), waitable: true},
		{use: "recreate", action: "recreate", short: "Regenerate the last clip with its original prompt", args: cobra.NoArgs, waitable: true},
		{use: "add-clip", action: "add-clip", short: "Keep the current clips and prepare for the next prompt", args: cobra.NoArgs},
		{use: "retry-merge", action: "retry-merge", short: "Retry a failed stitch of the current clips", args: cobra.NoArgs, waitable: true},
		{use: "finalize", action: "finalize", short: "Save the current preview to the library", args: cobra.NoArgs, waitable: true},
		{use: "new-session", action: "new-session", short: "Discard the current session and start over", args: cobra.NoArgs},
	}
	cmds := make([]*cobra.Command, 0, len(defs)+1)
	for _, def := range defs {
		cmds = append(cmds, newActionCommand(ctx, def))
	}
	cmds = append(cmds, newSessionShowCommand(ctx))
	return cmds
}

func newActionCommand(ctx *commandContext, def actionSpec) *cobra.Command {
	var wait bool
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   def.use,
		Short: def.short,
		Args:  def.args,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.Join(args, " ")
			return ctx.withClient(func(client *ipc.Client) error {
				session, err := client.Act(def.action, prompt)
				if err != nil {
					return err
				}
				if wait {
					settled, waitErr := client.Wait(timeout)
					if waitErr != nil {
						if errors.Is(waitErr, context.DeadlineExceeded) {
							return fmt.Errorf("session still %s after %s: %w", sessionPhase(settled), timeout, waitErr)
						}
						return waitErr
					}
					session = settled
				}
				if err := printSession(cmd, ctx, *session); err != nil {
					return err
				}
				return sessionError(*session)
			})
		},
	}
	if def.waitable {
		cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Block until the session settles")
		cmd.Flags().DurationVar(&timeout, "timeout", defaultWaitTimeout, "Maximum time to wait with --wait")
	}
	return cmd
}

func newSessionShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "session",
		Aliases: []string{"show"},
		Short:   "Show the current session",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				session, err := client.Session()
				if err != nil {
					return err
				}
				return printSession(cmd, ctx, *session)
			})
		},
	}
}

func printSession(cmd *cobra.Command, ctx *commandContext, session api.Session) error {
	if ctx.jsonOutput() {
		return writeJSON(cmd, api.SessionResponse{Session: session})
	}
	out := cmd.OutOrStdout()
	renderSession(out, session, shouldColorize(out))
	return nil
}

func sessionPhase(session *api.Session) string {
	if session == nil || session.Phase == "" {
		return "busy"
	}
	return session.Phase
}

// sessionError turns a failed session into a classified error so the exit
// status reflects the failure.
func sessionError(session api.Session) error {
	if session.Phase != "failed" || session.Error == "" {
		return nil
	}
	if marker := services.MarkerForKind(session.ErrorKind); marker != nil {
		return fmt.Errorf("%w: %s", marker, session.Error)
	}
	return errors.New(session.Error)
}

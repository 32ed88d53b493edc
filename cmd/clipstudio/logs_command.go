package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"clipstudio/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var lines int
	var level string
	var component string
	var sessionID string
	var raw bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show daemon logs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			filter := logs.Filter{Component: component, SessionID: sessionID}
			if level != "" {
				minLevel, err := logs.ParseLevel(level)
				if err != nil {
					return err
				}
				filter.MinLevel = minLevel
			}
			out := cmd.OutOrStdout()
			emit := func(line string) { printLogLine(out, line, filter, raw) }

			path := cfg.DaemonLogPath()
			recent, offset, err := logs.Last(path, lines)
			if err != nil {
				return err
			}
			for _, line := range recent {
				emit(line)
			}
			if !follow {
				return nil
			}
			followCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return logs.Follow(followCtx, path, offset, 500*time.Millisecond, emit)
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new log lines")
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level to show (debug, info, warn, error)")
	cmd.Flags().StringVar(&component, "component", "", "Only show lines from this component")
	cmd.Flags().StringVar(&sessionID, "session", "", "Only show lines for this session id")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print JSON lines unformatted")
	return cmd
}

func printLogLine(out io.Writer, line string, filter logs.Filter, raw bool) {
	rec, ok := logs.Parse(line)
	if !ok {
		if !filter.Active() {
			fmt.Fprintln(out, line)
		}
		return
	}
	if !filter.MatchRecord(rec) {
		return
	}
	if raw {
		fmt.Fprintln(out, line)
		return
	}
	fmt.Fprintln(out, logs.Format(rec))
}

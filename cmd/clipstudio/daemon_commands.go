package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"clipstudio/internal/api"
	"clipstudio/internal/daemonctl"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	var startLogLevel string
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the clipstudio daemon in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}
			result, err := daemonctl.EnsureStarted(
				ctx.socketPath(),
				exe,
				daemonctl.LaunchOptions{
					SocketPath: ctx.socketPath(),
					ConfigPath: ctx.configPath(),
					LogLevel:   startLogLevel,
				},
				10*time.Second,
			)
			if err != nil {
				return err
			}
			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintf(stdout, "Daemon started (pid %d)\n", result.PID)
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			}
			return nil
		},
	}
	startCmd.Flags().StringVar(&startLogLevel, "log-level", "", "Log level for the launched daemon")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the clipstudio daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(ctx.socketPath(), ctx.configValue(), 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Daemon did not exit in time; killed pid %d\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, library, and session status",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := daemonctl.BuildStatusSnapshot(cmd.Context(), ctx.socketPath(), ctx.configValue())
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, status)
			}
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("System Status", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range daemonStatusLines(*status, colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout)
			if status.Running {
				renderSession(stdout, status.Session, colorize)
			}
			return nil
		},
	}

	return []*cobra.Command{startCmd, stopCmd, statusCmd}
}

func daemonStatusLines(status api.DaemonStatus, colorize bool) []string {
	lines := make([]string, 0, 8)
	if status.Running {
		detail := "Running"
		if status.PID > 0 {
			detail = "Running (pid " + strconv.Itoa(status.PID) + ")"
		}
		lines = append(lines, renderStatusLine("Daemon", statusOK, detail, colorize))
	} else {
		lines = append(lines, renderStatusLine("Daemon", statusWarn, "Not running (run `clipstudio start`)", colorize))
	}

	lib := status.Library
	switch {
	case lib.Reachable:
		detail := fmt.Sprintf("%s %s (%d videos, %d drafts, schema v%d)", lib.Driver, lib.Target, lib.Videos, lib.Drafts, lib.SchemaVersion)
		lines = append(lines, renderStatusLine("Library", statusOK, detail, colorize))
	case lib.Error != "":
		lines = append(lines, renderStatusLine("Library", statusError, lib.Error, colorize))
	default:
		lines = append(lines, renderStatusLine("Library", statusWarn, "Unknown", colorize))
	}

	lines = append(lines, renderStatusLine("Handoff", statusInfo, status.HandoffMode, colorize))
	archive := statusInfo
	if status.Archive {
		archive = statusOK
	}
	lines = append(lines, renderStatusLine("Archive", archive, yesNo(status.Archive), colorize))
	if status.APIAddress != "" {
		lines = append(lines, renderStatusLine("HTTP API", statusOK, status.APIAddress, colorize))
	}
	if status.SocketPath != "" {
		lines = append(lines, renderStatusLine("Socket", statusInfo, status.SocketPath, colorize))
	}
	if status.LogPath != "" {
		lines = append(lines, renderStatusLine("Log", statusInfo, status.LogPath, colorize))
	}
	return lines
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return exe, nil
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clipstudio/internal/api"
	"clipstudio/internal/ipc"
)

func newLibraryCommand(ctx *commandContext) *cobra.Command {
	libraryCmd := &cobra.Command{
		Use:   "library",
		Short: "Browse and manage finalized videos",
	}

	var limit int
	var sessionID string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List finalized videos, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.LibraryList(limit, sessionID)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.LibraryListResponse{Videos: resp.Videos})
				}
				renderVideos(cmd.OutOrStdout(), resp.Videos)
				return nil
			})
		},
	}
	listCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of videos to list (0 for all)")
	listCmd.Flags().StringVar(&sessionID, "session", "", "Only list videos finalized from this session")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a finalized video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				video, err := client.LibraryShow(args[0])
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.VideoResponse{Video: *video})
				}
				renderVideo(cmd.OutOrStdout(), *video)
				return nil
			})
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a video from the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if err := client.LibraryDelete(args[0]); err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.DeleteResponse{ID: args[0], Deleted: true})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted video %s\n", args[0])
				return nil
			})
		},
	}

	compileCmd := &cobra.Command{
		Use:   "compile <id> <id>...",
		Short: "Stitch library videos, in the order given, into a new video",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				video, err := client.LibraryCompile(args)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.VideoResponse{Video: *video})
				}
				renderVideo(cmd.OutOrStdout(), *video)
				return nil
			})
		},
	}

	libraryCmd.AddCommand(listCmd, showCmd, deleteCmd, compileCmd)
	return libraryCmd
}

package cli

import (
	"github.com/spf13/cobra"

	"puzzle-helper/internal/tui"
)

// NewRootCmd creates the root command and all subcommands for the CLI.
func NewRootCmd(a *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pzl",
		Short:         "Jigsaw Puzzle Helper client",
		Long:          "Register jigsaw puzzle projects, upload source images and track processing status.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	browse := &cobra.Command{
		Use:   "browse",
		Short: "Browse your puzzles interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.RequireUser(cmd.Context()); err != nil {
				return err
			}
			return tui.Run(cmd.Context(), a.API, a.Session, a.Logger)
		},
	}

	rootCmd.AddCommand(
		loginCmd(a),
		registerCmd(a),
		confirmCmd(a),
		logoutCmd(a),
		whoamiCmd(a),
		listCmd(a),
		createCmd(a),
		showCmd(a),
		uploadCmd(a),
		browse,
		watchCmd(a),
		doctorCmd(a),
	)
	return rootCmd
}

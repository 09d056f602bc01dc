package main

import (
	"errors"
	"os"

	"github.com/aretw0/parsetrail/internal/cli"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored sessions",
	Long:  `List, inspect, and remove sessions held by the configured store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		return cli.ListSessions(cmd.Context(), os.Stdout, app)
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Inspect the state of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		opts := cli.InspectOptions{}
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.Style, _ = cmd.Flags().GetString("style")
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			opts.Width = w
		}
		return cli.InspectSession(cmd.Context(), os.Stdout, app, args[0], opts)
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if !all && len(args) == 0 {
			return errors.New("rm needs at least one session id, or --all")
		}

		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		return cli.RemoveSessions(cmd.Context(), os.Stdout, app, args, all)
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)

	sessionInspectCmd.Flags().Bool("json", false, "Print the raw session as JSON")
	sessionInspectCmd.Flags().String("style", "", "Glamour style (dark, light, notty); detected when empty")
	sessionRmCmd.Flags().Bool("all", false, "Remove every session")
}

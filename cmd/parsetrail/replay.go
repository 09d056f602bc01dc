package main

import (
	"context"
	"os"

	"github.com/aretw0/parsetrail"
	"github.com/aretw0/parsetrail/internal/cli"
	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay [session-id]",
	Short: "Step through a parse in the terminal",
	Long: `Replays a session interactively. With --sentence, --grammar and --algorithm a new
trace is requested from the parsing service first; otherwise the stored session is resumed
at its cursor.

Keys: n or → next, p or ← previous, g first, G last, q quit.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		id := "default"
		if len(args) > 0 {
			id = args[0]
		}

		flags := cmd.Flags()
		once, _ := flags.GetBool("once")
		quiet, _ := flags.GetBool("quiet")
		window, _ := flags.GetInt("window")
		opts := cli.ReplayOptions{
			SessionID:   id,
			Interactive: !once,
			Window:      window,
			Quiet:       quiet,
			In:          os.Stdin,
			Out:         os.Stdout,
		}

		if flags.Changed("sentence") || flags.Changed("grammar") || flags.Changed("grammar-file") {
			in, err := parseInput(cmd)
			if err != nil {
				return err
			}
			opts.Input = &in
		}

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		return cli.HandleExecutionError(cli.RunReplay(sigCtx, app, opts))
	},
}

// parseInput collects the form fields from flags; the grammar may come from a file.
func parseInput(cmd *cobra.Command) (parsetrail.Input, error) {
	flags := cmd.Flags()
	in := parsetrail.Input{}
	in.Sentence, _ = flags.GetString("sentence")
	in.Grammar, _ = flags.GetString("grammar")
	in.Strategy, _ = flags.GetString("algorithm")
	in.Backtracking, _ = flags.GetBool("backtracking")

	if path, _ := flags.GetString("grammar-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return in, err
		}
		in.Grammar = string(data)
	}
	return in, nil
}

func init() {
	rootCmd.AddCommand(replayCmd)

	f := replayCmd.Flags()
	f.String("sentence", "", "Sentence to parse (space separated words)")
	f.String("grammar", "", "Grammar text, one rule per line")
	f.String("grammar-file", "", "Read the grammar from a file")
	f.String("algorithm", "top-down", "Parsing strategy: top-down or bottom-up")
	f.Bool("backtracking", false, "Use the backtracking variant")
	f.Bool("once", false, "Print the current step and exit")
	f.BoolP("quiet", "q", false, "Hide the banner and status lines")
	f.Int("window", 8, "History lines shown around the current step (0 shows all)")
}

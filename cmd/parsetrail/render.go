package main

import (
	"context"
	"os"

	"github.com/aretw0/parsetrail/internal/cli"
	"github.com/aretw0/parsetrail/internal/config"
	"github.com/aretw0/parsetrail/internal/presentation/layout"
	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render <trace.json>",
	Short: "Draw one step of a saved trace",
	Long: `Renders a trace saved from the parsing service without contacting it.
The file holds either the service response ({"steps": [...]}) with optional
"sentence", "grammar" and "algorithm" fields, or a bare array of steps.

Formats: text, svg, html, mmd (Mermaid), json.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := cli.NewLogger(cfg.Log)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		opts := cli.RenderOptions{
			Path:        args[0],
			StartSymbol: cfg.Replay.StartSymbol,
			Layout:      canvas(cfg),
			Out:         os.Stdout,
			Logger:      logger,
		}
		opts.Format, _ = flags.GetString("format")
		opts.Cursor, _ = flags.GetInt("step")
		opts.Algorithm, _ = flags.GetString("algorithm")
		opts.Sentence, _ = flags.GetString("sentence")
		if opts.Cursor > 0 {
			// Steps are numbered from 1 on the command line.
			opts.Cursor--
		}

		if watch, _ := flags.GetBool("watch"); watch {
			sigCtx := cli.NewSignalContext(context.Background())
			defer sigCtx.Cancel()
			return cli.WatchRender(sigCtx, opts, nil)
		}
		return cli.Render(cmd.Context(), opts)
	},
}

func canvas(cfg config.Config) layout.Options {
	opts := layout.DefaultOptions()
	opts.Width = float64(cfg.Replay.Width)
	opts.Height = float64(cfg.Replay.Height)
	return opts
}

func init() {
	rootCmd.AddCommand(renderCmd)

	f := renderCmd.Flags()
	f.StringP("format", "f", cli.FormatText, "Output format: text, svg, html, mmd, json")
	f.Int("step", cli.LastStep, "Step to draw, starting at 1 (-1 draws the last)")
	f.String("algorithm", "", "Override the algorithm stored in the file")
	f.String("sentence", "", "Override the sentence stored in the file")
	f.BoolP("watch", "w", false, "Render again whenever the file changes")
}

package main

import (
	"fmt"
	"os"

	"github.com/aretw0/parsetrail/internal/cli"
	"github.com/aretw0/parsetrail/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "parsetrail",
	Short: "parsetrail replays parsing traces step by step",
	Long: `parsetrail asks a parsing service for the trace of a sentence under a grammar,
stores it in a session, and lets you walk through the derivation one step at a time
in the terminal, in the browser, or from an MCP client.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to a YAML config file")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("log-format", "", "Log format: text or json")
	pf.String("store", "", "Session store: memory, file or redis")
	pf.String("store-dir", "", "Directory for the file store")
	pf.String("redis-addr", "", "Redis address for the redis store")
	pf.String("endpoint", "", "Parsing service URL")
}

// loadConfig reads the config file and environment, then applies the flags the user set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	var path string
	if f := cmd.Flag("config"); f != nil {
		path = f.Value.String()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	overrides := map[string]*string{
		"log-level":  &cfg.Log.Level,
		"log-format": &cfg.Log.Format,
		"store":      &cfg.Store.Backend,
		"store-dir":  &cfg.Store.Dir,
		"redis-addr": &cfg.Redis.Addr,
		"endpoint":   &cfg.Service.Endpoint,
	}
	for name, target := range overrides {
		if f := cmd.Flag(name); f != nil && f.Changed {
			*target = f.Value.String()
		}
	}
	return cfg, cfg.Validate()
}

// loadApp builds the wired runtime for a command.
func loadApp(cmd *cobra.Command) (*cli.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger, err := cli.NewLogger(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cli.NewApp(cfg, logger)
}

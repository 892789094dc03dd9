package main

import (
	"fmt"
	"os"

	"github.com/aretw0/switchboard/internal/cli"
	"github.com/aretw0/switchboard/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "switchboard",
	Short: "Switchboard routes a support conversation between specialized assistants",
	Long: `Switchboard runs a primary assistant that delegates to specialized controllers
(flights, hotels, car rentals, excursions). Sensitive actions pause the turn until
a human approves or denies them.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	f := rootCmd.PersistentFlags()
	f.String("config", "", "Config file (default ./switchboard.yaml)")
	f.StringSlice("env-file", []string{".env"}, "Dotenv files loaded before reading the environment")
	f.String("log-level", "info", "Log level: debug, info, warn or error")
	f.String("log-format", "text", "Log format: text or json")
	f.String("store", config.DriverMemory, "Session store: memory, file or redis")
	f.String("store-dir", ".switchboard/sessions", "Directory of the file store")
	f.String("redis-addr", "localhost:6379", "Redis address for the redis store")
	f.String("db", "travel.sqlite", "Path of the travel database")
	f.String("controllers", "", "Directory of Markdown controller descriptors (default: built-in catalog)")
	f.String("model", "", "Chat model name")
	f.String("base-url", "", "OpenAI-compatible API base URL")
	f.String("user", "", "Passenger id bound to new sessions")
	f.Int("max-steps", 25, "Maximum reasoning calls per turn")
	f.Duration("timeout", 0, "Turn timeout (0 uses the configured default)")
}

// loadConfig resolves configuration for cmd: defaults, file, env, then the flags the user set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	file, _ := cmd.Flags().GetString("config")
	envFiles, _ := cmd.Flags().GetStringSlice("env-file")
	return config.Load(config.Options{
		File:     file,
		EnvFiles: envFiles,
		Flags:    cmd.Flags(),
	})
}

// loadApp builds the engine for cmd. Callers must Close the app.
func loadApp(cmd *cobra.Command) (*cli.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return cli.Build(cmd.Context(), cfg)
}

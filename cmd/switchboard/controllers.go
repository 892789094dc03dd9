package main

import (
	"fmt"

	"github.com/aretw0/switchboard/internal/cli"
	"github.com/spf13/cobra"
)

var controllersCmd = &cobra.Command{
	Use:   "controllers",
	Short: "List the loaded controllers",
	Long: `Prints the primary and specialized controllers with their entry and tool sets.
With --watch and --controllers, the descriptor directory is revalidated on every change.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		watch, _ := cmd.Flags().GetBool("watch")
		if watch {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.ControllersDir == "" {
				return fmt.Errorf("--watch requires --controllers")
			}
			sigCtx := cli.NewSignalContext(cmd.Context())
			defer sigCtx.Cancel()
			logger, err := cli.Logger(cfg)
			if err != nil {
				return err
			}
			return cli.WatchControllers(sigCtx, cfg.ControllersDir, cmd.OutOrStdout(), logger)
		}

		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		output, _ := cmd.Flags().GetString("output")
		return cli.ListControllers(app, output, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(controllersCmd)
	controllersCmd.Flags().StringP("output", "o", cli.FormatTable, "Output format: table, json or yaml")
	controllersCmd.Flags().Bool("watch", false, "Revalidate the descriptor directory on every change")
}

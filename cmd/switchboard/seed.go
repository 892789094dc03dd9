package main

import (
	"time"

	"github.com/aretw0/switchboard/internal/cli"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Reset the travel database to the demo data",
	Long:  `Drops all bookings and reloads the demo flights, hotels, car rentals and excursions. Flight times are relative to now.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return cli.Seed(cmd.Context(), cfg.DB.Path, time.Now(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

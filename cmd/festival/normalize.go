package main

import (
	"festivalscheduling/config"

	"github.com/spf13/cobra"
)

var normalizeCmd = &cobra.Command{
	Use:     "normalize",
	Short:   "Renumber display orders of a festival to 0..n-1 per slot",
	Example: `  festival normalize --festival 5d1c8f0e-7a4b-4c1e-8a0d-2f3b4c5d6e7f`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		festivalID, _ := cmd.Flags().GetString("festival")
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg, config.NewLogger())
		if err != nil {
			return err
		}
		defer a.Close()
		return normalizeFestival(cmd.Context(), cmd.OutOrStdout(), a.festivalRepo, a.schedule, festivalID)
	},
}

func init() {
	normalizeCmd.Flags().String("festival", "", "festival ID")
	_ = normalizeCmd.MarkFlagRequired("festival")
	rootCmd.AddCommand(normalizeCmd)
}

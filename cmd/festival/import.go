package main

import (
	"fmt"
	"os"

	"festivalscheduling/config"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Reconcile a festival's sessions with a CSV schedule",
	Long: `import previews, or with --apply writes, the merge of a CSV schedule into a
festival. Sessions with bookings are never deleted; they are reported as flagged.`,
	Example: `  festival import --festival 5d1c8f0e-7a4b-4c1e-8a0d-2f3b4c5d6e7f --file schedule.csv
  festival import --festival 5d1c8f0e-7a4b-4c1e-8a0d-2f3b4c5d6e7f --file schedule.csv --apply`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		festivalID, _ := cmd.Flags().GetString("festival")
		path, _ := cmd.Flags().GetString("file")
		apply, _ := cmd.Flags().GetBool("apply")

		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open schedule: %w", err)
		}
		defer f.Close()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg, config.NewLogger())
		if err != nil {
			return err
		}
		defer a.Close()
		return importFestival(cmd.Context(), cmd.OutOrStdout(), a.festivalRepo, a.schedule, festivalID, f, apply)
	},
}

func init() {
	importCmd.Flags().String("festival", "", "festival ID")
	importCmd.Flags().String("file", "", "CSV schedule to import")
	importCmd.Flags().Bool("apply", false, "write the plan instead of previewing it")
	_ = importCmd.MarkFlagRequired("festival")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}

package main

import (
	"context"
	"fmt"
	"os"

	"festivalscheduling/config"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "festival",
	Short: "Festival scheduling API and maintenance tasks",
	Long: `festival serves the scheduling API and runs maintenance tasks against the
same database: schema migrations, display order normalization and schedule imports.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().String("database-url", "", "Postgres connection URL (overrides DATABASE_URL)")
}

// loadConfig reads configuration with the command's flags taking precedence.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(cfgFile, cmd.Flags())
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set via -ldflags at build time.
var version = "(devel)"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "worksheets",
		Short:         "Printable and interactive maths worksheets",
		Long:          "worksheets generates, stores, scores and serves maths worksheets for UK and US primary curricula.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if p, _ := cmd.Flags().GetString("config"); p != "" {
				return os.Setenv("CONFIG_FILE", p)
			}
			return nil
		},
	}
	root.PersistentFlags().String("config", "", "YAML config file (overrides CONFIG_FILE env var)")

	root.AddCommand(newServeCmd(), newScoreCmd(), newMigrateCmd(), &cobra.Command{
		Use:   "version",
		Short: "Print the current version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "worksheets", version)
		},
	})
	return root
}

package main

import (
	"fmt"

	"IndexVault/internal/notifier"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize the archive once and print the run summary",
	Long: `Run one synchronization against the configured workbook.

Fetch failures for individual symbols are reported as warnings. The command
exits non-zero only when the workbook could not be written.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	run, err := a.runner.Run(cmd.Context())
	fmt.Fprint(cmd.OutOrStdout(), notifier.FormatRunSummary(run))
	return err
}

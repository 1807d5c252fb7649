package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vistoria",
	Short: "vistoria - offline-first property inspection drafts",
	Long: `vistoria keeps property inspection drafts in a local store with
best-effort background sync to the inspection API. Drafts autosave
while captured, survive offline, and deletions never resurrect.`,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(migrateRemoteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

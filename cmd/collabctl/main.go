// Command collabctl is a small inspection tool for collab doc-state files:
// it can print a summary of an encoded Object and mint fresh ones for the
// three body kinds (document, folder, database).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "collabctl",
	Short: "Inspect and create collab doc-state files",
}

func init() {
	rootCmd.PersistentFlags().Int64("client-uid", 1, "client UID to stamp on the origin of anything written")
	rootCmd.PersistentFlags().String("device-id", "collabctl", "device ID to stamp on the origin of anything written")
	rootCmd.AddCommand(inspectCmd, newCmd)
}

// Command flywheelctl is a thin, in-process operator CLI for inspecting
// and driving a vault's flywheel state without running the long-lived
// flywheeld watcher.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var vaultFlag string

var rootCmd = &cobra.Command{
	Use:   "flywheelctl",
	Short: "Operator CLI for a flywheel-managed vault",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&vaultFlag, "vault", "", "path to the vault root (default: discover from cwd)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

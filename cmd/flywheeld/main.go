// Command flywheeld is the long-running core process: it builds the
// in-memory vault index, opens the on-disk state store, and watches the
// vault tree for changes, feeding every change through the batch pipeline.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var vaultFlag string

var rootCmd = &cobra.Command{
	Use:   "flywheeld",
	Short: "Flywheel memory core daemon",
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

// Package cli wires the typedstream decoder into a spf13/cobra command
// tree. It is the only package in this module allowed to print: wire and
// archive stay side-effect-free so they remain usable as a library.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tstream",
	Short: "Decode NXTypedStream archives",
	Long: `tstream decodes the NXTypedStream binary archive format used by
NeXTSTEP and Foundation's NSArchiver/NSUnarchiver.`,
}

// Execute runs the root command, exiting non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(browseCmd)
}

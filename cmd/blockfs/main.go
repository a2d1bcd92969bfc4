// file: cmd/blockfs/main.go

package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "blockfs",
	Short: "Manage blockfs disk images",
	Long: `blockfs stores a hierarchical namespace of files and directories
on a fixed-size simulated disk held in a single image file.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

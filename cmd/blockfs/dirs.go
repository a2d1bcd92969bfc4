// file: cmd/blockfs/dirs.go

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	var lsGeo imageGeometry
	lsCmd := &cobra.Command{
		Use:   "ls <image> <path>",
		Short: "List a directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := openImage(args[0], &lsGeo)
			if err != nil {
				return err
			}
			entries, err := fs.ReadDir(args[1])
			if err != nil {
				return fmt.Errorf("ls %s: %w", args[1], err)
			}
			for _, de := range entries {
				fmt.Printf("%-16s inode %d\n", de.Name, de.Inode)
			}
			return nil
		},
	}
	lsGeo.register(lsCmd)
	rootCmd.AddCommand(lsCmd)

	var mkdirGeo imageGeometry
	mkdirCmd := &cobra.Command{
		Use:   "mkdir <image> <path>",
		Short: "Create a directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := openImage(args[0], &mkdirGeo)
			if err != nil {
				return err
			}
			if err := fs.DirCreate(args[1]); err != nil {
				return fmt.Errorf("mkdir %s: %w", args[1], err)
			}
			return fs.Sync()
		},
	}
	mkdirGeo.register(mkdirCmd)
	rootCmd.AddCommand(mkdirCmd)

	var rmdirGeo imageGeometry
	rmdirCmd := &cobra.Command{
		Use:   "rmdir <image> <path>",
		Short: "Remove an empty directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := openImage(args[0], &rmdirGeo)
			if err != nil {
				return err
			}
			if err := fs.DirUnlink(args[1]); err != nil {
				return fmt.Errorf("rmdir %s: %w", args[1], err)
			}
			return fs.Sync()
		},
	}
	rmdirGeo.register(rmdirCmd)
	rootCmd.AddCommand(rmdirCmd)
}

// file: cmd/blockfs/files.go

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	var putGeo imageGeometry
	putCmd := &cobra.Command{
		Use:   "put <image> <host-file> <path>",
		Short: "Copy a host file into the image",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := openImage(args[0], &putGeo)
			if err != nil {
				return err
			}
			if err := fs.ImportFile(args[1], args[2]); err != nil {
				return fmt.Errorf("put %s: %w", args[2], err)
			}
			return fs.Sync()
		},
	}
	putGeo.register(putCmd)
	rootCmd.AddCommand(putCmd)

	var getGeo imageGeometry
	getCmd := &cobra.Command{
		Use:   "get <image> <path> <host-file>",
		Short: "Copy a file out of the image",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := openImage(args[0], &getGeo)
			if err != nil {
				return err
			}
			if err := fs.ExportFile(args[1], args[2]); err != nil {
				return fmt.Errorf("get %s: %w", args[1], err)
			}
			return nil
		},
	}
	getGeo.register(getCmd)
	rootCmd.AddCommand(getCmd)

	var rmGeo imageGeometry
	rmCmd := &cobra.Command{
		Use:   "rm <image> <path>",
		Short: "Remove a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := openImage(args[0], &rmGeo)
			if err != nil {
				return err
			}
			if err := fs.FileUnlink(args[1]); err != nil {
				return fmt.Errorf("rm %s: %w", args[1], err)
			}
			return fs.Sync()
		},
	}
	rmGeo.register(rmCmd)
	rootCmd.AddCommand(rmCmd)
}

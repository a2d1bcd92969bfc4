// file: cmd/blockfs/image.go

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quarnos/blockfs/pkg/blockfs"
)

// imageGeometry collects the geometry flags shared by the commands
// that open or create an image.
type imageGeometry struct {
	sectorSize        int
	totalSectors      int
	maxFiles          int
	maxSectorsPerFile int
}

func (ig *imageGeometry) register(cmd *cobra.Command) {
	def := blockfs.DefaultGeometry()
	cmd.Flags().IntVar(&ig.sectorSize, "sector-size", def.SectorSize, "bytes per sector")
	cmd.Flags().IntVar(&ig.totalSectors, "sectors", def.TotalSectors, "disk size in sectors")
	cmd.Flags().IntVar(&ig.maxFiles, "max-files", def.MaxFiles, "maximum number of inodes")
	cmd.Flags().IntVar(&ig.maxSectorsPerFile, "max-file-sectors", def.MaxSectorsPerFile, "data sectors per file")
}

func (ig *imageGeometry) geometry() blockfs.Geometry {
	return blockfs.Geometry{
		SectorSize:        ig.sectorSize,
		TotalSectors:      ig.totalSectors,
		MaxFiles:          ig.maxFiles,
		MaxSectorsPerFile: ig.maxSectorsPerFile,
	}
}

func openImage(path string, ig *imageGeometry) (*blockfs.FileSystem, error) {
	fs, err := blockfs.BootGeometry(path, ig.geometry())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return fs, nil
}

func init() {
	var ig imageGeometry
	var force bool
	createCmd := &cobra.Command{
		Use:   "create <image>",
		Short: "Create and format a new disk image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := os.Stat(path); err == nil {
				if !force {
					return fmt.Errorf("file already exists: %s (use --force to overwrite)", path)
				}
				if err := os.Remove(path); err != nil {
					return err
				}
			}
			fs, err := openImage(path, &ig)
			if err != nil {
				return err
			}
			g := fs.Geometry()
			fmt.Printf("created %s (%d sectors of %d bytes, %d inodes)\n",
				path, g.TotalSectors, g.SectorSize, g.MaxFiles)
			return nil
		},
	}
	ig.register(createCmd)
	createCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	rootCmd.AddCommand(createCmd)

	var infoGeo imageGeometry
	infoCmd := &cobra.Command{
		Use:   "info <image>",
		Short: "Show image geometry and usage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := openImage(args[0], &infoGeo)
			if err != nil {
				return err
			}
			st, err := fs.Stats()
			if err != nil {
				return err
			}
			g := fs.Geometry()
			fmt.Printf("sector size:   %d bytes\n", g.SectorSize)
			fmt.Printf("total sectors: %d\n", g.TotalSectors)
			fmt.Printf("inodes:        %d / %d used\n", st.InodesUsed, st.InodesTotal)
			fmt.Printf("sectors:       %d / %d used (%d reserved)\n",
				st.SectorsUsed, st.SectorsTotal, g.DataStart())
			return nil
		},
	}
	infoGeo.register(infoCmd)
	rootCmd.AddCommand(infoCmd)

	var checkGeo imageGeometry
	checkCmd := &cobra.Command{
		Use:   "check <image>",
		Short: "Verify image consistency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := openImage(args[0], &checkGeo)
			if err != nil {
				return err
			}
			if err := fs.Check(); err != nil {
				return fmt.Errorf("check failed: %w", err)
			}
			fmt.Println("image is consistent")
			return nil
		},
	}
	checkGeo.register(checkCmd)
	rootCmd.AddCommand(checkCmd)
}

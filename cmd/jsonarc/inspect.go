package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <archive>",
	Short: "Print an archive's layout sizes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openArchive(args[0])
		if err != nil {
			return err
		}
		defer r.Close()

		info := r.Info()
		fmt.Printf("string table entries: %d\n", info.StringTableEntryCount)
		fmt.Printf("string table size:    %d bytes\n", info.StringTableSize)
		fmt.Printf("record body size:     %d bytes\n", info.RecordBodySize)
		fmt.Printf("sid index size:       %d bytes\n", info.SidIndexSize)
		fmt.Printf("sorted (read-opt.):   %t\n", info.Sorted)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

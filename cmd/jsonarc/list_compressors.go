package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jsonarc/jsonarc/pack"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List archive subsystems",
}

var listCompressorsCmd = &cobra.Command{
	Use:   "compressors",
	Short: "Enumerate registered string-table compressors",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, c := range pack.Registry() {
			fmt.Printf("%-8s flag=0x%02x\n", c.Name(), c.FlagBit())
		}

		return nil
	},
}

func init() {
	listCmd.AddCommand(listCompressorsCmd)
	rootCmd.AddCommand(listCmd)
}

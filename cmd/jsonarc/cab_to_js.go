package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jsonarc/jsonarc/archive"
	"github.com/jsonarc/jsonarc/jsonconv"
)

var cabToJSCmd = &cobra.Command{
	Use:   "cab-to-js <archive>",
	Short: "Emit an archive's contents as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openArchive(args[0])
		if err != nil {
			return err
		}
		defer r.Close()

		root, err := r.Root()
		if err != nil {
			return err
		}
		obj, err := root.Materialize()
		if err != nil {
			return err
		}

		q := archive.NewQuery(r, true)
		data, err := jsonconv.Encode(obj, q)
		if err != nil {
			return err
		}

		fmt.Println(string(data))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(cabToJSCmd)
}

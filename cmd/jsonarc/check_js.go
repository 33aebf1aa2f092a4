package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var checkJSCmd = &cobra.Command{
	Use:   "check-js <files...>",
	Short: "Validate that each file contains well-formed JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var bad int
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
				bad++
				continue
			}
			if !json.Valid(data) {
				fmt.Fprintf(os.Stderr, "%s: invalid JSON\n", path)
				bad++
				continue
			}
			fmt.Printf("%s: ok\n", path)
		}

		if bad > 0 {
			return fmt.Errorf("%d of %d files failed validation", bad, len(args))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkJSCmd)
}

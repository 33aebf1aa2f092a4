package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jsonarc/jsonarc/archive"
	"github.com/jsonarc/jsonarc/internal/oid"
	"github.com/jsonarc/jsonarc/jsonconv"
	"github.com/jsonarc/jsonarc/pack"
	"github.com/jsonarc/jsonarc/strdict"
)

var convertFlags struct {
	forceOverwrite bool
	silent         bool
	sizeOptimized  bool
	readOptimized  bool
	noSidIndex     bool
	compressor     string
	dicType        string
	dicNThreads    int
}

var convertCmd = &cobra.Command{
	Use:   "convert <out> <in>",
	Short: "Build a columnar archive from a JSON file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, in := args[0], args[1]

		if convertFlags.readOptimized && convertFlags.sizeOptimized {
			return fmt.Errorf("--read-optimized and --size-optimized are mutually exclusive")
		}

		if !convertFlags.forceOverwrite {
			if _, err := os.Stat(out); err == nil {
				return fmt.Errorf("%s already exists; pass --force-overwrite to replace it", out)
			}
		}

		data, err := os.ReadFile(in)
		if err != nil {
			return err
		}

		packer, err := pack.ByName(convertFlags.compressor)
		if err != nil {
			return err
		}

		dict, err := newDict(convertFlags.dicType, convertFlags.dicNThreads)
		if err != nil {
			return err
		}

		doc, err := jsonconv.Decode(data, dict, oid.NewGenerator())
		if err != nil {
			return fmt.Errorf("decoding %s: %w", in, err)
		}

		w := archive.NewWriter(
			archive.WithPacker(packer),
			archive.WithSorted(convertFlags.readOptimized),
			archive.WithSidIndex(!convertFlags.noSidIndex),
		)
		archived, err := w.Write(doc, dict)
		if err != nil {
			return fmt.Errorf("writing archive: %w", err)
		}

		if err := os.WriteFile(out, archived, 0o644); err != nil {
			return err
		}

		if !convertFlags.silent {
			fmt.Printf("wrote %s (%d bytes)\n", out, len(archived))
		}

		return nil
	},
}

// newDict builds the dictionary backing a conversion, honoring --dic-type.
func newDict(kind string, nThreads int) (strdict.Dict, error) {
	switch kind {
	case "", "sync":
		return strdict.NewSync(1024, 0.01), nil
	case "async":
		if nThreads <= 0 {
			nThreads = 4
		}
		return strdict.NewSharded(nThreads, 256, 0.01)
	default:
		return nil, fmt.Errorf("unknown --dic-type %q (want sync or async)", kind)
	}
}

func init() {
	convertCmd.Flags().BoolVar(&convertFlags.forceOverwrite, "force-overwrite", false, "overwrite an existing output file")
	convertCmd.Flags().BoolVar(&convertFlags.silent, "silent", false, "suppress progress output")
	convertCmd.Flags().BoolVar(&convertFlags.sizeOptimized, "size-optimized", false, "has no effect on the output; cannot be combined with --read-optimized")
	convertCmd.Flags().BoolVar(&convertFlags.readOptimized, "read-optimized", false, "sort property keys for binary-search lookups")
	convertCmd.Flags().BoolVar(&convertFlags.noSidIndex, "no-string-id-index", false, "skip building the sid->offset secondary index")
	convertCmd.Flags().StringVar(&convertFlags.compressor, "compressor", "none", "string-table compressor: none, huffman, zstd or lz4")
	convertCmd.Flags().StringVar(&convertFlags.dicType, "dic-type", "sync", "dictionary construction strategy: sync or async")
	convertCmd.Flags().IntVar(&convertFlags.dicNThreads, "dic-nthreads", 4, "shard count for --dic-type=async")

	rootCmd.AddCommand(convertCmd)
}

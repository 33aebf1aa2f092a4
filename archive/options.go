package archive

import (
	"github.com/jsonarc/jsonarc/internal/options"
	"github.com/jsonarc/jsonarc/pack"
)

type writerConfig struct {
	packer      pack.Codec
	sorted      bool
	buildIndex  bool
}

// WriterOption configures a Writer.
type WriterOption = options.Option[*writerConfig]

// WithPacker selects the compression strategy for the embedded string
// table. Defaults to pack.None.
func WithPacker(p pack.Codec) WriterOption {
	return options.NoError(func(c *writerConfig) { c.packer = p })
}

// WithSorted marks the archive as read-optimized: every property group's
// sid-key column must already be in ascending order.
func WithSorted(sorted bool) WriterOption {
	return options.NoError(func(c *writerConfig) { c.sorted = sorted })
}

// WithSidIndex requests the post-finalization sid->offset index bake
// pass.
func WithSidIndex(build bool) WriterOption {
	return options.NoError(func(c *writerConfig) { c.buildIndex = build })
}

func defaultWriterConfig() *writerConfig {
	return &writerConfig{packer: pack.NewNone()}
}

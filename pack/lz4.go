package pack

import (
	"fmt"
	"sync"

	"github.com/pierrec/lz4/v4"

	"github.com/jsonarc/jsonarc/bitfile"
	"github.com/jsonarc/jsonarc/errs"
)

// lz4CompressorPool reuses lz4.Compressor instances, which carry internal
// hash-table state worth keeping warm across strings.
var lz4CompressorPool = sync.Pool{
	New: func() any { return &lz4.Compressor{} },
}

// LZ4 compresses each string independently with LZ4, prefixed by its own
// compressed-byte length.
type LZ4 struct{}

var _ Codec = LZ4{}

// NewLZ4 constructs the LZ4 strategy.
func NewLZ4() Codec { return LZ4{} }

func (LZ4) Name() string     { return "lz4" }
func (LZ4) FlagBit() byte    { return FlagLZ4 }
func (LZ4) Copy() Codec      { return LZ4{} }
func (LZ4) Describe() string { return "lz4: per-string fast-path compression" }

func (LZ4) WriteExtra(dst *bitfile.File, strings []string) error { return nil }

func (LZ4) ReadExtra(src *bitfile.File, extraSize int) error {
	if extraSize == 0 {
		return nil
	}

	return src.Skip(extraSize)
}

func (LZ4) EncodeString(dst *bitfile.File, s string) error {
	data := []byte(s)
	buf := make([]byte, lz4.CompressBlockBound(len(data)))

	c, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(c)

	n, err := c.CompressBlock(data, buf)
	if err != nil {
		return err
	}

	// CompressBlock returns n == 0 when the data is incompressible; a
	// leading raw flag byte disambiguates that case on decode.
	if n == 0 {
		if err := dst.WriteU8(1); err != nil {
			return err
		}
		if err := dst.WriteU32(uint32(len(data))); err != nil {
			return err
		}

		return dst.Write(data)
	}

	if err := dst.WriteU8(0); err != nil {
		return err
	}
	if err := dst.WriteU32(uint32(n)); err != nil {
		return err
	}

	return dst.Write(buf[:n])
}

func (LZ4) DecodeString(src *bitfile.File, n int) (string, error) {
	raw, err := src.ReadU8()
	if err != nil {
		return "", err
	}

	compressedLen, err := src.ReadU32()
	if err != nil {
		return "", err
	}

	compressed, err := src.Read(int(compressedLen))
	if err != nil {
		return "", err
	}

	if raw == 1 {
		return string(compressed), nil
	}

	out := make([]byte, n)
	written, err := lz4.UncompressBlock(compressed, out)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errs.ErrDecompressFailed, err)
	}
	if written != n {
		return "", errs.ErrDecompressFailed
	}

	return string(out), nil
}

package pack

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/jsonarc/jsonarc/bitfile"
	"github.com/jsonarc/jsonarc/errs"
)

// zstdEncoderPool and zstdDecoderPool reuse warmed-up codec instances
// across strings, per klauspost/compress/zstd's own reuse guidance.
var (
	zstdEncoderPool = sync.Pool{
		New: func() any {
			enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
			if err != nil {
				panic(fmt.Sprintf("pack: failed to create zstd encoder: %v", err))
			}

			return enc
		},
	}
	zstdDecoderPool = sync.Pool{
		New: func() any {
			dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
			if err != nil {
				panic(fmt.Sprintf("pack: failed to create zstd decoder: %v", err))
			}

			return dec
		},
	}
)

// Zstd compresses each string independently with Zstandard, prefixed by its
// own compressed-byte length since that can't be derived from the string's
// original length alone.
type Zstd struct{}

var _ Codec = Zstd{}

// NewZstd constructs the Zstandard strategy.
func NewZstd() Codec { return Zstd{} }

func (Zstd) Name() string     { return "zstd" }
func (Zstd) FlagBit() byte    { return FlagZstd }
func (Zstd) Copy() Codec      { return Zstd{} }
func (Zstd) Describe() string { return "zstd: per-string dictionary compression" }

func (Zstd) WriteExtra(dst *bitfile.File, strings []string) error { return nil }

func (Zstd) ReadExtra(src *bitfile.File, extraSize int) error {
	if extraSize == 0 {
		return nil
	}

	return src.Skip(extraSize)
}

func (Zstd) EncodeString(dst *bitfile.File, s string) error {
	enc, _ := zstdEncoderPool.Get().(*zstd.Encoder)
	defer zstdEncoderPool.Put(enc)

	compressed := enc.EncodeAll([]byte(s), nil)

	if err := dst.WriteU32(uint32(len(compressed))); err != nil {
		return err
	}

	return dst.Write(compressed)
}

func (Zstd) DecodeString(src *bitfile.File, n int) (string, error) {
	compressedLen, err := src.ReadU32()
	if err != nil {
		return "", err
	}

	compressed, err := src.Read(int(compressedLen))
	if err != nil {
		return "", err
	}

	dec, _ := zstdDecoderPool.Get().(*zstd.Decoder)
	defer zstdDecoderPool.Put(dec)

	out, err := dec.DecodeAll(compressed, make([]byte, 0, n))
	if err != nil {
		return "", fmt.Errorf("%w: %w", errs.ErrDecompressFailed, err)
	}
	if len(out) != n {
		return "", errs.ErrDecompressFailed
	}

	return string(out), nil
}

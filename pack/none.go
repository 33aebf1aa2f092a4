package pack

import "github.com/jsonarc/jsonarc/bitfile"

// None writes strings as their raw bytes, with no side data and no
// compression.
type None struct{}

var _ Codec = None{}

// NewNone constructs the no-compression strategy.
func NewNone() Codec { return None{} }

func (None) Name() string    { return "none" }
func (None) FlagBit() byte   { return FlagNone }
func (None) Copy() Codec     { return None{} }
func (None) Describe() string { return "none: raw bytes, no side data" }

func (None) WriteExtra(dst *bitfile.File, strings []string) error { return nil }

func (None) ReadExtra(src *bitfile.File, extraSize int) error {
	if extraSize == 0 {
		return nil
	}

	return src.Skip(extraSize)
}

func (None) EncodeString(dst *bitfile.File, s string) error {
	return dst.Write([]byte(s))
}

func (None) DecodeString(src *bitfile.File, n int) (string, error) {
	b, err := src.Read(n)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

package asset

import (
	"fmt"
	"strings"
)

// CompressOptions controls the geometry compression step.
type CompressOptions struct {
	Level        int // 0-10
	PositionBits int
	NormalBits   int // NORMAL and TANGENT
	TexcoordBits int
	ColorBits    int
	GenericBits  int // any other float attribute

	// UncompressedFallback keeps the original vertex data next to the
	// compressed payload so clients without the extension still render.
	UncompressedFallback bool

	// Suffix is appended to the base name of the compressed output.
	Suffix string
}

func DefaultCompressOptions() CompressOptions {
	return CompressOptions{
		Level:                10,
		PositionBits:         14,
		NormalBits:           10,
		TexcoordBits:         12,
		ColorBits:            8,
		GenericBits:          12,
		UncompressedFallback: true,
		Suffix:               "-draco",
	}
}

// Validate checks ranges; every bit depth must be within 1-30.
func (o CompressOptions) Validate() error {
	if o.Level < 0 || o.Level > 10 {
		return fmt.Errorf("%w: level %d outside 0-10", ErrInvalidOptions, o.Level)
	}
	for name, bits := range map[string]int{
		"position": o.PositionBits,
		"normal":   o.NormalBits,
		"texcoord": o.TexcoordBits,
		"color":    o.ColorBits,
		"generic":  o.GenericBits,
	} {
		if bits < 1 || bits > 30 {
			return fmt.Errorf("%w: %s bits %d outside 1-30", ErrInvalidOptions, name, bits)
		}
	}
	if o.Suffix == "" {
		return fmt.Errorf("%w: empty output suffix", ErrInvalidOptions)
	}
	return nil
}

// bitsFor picks the quantization depth for a vertex attribute semantic.
func (o CompressOptions) bitsFor(semantic string) int {
	switch {
	case semantic == "POSITION":
		return o.PositionBits
	case semantic == "NORMAL", semantic == "TANGENT":
		return o.NormalBits
	case strings.HasPrefix(semantic, "TEXCOORD_"):
		return o.TexcoordBits
	case strings.HasPrefix(semantic, "COLOR_"):
		return o.ColorBits
	default:
		return o.GenericBits
	}
}

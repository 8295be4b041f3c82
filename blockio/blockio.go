// Package blockio defines the pixel-block input types and shared flags used
// by every block-compression encoder entry point in this module.
package blockio

import "github.com/x448/float16"

// PixelBlockU8 holds one 4x4 block of 8-bit RGBA pixels, row-major,
// pixel[0] at the top-left. Used by BC7 and ETC1/ETC2.
type PixelBlockU8 struct {
	Pixels [16][4]uint8
}

// PixelBlockF16 holds one 4x4 block of half-float RGB pixels (alpha is not
// part of the BC6H wire format and is ignored). Values are IEEE-754 binary16
// bit patterns, not the BC6H-internal sign-magnitude integer space that the
// encoder searches over internally.
type PixelBlockF16 struct {
	Pixels [16][3]uint16
}

// RGBFloat32 decodes the block's half-float pixels to float32 for test
// fixtures and diagnostics.
func (b PixelBlockF16) RGBFloat32() (out [16][3]float32) {
	for px := 0; px < 16; px++ {
		for ch := 0; ch < 3; ch++ {
			out[px][ch] = float16.Frombits(b.Pixels[px][ch]).Float32()
		}
	}
	return out
}

// PixelBlockF16FromFloat32 builds a block from float32 RGB triples, rounding
// to the nearest representable half float.
func PixelBlockF16FromFloat32(rgb [16][3]float32) (b PixelBlockF16) {
	for px := 0; px < 16; px++ {
		for ch := 0; ch < 3; ch++ {
			b.Pixels[px][ch] = float16.Fromfloat32(rgb[px][ch]).Bits()
		}
	}
	return b
}

// PixelBlockScalarS16 holds 16 signed 16-bit scalars, one per pixel, used to
// feed the ETC2 R11/RG11 EAC alpha encoder.
type PixelBlockScalarS16 struct {
	Values [16]int16
}

// Flags is a bitset of optional encoder behaviors.
type Flags uint32

const (
	// BC7FastIndexing selects the single best index per pixel, skipping the
	// ±1 tiebreak probe.
	BC7FastIndexing Flags = 1 << iota
	// BC7TrySingleColor enables the single-color table short-circuit.
	BC7TrySingleColor
	// BC7RespectPunchThrough suppresses BC7 modes that would break an
	// already-punch-through alpha channel (α ∈ {0,255}).
	BC7RespectPunchThrough
	// BC6HFastIndexing selects the single best HDR index per pixel,
	// skipping the ±1 tiebreak probe. HDR index assignment works in the
	// BC6H internal integer space with or without this flag.
	BC6HFastIndexing
	// ETCUseFakeBT709 scores candidates in the fake-BT.709 YUV-like basis
	// instead of raw RGB squared error.
	ETCUseFakeBT709
	// ETCFakeBT709Accurate, combined with ETCUseFakeBT709, rounds the ETC1
	// half-block base colors by an 8-octant search in the fake-BT.709 basis
	// instead of plain round-to-nearest. The planar, T and H modes do not
	// depend on this flag.
	ETCFakeBT709Accurate
	// Uniform ignores channel weights (and overrides ETCUseFakeBT709),
	// treating every channel weight as 1.
	Uniform
)

// Has reports whether every bit in want is set in f.
func (f Flags) Has(want Flags) bool { return f&want == want }

// ChannelWeights are the per-channel (R,G,B,A) squared-error weights used by
// errorcalc.Accumulator and the endpoint selector/refiner.
type ChannelWeights [4]float32

// DefaultWeights is the uniform (1,1,1,1) weight vector.
var DefaultWeights = ChannelWeights{1, 1, 1, 1}

package etc

import (
	"testing"

	"github.com/blockforge/texcomp/blockio"
	"github.com/stretchr/testify/require"
)

func solidBlock(r, g, b, a uint8) blockio.PixelBlockU8 {
	var blk blockio.PixelBlockU8
	for i := range blk.Pixels {
		blk.Pixels[i] = [4]uint8{r, g, b, a}
	}
	return blk
}

func TestETC1SolidRoundTrip(t *testing.T) {
	blk := solidBlock(60, 100, 180, 255)
	out := EncodeETC1Block(blk, blockio.DefaultWeights, 0, nil)

	decoded := UnpackColorOne(out)
	for px := 0; px < 16; px++ {
		for ch := 0; ch < 3; ch++ {
			require.InDelta(t, float64(blk.Pixels[px][ch]), float64(decoded.Pixels[px][ch]), 8,
				"pixel %d channel %d", px, ch)
		}
	}
}

// A sharp chromatic split should land in T or H mode, not
// planar, and decode within 8 units per channel.
func TestETC2SharpSplitPicksTOrH(t *testing.T) {
	var blk blockio.PixelBlockU8
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			px := y*4 + x
			if x < 2 {
				blk.Pixels[px] = [4]uint8{255, 0, 0, 255}
			} else {
				blk.Pixels[px] = [4]uint8{0, 255, 0, 255}
			}
		}
	}

	out := EncodeETC2Block(blk, blockio.DefaultWeights, 0, NewCompressionData())

	highBits := uint32(out[0])<<24 | uint32(out[1])<<16 | uint32(out[2])<<8 | uint32(out[3])
	require.NotZero(t, highBits>>1&1, "sharp split must not use individual mode")

	r := int(highBits >> 27 & 31)
	dr := signExtend3(int(highBits >> 24 & 7))
	g := int(highBits >> 19 & 31)
	dg := signExtend3(int(highBits >> 16 & 7))
	rOverflow := r+dr < 0 || r+dr > 31
	gOverflow := g+dg < 0 || g+dg > 31
	require.True(t, rOverflow || gOverflow, "expected the T or H signature")

	decoded := UnpackColorOne(out)
	for px := 0; px < 16; px++ {
		for ch := 0; ch < 3; ch++ {
			require.InDelta(t, float64(blk.Pixels[px][ch]), float64(decoded.Pixels[px][ch]), 8,
				"pixel %d channel %d", px, ch)
		}
	}
}

// A smooth two-axis gradient is planar's home turf; whatever mode wins must
// still reconstruct it closely.
func TestETC2GradientRoundTrip(t *testing.T) {
	var blk blockio.PixelBlockU8
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			blk.Pixels[y*4+x] = [4]uint8{
				uint8(40 + x*20),
				uint8(60 + y*20),
				uint8(80 + x*10 + y*10),
				255,
			}
		}
	}

	out := EncodeETC2Block(blk, blockio.DefaultWeights, 0, NewCompressionData())
	decoded := UnpackColorOne(out)
	for px := 0; px < 16; px++ {
		for ch := 0; ch < 3; ch++ {
			require.InDelta(t, float64(blk.Pixels[px][ch]), float64(decoded.Pixels[px][ch]), 16,
				"pixel %d channel %d", px, ch)
		}
	}
}

func TestETC2FakeBT709ModesDecode(t *testing.T) {
	var blk blockio.PixelBlockU8
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			blk.Pixels[y*4+x] = [4]uint8{uint8(x * 80), uint8(200 - y*40), 90, 255}
		}
	}

	for _, flags := range []blockio.Flags{
		blockio.ETCUseFakeBT709,
		blockio.ETCUseFakeBT709 | blockio.ETCFakeBT709Accurate,
	} {
		out := EncodeETC2Block(blk, blockio.DefaultWeights, flags, NewCompressionData())
		decoded := UnpackColorOne(out)
		for px := 0; px < 16; px++ {
			for ch := 0; ch < 3; ch++ {
				require.InDelta(t, float64(blk.Pixels[px][ch]), float64(decoded.Pixels[px][ch]), 60,
					"flags %v pixel %d channel %d", flags, px, ch)
			}
		}
	}
}

func TestDifferentialLegality(t *testing.T) {
	require.True(t, differentialIsLegalForChannelScalar(10, 13))
	require.True(t, differentialIsLegalForChannelScalar(10, 6))
	require.False(t, differentialIsLegalForChannelScalar(10, 14))
	require.False(t, differentialIsLegalForChannelScalar(10, 5))

	a := 10 | 20<<5 | 30<<10
	require.True(t, differentialIsLegalScalar(a, 13|17<<5|27<<10))
	require.False(t, differentialIsLegalScalar(a, 13|17<<5|25<<10))
}

func TestEACAlphaSolidExact(t *testing.T) {
	blk := solidBlock(0, 0, 0, 137)
	out := EncodeEACAlphaBlock(blk)

	alpha := UnpackAlphaOne(out)
	for px := 0; px < 16; px++ {
		require.Equal(t, uint8(137), alpha[px], "pixel %d", px)
	}
}

// An already punch-through alpha channel (every pixel 0 or
// 255) is reproduced exactly by the alpha encoder.
func TestEACAlphaPunchThroughExact(t *testing.T) {
	var blk blockio.PixelBlockU8
	for px := 0; px < 16; px++ {
		a := uint8(0)
		if px%2 == 0 {
			a = 255
		}
		blk.Pixels[px] = [4]uint8{uint8(px * 16), 50, 200, a}
	}

	out := EncodeEACAlphaBlock(blk)
	alpha := UnpackAlphaOne(out)
	for px := 0; px < 16; px++ {
		require.Equal(t, blk.Pixels[px][3], alpha[px], "pixel %d", px)
	}
}

func TestEACAlphaGradientRoundTrip(t *testing.T) {
	var blk blockio.PixelBlockU8
	for px := 0; px < 16; px++ {
		blk.Pixels[px] = [4]uint8{0, 0, 0, uint8(30 + px*12)}
	}

	out := EncodeEACAlphaBlock(blk)
	alpha := UnpackAlphaOne(out)
	for px := 0; px < 16; px++ {
		require.InDelta(t, float64(blk.Pixels[px][3]), float64(alpha[px]), 12, "pixel %d", px)
	}
}

func TestModifierTablesWellFormed(t *testing.T) {
	for ti, table := range modifierTables {
		for i := 1; i < 4; i++ {
			require.Less(t, table[i-1], table[i], "table %d not ascending", ti)
		}
		require.Equal(t, -table[3], table[0], "table %d not symmetric", ti)
		require.Equal(t, -table[2], table[1], "table %d not symmetric", ti)
	}

	for code := 0; code < 4; code++ {
		// modifierCodes and hwModifier must be inverses.
		for ti := range modifierTables {
			for s := 0; s < 4; s++ {
				if modifierCodes[s] == code {
					require.Equal(t, modifierTables[ti][s], hwModifier(ti, code))
				}
			}
		}
	}
}

func TestPotentialOffsetsContainZeroAndSorted(t *testing.T) {
	for ti, offsets := range potentialOffsets {
		require.Contains(t, offsets, 0, "table %d", ti)
		for i := 1; i < len(offsets); i++ {
			require.Less(t, offsets[i-1], offsets[i], "table %d not sorted", ti)
		}
	}
}

func TestPixelSelectorOrderIsInvolution(t *testing.T) {
	for px := 0; px < 16; px++ {
		require.Equal(t, px, pixelSelectorOrder[pixelSelectorOrder[px]])
	}
}

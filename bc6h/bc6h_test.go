package bc6h

import (
	"testing"

	"github.com/blockforge/texcomp/blockio"
	"github.com/stretchr/testify/require"
)

func solidF16(r, g, b float32) blockio.PixelBlockF16 {
	var rgb [16][3]float32
	for i := range rgb {
		rgb[i] = [3]float32{r, g, b}
	}
	return blockio.PixelBlockF16FromFloat32(rgb)
}

// Round-trip identity under trivial blocks: a solid
// unsigned HDR color at full precision decodes within 1 ULP-ish tolerance,
// unpartitioned, at the highest available precision.
func TestEncodeBlockSolidUnsigned(t *testing.T) {
	blk := solidF16(1.0, 2.0, 0.5)
	out := EncodeBlock(blk, [3]float32{1, 1, 1}, 0, false)

	decoded := UnpackOne(out, false).RGBFloat32()
	for px := 0; px < 16; px++ {
		require.InDelta(t, 1.0, float64(decoded[px][0]), 0.01, "pixel %d R", px)
		require.InDelta(t, 2.0, float64(decoded[px][1]), 0.01, "pixel %d G", px)
		require.InDelta(t, 0.5, float64(decoded[px][2]), 0.01, "pixel %d B", px)
	}

	modeID := out[0] & 0x1f
	midx := findMode(uint16(modeID))
	require.GreaterOrEqual(t, midx, 0)
	require.False(t, hdrModes[midx].partitioned)
	require.GreaterOrEqual(t, hdrModes[midx].aPrec, 11)
}

// A dim solid unsigned color should round-trip
// within 0.0005 absolute error per channel.
func TestBC6HUnsignedDark(t *testing.T) {
	blk := solidF16(0.01, 0.02, 0.03)
	out := EncodeBlock(blk, [3]float32{1, 1, 1}, 0, false)

	decoded := UnpackOne(out, false).RGBFloat32()
	want := [3]float32{0.01, 0.02, 0.03}
	for px := 0; px < 16; px++ {
		for ch := 0; ch < 3; ch++ {
			got := float64(decoded[px][ch])
			require.InDelta(t, float64(want[ch]), got, 0.0005, "pixel %d channel %d", px, ch)
		}
	}
}

// Signed endpoints spanning zero
// round-trip through the quantizer's sign extension.
func TestBC6HSignedNegative(t *testing.T) {
	blk := solidF16(-1.0, 0.0, 1.0)
	out := EncodeBlock(blk, [3]float32{1, 1, 1}, 0, true)

	decoded := UnpackOne(out, true).RGBFloat32()
	want := [3]float32{-1.0, 0.0, 1.0}
	for px := 0; px < 16; px++ {
		for ch := 0; ch < 3; ch++ {
			require.InDelta(t, float64(want[ch]), float64(decoded[px][ch]), 0.01, "pixel %d channel %d", px, ch)
		}
	}
}

// Delta legality: reconstructing a transformed
// endpoint by adding the stored signed delta to the base and masking to
// aPrec bits always recovers the pre-delta value masked the same way, for
// every legal encoding the quantizer can produce.
func TestDeltaLegalityRoundTrip(t *testing.T) {
	aPrec, bPrec := 11, 9
	base := quantizeSignedElement(12000, aPrec)
	for _, raw := range []int32{-31743, -500, 0, 500, 12000, 31743} {
		q := quantizeSignedElement(raw, aPrec)
		encoded, legal := evaluateLegality(q, base, aPrec, bPrec, true)
		if !legal {
			continue
		}
		mask := int32(1<<uint(aPrec)) - 1
		reconstructed := (encoded + base) & mask
		require.Equal(t, q&mask, reconstructed)
	}
}

// Partition mask well-formedness.
func TestBC6HPartitionMapWellFormed(t *testing.T) {
	for p := 0; p < 32; p++ {
		popcount := 0
		for b := 0; b < 16; b++ {
			if partitionMap[p]&(1<<uint(b)) != 0 {
				popcount++
			}
		}
		require.GreaterOrEqual(t, popcount, 1)
		require.LessOrEqual(t, popcount, 15)
	}
}

func TestUnknownModeDecodesBlack(t *testing.T) {
	var block [16]byte
	// Bit pattern 0x1f (all 5 bits set) is not a valid modeID in hdrModes.
	block[0] = 0x1f
	decoded := UnpackOne(block, false).RGBFloat32()
	require.Equal(t, [3]float32{0, 0, 0}, decoded[0])
}

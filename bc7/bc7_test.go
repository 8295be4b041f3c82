package bc7

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

// A solid red block at quality 100 with TrySingleColor decodes to the exact
// input color and picks a cheap opaque mode.
func TestEncodeBlockSolidRed(t *testing.T) {
	blk := solidBlock(255, 0, 0, 255)
	plan := NewPlanForQuality(100)
	out := EncodeBlock(blk, blockio.DefaultWeights, blockio.BC7TrySingleColor, plan)

	decoded := UnpackOne(out)
	for px := 0; px < 16; px++ {
		require.InDelta(t, 255, float64(decoded.Pixels[px][0]), 1, "pixel %d R", px)
		require.InDelta(t, 0, float64(decoded.Pixels[px][1]), 1, "pixel %d G", px)
		require.InDelta(t, 0, float64(decoded.Pixels[px][2]), 1, "pixel %d B", px)
		require.InDelta(t, 255, float64(decoded.Pixels[px][3]), 1, "pixel %d A", px)
	}

	mode := firstSetBit(out)
	require.Contains(t, []int{5, 6}, mode)
}

// Bit-length invariant: exactly one of bits 0..7 of
// byte 0 is set.
func TestModeUnaryPrefixWellFormed(t *testing.T) {
	blk := solidBlock(10, 200, 40, 255)
	plan := NewPlanForQuality(60)
	out := EncodeBlock(blk, blockio.DefaultWeights, 0, plan)

	count := 0
	for bit := 0; bit < 8; bit++ {
		if out[0]&(1<<uint(bit)) != 0 {
			count++
		}
	}
	require.Equal(t, 1, count)
}

// Fixup canonical-form invariant, checked through a round trip: a
// horizontal gradient decodes within 1 unit per channel, which holds only
// if every fixup pixel's dropped index top bit was zero.
func TestGradientPartitionCanonicalIndexes(t *testing.T) {
	var blk blockio.PixelBlockU8
	for j := 0; j < 4; j++ {
		for i := 0; i < 4; i++ {
			v := uint8(16 * j)
			blk.Pixels[j*4+i] = [4]uint8{v, v, v, 255}
		}
	}
	plan := NewPlanForQuality(100)
	out := EncodeBlock(blk, blockio.DefaultWeights, blockio.BC7TrySingleColor, plan)

	decoded := UnpackOne(out)
	for px := 0; px < 16; px++ {
		for ch := 0; ch < 3; ch++ {
			want := float64(blk.Pixels[px][ch])
			got := float64(decoded.Pixels[px][ch])
			require.InDelta(t, want, got, 1.0001)
		}
	}
}

func firstSetBit(b [16]byte) int {
	for bit := 0; bit < 8; bit++ {
		if b[0]&(1<<uint(bit)) != 0 {
			return bit
		}
	}
	return -1
}

func TestPlanMonotoneQualityNeverDisablesPartitionZero(t *testing.T) {
	low := NewPlanForQuality(1)
	high := NewPlanForQuality(100)
	require.Greater(t, low.seedPointsFor(0, 0), 0)
	require.GreaterOrEqual(t, high.seedPointsFor(0, 0), low.seedPointsFor(0, 0))
}

func TestPartitionMapWellFormed(t *testing.T) {
	for p := 0; p < 64; p++ {
		mask := partitionMap2[p]
		popcount := 0
		for b := 0; b < 16; b++ {
			if mask&(1<<uint(b)) != 0 {
				popcount++
			}
		}
		require.GreaterOrEqual(t, popcount, 1)
		require.LessOrEqual(t, popcount, 15)
	}
}

func TestBitWriterReaderRoundTrip(t *testing.T) {
	blk := solidBlock(12, 34, 56, 255)
	plan := NewPlanForQuality(50)
	out := EncodeBlock(blk, blockio.DefaultWeights, 0, plan)
	decoded := UnpackOne(out)
	_ = decoded // decode must not panic; exact values covered by other tests
}

// Punch-through parity vetting: a parity pair is acceptable only if the
// alpha values it can reconstruct exactly cover the alpha values the block
// actually uses.
func TestParityKeepsPunchThrough(t *testing.T) {
	mixed := punchThroughGate{active: true, hasNonZero: true, hasNonMax: true}
	for _, parity := range [][2]int{{0, 0}, {0, 1}, {1, 0}, {1, 1}} {
		require.False(t, parityKeepsPunchThrough(parity, mixed), "parity %v", parity)
	}

	allOpaque := punchThroughGate{active: true, hasNonZero: true, hasNonMax: false}
	require.False(t, parityKeepsPunchThrough([2]int{0, 0}, allOpaque))
	require.True(t, parityKeepsPunchThrough([2]int{1, 1}, allOpaque))
	require.False(t, parityKeepsPunchThrough([2]int{0, 1}, allOpaque))

	allClear := punchThroughGate{active: true, hasNonZero: false, hasNonMax: true}
	require.True(t, parityKeepsPunchThrough([2]int{0, 0}, allClear))
	require.False(t, parityKeepsPunchThrough([2]int{1, 1}, allClear))
	require.False(t, parityKeepsPunchThrough([2]int{1, 0}, allClear))
}

// With the gate active on a mixed 0/255 alpha block, every mode 6/7 parity
// combination is vetoed, so the winner must come from the dual-plane modes
// and still encode successfully.
func TestRespectPunchThroughStillEncodes(t *testing.T) {
	var blk blockio.PixelBlockU8
	for px := 0; px < 16; px++ {
		a := uint8(255)
		if px >= 8 {
			a = 0
		}
		blk.Pixels[px] = [4]uint8{uint8(px * 10), 200, 40, a}
	}

	plan := NewPlanForQuality(60)
	out := EncodeBlock(blk, blockio.DefaultWeights, blockio.BC7RespectPunchThrough, plan)

	mode := firstSetBit(out)
	require.Contains(t, []int{4, 5}, mode)
}

package texcomp

import (
	"testing"

	"github.com/blockforge/texcomp/bc7"
	"github.com/blockforge/texcomp/blockio"
	"github.com/blockforge/texcomp/etc"
	"github.com/stretchr/testify/require"
)

func makeU8Batch(n int) []blockio.PixelBlockU8 {
	blocks := make([]blockio.PixelBlockU8, n)
	for i := range blocks {
		for px := 0; px < 16; px++ {
			blocks[i].Pixels[px] = [4]uint8{
				uint8(i*40 + px),
				uint8(255 - i*30),
				uint8(px * 16),
				255,
			}
		}
	}
	return blocks
}

func TestEncodeBC7BatchWritesEveryBlock(t *testing.T) {
	blocks := makeU8Batch(5)
	out := make([]byte, len(blocks)*BC7BlockSize)
	EncodeBC7(out, blocks, blockio.DefaultWeights, 0, nil)

	for i := range blocks {
		var one [16]byte
		copy(one[:], out[i*BC7BlockSize:])
		count := 0
		for bit := 0; bit < 8; bit++ {
			if one[0]&(1<<uint(bit)) != 0 {
				count++
			}
		}
		require.Equal(t, 1, count, "block %d mode prefix", i)
	}
}

// One lane with real alpha retires the RGB-only modes for the whole batch: every block of such a batch must pick an
// alpha-capable mode.
func TestEncodeBC7BatchWideAlphaGate(t *testing.T) {
	blocks := makeU8Batch(3)
	blocks[2].Pixels[7][3] = 128

	out := make([]byte, len(blocks)*BC7BlockSize)
	plan := bc7.NewPlanForQuality(40)
	EncodeBC7(out, blocks, blockio.DefaultWeights, 0, plan)

	for i := range blocks {
		var one [16]byte
		copy(one[:], out[i*BC7BlockSize:])
		mode := -1
		for bit := 0; bit < 8; bit++ {
			if one[0]&(1<<uint(bit)) != 0 {
				mode = bit
				break
			}
		}
		require.Contains(t, []int{4, 5, 6, 7}, mode, "block %d must use an alpha-capable mode", i)
	}
}

func TestEncodeETC2ColorBatch(t *testing.T) {
	blocks := makeU8Batch(4)
	out := make([]byte, len(blocks)*ETCColorBlockSize)
	scratch := etc.NewCompressionData()
	EncodeETC2Color(out, blocks, blockio.DefaultWeights, 0, scratch)

	for i := range blocks {
		var one [8]byte
		copy(one[:], out[i*ETCColorBlockSize:])
		decoded := etc.UnpackColorOne(one)
		for px := 0; px < 16; px++ {
			for ch := 0; ch < 3; ch++ {
				require.InDelta(t, float64(blocks[i].Pixels[px][ch]), float64(decoded.Pixels[px][ch]), 32,
					"block %d pixel %d channel %d", i, px, ch)
			}
		}
	}
}

func TestEncodeETC2AlphaBatch(t *testing.T) {
	blocks := make([]blockio.PixelBlockU8, 3)
	for i := range blocks {
		for px := 0; px < 16; px++ {
			blocks[i].Pixels[px][3] = uint8(i*60 + px*4)
		}
	}
	out := make([]byte, len(blocks)*ETCAlphaBlockSize)
	EncodeETC2Alpha(out, blocks)

	for i := range blocks {
		var one [8]byte
		copy(one[:], out[i*ETCAlphaBlockSize:])
		alpha := etc.UnpackAlphaOne(one)
		for px := 0; px < 16; px++ {
			require.InDelta(t, float64(blocks[i].Pixels[px][3]), float64(alpha[px]), 12,
				"block %d pixel %d", i, px)
		}
	}
}

func TestEncodeBC6HBatch(t *testing.T) {
	var rgb [16][3]float32
	for px := 0; px < 16; px++ {
		rgb[px] = [3]float32{0.25, 0.5, 1.0}
	}
	blocks := []blockio.PixelBlockF16{
		blockio.PixelBlockF16FromFloat32(rgb),
		blockio.PixelBlockF16FromFloat32(rgb),
	}

	out := make([]byte, len(blocks)*BC6HBlockSize)
	EncodeBC6H(out, blocks, [3]float32{1, 1, 1}, 0, false)
	require.NotEqual(t, out[:BC6HBlockSize], make([]byte, BC6HBlockSize))
}

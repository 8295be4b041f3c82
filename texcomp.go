// Package texcomp exposes the batch-oriented block-compression entry
// points: each call encodes a batch of 4x4 blocks in lockstep and writes
// the packed bytes back to back. Block N's output depends only on block
// N's input, except that EncodeBC7 derives its RGB-mode alpha gate from
// each group of lane.Width blocks (see EncodeBC7). Callers may split an
// image's blocks across goroutines freely; the only shared mutable state
// is the optional per-goroutine scratch handle.
package texcomp

import (
	"github.com/blockforge/texcomp/bc6h"
	"github.com/blockforge/texcomp/bc7"
	"github.com/blockforge/texcomp/blockio"
	"github.com/blockforge/texcomp/etc"
	"github.com/blockforge/texcomp/lane"
)

// Block sizes in output bytes per 4x4 block.
const (
	BC7BlockSize      = 16
	BC6HBlockSize     = 16
	ETCColorBlockSize = 8
	ETCAlphaBlockSize = 8
)

// EncodeBC7 encodes len(blocks) LDR RGBA blocks into out, which must hold
// at least len(blocks)*BC7BlockSize bytes. A nil plan encodes at maximum
// quality. Blocks are processed lane.Width at a time; batch-wide decisions
// like the RGB-mode alpha gate apply at that granularity.
func EncodeBC7(out []byte, blocks []blockio.PixelBlockU8, weights blockio.ChannelWeights, flags blockio.Flags, plan *bc7.Plan) {
	if plan == nil {
		plan = bc7.NewPlanForQuality(100)
	}
	for start := 0; start < len(blocks); start += lane.Width {
		end := start + lane.Width
		if end > len(blocks) {
			end = len(blocks)
		}
		bc7.EncodeBatch(out[start*BC7BlockSize:], blocks[start:end], weights, flags, plan)
	}
}

// EncodeBC6H encodes len(blocks) HDR RGB blocks into out, which must hold
// at least len(blocks)*BC6HBlockSize bytes.
func EncodeBC6H(out []byte, blocks []blockio.PixelBlockF16, weights [3]float32, flags blockio.Flags, signed bool) {
	for i, blk := range blocks {
		encoded := bc6h.EncodeBlock(blk, weights, flags, signed)
		copy(out[i*BC6HBlockSize:], encoded[:])
	}
}

// EncodeETC1 encodes len(blocks) RGB blocks using only the ETC1 individual
// and differential modes. scratch may be nil; pass one from
// etc.NewCompressionData to reuse the differential search arena across
// batches.
func EncodeETC1(out []byte, blocks []blockio.PixelBlockU8, weights blockio.ChannelWeights, flags blockio.Flags, scratch *etc.CompressionData) {
	etc.EncodeETC1Batch(out, blocks, weights, flags, scratch)
}

// EncodeETC2Color encodes len(blocks) RGB blocks trying the planar, T, H,
// and ETC1 modes per block.
func EncodeETC2Color(out []byte, blocks []blockio.PixelBlockU8, weights blockio.ChannelWeights, flags blockio.Flags, scratch *etc.CompressionData) {
	etc.EncodeETC2Batch(out, blocks, weights, flags, scratch)
}

// EncodeETC2Alpha encodes len(blocks) alpha channels as EAC blocks. In an
// ETC2_EAC texture each 8-byte alpha block precedes its color block.
func EncodeETC2Alpha(out []byte, blocks []blockio.PixelBlockU8) {
	for i, blk := range blocks {
		encoded := etc.EncodeEACAlphaBlock(blk)
		copy(out[i*ETCAlphaBlockSize:], encoded[:])
	}
}

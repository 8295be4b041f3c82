package etc

import (
	"github.com/blockforge/texcomp/blockio"
	"github.com/blockforge/texcomp/lane"
)

// EncodeETC2Batch encodes a batch of blocks into out (8 bytes per block).
// The per-lane best error lives in a lane vector: each mode runs its scalar
// core lane by lane against a trial copy, and improvements fold back into
// the batch state as a mask + select, so every lane advances through the
// planar/T/H/ETC1 mode sequence in lockstep.
func EncodeETC2Batch(out []byte, blocks []blockio.PixelBlockU8, weights blockio.ChannelWeights, flags blockio.Flags, data *CompressionData) {
	if data == nil {
		data = NewCompressionData()
	}
	opts := optionsFrom(weights, flags)

	n := len(blocks)
	work := make([]workBlock, n)
	outs := make([][8]byte, n)
	for i := 0; i < n; i++ {
		work[i] = extractBlock(lane.ExtractLane(blocks, i), opts)
	}

	best := lane.NewF32(n, inf())
	runMode := func(encode func(i int, trialErr *float32)) {
		trial := best.Clone()
		for i := 0; i < n; i++ {
			encode(i, &trial[i])
		}
		improved := trial.Less(best)
		best = lane.F32{}.Select(improved, trial, best)
	}

	runMode(func(i int, e *float32) {
		encodePlanar(&outs[i], e, &work[i], opts)
	})

	sectors := make([][16]bool, n)
	for i := range work {
		sectors[i] = chromaSectorAssignments(&work[i])
	}
	runMode(func(i int, e *float32) {
		encodeTMode(&outs[i], e, sectors[i], &work[i], opts)
	})

	for i := range sectors {
		for px := range sectors[i] {
			sectors[i][px] = !sectors[i][px]
		}
	}
	runMode(func(i int, e *float32) {
		encodeTMode(&outs[i], e, sectors[i], &work[i], opts)
	})
	runMode(func(i int, e *float32) {
		encodeHMode(&outs[i], e, sectors[i], &work[i], &data.h, opts)
	})
	runMode(func(i int, e *float32) {
		compressETC1Internal(e, &outs[i], &work[i], &data.drs, opts)
	})

	for i := range outs {
		copy(out[i*8:], outs[i][:])
	}
}

// EncodeETC1Batch encodes a batch of blocks into out (8 bytes per block)
// using only the ETC1 individual and differential modes, with the same
// lane-vector error bookkeeping as EncodeETC2Batch.
func EncodeETC1Batch(out []byte, blocks []blockio.PixelBlockU8, weights blockio.ChannelWeights, flags blockio.Flags, data *CompressionData) {
	if data == nil {
		data = NewCompressionData()
	}
	opts := optionsFrom(weights, flags)

	n := len(blocks)
	outs := make([][8]byte, n)

	best := lane.NewF32(n, inf())
	trial := best.Clone()
	for i := 0; i < n; i++ {
		blk := extractBlock(lane.ExtractLane(blocks, i), opts)
		compressETC1Internal(&trial[i], &outs[i], &blk, &data.drs, opts)
	}
	best.SetIf(trial.Less(best), trial)

	for i := range outs {
		copy(out[i*8:], outs[i][:])
	}
}

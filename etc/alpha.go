package etc

import "github.com/blockforge/texcomp/blockio"

// EncodeEACAlphaBlock encodes one block's alpha channel as an 8-byte EAC
// block: 16 modifier tables x 10 alpha-range subrange policies x 2
// multipliers, exhaustively scored by integer SSE.
//
// Ported from ETCComputer::CompressETC2AlphaBlock() in
// ConvectionKernels_ETC.cpp.
func EncodeEACAlphaBlock(src blockio.PixelBlockU8) [8]byte {
	var pixels [16]int
	minAlpha, maxAlpha := 255, 0
	for px := 0; px < 16; px++ {
		a := int(src.Pixels[px][3])
		pixels[px] = a
		minAlpha = minInt(minAlpha, a)
		maxAlpha = maxInt(maxAlpha, a)
	}

	alphaSpan := maxAlpha - minAlpha
	alphaSpanMidpointTimes2 := maxAlpha + minAlpha

	bestTotalError := int64(1) << 62
	bestTableIndex := 0
	bestBaseCodeword := 0
	bestMultiplier := 0
	var bestIndexes [16]int

	const numAlphaRanges = 10
	for tableIndex := 0; tableIndex < 16; tableIndex++ {
		for r := 0; r < numAlphaRanges; r++ {
			subrange := r % 3
			mainRange := r / 3

			maxOffset := alphaModifierTablePositive[tableIndex][3-mainRange-(subrange&1)]
			minOffset := -alphaModifierTablePositive[tableIndex][3-mainRange-((subrange>>1)&1)] - 1
			offsetSpan := maxOffset - minOffset

			// Both multiplier candidates must be in the encodable 1..15
			// range and usable as divisors; a zero span is covered by
			// table 13 at multiplier 1.
			minMultiplier := clampInt(alphaSpan/offsetSpan, 1, 14)

			for multiplierOffset := 0; multiplierOffset < 2; multiplierOffset++ {
				multiplier := minMultiplier + multiplierOffset

				// codeword = (minAlpha + maxAlpha - multiplier*(maxOffset + minOffset)) / 2
				unclampedBaseTimes2 := alphaSpanMidpointTimes2 - multiplier*maxOffset - multiplier*minOffset
				baseAlpha := (clampInt(unclampedBaseTimes2, 0, 510) + 1) >> 1

				var indexes [16]int
				var totalError int64
				for px := 0; px < 16; px++ {
					idx, quantized := quantizeEACAlpha(tableIndex, pixels[px], baseAlpha, multiplier)
					indexes[px] = idx
					d := int64(quantized - pixels[px])
					totalError += d * d
				}

				if totalError < bestTotalError {
					bestTotalError = totalError
					bestTableIndex = tableIndex
					bestBaseCodeword = baseAlpha
					bestMultiplier = multiplier
					bestIndexes = indexes
				}
			}
		}
	}

	var out [8]byte
	out[0] = byte(bestBaseCodeword)
	out[1] = byte(bestMultiplier<<4 | bestTableIndex)

	var ordered [16]int
	for px := 0; px < 16; px++ {
		ordered[pixelSelectorOrder[px]] = bestIndexes[px]
	}

	outputOffset := 2
	outputBits := 0
	numOutputBits := 0
	for s := 0; s < 16; s++ {
		outputBits = outputBits<<3 | ordered[s]
		numOutputBits += 3
		if numOutputBits >= 8 {
			out[outputOffset] = byte(outputBits >> uint(numOutputBits-8))
			outputOffset++
			numOutputBits -= 8
			outputBits &= (1 << uint(numOutputBits)) - 1
		}
	}

	return out
}

// quantizeEACAlpha maps one alpha value to its 3-bit index and the value
// the hardware reconstructs for it, exploiting the tables' reflection
// about -0.5*multiplier.
//
// Ported from ETCComputer::QuantizeETC2Alpha() in ConvectionKernels_ETC.cpp.
func quantizeEACAlpha(tableIndex, value, baseValue, multiplier int) (index, quantized int) {
	offset := value - baseValue
	offsetAboutReflectorTimes2 := offset*2 + multiplier

	lookupIndex := abs(offsetAboutReflectorTimes2) >> 1
	lookupIndex /= multiplier
	if lookupIndex >= alphaRoundingTableWidth {
		lookupIndex = alphaRoundingTableWidth - 1
	}
	positiveIndex := alphaRoundingTables[tableIndex][lookupIndex]
	positiveOffset := alphaModifierTablePositive[tableIndex][positiveIndex]

	var offsetUnmultiplied int
	if offsetAboutReflectorTimes2 < 0 {
		offsetUnmultiplied = -positiveOffset - 1
		index = positiveIndex
	} else {
		offsetUnmultiplied = positiveOffset
		index = positiveIndex + 4
	}

	quantized = clamp255(baseValue + offsetUnmultiplied*multiplier)
	return index, quantized
}

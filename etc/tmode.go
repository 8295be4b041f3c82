package etc

// encodeTMode scores the T mode for one sector assignment and commits to
// out if it beats bestError. The isolated sector shares one quantized
// 4-bit-per-channel color; the line sector shares a base color painted at
// base, base+d, or base-d along the table distance.
//
// Ported from ETCComputer::EncodeTMode() in ConvectionKernels_ETC.cpp.
func encodeTMode(out *[8]byte, bestError *float32, isIsolated [16]bool, blk *workBlock, opts options) {
	var isolatedTotal, lineTotal [3]int
	numIsolated := 0

	for px := 0; px < 16; px++ {
		for ch := 0; ch < 3; ch++ {
			if isIsolated[px] {
				isolatedTotal[ch] += blk.pixels[px][ch]
			}
			lineTotal[ch] += blk.pixels[px][ch]
		}
		if isIsolated[px] {
			numIsolated++
		}
	}
	for ch := 0; ch < 3; ch++ {
		lineTotal[ch] -= isolatedTotal[ch]
	}
	numLine := 16 - numIsolated

	var isolatedQuantized, isolatedTargets [3]int
	for ch := 0; ch < 3; ch++ {
		numerator := isolatedTotal[ch] * 2
		if !opts.fakeBT709 {
			numerator += numIsolated * 17
		}
		if numIsolated == 0 {
			isolatedQuantized[ch] = 0
		} else {
			isolatedQuantized[ch] = numerator / (numIsolated * 34)
		}
		isolatedTargets[ch] = numerator
	}
	if opts.fakeBT709 {
		isolatedQuantized = resolveTHFakeBT709Rounding(isolatedQuantized, isolatedTargets, numIsolated)
	}

	var isolatedColor [3]int
	for ch := 0; ch < 3; ch++ {
		isolatedColor[ch] = isolatedQuantized[ch] | isolatedQuantized[ch]<<4
	}

	var isolatedError [16]float32
	for px := 0; px < 16; px++ {
		isolatedError[px] = pixelError(isolatedColor, px, blk, opts)
	}

	bestIsThisMode := false
	var bestSelectors uint32
	bestTable := 0
	bestLineColor := 0

	for table := 0; table < 8; table++ {
		modifier := thModifierTable[table]

		lastColor := -1
		for offsetPremultiplier := -numLine; offsetPremultiplier <= numLine; offsetPremultiplier++ {
			var quantized [3]int
			if numLine != 0 {
				if opts.fakeBT709 {
					var targets [3]int
					for ch := 0; ch < 3; ch++ {
						numerator := maxInt(0, lineTotal[ch]*2+modifier*2*offsetPremultiplier)
						quantized[ch] = minInt(15, numerator/(numLine*34))
						targets[ch] = numerator
					}
					quantized = resolveTHFakeBT709Rounding(quantized, targets, numLine)
				} else {
					for ch := 0; ch < 3; ch++ {
						numerator := maxInt(0, lineTotal[ch]*2+numLine*17+modifier*2*offsetPremultiplier)
						quantized[ch] = minInt(15, numerator/(numLine*34))
					}
				}
			}

			packed := quantized[0] | quantized[1]<<5 | quantized[2]<<10
			if packed == lastColor {
				continue
			}
			lastColor = packed

			var lineColors [3][3]int
			for ch := 0; ch < 3; ch++ {
				q := (packed >> uint(ch*5)) & 15
				unquantized := (q << 4) | q
				lineColors[0][ch] = clamp255(unquantized + modifier)
				lineColors[1][ch] = unquantized
				lineColors[2][ch] = clamp255(unquantized - modifier)
			}

			var selectors uint32
			var totalErr float32
			for px := 0; px < 16; px++ {
				pxErr := isolatedError[px]
				pxSelector := 0
				for i := 0; i < 3; i++ {
					e := pixelError(lineColors[i], px, blk, opts)
					if e < pxErr {
						pxErr = e
						pxSelector = i + 1
					}
				}
				totalErr += pxErr
				selectors |= uint32(pxSelector) << uint(px*2)
			}

			if totalErr < *bestError {
				*bestError = totalErr
				bestIsThisMode = true
				bestLineColor = packed
				bestSelectors = selectors
				bestTable = table
			}
		}
	}

	if !bestIsThisMode {
		return
	}

	var lineColor [3]int
	for ch := 0; ch < 3; ch++ {
		lineColor[ch] = (bestLineColor >> uint(ch*5)) & 15
	}

	var highBits, lowBits uint32

	// The T-mode signature is a deliberately overflowed differential red
	// channel; split the isolated red into the two fields and set the
	// overflow direction bit the decoder checks.
	rh := (isolatedQuantized[0] >> 2) & 3
	rl := isolatedQuantized[0] & 3
	if rh+rl < 4 {
		highBits |= 1 << (58 - 32)
	} else {
		highBits |= 7 << (61 - 32)
	}

	highBits |= uint32(rh) << (59 - 32)
	highBits |= uint32(rl) << (56 - 32)
	highBits |= uint32(isolatedQuantized[1]) << (52 - 32)
	highBits |= uint32(isolatedQuantized[2]) << (48 - 32)
	highBits |= uint32(lineColor[0]) << (44 - 32)
	highBits |= uint32(lineColor[1]) << (40 - 32)
	highBits |= uint32(lineColor[2]) << (36 - 32)
	highBits |= uint32((bestTable>>1)&3) << (34 - 32)
	highBits |= 1 << (33 - 32)
	highBits |= uint32(bestTable&1) << (32 - 32)

	for px := 0; px < 16; px++ {
		sel := (bestSelectors >> uint(2*pixelSelectorOrder[px])) & 3
		if sel&1 != 0 {
			lowBits |= 1 << uint(px)
		}
		if sel&2 != 0 {
			lowBits |= 1 << uint(16+px)
		}
	}

	writeBlockWords(out, highBits, lowBits)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

package etc

// encodeHMode scores the H mode for one sector assignment and commits to
// out if it beats bestError. Each sector shares one quantized
// 4-bit-per-channel color and every pixel picks + or - the table distance.
//
// Ported from ETCComputer::EncodeHMode() in ConvectionKernels_ETC.cpp.
func encodeHMode(out *[8]byte, bestError *float32, groupings [16]bool, blk *workBlock, he *hModeEval, opts options) {
	entryError := *bestError
	var counts [2]int
	var totals [2][3]int

	for px := 0; px < 16; px++ {
		for ch := 0; ch < 3; ch++ {
			totals[0][ch] += blk.pixels[px][ch]
			if groupings[px] {
				totals[1][ch] += blk.pixels[px][ch]
			}
		}
		if groupings[px] {
			counts[1]++
		}
	}
	for ch := 0; ch < 3; ch++ {
		totals[0][ch] -= totals[1][ch]
	}
	counts[0] = 16 - counts[1]

	bestIsThisMode := false
	var bestSectorBits, bestSignBits uint16
	var bestColors [2]int
	bestTable := 0

	for table := 0; table < 8; table++ {
		modifier := thModifierTable[table]

		for sector := 0; sector < 2; sector++ {
			numUnique := 0
			base := 0
			if sector == 1 {
				base = he.numUniqueColors[0]
			}

			for offsetPremultiplier := -counts[sector]; offsetPremultiplier <= counts[sector]; offsetPremultiplier++ {
				var quantized [3]int
				if counts[sector] != 0 {
					for ch := 0; ch < 3; ch++ {
						numerator := maxInt(0, totals[sector][ch]*2+counts[sector]*17+modifier*2*offsetPremultiplier)
						quantized[ch] = minInt(15, numerator/(counts[sector]*34))
					}
				}

				packed := quantized[0]<<10 | quantized[1]<<5 | quantized[2]
				if numUnique == 0 || packed != he.colors[base+numUnique-1] {
					he.colors[base+numUnique] = packed
					numUnique++
				}
			}
			he.numUniqueColors[sector] = numUnique
		}

		totalColors := he.numUniqueColors[0] + he.numUniqueColors[1]
		for ci := 0; ci < totalColors; ci++ {
			var colors [2][3]int
			for ch := 0; ch < 3; ch++ {
				q := (he.colors[ci] >> uint((2-ch)*5)) & 15
				unquantized := (q << 4) | q
				colors[0][ch] = clamp255(unquantized + modifier)
				colors[1][ch] = clamp255(unquantized - modifier)
			}

			var signBits uint16
			for px := 0; px < 16; px++ {
				e0 := pixelError(colors[0], px, blk, opts)
				e1 := pixelError(colors[1], px, blk, opts)
				if e1 < e0 {
					he.errors[ci][px] = e1
					signBits |= 1 << uint(px)
				} else {
					he.errors[ci][px] = e0
				}
			}
			he.signBits[ci] = signBits
		}

		sector1Start := he.numUniqueColors[0]
		for i0 := 0; i0 < he.numUniqueColors[0]; i0++ {
			for i1 := 0; i1 < he.numUniqueColors[1]; i1++ {
				ci0 := i0
				ci1 := sector1Start + i1

				var totalError float32
				var sectorBits, signBits uint16
				for px := 0; px < 16; px++ {
					bit := uint16(1) << uint(px)
					if he.errors[ci1][px] < he.errors[ci0][px] {
						totalError += he.errors[ci1][px]
						sectorBits |= bit
						signBits |= bit & he.signBits[ci1]
					} else {
						totalError += he.errors[ci0][px]
						signBits |= bit & he.signBits[ci0]
					}
				}

				if totalError < *bestError {
					*bestError = totalError
					bestIsThisMode = true
					bestTable = table
					bestColors[0] = he.colors[ci0]
					bestColors[1] = he.colors[ci1]
					bestSectorBits = sectorBits
					bestSignBits = signBits
				}
			}
		}
	}

	if !bestIsThisMode {
		return
	}

	// Identical sector colors cannot express the table's low bit through
	// the color-order comparison; such blocks are left to the other modes,
	// with bestError restored to its value on entry.
	if bestColors[0] == bestColors[1] {
		*bestError = entryError
		return
	}

	var colors [2][3]int
	for sector := 0; sector < 2; sector++ {
		for ch := 0; ch < 3; ch++ {
			colors[sector][ch] = (bestColors[sector] >> uint((2-ch)*5)) & 15
		}
	}

	// Table bit 0 is carried by the color ordering: swap sectors when the
	// ordering disagrees with the chosen table.
	if ((bestTable & 1) == 1) != (bestColors[0] > bestColors[1]) {
		colors[0], colors[1] = colors[1], colors[0]
		bestSectorBits ^= 0xffff
	}

	r1 := colors[0][0]
	g1a := colors[0][1] >> 1
	g1b := colors[0][1] & 1
	b1a := colors[0][2] >> 3
	b1b := colors[0][2] & 7
	r2 := colors[1][0]
	g2 := colors[1][1]
	b2 := colors[1][2]

	var highBits, lowBits uint32

	// The H-mode signature overflows the differential green channel; red
	// must stay in range, so force its sign bit when needed.
	if g1a&4 != 0 && r1+g1a < 8 {
		highBits |= 1 << (63 - 32)
	}

	fakeDG := b1b >> 1
	fakeG := b1a | (g1b << 1)
	if fakeG+fakeDG < 4 {
		highBits |= 1 << (50 - 32)
	} else {
		highBits |= 7 << (53 - 32)
	}

	da := (bestTable >> 2) & 1
	db := (bestTable >> 1) & 1

	highBits |= uint32(r1) << (59 - 32)
	highBits |= uint32(g1a) << (56 - 32)
	highBits |= uint32(g1b) << (52 - 32)
	highBits |= uint32(b1a) << (51 - 32)
	highBits |= uint32(b1b) << (47 - 32)
	highBits |= uint32(r2) << (43 - 32)
	highBits |= uint32(g2) << (39 - 32)
	highBits |= uint32(b2) << (35 - 32)
	highBits |= uint32(da) << (34 - 32)
	highBits |= 1 << (33 - 32)
	highBits |= uint32(db) << (32 - 32)

	for px := 0; px < 16; px++ {
		sectorBit := (bestSectorBits >> uint(pixelSelectorOrder[px])) & 1
		signBit := (bestSignBits >> uint(pixelSelectorOrder[px])) & 1

		lowBits |= uint32(signBit) << uint(px)
		lowBits |= uint32(sectorBit) << uint(16+px)
	}

	writeBlockWords(out, highBits, lowBits)
}

package etc

import "github.com/blockforge/texcomp/colorspace"

// resolveHalfBlockFakeBT709RoundingAccurate picks base-color quantization
// by trying the 8 floor/ceil octants of the truncated quantization and
// keeping the one whose reconstruction is closest to the half-block's
// cumulative color in the fake-BT.709 basis.
//
// Ported from ETCComputer::ResolveHalfBlockFakeBT709RoundingAccurate() in
// ConvectionKernels_ETC.cpp.
func resolveHalfBlockFakeBT709RoundingAccurate(sectorCumulative [3]int, isDifferential bool) [3]int {
	var quantized [3]int
	for ch := 0; ch < 3; ch++ {
		cu := sectorCumulative[ch]
		if isDifferential {
			quantized[ch] = (cu*31 + (cu >> 3)) >> 11
		} else {
			quantized[ch] = (cu*30 + (cu >> 3)) >> 12
		}
	}

	var lowOctant, highOctant [3]float32
	for ch := 0; ch < 3; ch++ {
		var unquantized, unquantizedNext int
		if isDifferential {
			q := quantized[ch]
			unquantized = (q << 3) | (q >> 2)
			qn := clampInt(q+1, 0, 31)
			unquantizedNext = (qn << 3) | (qn >> 2)
		} else {
			q := quantized[ch]
			unquantized = (q << 4) | q
			unquantizedNext = clampInt(unquantized+17, 0, 255)
		}
		// Scale by 8 so the octant corners compare against the cumulative
		// sum of 8 pixels rather than the average.
		lowOctant[ch] = float32(unquantized << 3)
		highOctant[ch] = float32(unquantizedNext << 3)
	}

	upperBound := 15
	if isDifferential {
		upperBound = 31
	}
	best := bestFakeBT709Octant(lowOctant, highOctant, sectorCumulative)
	for ch := 0; ch < 3; ch++ {
		quantized[ch] = minInt(quantized[ch]+(best>>uint(ch))&1, upperBound)
	}
	return quantized
}

// resolveHalfBlockFakeBT709RoundingFast is the cheap path used when
// ETCFakeBT709Accurate is clear: plain round-to-nearest quantization of the
// cumulative sum, skipping the octant search. The production encoder uses
// an offline-generated rounding lookup here; see DESIGN.md.
func resolveHalfBlockFakeBT709RoundingFast(sectorCumulative [3]int, isDifferential bool) [3]int {
	var quantized [3]int
	for ch := 0; ch < 3; ch++ {
		quantized[ch] = quantizeHalfCumulative(sectorCumulative[ch], isDifferential)
	}
	return quantized
}

// resolveTHFakeBT709Rounding rounds a 4-bit T/H base color in the
// fake-BT.709 basis by octant search against the sector's target sum;
// granularity is the sector's pixel count.
//
// Ported from ETCComputer::ResolveTHFakeBT709Rounding() in
// ConvectionKernels_ETC.cpp.
func resolveTHFakeBT709Rounding(quantized [3]int, targets [3]int, granularity int) [3]int {
	var lowOctant, highOctant [3]float32
	for ch := 0; ch < 3; ch++ {
		unquantized := (quantized[ch] << 4) | quantized[ch]
		unquantizedNext := clampInt(unquantized+17, 0, 255)

		lowOctant[ch] = float32(unquantized * granularity * 2)
		highOctant[ch] = float32(unquantizedNext * granularity * 2)
	}

	best := bestFakeBT709Octant(lowOctant, highOctant, targets)
	out := quantized
	for ch := 0; ch < 3; ch++ {
		out[ch] = minInt(out[ch]+(best>>uint(ch))&1, 15)
	}
	return out
}

func bestFakeBT709Octant(lowOctant, highOctant [3]float32, targets [3]int) int {
	ty, tu, tv := colorspace.ToFakeBT709(float32(targets[0]), float32(targets[1]), float32(targets[2]))

	bestError := inf()
	bestOctant := 0
	for octant := 0; octant < 8; octant++ {
		rgb := lowOctant
		for ch := 0; ch < 3; ch++ {
			if octant&(1<<uint(ch)) != 0 {
				rgb[ch] = highOctant[ch]
			}
		}
		y, u, v := colorspace.ToFakeBT709(rgb[0], rgb[1], rgb[2])
		dy, du, dv := y-ty, u-tu, v-tv
		e := dy*dy + du*du + dv*dv
		if e < bestError {
			bestError = e
			bestOctant = octant
		}
	}
	return bestOctant
}

package endpoint

// WeightTable returns the BC7/BC6H interpolation weight table
// for index precision p in {2,3,4}, mapping index -> [0,64].
func WeightTable(p int) []int {
	switch p {
	case 2:
		return weight2
	case 3:
		return weight3
	case 4:
		return weight4
	default:
		panic("endpoint: unsupported index precision")
	}
}

var (
	weight2 = []int{0, 21, 43, 64}
	weight3 = []int{0, 9, 18, 27, 37, 46, 55, 64}
	weight4 = []int{0, 4, 9, 13, 17, 21, 26, 30, 34, 38, 43, 47, 51, 55, 60, 64}
)

// Interpolate blends endpoint channel values a and b by weight w (one entry
// of a weight table), per the BC7/BC6H hardware interpolation formula.
func Interpolate(a, b, w int) int {
	return ((64-w)*a + w*b + 32) >> 6
}

// SelectIndexLDR assigns the weight-table index in [0, levels) that
// minimizes squared residual between the interpolated endpoint and target,
// per channel, weighted by channelWeightsSq. If tryAdjacent is true (the
// default unless BC7FastIndexing is set), indexes adjacent to the
// best-by-sign-of-value initial guess are also probed (the ±1 tiebreak).
func SelectIndexLDR(a, b [4]int, channels int, target [4]float32, channelWeightsSq [4]float32, levels int, tryAdjacent bool) (bestIdx int, bestErr float32) {
	table := WeightTable(bitsForLevels(levels))
	bestErr = float32(1e30)
	bestIdx = 0

	probe := func(idx int) {
		w := table[idx]
		var e float32
		for ch := 0; ch < channels; ch++ {
			v := float32(Interpolate(a[ch], b[ch], w))
			d := v - target[ch]
			e += channelWeightsSq[ch] * d * d
		}
		if e < bestErr {
			bestErr = e
			bestIdx = idx
		}
	}

	if !tryAdjacent {
		// Single closed-form guess: project target onto the endpoint axis
		// across all channels, then probe only that index.
		guess := closestIndexGuess(a, b, channels, target, levels)
		probe(guess)
		return bestIdx, bestErr
	}

	guess := closestIndexGuess(a, b, channels, target, levels)
	for _, idx := range []int{guess - 1, guess, guess + 1} {
		if idx < 0 || idx >= levels {
			continue
		}
		probe(idx)
	}
	return bestIdx, bestErr
}

func closestIndexGuess(a, b [4]int, channels int, target [4]float32, levels int) int {
	var num, den float32
	for ch := 0; ch < channels; ch++ {
		span := float32(b[ch] - a[ch])
		num += span * (target[ch] - float32(a[ch]))
		den += span * span
	}
	if den == 0 {
		return 0
	}
	t := num / den
	idx := int(t*float32(levels-1) + 0.5)
	if idx < 0 {
		idx = 0
	}
	if idx > levels-1 {
		idx = levels - 1
	}
	return idx
}

func bitsForLevels(levels int) int {
	switch levels {
	case 4:
		return 2
	case 8:
		return 3
	case 16:
		return 4
	default:
		panic("endpoint: unsupported level count")
	}
}

// SelectIndexHDR is the HDR analogue of SelectIndexLDR: endpoints and
// target are in the BC6H internal 16-bit-space (signed or unsigned) rather
// than 0..255, but the search is otherwise identical.
func SelectIndexHDR(a, b [3]int, target [3]float32, channelWeightsSq [3]float32, levels int, tryAdjacent bool) (bestIdx int, bestErr float32) {
	var a4, b4 [4]int
	var t4, w4 [4]float32
	copy(a4[:3], a[:])
	copy(b4[:3], b[:])
	copy(t4[:3], target[:])
	copy(w4[:3], channelWeightsSq[:])
	return SelectIndexLDR(a4, b4, 3, t4, w4, levels, tryAdjacent)
}

package endpoint

import "golang.org/x/image/math/f32"

// tweakFactors returns the two interpolation factors (applied to endpoint 0
// and endpoint 1 respectively) for the given tweak round out of numRounds,
// perturbing the fitted axis length to explore quantization alignment.
//
// Ported from Util::ComputeTweakFactors() in ConvectionKernels_BC67.cpp: the
// factor sequence shrinks the axis symmetrically around its center as the
// round index increases, covering tighter fits on later rounds.
func tweakFactors(tweak, numRounds int) (lo, hi float32) {
	if numRounds <= 1 {
		return 0, 1
	}
	// Round 0 is the untouched fit (lo=0, hi=1); later rounds shrink
	// inward symmetrically by step/ (2*(numRounds-1)).
	step := float32(tweak) / float32(2*(numRounds-1))
	return step, 1 - step
}

// FinishLDR produces an integer 0..255 endpoint pair from an Unfinished fit
// for the given tweak round out of numRounds.
func FinishLDR(u Unfinished, tweak, numRounds int) (a, b [3]int) {
	lo, hi := tweakFactors(tweak, numRounds)
	mean, axis := u.Mean, u.Axis
	av := f32.Vec3{mean[0] - axis[0], mean[1] - axis[1], mean[2] - axis[2]}
	bv := f32.Vec3{mean[0] + axis[0], mean[1] + axis[1], mean[2] + axis[2]}

	for ch := 0; ch < 3; ch++ {
		base := av[ch]
		offs := bv[ch] - base
		a[ch] = clampRound(base+offs*lo, 0, 255)
		b[ch] = clampRound(base+offs*hi, 0, 255)
	}
	return a, b
}

// FinishHDRUnsigned produces an unsigned 16-bit-space endpoint pair
// in [0, 31743] from an Unfinished fit.
func FinishHDRUnsigned(u Unfinished, tweak, numRounds int) (a, b [3]int) {
	lo, hi := tweakFactors(tweak, numRounds)
	mean, axis := u.Mean, u.Axis
	av := f32.Vec3{mean[0] - axis[0], mean[1] - axis[1], mean[2] - axis[2]}
	bv := f32.Vec3{mean[0] + axis[0], mean[1] + axis[1], mean[2] + axis[2]}

	for ch := 0; ch < 3; ch++ {
		base := av[ch]
		offs := bv[ch] - base
		a[ch] = clampRound(base+offs*lo, 0, 31743)
		b[ch] = clampRound(base+offs*hi, 0, 31743)
	}
	return a, b
}

// FinishHDRSigned produces a signed 16-bit-space endpoint pair in [-31743, 31743] from an Unfinished fit.
func FinishHDRSigned(u Unfinished, tweak, numRounds int) (a, b [3]int) {
	lo, hi := tweakFactors(tweak, numRounds)
	mean, axis := u.Mean, u.Axis
	av := f32.Vec3{mean[0] - axis[0], mean[1] - axis[1], mean[2] - axis[2]}
	bv := f32.Vec3{mean[0] + axis[0], mean[1] + axis[1], mean[2] + axis[2]}

	for ch := 0; ch < 3; ch++ {
		base := av[ch]
		offs := bv[ch] - base
		a[ch] = clampRound(base+offs*lo, -31743, 31743)
		b[ch] = clampRound(base+offs*hi, -31743, 31743)
	}
	return a, b
}

func clampRound(v float32, lo, hi int) int {
	r := int(v + 0.5)
	if v < 0 {
		r = int(v - 0.5)
	}
	if r < lo {
		return lo
	}
	if r > hi {
		return hi
	}
	return r
}

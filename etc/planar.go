package etc

import (
	"github.com/blockforge/texcomp/colorspace"
	"gonum.org/v1/gonum/mat"
)

// decodePlanarCoeff expands a quantized planar coefficient to 8 bits:
// green carries 7 bits, red and blue 6.
//
// Ported from ETCComputer::DecodePlanarCoeff() in ConvectionKernels_ETC.cpp.
func decodePlanarCoeff(coeff, ch int) int {
	if ch == 1 {
		return (coeff << 1) | (coeff >> 6)
	}
	return (coeff << 2) | (coeff >> 4)
}

// planarReconstructChannel evaluates the planar surface for one channel at
// every pixel, matching the hardware's fixed-point interpolation.
func planarReconstructChannel(o, h, v, ch int) (out [16]int) {
	dO := decodePlanarCoeff(o, ch)
	dH := decodePlanarCoeff(h, ch)
	dV := decodePlanarCoeff(v, ch)

	hMinusO := dH - dO
	vMinusO := dV - dO
	addend := dO*4 + 2

	for px := 0; px < 16; px++ {
		x := px & 3
		y := px >> 2
		interpolated := (x*hMinusO + y*vMinusO + addend) >> 2
		out[px] = clamp255(interpolated)
	}
	return out
}

// encodePlanar fits the per-channel plane x*H + y*V + O by least squares,
// quantizes the coefficients (G to 7 bits, R/B to 6), and refines across
// the floor/ceil octants of each channel's coefficients. Commits to out
// if it beats bestError.
//
// Ported from ETCComputer::EncodePlanar() in ConvectionKernels_ETC.cpp;
// the source's hand-rolled Gaussian elimination over the normal equations
// is expressed through gonum's 3x3 solve instead.
func encodePlanar(out *[8]byte, bestError *float32, blk *workBlock, opts options) {
	var o, h, v [3]float64

	for ch := 0; ch < 3; ch++ {
		var sxx, sxy, sx, syy, sy float64
		var sxc, syc, sc float64
		for px := 0; px < 16; px++ {
			x := float64(px % 4)
			y := float64(px / 4)
			var c float64
			if opts.fakeBT709 {
				c = float64(blk.preWeighted[px][ch])
			} else {
				c = float64(blk.pixels[px][ch])
			}
			sxx += x * x
			sxy += x * y
			sx += x
			syy += y * y
			sy += y
			sxc += x * c
			syc += y * c
			sc += c
		}

		// Normal equations for error = sum (x*h' + y*v' + o - c)^2 with
		// h' = (H-O)/4 and v' = (V-O)/4 substituted to keep the system
		// well conditioned.
		A := mat.NewDense(3, 3, []float64{
			sxx, sxy, sx,
			sxy, syy, sy,
			sx, sy, 16,
		})
		rhs := mat.NewDense(3, 1, []float64{sxc, syc, sc})
		var x mat.Dense
		if err := x.Solve(A, rhs); err != nil {
			// Constant block along this channel: a flat plane at the mean.
			o[ch] = sc / 16
			h[ch] = o[ch]
			v[ch] = o[ch]
			continue
		}
		hp := x.At(0, 0)
		vp := x.At(1, 0)
		o[ch] = x.At(2, 0)
		h[ch] = hp*4 + o[ch]
		v[ch] = vp*4 + o[ch]
	}

	var totalError float32
	var bestCoeffs [3][3]int // [channel][O, H, V]

	if opts.fakeBT709 {
		// Octant search in the fake-BT.709 basis is messy; round off the
		// RGB-converted coefficients instead.
		var oRGB, hRGB, vRGB [3]float32
		oRGB[0], oRGB[1], oRGB[2] = colorspace.FromFakeBT709(float32(o[0]), float32(o[1]), float32(o[2]))
		hRGB[0], hRGB[1], hRGB[2] = colorspace.FromFakeBT709(float32(h[0]), float32(h[1]), float32(h[2]))
		vRGB[0], vRGB[1], vRGB[2] = colorspace.FromFakeBT709(float32(v[0]), float32(v[1]), float32(v[2]))

		for ch := 0; ch < 3; ch++ {
			coeffs := [3]float32{oRGB[ch], hRGB[ch], vRGB[ch]}
			for c := 0; c < 3; c++ {
				bestCoeffs[ch][c] = quantizePlanarCoeffNearest(coeffs[c], ch)
			}
		}

		var reconstructed [16][3]int
		for ch := 0; ch < 3; ch++ {
			vals := planarReconstructChannel(bestCoeffs[ch][0], bestCoeffs[ch][1], bestCoeffs[ch][2], ch)
			for px := 0; px < 16; px++ {
				reconstructed[px][ch] = vals[px]
			}
		}
		for px := 0; px < 16; px++ {
			totalError += computeErrorFakeBT709(reconstructed[px], blk.preWeighted[px])
		}
	} else {
		for ch := 0; ch < 3; ch++ {
			coeffs := [3]float64{o[ch], h[ch], v[ch]}
			var ranges [3][2]int
			for c := 0; c < 3; c++ {
				ranges[c] = quantizePlanarCoeffRange(coeffs[c], ch)
			}

			bestChannelError := inf()
			for io := 0; io < 2; io++ {
				for ih := 0; ih < 2; ih++ {
					for iv := 0; iv < 2; iv++ {
						vals := planarReconstructChannel(ranges[0][io], ranges[1][ih], ranges[2][iv], ch)
						var channelError float32
						for px := 0; px < 16; px++ {
							d := float32(blk.pixels[px][ch] - vals[px])
							channelError += d * d
						}
						if channelError < bestChannelError {
							bestChannelError = channelError
							bestCoeffs[ch][0] = ranges[0][io]
							bestCoeffs[ch][1] = ranges[1][ih]
							bestCoeffs[ch][2] = ranges[2][iv]
						}
					}
				}
			}

			if !opts.uniform {
				w := opts.weights[ch]
				bestChannelError *= w * w
			}
			totalError += bestChannelError
		}
	}

	if totalError >= *bestError {
		return
	}
	*bestError = totalError

	ro, rh, rv := bestCoeffs[0][0], bestCoeffs[0][1], bestCoeffs[0][2]
	go_, gh, gv := bestCoeffs[1][0], bestCoeffs[1][1], bestCoeffs[1][2]
	bo, bh, bv := bestCoeffs[2][0], bestCoeffs[2][1], bestCoeffs[2][2]

	go1 := go_ >> 6
	go2 := go_ & 63

	bo1 := bo >> 5
	bo2 := (bo >> 3) & 3
	bo3 := bo & 7

	rh1 := rh >> 1
	rh2 := rh & 1

	fakeR := ro >> 2
	fakeDR := go1 | ((ro & 3) << 1)

	fakeG := go2 >> 2
	fakeDG := ((go2 & 3) << 1) | bo1

	fakeB := bo2
	fakeDB := bo3 >> 1

	var highBits, lowBits uint32

	// Planar's signature overflows the differential blue channel; the red
	// and green fields it reuses must stay in range.
	if fakeDR&4 != 0 && fakeR+fakeDR < 8 {
		highBits |= 1 << (63 - 32)
	}
	if fakeDG&4 != 0 && fakeG+fakeDG < 8 {
		highBits |= 1 << (55 - 32)
	}
	if fakeB+fakeDB < 4 {
		highBits |= 1 << (42 - 32)
	} else {
		highBits |= 7 << (45 - 32)
	}

	highBits |= uint32(ro) << (57 - 32)
	highBits |= uint32(go1) << (56 - 32)
	highBits |= uint32(go2) << (49 - 32)
	highBits |= uint32(bo1) << (48 - 32)
	highBits |= uint32(bo2) << (43 - 32)
	highBits |= uint32(bo3) << (39 - 32)
	highBits |= uint32(rh1) << (34 - 32)
	highBits |= 1 << (33 - 32)
	highBits |= uint32(rh2) << (32 - 32)

	lowBits |= uint32(gh) << 25
	lowBits |= uint32(bh) << 19
	lowBits |= uint32(rv) << 13
	lowBits |= uint32(gv) << 6
	lowBits |= uint32(bv)

	writeBlockWords(out, highBits, lowBits)
}

// quantizePlanarCoeffRange scales an 0..255-space planar coefficient into
// the channel's quantized range (G: 0..127, R/B: 0..63) and returns its
// floor and ceiling.
func quantizePlanarCoeffRange(coeff float64, ch int) [2]int {
	scaled := scalePlanarCoeff(coeff, ch)
	lo := int(scaled)
	hi := lo
	if float64(lo) < scaled {
		hi = lo + 1
	}
	limit := 63
	if ch == 1 {
		limit = 127
	}
	return [2]int{clampInt(lo, 0, limit), clampInt(hi, 0, limit)}
}

func quantizePlanarCoeffNearest(coeff float32, ch int) int {
	scaled := scalePlanarCoeff(float64(coeff), ch)
	limit := 63
	if ch == 1 {
		limit = 127
	}
	return clampInt(int(scaled+0.5), 0, limit)
}

func scalePlanarCoeff(coeff float64, ch int) float64 {
	if coeff < 0 {
		coeff = 0
	}
	if ch == 1 {
		scaled := coeff * (127.0 / 255.0)
		if scaled > 127 {
			scaled = 127
		}
		return scaled
	}
	scaled := coeff * (63.0 / 255.0)
	if scaled > 63 {
		scaled = 63
	}
	return scaled
}

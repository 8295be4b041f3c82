package bc7

import (
	"github.com/blockforge/texcomp/blockio"
	"github.com/blockforge/texcomp/endpoint"
)

var allPixels = [16]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}

// searchDualPlane evaluates modes 4 and 5 across every rotation and (for
// mode 4) index-selector value, independently fitting an RGB plane and an
// alpha plane with their own index precisions, and returns the best
// candidate found.
func searchDualPlane(pixels blockio.PixelBlockU8, w, wSq [4]float32, flags blockio.Flags, plan *Plan) (result, bool) {
	best := result{bestError: inf()}
	found := false

	for mode := 4; mode <= 5; mode++ {
		m := modes[mode]
		selectors := []int{0}
		if m.hasIndexSelector {
			selectors = []int{0, 1}
		}
		for rotation := 0; rotation < 4; rotation++ {
			rounds := plan.seedPointsFor(mode, rotation)
			if rounds <= 0 {
				continue
			}
			rotated := rotatePixels(pixels, rotation)
			for _, sel := range selectors {
				rgbLevels, alphaLevels := 1<<uint(m.indexBits), 1<<uint(m.alphaIndexBits)
				if mode == 4 && sel == 1 {
					rgbLevels, alphaLevels = alphaLevels, rgbLevels
				}
				cand, ok := tryDualPlaneCandidate(rotated, mode, rotation, sel, rgbLevels, alphaLevels, w, wSq, flags, rounds)
				if ok && cand.bestError < best.bestError {
					best = cand
					found = true
				}
			}
		}
	}
	return best, found
}

// rotatePixels swaps channel rotation-1 with alpha for every pixel
// (rotation 0 leaves the block unrotated).
func rotatePixels(pixels blockio.PixelBlockU8, rotation int) blockio.PixelBlockU8 {
	if rotation == 0 {
		return pixels
	}
	ch := rotation - 1
	out := pixels
	for px := 0; px < 16; px++ {
		out.Pixels[px][ch], out.Pixels[px][3] = pixels.Pixels[px][3], pixels.Pixels[px][ch]
	}
	return out
}

// tryDualPlaneCandidate independently fits, refines, and assigns indices for
// the RGB plane and the alpha plane, summing their errors.
func tryDualPlaneCandidate(pixels blockio.PixelBlockU8, mode, rotation, sel, rgbLevels, alphaLevels int, w, wSq [4]float32, flags blockio.Flags, tweakRounds int) (result, bool) {
	rgbFit := fitSubset(pixels, allPixels[:], 3, w)
	rgbErr, rgbA, rgbB, rgbIdx := refinePlane(pixels, mode, rgbLevels, rgbFit, wSq, flags, tweakRounds, false)

	minA, maxA := 255, 0
	for _, px := range allPixels {
		a := int(pixels.Pixels[px][3])
		if a < minA {
			minA = a
		}
		if a > maxA {
			maxA = a
		}
	}
	alphaFit := subsetFit{alphaA: minA, alphaB: maxA}
	alphaErr, alphaA, alphaB, alphaIdx := refinePlane(pixels, mode, alphaLevels, alphaFit, wSq, flags, tweakRounds, true)

	var ep [2][4]int
	for ch := 0; ch < 3; ch++ {
		ep[0][ch] = rgbA[ch]
		ep[1][ch] = rgbB[ch]
	}
	ep[0][3], ep[1][3] = alphaA[0], alphaB[0]

	return result{
		bestError: rgbErr + alphaErr,
		mode:      mode,
		partition: 0,
		rotation:  rotation,
		indexSel:  sel,
		ep:        [3][2][4]int{ep},
		indexes:   rgbIdx,
		indexes2:  alphaIdx,
	}, true
}

// refinePlane runs the tweak x refine search for one independently-indexed
// plane of a dual-plane mode: the RGB plane (isAlpha false) or the alpha
// plane (isAlpha true), each viewed through a local 4-wide endpoint window
// so the shared compressEndpoints/SelectIndexLDR helpers can be reused.
func refinePlane(pixels blockio.PixelBlockU8, mode, levels int, fit subsetFit, wSq [4]float32, flags blockio.Flags, tweakRounds int, isAlpha bool) (err float32, a, b [4]int, idx [16]int) {
	channels := 3
	if isAlpha {
		channels = 1
	}
	tryAdj := !flags.Has(blockio.BC7FastIndexing)

	best := inf()
	var bestA, bestB [4]int
	var bestIdx [16]int

	for tweak := 0; tweak < tweakRounds; tweak++ {
		var curA, curB [4]int
		if isAlpha {
			curA[3], curB[3] = fit.alphaA, fit.alphaB
		} else {
			fa, fb := endpoint.FinishLDR(fit.unf, tweak, tweakRounds)
			for ch := 0; ch < 3; ch++ {
				curA[ch], curB[ch] = fa[ch], fb[ch]
			}
		}

		var curErr float32
		var curIdx [16]int
		var curEPOut [2][4]int

		for round := 0; round < defaultRefineRounds; round++ {
			compressed := clampEndpoints(compressEndpoints(mode, endpointPair{curA, curB}, [2]int{0, 0}))
			curEPOut = compressed

			var la, lb [4]int
			if isAlpha {
				la[0], lb[0] = compressed[0][3], compressed[1][3]
			} else {
				for ch := 0; ch < 3; ch++ {
					la[ch], lb[ch] = compressed[0][ch], compressed[1][ch]
				}
			}

			refiner := endpoint.NewRefiner(levels)
			var sumErr float32
			for _, px := range allPixels {
				var target [4]float32
				var wLocal [4]float32
				if isAlpha {
					target[0] = float32(pixels.Pixels[px][3])
					wLocal[0] = wSq[3]
				} else {
					for ch := 0; ch < 3; ch++ {
						target[ch] = float32(pixels.Pixels[px][ch])
						wLocal[ch] = wSq[ch]
					}
				}

				ix, _ := endpoint.SelectIndexLDR(la, lb, channels, target, wLocal, levels, tryAdj)
				curIdx[px] = ix
				recon := reconstruct(endpointPair{la, lb}, ix, channels, levels)
				for ch := 0; ch < channels; ch++ {
					d := recon[ch] - target[ch]
					sumErr += wLocal[ch] * d * d
				}
				refiner.Add(ix, target, channels)
			}
			curErr = sumErr

			if round != defaultRefineRounds-1 {
				ra, rb := refiner.Solve(channels)
				if isAlpha {
					curA[3] = clamp255(int(ra[0] + 0.5))
					curB[3] = clamp255(int(rb[0] + 0.5))
				} else {
					for ch := 0; ch < 3; ch++ {
						curA[ch] = clamp255(int(ra[ch] + 0.5))
						curB[ch] = clamp255(int(rb[ch] + 0.5))
					}
				}
			}
		}

		if curErr < best {
			best = curErr
			bestA, bestB = curEPOut[0], curEPOut[1]
			bestIdx = curIdx
		}
	}

	return best, bestA, bestB, bestIdx
}

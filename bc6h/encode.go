package bc6h

import (
	"github.com/blockforge/texcomp/blockio"
	"github.com/blockforge/texcomp/endpoint"
	"github.com/blockforge/texcomp/errorcalc"
	"golang.org/x/image/math/f32"
)

const defaultTweakRounds = 4
const defaultRefineRounds = 2

// result is the per-block work state produced by the search and consumed by
// pack. ep holds raw quantized field values (the output
// of quantize{Signed,Unsigned}Element at the mode's aPrec, before any
// delta-transform) rather than the transformed/delta-encoded values pack
// writes; pack re-derives the delta via evaluateLegality, which the search
// already verified succeeds.
type result struct {
	bestError float32
	modeIdx   int
	partition int
	signed    bool
	ep        [2][2][3]int32 // [subset][endpoint][channel]
	indexes   [16]int
}

// EncodeBlock searches every enabled precision/mode/partition/tweak/refine
// combination for one HDR block and returns the best candidate's packed
// bytes.
func EncodeBlock(pixels blockio.PixelBlockF16, weights [3]float32, flags blockio.Flags, signed bool) [16]byte {
	r := searchBlock(pixels, weights, flags, signed)
	return pack(r)
}

func searchBlock(pixels blockio.PixelBlockF16, weights [3]float32, flags blockio.Flags, signed bool) result {
	var internal [16]internalPixel
	for px := 0; px < 16; px++ {
		internal[px] = toInternal(pixels.Pixels[px], signed)
	}

	uniform := flags.Has(blockio.Uniform)
	w := weights
	if uniform {
		w = [3]float32{1, 1, 1}
	}
	wSq := [3]float32{w[0] * w[0], w[1] * w[1], w[2] * w[2]}
	tryAdjacent := !flags.Has(blockio.BC6HFastIndexing)

	best := result{bestError: inf(), signed: signed}

	if cand, ok := searchUnpartitioned(internal, w, wSq, tryAdjacent, signed); ok && cand.bestError < best.bestError {
		best = cand
	}
	if cand, ok := searchPartitioned(internal, w, wSq, tryAdjacent, signed); ok && cand.bestError < best.bestError {
		best = cand
	}
	return best
}

// searchUnpartitioned tries every single-subset mode at every precision for
// which one exists.
func searchUnpartitioned(internal [16]internalPixel, w, wSq [3]float32, tryAdjacent, signed bool) (result, bool) {
	all := allPixelIndexes()
	fit := fitSubset(internal, all, w)

	best := result{bestError: inf()}
	found := false

	for p := maxHDRPrecision; p >= 0; p-- {
		if !hdrModesExistForPrecision[0][p] {
			continue
		}
		for midx := range hdrModes {
			m := hdrModes[midx]
			if m.partitioned || m.aPrec != p {
				continue
			}
			for tweak := 0; tweak < defaultTweakRounds; tweak++ {
				a, b := finishHDR(fit, tweak, defaultTweakRounds, signed)
				qa := quantizeTriple(a, signed, p)
				qb := quantizeTriple(b, signed, p)
				if !legalAgainstBase(qa, qb, m, p) {
					continue
				}

				cand, ok := refineSubset(internal, all, qa, qb, wSq, tryAdjacent, signed, p, 16)
				if !ok {
					continue
				}
				canonicalizeAnchor(16, &cand.qa, &cand.qb, &cand.idx, all, 0)
				if !legalAgainstBase(cand.qa, cand.qb, m, p) {
					continue
				}
				var full result
				full.bestError = cand.err
				full.modeIdx = midx
				full.partition = 0
				full.signed = signed
				full.ep[0][0], full.ep[0][1] = cand.qa, cand.qb
				full.indexes = cand.idx

				if full.bestError < best.bestError {
					best = full
					found = true
				}
			}
		}
	}
	return best, found
}

// searchPartitioned tries every 2-subset partition/mode/precision
// combination.
func searchPartitioned(internal [16]internalPixel, w, wSq [3]float32, tryAdjacent, signed bool) (result, bool) {
	best := result{bestError: inf()}
	found := false

	for part := 0; part < 32; part++ {
		var subsetPx [2][]int
		for px := 0; px < 16; px++ {
			s := subsetOf(part, px)
			subsetPx[s] = append(subsetPx[s], px)
		}
		if len(subsetPx[0]) == 0 || len(subsetPx[1]) == 0 {
			continue
		}
		fit0 := fitSubset(internal, subsetPx[0], w)
		fit1 := fitSubset(internal, subsetPx[1], w)

		for p := maxHDRPrecision; p >= 0; p-- {
			if !hdrModesExistForPrecision[1][p] {
				continue
			}
			for midx := range hdrModes {
				m := hdrModes[midx]
				if !m.partitioned || m.aPrec != p {
					continue
				}

				var total float32
				var epOut [2][2][3]int32
				var idxOut [16]int
				ok := true

				for s := 0; s < 2; s++ {
					fit := fit0
					if s == 1 {
						fit = fit1
					}

					bestSub := subsetCandidate{err: inf()}
					for tweak := 0; tweak < defaultTweakRounds; tweak++ {
						a, b := finishHDR(fit, tweak, defaultTweakRounds, signed)
						qa := quantizeTriple(a, signed, p)
						qb := quantizeTriple(b, signed, p)
						// Legality only constrains endpoints other than
						// subset-0-endpoint-0; that endpoint is always the
						// transform base and is unconditionally legal.
						if s != 0 {
							if !legalAgainstBase(epOut[0][0], qa, m, p) || !legalAgainstBase(epOut[0][0], qb, m, p) {
								continue
							}
						} else if !legalAgainstBase(qa, qb, m, p) {
							continue
						}

						cand, candOK := refineSubset(internal, subsetPx[s], qa, qb, wSq, tryAdjacent, signed, p, 8)
						if !candOK {
							continue
						}
						if cand.err < bestSub.err {
							bestSub = cand
						}
					}
					if bestSub.err == inf() {
						ok = false
						break
					}
					anchorPx := 0
					if s == 1 {
						anchorPx = fixupIndexes[part]
					}
					canonicalizeAnchor(8, &bestSub.qa, &bestSub.qb, &bestSub.idx, subsetPx[s], anchorPx)

					total += bestSub.err
					epOut[s][0], epOut[s][1] = bestSub.qa, bestSub.qb
					for _, px := range subsetPx[s] {
						idxOut[px] = bestSub.idx[px]
					}
				}
				if !ok {
					continue
				}
				// Refinement and anchor canonicalization can move the
				// endpoints after the per-tweak checks above.
				base := epOut[0][0]
				if !legalAgainstBase(base, epOut[0][1], m, p) || !legalAgainstBase(base, epOut[1][0], m, p) || !legalAgainstBase(base, epOut[1][1], m, p) {
					continue
				}

				if total < best.bestError {
					best = result{
						bestError: total,
						modeIdx:   midx,
						partition: part,
						signed:    signed,
						ep:        epOut,
						indexes:   idxOut,
					}
					found = true
				}
			}
		}
	}
	return best, found
}

// legalAgainstBase checks the per-mode delta-legality rule for
// both non-base endpoints of one subset against base (subset-0-endpoint-0).
// For a non-transformed mode, bPrec equals aPrec and every encoding is
// legal by construction.
func legalAgainstBase(base, ep [3]int32, m modeInfo, p int) bool {
	for ch := 0; ch < 3; ch++ {
		if _, ok := evaluateLegality(ep[ch], base[ch], p, m.bPrec[ch], m.transformed); !ok {
			return false
		}
	}
	return true
}

type subsetCandidate struct {
	err    float32
	qa, qb [3]int32
	idx    [16]int
}

// refineSubset runs the Lloyd refinement loop for one subset's pixels given
// an initial quantized endpoint pair, re-quantizing the refined fit back to
// precision p each round.
func refineSubset(internal [16]internalPixel, subsetPx []int, qa, qb [3]int32, wSq [3]float32, tryAdjacent, signed bool, p, levels int) (subsetCandidate, bool) {
	if len(subsetPx) == 0 {
		return subsetCandidate{}, false
	}

	curQA, curQB := qa, qb
	best := subsetCandidate{err: inf()}

	for round := 0; round < defaultRefineRounds; round++ {
		ra := unquantizeTriple(curQA, signed, p)
		rb := unquantizeTriple(curQB, signed, p)

		acc := errorcalc.New(errorcalc.Weighted, [4]float32{wSq[0], wSq[1], wSq[2], 0}, false, !tryAdjacent)
		refiner := endpoint.NewRefiner(levels)

		var idx [16]int
		for _, px := range subsetPx {
			target := internal[px].colorSpaceFloat()
			ix, _ := endpoint.SelectIndexHDR(ra, rb, target, wSq, levels, tryAdjacent)
			idx[px] = ix

			table := endpoint.WeightTable(bitsForHDRLevels(levels))
			w := table[ix]
			var recon [3]float32
			for ch := 0; ch < 3; ch++ {
				recon[ch] = float32(endpoint.Interpolate(ra[ch], rb[ch], w))
			}
			acc.AddPixel([4]float32{recon[0], recon[1], recon[2], 0}, [4]float32{target[0], target[1], target[2], 0})
			refiner.Add(ix, [4]float32{target[0], target[1], target[2], 0}, 3)
		}
		curErr := acc.Total()

		if curErr < best.err {
			best.err = curErr
			best.qa, best.qb = curQA, curQB
			best.idx = idx
		}

		if round != defaultRefineRounds-1 {
			fa, fb := refiner.Solve(3)
			for ch := 0; ch < 3; ch++ {
				curQA[ch] = quantizeElement(int32(fa[ch]+0.5), signed, p)
				curQB[ch] = quantizeElement(int32(fb[ch]+0.5), signed, p)
			}
		}
	}

	if best.err == inf() {
		return subsetCandidate{}, false
	}
	return best, true
}

// canonicalizeAnchor enforces the implicit-top-bit-zero convention at a
// subset's fixup pixel by swapping the endpoint pair and complementing every index
// in the subset when the anchor pixel's index is in the upper half; the
// symmetric weight tables make this value-preserving.
func canonicalizeAnchor(levels int, qa, qb *[3]int32, idx *[16]int, subsetPx []int, anchorPx int) {
	if idx[anchorPx] < levels/2 {
		return
	}
	*qa, *qb = *qb, *qa
	for _, px := range subsetPx {
		idx[px] = levels - 1 - idx[px]
	}
}

func allPixelIndexes() []int {
	out := make([]int, 16)
	for i := range out {
		out[i] = i
	}
	return out
}

// fitSubset fits the covariance axis over the subset's pre-weighted color
// space pixels; GetEndpoints descales back to the unweighted color space.
func fitSubset(internal [16]internalPixel, subsetPx []int, w [3]float32) endpoint.Unfinished {
	preWeighted := func(px int) f32.Vec3 {
		p := internal[px].colorSpaceFloat()
		return f32.Vec3{p[0] * w[0], p[1] * w[1], p[2] * w[2]}
	}

	var sel endpoint.Selector
	for _, px := range subsetPx {
		sel.AddMeanPass(preWeighted(px), 1)
	}
	sel.FinishMeanPass()
	pts := make([]f32.Vec3, 0, len(subsetPx))
	for _, px := range subsetPx {
		v := preWeighted(px)
		sel.AddCovariancePass(v, 1)
		pts = append(pts, v)
	}
	return sel.GetEndpoints(pts, w[:])
}

func finishHDR(u endpoint.Unfinished, tweak, rounds int, signed bool) (a, b [3]int32) {
	if signed {
		ai, bi := endpoint.FinishHDRSigned(u, tweak, rounds)
		return toInt32Triple(ai), toInt32Triple(bi)
	}
	ai, bi := endpoint.FinishHDRUnsigned(u, tweak, rounds)
	return toInt32Triple(ai), toInt32Triple(bi)
}

func toInt32Triple(v [3]int) [3]int32 {
	return [3]int32{int32(v[0]), int32(v[1]), int32(v[2])}
}

func quantizeTriple(v [3]int32, signed bool, p int) [3]int32 {
	var out [3]int32
	for ch := 0; ch < 3; ch++ {
		out[ch] = quantizeElement(v[ch], signed, p)
	}
	return out
}

func quantizeElement(v int32, signed bool, p int) int32 {
	if signed {
		return quantizeSignedElement(v, p)
	}
	return quantizeUnsignedElement(v, p)
}

func unquantizeTriple(q [3]int32, signed bool, p int) [3]int {
	var out [3]int
	for ch := 0; ch < 3; ch++ {
		if signed {
			out[ch] = int(unquantizeSignedElement(q[ch], p).finished)
		} else {
			out[ch] = int(unquantizeUnsignedElement(q[ch], p).finished)
		}
	}
	return out
}

func bitsForHDRLevels(levels int) int {
	if levels == 8 {
		return 3
	}
	return 4
}

func inf() float32 { return 3.0e38 }

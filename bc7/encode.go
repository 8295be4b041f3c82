package bc7

import (
	"github.com/blockforge/texcomp/blockio"
	"github.com/blockforge/texcomp/endpoint"
	"github.com/blockforge/texcomp/errorcalc"
	"github.com/blockforge/texcomp/lane"
	"golang.org/x/image/math/f32"
)

// defaultRefineRounds is the default number of Lloyd refinement rounds per
// (mode, partition, parity, tweak) candidate.
const defaultRefineRounds = 2

// result is the per-block work state mutated across mode evaluation.
type result struct {
	bestError float32
	mode      int
	partition int
	rotation  int
	indexSel  int
	ep        [3][2][4]int // per-subset endpoint pairs
	parity    [3][2]int    // per-subset, per-endpoint parity bits
	indexes   [16]int
	indexes2  [16]int // dual-plane alpha indices
}

// EncodeBlock searches every enabled BC7 mode/partition/shape/tweak/refine
// combination for one block and returns the best candidate's packed bytes.
func EncodeBlock(pixels blockio.PixelBlockU8, weights blockio.ChannelWeights, flags blockio.Flags, plan *Plan) [16]byte {
	r := searchBlock(pixels, weights, flags, plan, false)
	return pack(r)
}

// EncodeBatch encodes a batch of blocks in lockstep into out (16 bytes per
// block). The RGB-only mode gate is derived across the whole batch: one
// lane with non-opaque alpha retires modes 0-3 for every lane.
func EncodeBatch(out []byte, blocks []blockio.PixelBlockU8, weights blockio.ChannelWeights, flags blockio.Flags, plan *Plan) {
	hasAlpha := lane.NewMask(len(blocks))
	for i := range blocks {
		for _, px := range blocks[i].Pixels {
			if px[3] < 255 {
				hasAlpha[i] = true
				break
			}
		}
	}
	batchHasAlpha := hasAlpha.Any()

	for i, blk := range blocks {
		r := searchBlock(blk, weights, flags, plan, batchHasAlpha)
		encoded := pack(r)
		copy(out[i*16:], encoded[:])
	}
}

func searchBlock(pixels blockio.PixelBlockU8, weights blockio.ChannelWeights, flags blockio.Flags, plan *Plan, batchHasAlpha bool) result {
	minA := 255
	maxA := 0
	for _, px := range pixels.Pixels {
		a := int(px[3])
		if a < minA {
			minA = a
		}
		if a > maxA {
			maxA = a
		}
	}
	anyBlockHasAlpha := minA < 255 || batchHasAlpha
	isPunchThrough := true
	for _, px := range pixels.Pixels {
		a := int(px[3])
		if a != 0 && a != 255 {
			isPunchThrough = false
			break
		}
	}
	gate := punchThroughGate{
		active:     flags.Has(blockio.BC7RespectPunchThrough) && isPunchThrough,
		hasNonZero: maxA > 0,
		hasNonMax:  minA < 255,
	}

	uniform := flags.Has(blockio.Uniform)
	w := [4]float32(weights)
	if uniform {
		w = [4]float32{1, 1, 1, 1}
	}
	wSq := [4]float32{w[0] * w[0], w[1] * w[1], w[2] * w[2], w[3] * w[3]}

	best := result{bestError: inf()}

	for mode := 0; mode < 8; mode++ {
		if mode == 4 || mode == 5 {
			continue // dual-plane modes handled by searchDualPlane
		}
		m := modes[mode]
		if m.alphaMode == alphaNone && anyBlockHasAlpha {
			continue // modes 0-3 fix alpha=255 and cannot represent real alpha
		}

		numParts := numPartitionsFor(m)
		for part := 0; part < numParts; part++ {
			rounds := plan.seedPointsFor(mode, part)
			if rounds <= 0 {
				continue
			}

			cand, ok := tryModePartition(pixels, mode, part, w, wSq, flags, rounds, gate)
			if !ok {
				continue
			}
			if cand.bestError < best.bestError {
				best = cand
			}
		}
	}

	if flags.Has(blockio.BC7TrySingleColor) {
		if sc, ok := trySingleColor(pixels, wSq, anyBlockHasAlpha); ok && sc.bestError < best.bestError {
			best = sc
		}
	}

	if dp, ok := searchDualPlane(pixels, w, wSq, flags, plan); ok && dp.bestError < best.bestError {
		best = dp
	}

	return best
}

// tryModePartition evaluates one (mode, partition) pair across every
// subset, parity combination, tweak round, and refinement round, and
// returns the best candidate for that pair alone.
func tryModePartition(pixels blockio.PixelBlockU8, mode, part int, w, wSq [4]float32, flags blockio.Flags, tweakRounds int, gate punchThroughGate) (result, bool) {
	m := modes[mode]

	subsetPixels := make([][]int, m.numSubsets)
	for px := 0; px < 16; px++ {
		s := subsetIndex(m.numSubsets, part, px)
		subsetPixels[s] = append(subsetPixels[s], px)
	}

	var total float32
	var epOut [3][2][4]int
	var parityOut [3][2]int
	var idxOut [16]int
	anyInvalid := false

	for s := 0; s < m.numSubsets; s++ {
		best, ok := bestSubsetCandidate(pixels, subsetPixels[s], mode, w, wSq, flags, tweakRounds, gate)
		if !ok {
			anyInvalid = true
			break
		}
		total += best.err
		epOut[s] = best.ep
		parityOut[s] = best.parity
		for _, px := range subsetPixels[s] {
			idxOut[px] = best.idx[px]
		}
	}
	if anyInvalid {
		return result{}, false
	}

	return result{
		bestError: total,
		mode:      mode,
		partition: part,
		ep:        epOut,
		parity:    parityOut,
		indexes:   idxOut,
	}, true
}

type subsetCandidate struct {
	err    float32
	ep     [2][4]int
	parity [2]int
	idx    [16]int
}

// bestSubsetCandidate runs the parity x tweak x refine search for one
// subset's pixels and returns its best endpoint pair and index assignment.
func bestSubsetCandidate(pixels blockio.PixelBlockU8, subsetPx []int, mode int, w, wSq [4]float32, flags blockio.Flags, tweakRounds int, gate punchThroughGate) (subsetCandidate, bool) {
	if len(subsetPx) == 0 {
		return subsetCandidate{}, false
	}
	m := modes[mode]
	levels := 1 << uint(m.indexBits)
	channels := 3
	includeAlpha := m.alphaMode == alphaCombined
	if includeAlpha {
		channels = 4
	}

	fit := fitSubset(pixels, subsetPx, channels, w)

	parities := parityCombos(m.pBitMode)

	best := subsetCandidate{err: inf()}

	// Fixed-alpha error: modes with no alpha channel reconstruct α=255
	// regardless of index, so this term is constant per subset and is
	// added once to every candidate's color error.
	var fixedAlphaErr float32
	if !includeAlpha {
		for _, px := range subsetPx {
			srcA := float32(pixels.Pixels[px][3])
			if srcA != 255 {
				d := 255 - srcA
				fixedAlphaErr += wSq[3] * d * d
			}
		}
	}

	for _, parity := range parities {
		if gate.active && includeAlpha && !parityKeepsPunchThrough(parity, gate) {
			continue
		}

		for tweak := 0; tweak < tweakRounds; tweak++ {
			a, b := endpointFinish(fit, tweak, tweakRounds)
			var curEP [2][4]int
			for ch := 0; ch < 3; ch++ {
				curEP[0][ch] = a[ch]
				curEP[1][ch] = b[ch]
			}
			if includeAlpha {
				curEP[0][3] = fit.alphaA
				curEP[1][3] = fit.alphaB
			} else {
				curEP[0][3] = 255
				curEP[1][3] = 255
			}

			var curErr float32
			var curIdx [16]int
			var curCompressed endpointPair

			for round := 0; round < defaultRefineRounds; round++ {
				compressed := clampEndpoints(compressEndpoints(mode, endpointPair(curEP), parity))
				curCompressed = compressed

				acc := errorcalc.New(errorcalc.Weighted, [4]float32(wSq), includeAlpha, flags.Has(blockio.BC7FastIndexing))
				refiner := endpoint.NewRefiner(levels)

				for _, px := range subsetPx {
					target := pixelAsFloat(pixels, px, channels)
					a4, b4 := [4]int(compressed[0]), [4]int(compressed[1])
					tryAdj := !flags.Has(blockio.BC7FastIndexing)
					ix, _ := endpoint.SelectIndexLDR(a4, b4, channels, target, wSq, levels, tryAdj)
					curIdx[px] = ix

					recon := reconstruct(compressed, ix, channels, levels)
					acc.AddPixel(recon, target)

					refiner.Add(ix, target, channels)
				}
				curErr = acc.Total() + fixedAlphaErr

				if round != defaultRefineRounds-1 {
					ra, rb := refiner.Solve(channels)
					for ch := 0; ch < channels; ch++ {
						curEP[0][ch] = clamp255(int(ra[ch] + 0.5))
						curEP[1][ch] = clamp255(int(rb[ch] + 0.5))
					}
				}
			}

			if curErr < best.err {
				best.err = curErr
				best.ep = curCompressed
				best.parity = parity
				for _, px := range subsetPx {
					best.idx[px] = curIdx[px]
				}
			}
		}
	}

	if best.err == inf() {
		return subsetCandidate{}, false
	}
	return best, true
}

// parityCombos returns the parity-bit combinations to try for a mode's
// pBitMode, per endpoint (2 bits) or per subset (1 bit) or none.
func parityCombos(pm pBitMode) [][2]int {
	switch pm {
	case pBitPerEndpoint:
		return [][2]int{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	case pBitPerSubset:
		return [][2]int{{0, 0}, {1, 1}}
	default:
		return [][2]int{{0, 0}}
	}
}

// punchThroughGate carries the block-wide alpha facts the
// BC7RespectPunchThrough policy needs when vetting parity combinations:
// whether the gate applies at all, and which exact alpha values the block
// actually uses.
type punchThroughGate struct {
	active     bool // flag set and every source alpha is exactly 0 or 255
	hasNonZero bool // some pixel has alpha > 0
	hasNonMax  bool // some pixel has alpha < 255
}

// parityKeepsPunchThrough reports whether a mode 6/7 parity combination can
// still reconstruct the block's punch-through alpha exactly. Parity is
// injected into the alpha endpoints too: both-zero parities cap the
// reconstructed alpha below 255, both-one parities lift it above 0, and
// mixed parities can hit neither extreme.
//
// Ported from the punchThroughInvalid setup in BC7Computer::TrySinglePlane()
// in ConvectionKernels_BC67.cpp.
func parityKeepsPunchThrough(parity [2]int, gate punchThroughGate) bool {
	switch {
	case parity[0] == 0 && parity[1] == 0:
		return !gate.hasNonZero
	case parity[0] == 1 && parity[1] == 1:
		return !gate.hasNonMax
	default:
		return false
	}
}

type subsetFit struct {
	unf            endpoint.Unfinished
	alphaA, alphaB int
}

// fitSubset runs the two-pass covariance selector over one subset's
// pre-weighted pixels: the axis is fitted in the channel-weight metric and
// GetEndpoints descales the result back to raw 0..255 space.
func fitSubset(pixels blockio.PixelBlockU8, subsetPx []int, channels int, w [4]float32) subsetFit {
	preWeighted := func(px int) f32.Vec3 {
		return f32.Vec3{
			float32(pixels.Pixels[px][0]) * w[0],
			float32(pixels.Pixels[px][1]) * w[1],
			float32(pixels.Pixels[px][2]) * w[2],
		}
	}

	var sel endpoint.Selector
	for _, px := range subsetPx {
		sel.AddMeanPass(preWeighted(px), 1)
	}
	sel.FinishMeanPass()
	pts := make([]f32.Vec3, 0, len(subsetPx))
	for _, px := range subsetPx {
		p := preWeighted(px)
		sel.AddCovariancePass(p, 1)
		pts = append(pts, p)
	}
	unf := sel.GetEndpoints(pts, []float32{w[0], w[1], w[2]})

	minA, maxA := 255, 0
	if channels == 4 {
		minA, maxA = 255, 0
		for _, px := range subsetPx {
			a := int(pixels.Pixels[px][3])
			if a < minA {
				minA = a
			}
			if a > maxA {
				maxA = a
			}
		}
	}
	return subsetFit{unf: unf, alphaA: minA, alphaB: maxA}
}

func endpointFinish(fit subsetFit, tweak, numRounds int) (a, b [3]int) {
	return endpoint.FinishLDR(fit.unf, tweak, numRounds)
}

func pixelAsFloat(pixels blockio.PixelBlockU8, px, channels int) [4]float32 {
	var out [4]float32
	for ch := 0; ch < channels; ch++ {
		out[ch] = float32(pixels.Pixels[px][ch])
	}
	return out
}

func reconstruct(ep endpointPair, idx, channels, levels int) [4]float32 {
	table := endpoint.WeightTable(bitsFor(levels))
	w := table[idx]
	var out [4]float32
	for ch := 0; ch < channels; ch++ {
		out[ch] = float32(endpoint.Interpolate(ep[0][ch], ep[1][ch], w))
	}
	return out
}

func bitsFor(levels int) int {
	switch levels {
	case 4:
		return 2
	case 8:
		return 3
	default:
		return 4
	}
}

func subsetIndex(numSubsets, part, px int) int {
	if numSubsets == 1 {
		return 0
	}
	if numSubsets == 2 {
		return subsetOf2(part, px)
	}
	return subsetOf3(part, px)
}

func inf() float32 { return 3.0e38 }

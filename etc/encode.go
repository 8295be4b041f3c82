package etc

import (
	"math"
	"sort"

	"github.com/blockforge/texcomp/blockio"
	"github.com/blockforge/texcomp/colorspace"
)

type options struct {
	uniform      bool
	fakeBT709    bool
	fakeAccurate bool
	weights      [3]float32
}

func optionsFrom(weights blockio.ChannelWeights, flags blockio.Flags) options {
	o := options{
		uniform:      flags.Has(blockio.Uniform),
		fakeBT709:    flags.Has(blockio.ETCUseFakeBT709),
		fakeAccurate: flags.Has(blockio.ETCFakeBT709Accurate),
		weights:      [3]float32{weights[0], weights[1], weights[2]},
	}
	if o.uniform {
		o.fakeBT709 = false
		o.weights = [3]float32{1, 1, 1}
	}
	return o
}

// workBlock carries one block's raw pixels alongside their pre-weighted
// (or fake-BT.709-projected) float form used for error computation.
type workBlock struct {
	pixels      [16][3]int
	preWeighted [16][3]float32
}

// extractBlock mirrors ETCComputer::ExtractBlocks() in
// ConvectionKernels_ETC.cpp for a single block.
func extractBlock(src blockio.PixelBlockU8, opts options) workBlock {
	var blk workBlock
	for px := 0; px < 16; px++ {
		for ch := 0; ch < 3; ch++ {
			blk.pixels[px][ch] = int(src.Pixels[px][ch])
		}
		switch {
		case opts.fakeBT709:
			y, u, v := colorspace.ToFakeBT709(
				float32(blk.pixels[px][0]), float32(blk.pixels[px][1]), float32(blk.pixels[px][2]))
			blk.preWeighted[px] = [3]float32{y, u, v}
		case opts.uniform:
			for ch := 0; ch < 3; ch++ {
				blk.preWeighted[px][ch] = float32(blk.pixels[px][ch])
			}
		default:
			for ch := 0; ch < 3; ch++ {
				blk.preWeighted[px][ch] = float32(blk.pixels[px][ch]) * opts.weights[ch]
			}
		}
	}
	return blk
}

func computeErrorUniform(a, b [3]int) float32 {
	var e float32
	for ch := 0; ch < 3; ch++ {
		d := float32(a[ch] - b[ch])
		e += d * d
	}
	return e
}

func computeErrorWeighted(reconstructed [3]int, preWeighted [3]float32, opts options) float32 {
	var e float32
	for ch := 0; ch < 3; ch++ {
		d := float32(reconstructed[ch])*opts.weights[ch] - preWeighted[ch]
		e += d * d
	}
	return e
}

func computeErrorFakeBT709(reconstructed [3]int, preWeighted [3]float32) float32 {
	y, u, v := colorspace.ToFakeBT709(
		float32(reconstructed[0]), float32(reconstructed[1]), float32(reconstructed[2]))
	dy, du, dv := y-preWeighted[0], u-preWeighted[1], v-preWeighted[2]
	return dy*dy + du*du + dv*dv
}

// pixelError dispatches to the error metric selected by the options.
func pixelError(reconstructed [3]int, px int, blk *workBlock, opts options) float32 {
	switch {
	case opts.fakeBT709:
		return computeErrorFakeBT709(reconstructed, blk.preWeighted[px])
	case opts.uniform:
		return computeErrorUniform(reconstructed, blk.pixels[px])
	default:
		return computeErrorWeighted(reconstructed, blk.preWeighted[px], opts)
	}
}

// testHalfBlock scores one candidate base color against a half-block for
// one modifier table, assigning each pixel its best 2-bit selector.
//
// Ported from ETCComputer::TestHalfBlock() in ConvectionKernels_ETC.cpp.
func testHalfBlock(quantizedPacked int, halfPixels [8][3]int, halfPreWeighted [8][3]float32, table int, isDifferential bool, opts options) (float32, uint16) {
	var unquantized [3]int
	for ch := 0; ch < 3; ch++ {
		q := (quantizedPacked >> uint(ch*5)) & 31
		if isDifferential {
			unquantized[ch] = (q << 3) | (q >> 2)
		} else {
			unquantized[ch] = (q << 4) | q
		}
	}

	var modified [4][3]int
	for s := 0; s < 4; s++ {
		for ch := 0; ch < 3; ch++ {
			modified[s][ch] = clamp255(unquantized[ch] + modifierTables[table][s])
		}
	}

	var totalError float32
	var selectors uint16
	for px := 0; px < 8; px++ {
		bestError := inf()
		bestSelector := 0
		for s := 0; s < 4; s++ {
			var e float32
			switch {
			case opts.fakeBT709:
				e = computeErrorFakeBT709(modified[s], halfPreWeighted[px])
			case opts.uniform:
				e = computeErrorUniform(halfPixels[px], modified[s])
			default:
				e = computeErrorWeighted(modified[s], halfPreWeighted[px], opts)
			}
			if e < bestError {
				bestError = e
				bestSelector = s
			}
		}
		totalError += bestError
		selectors |= uint16(bestSelector) << uint(px*2)
	}
	return totalError, selectors
}

// differentialIsLegalForChannelScalar reports whether a second-sector base
// channel is expressible as a signed 3-bit delta of the first. This check
// and its caller run per lane by design.
//
// Ported from ETCComputer::ETCDifferentialIsLegalForChannelScalar() in
// ConvectionKernels_ETC.cpp.
func differentialIsLegalForChannelScalar(a, b int) bool {
	diff := b - a
	return -4 <= diff && diff <= 3
}

func differentialIsLegalScalar(a, b int) bool {
	return differentialIsLegalForChannelScalar(a>>10, b>>10) &&
		differentialIsLegalForChannelScalar((a>>5)&31, (b>>5)&31) &&
		differentialIsLegalForChannelScalar(a&31, b&31)
}

const maxAttemptsPerSector = 8 * 160

// differentialResolveStorage is the scratch arena for the ETC1 differential
// pair search, owned by the caller's CompressionData so one batch reuses it
// across blocks.
type differentialResolveStorage struct {
	numAttempts [2]int
	errors      [2][maxAttemptsPerSector]float32
	selectors   [2][maxAttemptsPerSector]uint16
	colors      [2][maxAttemptsPerSector]int
	tables      [2][maxAttemptsPerSector]int

	sortIndexes [2][]int
}

// hModeEval is the H-mode candidate scratch, sized for both sectors' unique
// color lists of one table round.
type hModeEval struct {
	errors          [68][16]float32
	signBits        [68]uint16
	colors          [68]int
	numUniqueColors [2]int
}

// CompressionData is the optional per-format scratch structure handed to
// the ETC entry points. Allocate one per goroutine with NewCompressionData
// and reuse it across batches.
type CompressionData struct {
	drs differentialResolveStorage
	h   hModeEval
}

// NewCompressionData returns a scratch arena for the ETC1/ETC2 encoders.
func NewCompressionData() *CompressionData {
	return &CompressionData{}
}

// EncodeETC1Block encodes one block using only the ETC1 individual and
// differential modes: a single-lane batch.
//
// Ported from ETCComputer::CompressETC1Block() in ConvectionKernels_ETC.cpp.
func EncodeETC1Block(src blockio.PixelBlockU8, weights blockio.ChannelWeights, flags blockio.Flags, data *CompressionData) [8]byte {
	var out [8]byte
	EncodeETC1Batch(out[:], []blockio.PixelBlockU8{src}, weights, flags, data)
	return out
}

// EncodeETC2Block encodes one block trying planar, T (both sector
// assignments), H, and the ETC1 modes, keeping the best: a single-lane
// batch.
//
// Ported from ETCComputer::CompressETC2Block() in ConvectionKernels_ETC.cpp.
func EncodeETC2Block(src blockio.PixelBlockU8, weights blockio.ChannelWeights, flags blockio.Flags, data *CompressionData) [8]byte {
	var out [8]byte
	EncodeETC2Batch(out[:], []blockio.PixelBlockU8{src}, weights, flags, data)
	return out
}

// chromaSectorAssignments splits the block's pixels into two sectors along
// the dominant eigenvector of the 2D chromaticity covariance, the seed
// partition shared by the T and H encoders.
//
// Ported from the chroma PCA in ETCComputer::CompressETC2Block().
func chromaSectorAssignments(blk *workBlock) [16]bool {
	const rcpSqrt3 = 0.57735026918962576450914878050196

	var chroma [16][2]int
	var centroid [2]int
	for px := 0; px < 16; px++ {
		chroma[px][0] = blk.pixels[px][0] - blk.pixels[px][2]
		chroma[px][1] = blk.pixels[px][0] - 2*blk.pixels[px][1] + blk.pixels[px][2]
		centroid[0] += chroma[px][0]
		centroid[1] += chroma[px][1]
	}

	var delta [16][2]int
	for px := 0; px < 16; px++ {
		delta[px][0] = chroma[px][0]*16 - centroid[0]
		delta[px][1] = chroma[px][1]*16 - centroid[1]
	}

	var covXX, covYY, covXY float64
	for px := 0; px < 16; px++ {
		nx := float64(delta[px][0])
		ny := float64(delta[px][1]) * rcpSqrt3
		covXX += nx * nx
		covYY += ny * ny
		covXY += nx * ny
	}

	halfTrace := (covXX + covYY) * 0.5
	det := covXX*covYY - covXY*covXY
	mm := halfTrace*halfTrace - det
	if mm < 0 {
		mm = 0
	}
	ev := halfTrace + sqrt64(mm)

	dx := covYY - ev + covXY
	dy := -(covXX - ev + covXY)
	if dx == 0 && dy == 0 {
		dx = 1
	}

	var sectors [16]bool
	for px := 0; px < 16; px++ {
		sectors[px] = float64(delta[px][0])*dx+float64(delta[px][1])*dy*rcpSqrt3 < 0
	}
	return sectors
}

// quantizeHalfCumulative quantizes a clamped half-block channel sum
// (0..2040) to a 5-bit (differential) or 4-bit (individual) base value
// with round-to-nearest.
func quantizeHalfCumulative(cu int, isDifferential bool) int {
	if isDifferential {
		return (cu*31 + (cu >> 3) + 1024) >> 11
	}
	return (cu*30 + (cu >> 3) + 2048) >> 12
}

// compressETC1Internal runs the individual (d=0) and differential (d=1)
// searches over both flips and commits the result to out if it beats
// bestError.
//
// Ported from ETCComputer::CompressETC1BlockInternal() in
// ConvectionKernels_ETC.cpp, with the differential pair-legality search
// kept scalar per the source's own note.
func compressETC1Internal(bestError *float32, out *[8]byte, blk *workBlock, drs *differentialResolveStorage, opts options) {
	var sectorPixels [2][2][8][3]int
	var sectorPreWeighted [2][2][8][3]float32
	var sectorCumulative [2][2][3]int

	for flip := 0; flip < 2; flip++ {
		for sector := 0; sector < 2; sector++ {
			for px := 0; px < 8; px++ {
				src := flipTables[flip][sector][px]
				for ch := 0; ch < 3; ch++ {
					v := blk.pixels[src][ch]
					sectorPixels[flip][sector][px][ch] = v
					sectorPreWeighted[flip][sector][px][ch] = blk.preWeighted[src][ch]
					sectorCumulative[flip][sector][ch] += v
				}
			}
		}
	}

	bestIsThisMode := false
	var bestColors [2]int
	var bestSelectors [2]uint16
	var bestTables [2]int
	bestFlip, bestD := 0, 0

	for flip := 0; flip < 2; flip++ {
		drs.numAttempts[0] = 0
		drs.numAttempts[1] = 0

		bestIndError := [2]float32{inf(), inf()}
		var bestIndSelectors [2]uint16
		var bestIndColors [2]int
		var bestIndTables [2]int

		for d := 0; d < 2; d++ {
			for sector := 0; sector < 2; sector++ {
				for table := 0; table < 8; table++ {
					offsets := potentialOffsets[table]

					lastColor := -1
					for _, offset := range offsets {
						var quantized [3]int
						if !opts.fakeBT709 {
							for ch := 0; ch < 3; ch++ {
								cu := clampInt(sectorCumulative[flip][sector][ch]+offset, 0, 2040)
								quantized[ch] = quantizeHalfCumulative(cu, d == 1)
							}
						} else {
							var offsetCumulative [3]int
							for ch := 0; ch < 3; ch++ {
								offsetCumulative[ch] = clampInt(sectorCumulative[flip][sector][ch]+offset, 0, 2040)
							}
							if opts.fakeAccurate {
								quantized = resolveHalfBlockFakeBT709RoundingAccurate(offsetCumulative, d == 1)
							} else {
								quantized = resolveHalfBlockFakeBT709RoundingFast(offsetCumulative, d == 1)
							}
						}

						packed := quantized[0] | quantized[1]<<5 | quantized[2]<<10
						if packed == lastColor {
							continue
						}
						lastColor = packed

						err, selectors := testHalfBlock(packed, sectorPixels[flip][sector], sectorPreWeighted[flip][sector], table, d == 1, opts)

						if d == 0 {
							if err < bestIndError[sector] {
								bestIndError[sector] = err
								bestIndSelectors[sector] = selectors
								bestIndColors[sector] = packed
								bestIndTables[sector] = table
							}
						} else {
							n := drs.numAttempts[sector]
							drs.errors[sector][n] = err
							drs.selectors[sector][n] = selectors
							drs.colors[sector][n] = packed
							drs.tables[sector][n] = table
							drs.numAttempts[sector] = n + 1
						}
					}
				}
			}

			if d == 0 {
				total := bestIndError[0] + bestIndError[1]
				if total < *bestError {
					*bestError = total
					bestIsThisMode = true
					bestFlip, bestD = flip, d
					for sector := 0; sector < 2; sector++ {
						bestColors[sector] = bestIndColors[sector]
						bestSelectors[sector] = bestIndSelectors[sector]
						bestTables[sector] = bestIndTables[sector]
					}
				}
				continue
			}

			// Differential pair resolve: early-outs and per-attempt index
			// lookups vary too much between blocks to batch profitably, so
			// this stays scalar.
			bestDiffErrors := [2]float32{inf(), inf()}
			var bestDiffSelectors [2]uint16
			var bestDiffColors [2]int
			var bestDiffTables [2]int
			for sector := 0; sector < 2; sector++ {
				for i := 0; i < drs.numAttempts[sector]; i++ {
					if drs.errors[sector][i] < bestDiffErrors[sector] {
						bestDiffErrors[sector] = drs.errors[sector][i]
						bestDiffSelectors[sector] = drs.selectors[sector][i]
						bestDiffColors[sector] = drs.colors[sector][i]
						bestDiffTables[sector] = drs.tables[sector][i]
					}
				}
			}

			if bestDiffErrors[0]+bestDiffErrors[1] >= *bestError {
				continue
			}

			if differentialIsLegalScalar(bestDiffColors[0], bestDiffColors[1]) {
				*bestError = bestDiffErrors[0] + bestDiffErrors[1]
				bestIsThisMode = true
				bestFlip, bestD = flip, d
				for sector := 0; sector < 2; sector++ {
					bestColors[sector] = bestDiffColors[sector]
					bestSelectors[sector] = bestDiffSelectors[sector]
					bestTables[sector] = bestDiffTables[sector]
				}
				continue
			}

			// The best pair is illegal: sort the candidates of each sector
			// by error and scan (i, j) pairs, stopping at the first legal
			// combination that still beats the block best.
			var numSortIndexes [2]int
			for sector := 0; sector < 2; sector++ {
				if cap(drs.sortIndexes[sector]) < maxAttemptsPerSector {
					drs.sortIndexes[sector] = make([]int, 0, maxAttemptsPerSector)
				}
				drs.sortIndexes[sector] = drs.sortIndexes[sector][:0]
				for i := 0; i < drs.numAttempts[sector]; i++ {
					if drs.errors[sector][i] < *bestError {
						drs.sortIndexes[sector] = append(drs.sortIndexes[sector], i)
					}
				}
				numSortIndexes[sector] = len(drs.sortIndexes[sector])

				sec := sector
				sort.Slice(drs.sortIndexes[sec], func(a, b int) bool {
					ia, ib := drs.sortIndexes[sec][a], drs.sortIndexes[sec][b]
					if drs.errors[sec][ia] != drs.errors[sec][ib] {
						return drs.errors[sec][ia] < drs.errors[sec][ib]
					}
					return ia < ib
				})
			}

			for i := 0; i < numSortIndexes[0]; i++ {
				attempt0 := drs.sortIndexes[0][i]
				error0 := drs.errors[0][attempt0]
				if error0 >= *bestError {
					break
				}
				maxError1 := *bestError - error0
				if maxError1 < bestDiffErrors[1] {
					break
				}
				color0 := drs.colors[0][attempt0]

				for j := 0; j < numSortIndexes[1]; j++ {
					attempt1 := drs.sortIndexes[1][j]
					error1 := drs.errors[1][attempt1]
					if error1 >= maxError1 {
						break
					}
					color1 := drs.colors[1][attempt1]
					if !differentialIsLegalScalar(color0, color1) {
						continue
					}

					*bestError = error0 + error1
					maxError1 = *bestError - error0
					bestIsThisMode = true
					bestFlip, bestD = flip, d
					bestColors[0] = color0
					bestColors[1] = color1
					bestSelectors[0] = drs.selectors[0][attempt0]
					bestSelectors[1] = drs.selectors[1][attempt1]
					bestTables[0] = drs.tables[0][attempt0]
					bestTables[1] = drs.tables[1][attempt1]
					break
				}
			}
		}
	}

	if !bestIsThisMode {
		return
	}

	var highBits, lowBits uint32

	var colors [2][3]int
	for sector := 0; sector < 2; sector++ {
		for ch := 0; ch < 3; ch++ {
			colors[sector][ch] = (bestColors[sector] >> uint(ch*5)) & 31
		}
	}

	if bestD == 0 {
		highBits |= uint32(colors[0][0]) << 28
		highBits |= uint32(colors[1][0]) << 24
		highBits |= uint32(colors[0][1]) << 20
		highBits |= uint32(colors[1][1]) << 16
		highBits |= uint32(colors[0][2]) << 12
		highBits |= uint32(colors[1][2]) << 8
	} else {
		highBits |= uint32(colors[0][0]) << 27
		highBits |= uint32((colors[1][0]-colors[0][0])&7) << 24
		highBits |= uint32(colors[0][1]) << 19
		highBits |= uint32((colors[1][1]-colors[0][1])&7) << 16
		highBits |= uint32(colors[0][2]) << 11
		highBits |= uint32((colors[1][2]-colors[0][2])&7) << 8
	}
	highBits |= uint32(bestTables[0]) << 5
	highBits |= uint32(bestTables[1]) << 2
	highBits |= uint32(bestD) << 1
	highBits |= uint32(bestFlip)

	var selectorCodes [16]int
	for sector := 0; sector < 2; sector++ {
		for px := 0; px < 8; px++ {
			selector := int(bestSelectors[sector]>>uint(2*px)) & 3
			selectorCodes[flipTables[bestFlip][sector][px]] = modifierCodes[selector]
		}
	}

	for sb := 0; sb < 2; sb++ {
		for px := 0; px < 16; px++ {
			lowBits |= uint32((selectorCodes[pixelSelectorOrder[px]]>>uint(sb))&1) << uint(px+sb*16)
		}
	}

	writeBlockWords(out, highBits, lowBits)
}

// writeBlockWords emits the two big-endian 32-bit halves of an 8-byte ETC
// block.
func writeBlockWords(out *[8]byte, highBits, lowBits uint32) {
	for i := 0; i < 4; i++ {
		out[i] = byte(highBits >> uint(24-i*8))
		out[i+4] = byte(lowBits >> uint(24-i*8))
	}
}

func clamp255(v int) int {
	return clampInt(v, 0, 255)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func sqrt64(v float64) float64 { return math.Sqrt(v) }

func inf() float32 { return 3.0e38 }

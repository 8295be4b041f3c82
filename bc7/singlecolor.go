package bc7

import (
	"github.com/blockforge/texcomp/blockio"
	"github.com/blockforge/texcomp/endpoint"
)

// singleColorEntry records the best (field, field, error) achievable when
// reconstructing one exact 8-bit channel value with a given index, searched
// over every representable quantized endpoint pair at a mode's precision.
type singleColorEntry struct {
	loField, hiField int
	err              float32
}

// singleColorTables[mode][value][index] is computed once at init() instead
// of hand-transcribed, since the production tables are themselves the
// product of an identical offline brute-force search. The parity bit is
// held at 0 throughout: a deliberate simplification of the per-endpoint and
// per-subset parity dimension, recorded alongside this package's other
// single-color design decisions.
var singleColorTables [8][256][]singleColorEntry

func init() {
	for mode := 0; mode < 8; mode++ {
		m := modes[mode]
		if m.alphaMode == alphaSeparate {
			continue // dual-plane modes are searched by searchDualPlane instead
		}
		bits := rgbFieldBits(mode)
		levels := 1 << uint(m.indexBits)
		table := endpoint.WeightTable(m.indexBits)
		maxQ := 1 << uint(bits)

		for v := 0; v < 256; v++ {
			entries := make([]singleColorEntry, levels)
			for idx := 0; idx < levels; idx++ {
				w := table[idx]
				best := singleColorEntry{err: inf()}
				for lo := 0; lo < maxQ; lo++ {
					loFull := expandField(mode, lo)
					for hi := 0; hi < maxQ; hi++ {
						hiFull := expandField(mode, hi)
						recon := float32(endpoint.Interpolate(loFull, hiFull, w))
						d := recon - float32(v)
						if e := d * d; e < best.err {
							best = singleColorEntry{loField: lo, hiField: hi, err: e}
						}
					}
				}
				entries[idx] = best
			}
			singleColorTables[mode][v] = entries
		}
	}
}

// rgbFieldBits returns the packed bit width of one endpoint channel field
// for mode, excluding the parity bit.
func rgbFieldBits(mode int) int {
	switch mode {
	case 0:
		return 4
	case 1:
		return 6
	case 2:
		return 5
	case 3:
		return 7
	case 6:
		return 7
	case 7:
		return 5
	default:
		panic("bc7: rgbFieldBits: unsupported mode")
	}
}

// expandField reconstructs the full 0..255 value compressEndpoints would
// produce for a bare (parity-0) field at mode's precision; the inverse of
// packField with parity 0.
func expandField(mode, field int) int {
	switch mode {
	case 0:
		return unquantize(field<<1, 5)
	case 1:
		return unquantize(field<<1, 7)
	case 2:
		return unquantize(field, 5)
	case 3:
		return field << 1
	case 6:
		return field << 1
	case 7:
		return unquantize(field<<1, 6)
	default:
		panic("bc7: expandField: unsupported mode")
	}
}

// trySingleColor treats the block as if it held one solid color (its
// average) and probes mode 6's single-color table — the common
// whole-block-solid short-circuit. Per-shape
// single-color probing inside a multi-subset mode's own search loop is not
// attempted here.
func trySingleColor(pixels blockio.PixelBlockU8, wSq [4]float32, anyBlockHasAlpha bool) (result, bool) {
	var sum [4]float32
	for _, px := range pixels.Pixels {
		for ch := 0; ch < 4; ch++ {
			sum[ch] += float32(px[ch])
		}
	}
	var avg [4]int
	for ch := 0; ch < 4; ch++ {
		avg[ch] = clamp255(int(sum[ch]/16 + 0.5))
	}

	const mode = 6
	m := modes[mode]
	levels := 1 << uint(m.indexBits)

	bestIdx := -1
	bestErr := inf()
	var bestField [4]struct{ lo, hi int }
	for idx := 0; idx < levels; idx++ {
		var errSum float32
		var field [4]struct{ lo, hi int }
		for ch := 0; ch < 4; ch++ {
			e := singleColorTables[mode][avg[ch]][idx]
			errSum += wSq[ch] * e.err
			field[ch] = struct{ lo, hi int }{e.loField, e.hiField}
		}
		if errSum < bestErr {
			bestErr = errSum
			bestIdx = idx
			bestField = field
		}
	}
	if bestIdx < 0 {
		return result{}, false
	}

	var ep [2][4]int
	for ch := 0; ch < 4; ch++ {
		ep[0][ch] = expandField(mode, bestField[ch].lo)
		ep[1][ch] = expandField(mode, bestField[ch].hi)
	}

	var idxOut [16]int
	for px := 0; px < 16; px++ {
		idxOut[px] = bestIdx
	}

	return result{
		bestError: bestErr,
		mode:      mode,
		partition: 0,
		ep:        [3][2][4]int{ep},
		indexes:   idxOut,
	}, true
}

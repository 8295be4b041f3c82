package bc7

import "github.com/blockforge/texcomp/bitio"

// pack normalizes the winning candidate's index MSBs into canonical form
// and emits the 16-byte BC7 block.
//
// Ported from BC7Computer::Pack() in ConvectionKernels_BC67.cpp.
func pack(r result) [16]byte {
	m := modes[r.mode]
	normalizeIndexes(&r, m)

	var w bitio.Writer
	w.Init()
	w.Pack(1<<uint(r.mode), r.mode+1)

	if m.partitionBits > 0 {
		w.Pack(uint32(r.partition), m.partitionBits)
	}
	if m.alphaMode == alphaSeparate {
		w.Pack(uint32(r.rotation), 2)
	}
	if m.hasIndexSelector {
		w.Pack(uint32(r.indexSel), 1)
	}

	channels := 3
	if m.alphaMode == alphaCombined {
		channels = 4
	}
	for ch := 0; ch < channels; ch++ {
		for s := 0; s < m.numSubsets; s++ {
			for j := 0; j < 2; j++ {
				field := packField(r.mode, ch, r.ep[s][j][ch], r.parity[s][j])
				w.Pack(uint32(field), m.rgbBits)
			}
		}
	}
	if m.alphaMode == alphaSeparate {
		for j := 0; j < 2; j++ {
			field := packField(r.mode, 3, r.ep[0][j][3], 0)
			w.Pack(uint32(field), m.alphaBits)
		}
	}

	packParityBits(&w, r, m)

	primaryBits, secondaryBits := effectiveIndexBits(m, r.indexSel)

	for px := 0; px < 16; px++ {
		width := primaryBits
		if isFixupPixel(m, r.partition, px) {
			width--
		}
		w.Pack(uint32(r.indexes[px]), width)
	}
	if m.alphaMode == alphaSeparate {
		for px := 0; px < 16; px++ {
			width := secondaryBits
			if px == 0 {
				width--
			}
			w.Pack(uint32(r.indexes2[px]), width)
		}
	}

	var out [16]byte
	w.Flush(out[:])
	return out
}

// packField extracts the raw (parity-excluded) bit field to pack for one
// endpoint channel value, re-quantizing the reconstructed/unquantized value
// compressEndpoints left in ep.
func packField(mode, ch, value, parity int) int {
	switch mode {
	case 0:
		return quantizeP(value, 4, parity) >> 1
	case 1:
		return quantizeP(value, 6, parity) >> 1
	case 2:
		return quantize(value, 5)
	case 3:
		return value >> 1
	case 4:
		if ch == 3 {
			return quantize(value, 6)
		}
		return quantize(value, 5)
	case 5:
		if ch == 3 {
			return value
		}
		return quantize(value, 7)
	case 6:
		return value >> 1
	case 7:
		return quantizeP(value, 5, parity) >> 1
	default:
		panic("bc7: packField: unsupported mode")
	}
}

// packParityBits emits the mode's parity bits, subset-major then
// endpoint-major, per its pBitMode policy.
func packParityBits(w *bitio.Writer, r result, m modeInfo) {
	switch m.pBitMode {
	case pBitPerEndpoint:
		for s := 0; s < m.numSubsets; s++ {
			for j := 0; j < 2; j++ {
				w.Pack(uint32(r.parity[s][j]), 1)
			}
		}
	case pBitPerSubset:
		for s := 0; s < m.numSubsets; s++ {
			w.Pack(uint32(r.parity[s][0]), 1)
		}
	case pBitNone:
		// no parity bits
	}
}

// effectiveIndexBits returns the (primary-stream, secondary-stream) index
// widths, swapped when mode 4's index selector is 1.
func effectiveIndexBits(m modeInfo, indexSel int) (primary, secondary int) {
	if m.hasIndexSelector && indexSel == 1 {
		return m.alphaIndexBits, m.indexBits
	}
	return m.indexBits, m.alphaIndexBits
}

// isFixupPixel reports whether px is the fixup pixel of any subset of
// partition under mode m.
func isFixupPixel(m modeInfo, partition, px int) bool {
	for s := 0; s < m.numSubsets; s++ {
		if fixupPixel(m.numSubsets, partition, s) == px {
			return true
		}
	}
	return false
}

// normalizeIndexes applies the canonical-form transform:
// per subset, if the fixup pixel's index has its top bit set, invert every
// index in that subset and swap the subset's endpoints (and parity bits).
// Separate (dual-plane) mode normalizes its two index streams
// independently.
func normalizeIndexes(r *result, m modeInfo) {
	if m.alphaMode == alphaSeparate {
		primaryBits, secondaryBits := effectiveIndexBits(m, r.indexSel)
		normalizeStream(r.indexes[:], primaryBits, []int{0}, func(s int) {
			for ch := 0; ch < 3; ch++ {
				r.ep[0][0][ch], r.ep[0][1][ch] = r.ep[0][1][ch], r.ep[0][0][ch]
			}
		})
		normalizeStream(r.indexes2[:], secondaryBits, []int{0}, func(s int) {
			r.ep[0][0][3], r.ep[0][1][3] = r.ep[0][1][3], r.ep[0][0][3]
		})
		return
	}

	for s := 0; s < m.numSubsets; s++ {
		fixup := fixupPixel(m.numSubsets, r.partition, s)
		half := 1 << uint(m.indexBits-1)
		if r.indexes[fixup] < half {
			continue
		}
		maxIdx := (1 << uint(m.indexBits)) - 1
		for px := 0; px < 16; px++ {
			if subsetIndex(m.numSubsets, r.partition, px) == s {
				r.indexes[px] = maxIdx - r.indexes[px]
			}
		}
		channels := 3
		if m.alphaMode == alphaCombined {
			channels = 4
		}
		for ch := 0; ch < channels; ch++ {
			r.ep[s][0][ch], r.ep[s][1][ch] = r.ep[s][1][ch], r.ep[s][0][ch]
		}
		r.parity[s][0], r.parity[s][1] = r.parity[s][1], r.parity[s][0]
	}
}

// normalizeStream flips a single-subset index stream (the dual-plane
// primary or secondary stream) to canonical form around fixup pixel 0.
func normalizeStream(indexes []int, bits int, subsetFixups []int, swapEndpoints func(s int)) {
	half := 1 << uint(bits-1)
	fixup := subsetFixups[0]
	if indexes[fixup] < half {
		return
	}
	maxIdx := (1 << uint(bits)) - 1
	for px := range indexes {
		indexes[px] = maxIdx - indexes[px]
	}
	swapEndpoints(0)
}

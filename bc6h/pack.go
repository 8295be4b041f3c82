package bc6h

import "github.com/blockforge/texcomp/bitio"

// pack serializes a search result to its 16-byte block. The header layout here is a generic contiguous field-position table
// (mode ID, partition, then every endpoint field subset-major /
// endpoint-major / channel-major) rather than the real hardware's
// non-contiguous per-mode bit scatter, which is not present in the
// available reference source — see DESIGN.md.
func pack(r result) [16]byte {
	m := hdrModes[r.modeIdx]

	var w bitio.Writer
	w.Init()

	w.Pack(uint32(m.modeID), 5)
	if m.partitioned {
		w.Pack(uint32(r.partition), 5)
	}

	base := r.ep[0][0]
	for ch := 0; ch < 3; ch++ {
		w.Pack(fieldBits(base[ch]), m.aPrec)
	}

	writeOther := func(s int) {
		for ch := 0; ch < 3; ch++ {
			encoded, _ := evaluateLegality(r.ep[s][1][ch], base[ch], m.aPrec, m.bPrec[ch], m.transformed)
			w.Pack(fieldBits(encoded), m.bPrec[ch])
		}
	}
	writeOther(0)
	if m.partitioned {
		for ch := 0; ch < 3; ch++ {
			encoded, _ := evaluateLegality(r.ep[1][0][ch], base[ch], m.aPrec, m.bPrec[ch], m.transformed)
			w.Pack(fieldBits(encoded), m.bPrec[ch])
		}
		writeOther(1)
	}

	indexBits := 4
	if m.partitioned {
		indexBits = 3
	}
	for px := 0; px < 16; px++ {
		width := indexBits
		if isAnchorPixel(m.partitioned, r.partition, px) {
			width--
		}
		w.Pack(uint32(r.indexes[px]), width)
	}

	var out [16]byte
	w.Flush(out[:])
	return out
}

// fieldBits converts a possibly-negative delta/value to its raw bit pattern
// for Writer.Pack, which only inspects the low `bits` bits.
func fieldBits(v int32) uint32 { return uint32(v) }

// isAnchorPixel reports whether px is the implicit top-bit-dropped fixup
// pixel for its subset: pixel 0 always anchors subset 0, and
// fixupIndexes[partition] anchors subset 1 when the block is partitioned.
func isAnchorPixel(partitioned bool, partition, px int) bool {
	if px == 0 {
		return true
	}
	return partitioned && px == fixupIndexes[partition]
}

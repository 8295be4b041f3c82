package bc6h

import (
	"github.com/blockforge/texcomp/bitio"
	"github.com/blockforge/texcomp/blockio"
	"github.com/blockforge/texcomp/endpoint"
)

// UnpackOne decodes a 16-byte BC6H block to 16 half-float RGB pixels. It
// exists only as a round-trip test oracle.
//
// An unrecognized mode ID decodes to black with alpha irrelevant (BC6H
// carries no alpha channel); an unknown mode decodes as black with α=1.0
// for formats that do carry one.
func UnpackOne(block [16]byte, signed bool) blockio.PixelBlockF16 {
	var r bitio.Reader
	r.Init(block[:])

	modeID := r.Unpack(5)
	midx := findMode(uint16(modeID))
	if midx < 0 {
		return blockio.PixelBlockF16{}
	}
	m := hdrModes[midx]

	partition := 0
	if m.partitioned {
		partition = int(r.Unpack(5))
	}

	var base [3]int32
	for ch := 0; ch < 3; ch++ {
		bits := r.Unpack(m.aPrec)
		if signed {
			base[ch] = signExtend(bits, m.aPrec)
		} else {
			base[ch] = int32(bits)
		}
	}

	// A delta field (transformed mode) is always signed regardless of the
	// block's signed/unsigned pixel format; an absolute field (untransformed
	// mode) follows the block's own sign convention.
	readOther := func() [3]int32 {
		var raw [3]int32
		for ch := 0; ch < 3; ch++ {
			bits := r.Unpack(m.bPrec[ch])
			if m.transformed || signed {
				raw[ch] = signExtend(bits, m.bPrec[ch])
			} else {
				raw[ch] = int32(bits)
			}
		}
		return raw
	}

	var ep [2][2][3]int32
	ep[0][0] = base
	ep[0][1] = undelta(readOther(), base, m)
	if m.partitioned {
		ep[1][0] = undelta(readOther(), base, m)
		ep[1][1] = undelta(readOther(), base, m)
	}

	indexBits := 4
	if m.partitioned {
		indexBits = 3
	}
	var indexes [16]int
	for px := 0; px < 16; px++ {
		width := indexBits
		if isAnchorPixel(m.partitioned, partition, px) {
			width--
		}
		indexes[px] = int(r.Unpack(width))
	}

	var raw [2][2][3]int
	for s := 0; s < 2; s++ {
		for j := 0; j < 2; j++ {
			for ch := 0; ch < 3; ch++ {
				if signed {
					raw[s][j][ch] = int(unquantizeSignedElement(ep[s][j][ch], m.aPrec).finished)
				} else {
					raw[s][j][ch] = int(unquantizeUnsignedElement(ep[s][j][ch], m.aPrec).finished)
				}
			}
		}
	}

	table := endpoint.WeightTable(indexBits)
	var out blockio.PixelBlockF16
	for px := 0; px < 16; px++ {
		s := 0
		if m.partitioned {
			s = subsetOf(partition, px)
		}
		a, b := raw[s][0], raw[s][1]
		w := table[indexes[px]]
		for ch := 0; ch < 3; ch++ {
			v := endpoint.Interpolate(a[ch], b[ch], w)
			out.Pixels[px][ch] = reconstructedToFloat16Bits(int32(v))
		}
	}
	return out
}

func findMode(modeID uint16) int {
	for i := range hdrModes {
		if hdrModes[i].modeID == modeID {
			return i
		}
	}
	return -1
}

// signExtend reinterprets the low bits bits of v as a signed value (delta
// fields, and every field of a signed block, are stored two's-complement).
func signExtend(v uint32, bits int) int32 {
	x := int32(v)
	if x&(1<<uint(bits-1)) != 0 {
		x -= int32(1) << uint(bits)
	}
	return x
}

// undelta reverses the transform: if the mode is transformed, raw is a
// signed delta from base and is added back; otherwise
// raw is already the absolute quantized value.
func undelta(raw, base [3]int32, m modeInfo) [3]int32 {
	if !m.transformed {
		return raw
	}
	mask := int32(1<<uint(m.aPrec)) - 1
	var out [3]int32
	for ch := 0; ch < 3; ch++ {
		out[ch] = (raw[ch] + base[ch]) & mask
	}
	return out
}

package bc7

import (
	"github.com/blockforge/texcomp/bitio"
	"github.com/blockforge/texcomp/blockio"
	"github.com/blockforge/texcomp/endpoint"
)

// UnpackOne decodes a 16-byte BC7 block to its reconstructed pixels. It
// exists only as a round-trip test oracle.
//
// An unknown mode (8 leading zero bits, no unary stop bit) decodes to an
// all-zero block (black, alpha 0).
func UnpackOne(block [16]byte) blockio.PixelBlockU8 {
	var r bitio.Reader
	r.Init(block[:])

	mode := -1
	for i := 0; i < 8; i++ {
		if r.Unpack(1) == 1 {
			mode = i
			break
		}
	}
	if mode < 0 {
		return blockio.PixelBlockU8{}
	}

	m := modes[mode]

	partition := 0
	if m.partitionBits > 0 {
		partition = int(r.Unpack(m.partitionBits))
	}
	rotation := 0
	if m.alphaMode == alphaSeparate {
		rotation = int(r.Unpack(2))
	}
	indexSel := 0
	if m.hasIndexSelector {
		indexSel = int(r.Unpack(1))
	}

	channels := 3
	if m.alphaMode == alphaCombined {
		channels = 4
	}

	var fields [3][2][4]int
	for ch := 0; ch < channels; ch++ {
		for s := 0; s < m.numSubsets; s++ {
			for j := 0; j < 2; j++ {
				fields[s][j][ch] = int(r.Unpack(m.rgbBits))
			}
		}
	}
	var alphaFields [2]int
	if m.alphaMode == alphaSeparate {
		for j := 0; j < 2; j++ {
			alphaFields[j] = int(r.Unpack(m.alphaBits))
		}
	}

	var parity [3][2]int
	switch m.pBitMode {
	case pBitPerEndpoint:
		for s := 0; s < m.numSubsets; s++ {
			for j := 0; j < 2; j++ {
				parity[s][j] = int(r.Unpack(1))
			}
		}
	case pBitPerSubset:
		for s := 0; s < m.numSubsets; s++ {
			p := int(r.Unpack(1))
			parity[s][0], parity[s][1] = p, p
		}
	}

	var ep [3][2][4]int
	for s := 0; s < m.numSubsets; s++ {
		for j := 0; j < 2; j++ {
			for ch := 0; ch < channels; ch++ {
				ep[s][j][ch] = unpackField(mode, ch, fields[s][j][ch], parity[s][j])
			}
			if m.alphaMode == alphaNone {
				ep[s][j][3] = 255
			}
		}
	}
	if m.alphaMode == alphaSeparate {
		for j := 0; j < 2; j++ {
			ep[0][j][3] = unpackField(mode, 3, alphaFields[j], 0)
		}
	}

	primaryBits, secondaryBits := effectiveIndexBits(m, indexSel)

	var indexes, indexes2 [16]int
	for px := 0; px < 16; px++ {
		width := primaryBits
		if isFixupPixel(m, partition, px) {
			width--
		}
		indexes[px] = int(r.Unpack(width))
	}
	if m.alphaMode == alphaSeparate {
		for px := 0; px < 16; px++ {
			width := secondaryBits
			if px == 0 {
				width--
			}
			indexes2[px] = int(r.Unpack(width))
		}
	}

	out := blockio.PixelBlockU8{}
	colorTable := endpoint.WeightTable(primaryBits)
	var alphaTable []int
	if m.alphaMode == alphaSeparate {
		alphaTable = endpoint.WeightTable(secondaryBits)
	}
	for px := 0; px < 16; px++ {
		s := subsetIndex(m.numSubsets, partition, px)
		a, b := ep[s][0], ep[s][1]

		switch m.alphaMode {
		case alphaSeparate:
			cw := colorTable[indexes[px]]
			aw := alphaTable[indexes2[px]]
			for ch := 0; ch < 3; ch++ {
				out.Pixels[px][ch] = uint8(endpoint.Interpolate(a[ch], b[ch], cw))
			}
			out.Pixels[px][3] = uint8(endpoint.Interpolate(a[3], b[3], aw))
		default:
			w := colorTable[indexes[px]]
			for ch := 0; ch < 4; ch++ {
				out.Pixels[px][ch] = uint8(endpoint.Interpolate(a[ch], b[ch], w))
			}
		}
	}

	if rotation != 0 {
		ch := rotation - 1
		for px := 0; px < 16; px++ {
			out.Pixels[px][ch], out.Pixels[px][3] = out.Pixels[px][3], out.Pixels[px][ch]
		}
	}

	return out
}

// unpackField is the exact inverse of packField: it reconstructs the 0..255
// (or field-width, for modes without a post-unquantize step) endpoint value
// from a raw field and parity bit.
func unpackField(mode, ch, field, parity int) int {
	switch mode {
	case 0:
		return unquantize((field<<1)|parity, 5)
	case 1:
		return unquantize((field<<1)|parity, 7)
	case 2:
		return unquantize(field, 5)
	case 3:
		return (field << 1) | parity
	case 4:
		if ch == 3 {
			return unquantize(field, 6)
		}
		return unquantize(field, 5)
	case 5:
		if ch == 3 {
			return field
		}
		return unquantize(field, 7)
	case 6:
		return (field << 1) | parity
	case 7:
		return unquantize((field<<1)|parity, 6)
	default:
		panic("bc7: unpackField: unsupported mode")
	}
}

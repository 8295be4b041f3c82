package bc7

// clamp255 clamps v to [0,255].
func clamp255(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// quantize quantizes a 0..255 channel value to bits precision without a
// parity bit.
//
// Ported from BC7Computer::Quantize() in ConvectionKernels_BC67.cpp.
func quantize(v, bits int) int {
	return ((v << uint(bits)) - v + 127 + (1 << uint(7-bits))) >> 8
}

// quantizeP quantizes a 0..255 channel value to bits precision with an
// injected low-order parity bit p (0 or 1):
//
//	v' = round((v*(2^(b+1)-1) + (p ? 2^(7-b)-1 : 255)) / 2^9) << 1 | p
//
// Ported from BC7Computer::QuantizeP() in ConvectionKernels_BC67.cpp.
func quantizeP(v, bits, p int) int {
	var addend int
	if p != 0 {
		addend = (1 << uint(8-bits)) - 1
	} else {
		addend = 255
	}
	ch := (v<<uint(bits+1) - v + addend) >> 9
	return (ch << 1) | p
}

// unquantize expands a bits-precision channel value back to 0..255 by
// bit-replication.
//
// Ported from BC7Computer::Unquantize() in ConvectionKernels_BC67.cpp.
func unquantize(v, bits int) int {
	v = v << uint(8-bits)
	return v | (v >> uint(bits))
}

// endpointPair is one subset's RGBA endpoint pair.
type endpointPair [2][4]int

// compressEndpoints applies the mode-specific quantizer to one subset's
// endpoint pair, given the parity bits
// to inject (unused entries for pBitNone/pBitPerSubset modes are ignored).
//
// Ported from BC7Computer::CompressEndpoints{0..7}() in
// ConvectionKernels_BC67.cpp.
func compressEndpoints(mode int, ep endpointPair, parity [2]int) endpointPair {
	m := modes[mode]
	channels := 3
	if m.alphaMode == alphaCombined {
		channels = 4
	}

	switch mode {
	case 0:
		for j := 0; j < 2; j++ {
			for ch := 0; ch < 3; ch++ {
				ep[j][ch] = unquantize(quantizeP(ep[j][ch], 4, parity[j]), 5)
			}
			ep[j][3] = 255
		}
	case 1:
		p := parity[0]
		for j := 0; j < 2; j++ {
			for ch := 0; ch < 3; ch++ {
				ep[j][ch] = unquantize(quantizeP(ep[j][ch], 6, p), 7)
			}
			ep[j][3] = 255
		}
	case 2:
		for j := 0; j < 2; j++ {
			for ch := 0; ch < 3; ch++ {
				ep[j][ch] = unquantize(quantize(ep[j][ch], 5), 5)
			}
			ep[j][3] = 255
		}
	case 3:
		for j := 0; j < 2; j++ {
			for ch := 0; ch < 3; ch++ {
				ep[j][ch] = quantizeP(ep[j][ch], 7, parity[j])
			}
			ep[j][3] = 255
		}
	case 4:
		for j := 0; j < 2; j++ {
			for ch := 0; ch < 3; ch++ {
				ep[j][ch] = unquantize(quantize(ep[j][ch], 5), 5)
			}
			ep[j][3] = unquantize(quantize(ep[j][3], 6), 6)
		}
	case 5:
		for j := 0; j < 2; j++ {
			for ch := 0; ch < 3; ch++ {
				ep[j][ch] = unquantize(quantize(ep[j][ch], 7), 7)
			}
			// Alpha is full precision: left untouched.
		}
	case 6:
		for j := 0; j < 2; j++ {
			for ch := 0; ch < channels; ch++ {
				ep[j][ch] = quantizeP(ep[j][ch], 7, parity[j])
			}
		}
	case 7:
		for j := 0; j < 2; j++ {
			for ch := 0; ch < channels; ch++ {
				ep[j][ch] = unquantize(quantizeP(ep[j][ch], 5, parity[j]), 6)
			}
		}
	default:
		panic("bc7: unknown mode in compressEndpoints")
	}
	return ep
}

// clampEndpoints clamps every channel of ep into [0,255].
func clampEndpoints(ep endpointPair) endpointPair {
	for j := 0; j < 2; j++ {
		for ch := 0; ch < 4; ch++ {
			ep[j][ch] = clamp255(ep[j][ch])
		}
	}
	return ep
}

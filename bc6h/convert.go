package bc6h

import "github.com/x448/float16"

// internalPixel is one pixel's BC6H-internal "two's-complement-like" 16-bit
// representation: unsigned values are clamped to
// [0, 31743], signed values are clamped to [-31743, 31743]. This is not
// IEEE float16 — it is the sign-magnitude integer space the hardware
// interpolator operates on directly.
type internalPixel [3]int32

// toInternal converts an IEEE-754 half-float RGB pixel to the BC6H
// internal representation.
//
// Ported from the pixel-ingestion loop at the top of
// BC6HComputer::Pack() in ConvectionKernels_BC67.cpp.
func toInternal(rgb [3]uint16, signed bool) internalPixel {
	var out internalPixel
	for ch := 0; ch < 3; ch++ {
		v := int32(float16ToBits2CL(rgb[ch]))
		if signed {
			if v < -31743 {
				v = -31743
			}
		} else if v < 0 {
			v = 0
		}
		if v > 31743 {
			v = 31743
		}
		out[ch] = v
	}
	return out
}

// float16ToBits2CL reinterprets an IEEE binary16 bit pattern as the signed
// sign-magnitude "2CL" integer BC6H operates on (bit 15 is sign, bits 0-14
// are magnitude, read as a plain signed integer rather than IEEE-754).
func float16ToBits2CL(bits uint16) int16 {
	mag := int16(bits & 0x7fff)
	if bits&0x8000 != 0 {
		return -mag
	}
	return mag
}

// colorSpaceFloat returns the float32 view of the internal representation
// used directly.
func (p internalPixel) colorSpaceFloat() [3]float32 {
	return [3]float32{float32(p[0]), float32(p[1]), float32(p[2])}
}

// linearWeightedFloat converts the 2CL internal representation to a
// perceptually-linear float (by mapping through the half-float value it
// represents) scaled by per-channel weights. The search in encode.go scores
// and selects indexes on colorSpaceFloat instead.
func (p internalPixel) linearWeightedFloat(weights [3]float32) [3]float32 {
	var out [3]float32
	for ch := 0; ch < 3; ch++ {
		out[ch] = twosCLHalfToFloat(p[ch]) * weights[ch]
	}
	return out
}

// twosCLHalfToFloat interprets a 2CL integer as an IEEE half-float bit
// pattern's sign+magnitude form and decodes it to float32.
func twosCLHalfToFloat(v int32) float32 {
	var bits uint16
	if v < 0 {
		bits = uint16(-v) | 0x8000
	} else {
		bits = uint16(v)
	}
	return float16.Frombits(bits).Float32()
}

// reconstructedToFloat16Bits converts an internal (post-interpolation,
// post-finishing-scale) channel value back to an IEEE half-float bit
// pattern for output.
func reconstructedToFloat16Bits(v int32) uint16 {
	if v < 0 {
		m := -v
		if m > 0x7fff {
			m = 0x7fff
		}
		return uint16(m) | 0x8000
	}
	if v > 0x7fff {
		v = 0x7fff
	}
	return uint16(v)
}

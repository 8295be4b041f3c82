package etc

import "github.com/blockforge/texcomp/blockio"

// UnpackColorOne decodes one 8-byte ETC1/ETC2 color block, covering the
// individual, differential, T, H, and planar modes. Alpha is returned as
// 255 everywhere; it lives in the separate EAC block.
func UnpackColorOne(block [8]byte) blockio.PixelBlockU8 {
	highBits := uint32(block[0])<<24 | uint32(block[1])<<16 | uint32(block[2])<<8 | uint32(block[3])
	lowBits := uint32(block[4])<<24 | uint32(block[5])<<16 | uint32(block[6])<<8 | uint32(block[7])

	diffBit := highBits>>1&1 != 0

	var rgb [16][3]int
	if !diffBit {
		rgb = decodeIndividual(highBits, lowBits)
	} else {
		r := int(highBits >> 27 & 31)
		dr := signExtend3(int(highBits >> 24 & 7))
		g := int(highBits >> 19 & 31)
		dg := signExtend3(int(highBits >> 16 & 7))
		b := int(highBits >> 11 & 31)
		db := signExtend3(int(highBits >> 8 & 7))

		switch {
		case r+dr < 0 || r+dr > 31:
			rgb = decodeTMode(highBits, lowBits)
		case g+dg < 0 || g+dg > 31:
			rgb = decodeHMode(highBits, lowBits)
		case b+db < 0 || b+db > 31:
			rgb = decodePlanarMode(highBits, lowBits)
		default:
			rgb = decodeDifferential(highBits, lowBits)
		}
	}

	var out blockio.PixelBlockU8
	for px := 0; px < 16; px++ {
		out.Pixels[px] = [4]uint8{uint8(rgb[px][0]), uint8(rgb[px][1]), uint8(rgb[px][2]), 255}
	}
	return out
}

func signExtend3(v int) int {
	if v >= 4 {
		return v - 8
	}
	return v
}

// selectorAt returns the 2-bit selector code for a pixel from the low
// 32-bit selector word (LSB plane in bits 0..15, MSB plane in 16..31).
// pixelSelectorOrder is the column-major transpose and therefore its own
// inverse, so it maps the pixel straight to its bit position.
func selectorAt(lowBits uint32, pixel int) int {
	bit := pixelSelectorOrder[pixel]
	lsb := int(lowBits >> uint(bit) & 1)
	msb := int(lowBits >> uint(16+bit) & 1)
	return msb<<1 | lsb
}

func decodeSubBlocks(base [2][3]int, tables [2]int, flip int, lowBits uint32) (rgb [16][3]int) {
	for sector := 0; sector < 2; sector++ {
		for _, px := range flipTables[flip][sector] {
			code := selectorAt(lowBits, px)
			m := hwModifier(tables[sector], code)
			for ch := 0; ch < 3; ch++ {
				rgb[px][ch] = clamp255(base[sector][ch] + m)
			}
		}
	}
	return rgb
}

func decodeIndividual(highBits, lowBits uint32) [16][3]int {
	var base [2][3]int
	shifts := [3]int{28, 20, 12}
	for ch := 0; ch < 3; ch++ {
		q0 := int(highBits >> uint(shifts[ch]) & 15)
		q1 := int(highBits >> uint(shifts[ch]-4) & 15)
		base[0][ch] = q0<<4 | q0
		base[1][ch] = q1<<4 | q1
	}
	tables := [2]int{int(highBits >> 5 & 7), int(highBits >> 2 & 7)}
	flip := int(highBits & 1)
	return decodeSubBlocks(base, tables, flip, lowBits)
}

func decodeDifferential(highBits, lowBits uint32) [16][3]int {
	var base [2][3]int
	shifts := [3]int{27, 19, 11}
	for ch := 0; ch < 3; ch++ {
		q0 := int(highBits >> uint(shifts[ch]) & 31)
		q1 := q0 + signExtend3(int(highBits>>uint(shifts[ch]-3)&7))
		base[0][ch] = q0<<3 | q0>>2
		base[1][ch] = q1<<3 | q1>>2
	}
	tables := [2]int{int(highBits >> 5 & 7), int(highBits >> 2 & 7)}
	flip := int(highBits & 1)
	return decodeSubBlocks(base, tables, flip, lowBits)
}

func decodeTMode(highBits, lowBits uint32) (rgb [16][3]int) {
	rh := int(highBits >> 27 & 3)
	rl := int(highBits >> 24 & 3)
	isoR := rh<<2 | rl
	isoG := int(highBits >> 20 & 15)
	isoB := int(highBits >> 16 & 15)
	lineR := int(highBits >> 12 & 15)
	lineG := int(highBits >> 8 & 15)
	lineB := int(highBits >> 4 & 15)
	table := int(highBits>>2&3)<<1 | int(highBits&1)
	d := thModifierTable[table]

	expand := func(q int) int { return q<<4 | q }
	iso := [3]int{expand(isoR), expand(isoG), expand(isoB)}
	line := [3]int{expand(lineR), expand(lineG), expand(lineB)}

	var paints [4][3]int
	paints[0] = iso
	for ch := 0; ch < 3; ch++ {
		paints[1][ch] = clamp255(line[ch] + d)
		paints[2][ch] = line[ch]
		paints[3][ch] = clamp255(line[ch] - d)
	}

	for px := 0; px < 16; px++ {
		rgb[px] = paints[selectorAt(lowBits, px)]
	}
	return rgb
}

func decodeHMode(highBits, lowBits uint32) (rgb [16][3]int) {
	r1 := int(highBits >> 27 & 15)
	g1 := int(highBits>>24&7)<<1 | int(highBits>>20&1)
	b1 := int(highBits>>19&1)<<3 | int(highBits>>15&7)
	r2 := int(highBits >> 11 & 15)
	g2 := int(highBits >> 7 & 15)
	b2 := int(highBits >> 3 & 15)

	expand := func(q int) int { return q<<4 | q }
	c1 := [3]int{expand(r1), expand(g1), expand(b1)}
	c2 := [3]int{expand(r2), expand(g2), expand(b2)}

	packed1 := r1<<8 | g1<<4 | b1
	packed2 := r2<<8 | g2<<4 | b2
	ordering := 0
	if packed1 > packed2 {
		ordering = 1
	}
	table := int(highBits>>2&1)<<2 | int(highBits&1)<<1 | ordering
	d := thModifierTable[table]

	var paints [4][3]int
	for ch := 0; ch < 3; ch++ {
		paints[0][ch] = clamp255(c1[ch] + d)
		paints[1][ch] = clamp255(c1[ch] - d)
		paints[2][ch] = clamp255(c2[ch] + d)
		paints[3][ch] = clamp255(c2[ch] - d)
	}

	for px := 0; px < 16; px++ {
		rgb[px] = paints[selectorAt(lowBits, px)]
	}
	return rgb
}

func decodePlanarMode(highBits, lowBits uint32) (rgb [16][3]int) {
	ro := int(highBits >> 25 & 63)
	go1 := int(highBits >> 24 & 1)
	go2 := int(highBits >> 17 & 63)
	go_ := go1<<6 | go2
	bo1 := int(highBits >> 16 & 1)
	bo2 := int(highBits >> 11 & 3)
	bo3 := int(highBits >> 7 & 7)
	bo := bo1<<5 | bo2<<3 | bo3
	rh := int(highBits>>2&31)<<1 | int(highBits&1)

	gh := int(lowBits >> 25 & 127)
	bh := int(lowBits >> 19 & 63)
	rv := int(lowBits >> 13 & 63)
	gv := int(lowBits >> 6 & 127)
	bv := int(lowBits & 63)

	coeffs := [3][3]int{{ro, rh, rv}, {go_, gh, gv}, {bo, bh, bv}}
	for ch := 0; ch < 3; ch++ {
		vals := planarReconstructChannel(coeffs[ch][0], coeffs[ch][1], coeffs[ch][2], ch)
		for px := 0; px < 16; px++ {
			rgb[px][ch] = vals[px]
		}
	}
	return rgb
}

// UnpackAlphaOne decodes one 8-byte EAC alpha block into 16 alpha values.
func UnpackAlphaOne(block [8]byte) (alpha [16]uint8) {
	base := int(block[0])
	multiplier := int(block[1] >> 4)
	table := int(block[1] & 15)

	var bits uint64
	for i := 2; i < 8; i++ {
		bits = bits<<8 | uint64(block[i])
	}

	for s := 0; s < 16; s++ {
		idx := int(bits >> uint(45-s*3) & 7)
		v := clamp255(base + alphaModifier(table, idx)*multiplier)
		alpha[pixelSelectorOrder[s]] = uint8(v)
	}
	return alpha
}

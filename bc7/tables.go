// Package bc7 implements the BC7 single-plane and dual-plane block encoder.
package bc7

// pBitMode selects how parity bits are shared across a mode's endpoints.
type pBitMode uint8

const (
	pBitPerEndpoint pBitMode = iota
	pBitPerSubset
	pBitNone
)

// alphaMode selects how (or whether) a mode encodes alpha.
type alphaMode uint8

const (
	alphaNone alphaMode = iota
	alphaCombined
	alphaSeparate
)

// modeInfo mirrors BC7Data::BC7ModeInfo in ConvectionKernels_BC67.cpp.
type modeInfo struct {
	pBitMode         pBitMode
	alphaMode        alphaMode
	rgbBits          int
	alphaBits        int
	partitionBits    int
	numSubsets       int
	indexBits        int
	alphaIndexBits   int
	hasIndexSelector bool
}

// modes is ported verbatim from BC7Data::g_modes in
// ConvectionKernels_BC67.cpp (mode 3's p-bit mode documented there as
// "per-endpoint" despite a misleading comment in some mirrors of the
// source; this table uses the live, correct value).
var modes = [8]modeInfo{
	{pBitPerEndpoint, alphaNone, 4, 0, 4, 3, 3, 0, false},     // 0
	{pBitPerSubset, alphaNone, 6, 0, 6, 2, 3, 0, false},       // 1
	{pBitNone, alphaNone, 5, 0, 6, 3, 2, 0, false},            // 2
	{pBitPerEndpoint, alphaNone, 7, 0, 6, 2, 2, 0, false},     // 3
	{pBitNone, alphaSeparate, 5, 6, 0, 1, 2, 3, true},         // 4
	{pBitNone, alphaSeparate, 7, 8, 0, 1, 2, 2, false},        // 5
	{pBitPerEndpoint, alphaCombined, 7, 7, 0, 1, 4, 0, false}, // 6
	{pBitPerEndpoint, alphaCombined, 5, 5, 6, 2, 2, 0, false}, // 7
}

// partitionMap2 holds, for each of the 64 2-subset partitions, a 16-bit
// mask where bit i set means pixel i belongs to subset 1 (subset 0
// otherwise).
//
// Ported verbatim from BC7Data::g_partitionMap in
// ConvectionKernels_BC67.cpp.
var partitionMap2 = [64]uint16{
	0xCCCC, 0x8888, 0xEEEE, 0xECC8,
	0xC880, 0xFEEC, 0xFEC8, 0xEC80,
	0xC800, 0xFFEC, 0xFE80, 0xE800,
	0xFFE8, 0xFF00, 0xFFF0, 0xF000,
	0xF710, 0x008E, 0x7100, 0x08CE,
	0x008C, 0x7310, 0x3100, 0x8CCE,
	0x088C, 0x3110, 0x6666, 0x366C,
	0x17E8, 0x0FF0, 0x718E, 0x399C,
	0xaaaa, 0xf0f0, 0x5a5a, 0x33cc,
	0x3c3c, 0x55aa, 0x9696, 0xa55a,
	0x73ce, 0x13c8, 0x324c, 0x3bdc,
	0x6996, 0xc33c, 0x9966, 0x0660,
	0x0272, 0x04e4, 0x4e40, 0x2720,
	0xc936, 0x936c, 0x39c6, 0x639c,
	0x9336, 0x9cc6, 0x817e, 0xe718,
	0xccf0, 0x0fcc, 0x7744, 0xee22,
}

// partitionMap3 holds, for each of the 64 3-subset partitions, 2 bits per
// pixel (32 bits total) giving the subset index 0..2.
//
// Ported verbatim from BC7Data::g_partitionMap2 in
// ConvectionKernels_BC67.cpp.
var partitionMap3 = [64]uint32{
	0xaa685050, 0x6a5a5040, 0x5a5a4200, 0x5450a0a8,
	0xa5a50000, 0xa0a05050, 0x5555a0a0, 0x5a5a5050,
	0xaa550000, 0xaa555500, 0xaaaa5500, 0x90909090,
	0x94949494, 0xa4a4a4a4, 0xa9a59450, 0x2a0a4250,
	0xa5945040, 0x0a425054, 0xa5a5a500, 0x55a0a0a0,
	0xa8a85454, 0x6a6a4040, 0xa4a45000, 0x1a1a0500,
	0x0050a4a4, 0xaaa59090, 0x14696914, 0x69691400,
	0xa08585a0, 0xaa821414, 0x50a4a450, 0x6a5a0200,
	0xa9a58000, 0x5090a0a8, 0xa8a09050, 0x24242424,
	0x00aa5500, 0x24924924, 0x24499224, 0x50a50a50,
	0x500aa550, 0xaaaa4444, 0x66660000, 0xa5a0a5a0,
	0x50a050a0, 0x69286928, 0x44aaaa44, 0x66666600,
	0xaa444444, 0x54a854a8, 0x95809580, 0x96969600,
	0xa85454a8, 0x80959580, 0xaa141414, 0x96960000,
	0xaaaa1414, 0xa05050a0, 0xa0a5a5a0, 0x96000000,
	0x40804080, 0xa9a8a9a8, 0xaaaaaa44, 0x2a4a5254,
}

// fixupIndexes2 is the fixup pixel for each of the 64 2-subset partitions.
//
// Ported verbatim from BC7Data::g_fixupIndexes2.
var fixupIndexes2 = [64]int{
	15, 15, 15, 15,
	15, 15, 15, 15,
	15, 15, 15, 15,
	15, 15, 15, 15,
	15, 2, 8, 2,
	2, 8, 8, 15,
	2, 8, 2, 2,
	8, 8, 2, 2,

	15, 15, 6, 8,
	2, 8, 15, 15,
	2, 8, 2, 2,
	2, 15, 15, 6,
	6, 2, 6, 8,
	15, 15, 2, 2,
	15, 15, 15, 15,
	15, 2, 2, 15,
}

// fixupIndexes3 is the fixup pixel for subsets 1 and 2 of each of the 64
// 3-subset partitions (subset 0's fixup is always pixel 0).
//
// Ported verbatim from BC7Data::g_fixupIndexes3.
var fixupIndexes3 = [64][2]int{
	{3, 15}, {3, 8}, {15, 8}, {15, 3},
	{8, 15}, {3, 15}, {15, 3}, {15, 8},
	{8, 15}, {8, 15}, {6, 15}, {6, 15},
	{6, 15}, {5, 15}, {3, 15}, {3, 8},
	{3, 15}, {3, 8}, {8, 15}, {15, 3},
	{3, 15}, {3, 8}, {6, 15}, {10, 8},
	{5, 3}, {8, 15}, {8, 6}, {6, 10},
	{8, 15}, {5, 15}, {15, 10}, {15, 8},

	{8, 15}, {15, 3}, {3, 15}, {5, 10},
	{6, 10}, {10, 8}, {8, 9}, {15, 10},
	{15, 6}, {3, 15}, {15, 8}, {5, 15},
	{15, 3}, {15, 6}, {15, 6}, {15, 8},
	{3, 15}, {15, 3}, {5, 15}, {5, 15},
	{5, 15}, {8, 15}, {5, 15}, {10, 15},
	{5, 15}, {10, 15}, {8, 15}, {13, 15},
	{15, 3}, {12, 15}, {3, 15}, {3, 8},
}

// subsetOf2 returns the subset (0 or 1) of pixel px under 2-subset
// partition p.
func subsetOf2(p, px int) int {
	return int((partitionMap2[p] >> uint(px)) & 1)
}

// subsetOf3 returns the subset (0, 1, or 2) of pixel px under 3-subset
// partition p.
func subsetOf3(p, px int) int {
	return int((partitionMap3[p] >> uint(2*px)) & 3)
}

// fixupPixel returns the fixup pixel index for subset s (0-based) of
// partition p with numSubsets total subsets.
func fixupPixel(numSubsets, p, s int) int {
	if s == 0 {
		return 0
	}
	if numSubsets == 2 {
		return fixupIndexes2[p]
	}
	return fixupIndexes3[p][s-1]
}

// numPartitionsFor returns how many partitions a mode's partitionBits field
// addresses (16 or 64), or 1 for single-subset modes.
func numPartitionsFor(m modeInfo) int {
	if m.numSubsets == 1 {
		return 1
	}
	if m.partitionBits == 4 {
		return 16
	}
	return 64
}

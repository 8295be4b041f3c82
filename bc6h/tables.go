// Package bc6h implements the BC6H HDR block encoder.
package bc6h

// modeInfo mirrors BC7Data::BC6HModeInfo in ConvectionKernels_BC67.cpp:
// modeID is the wire-format mode selector value, aPrec is the precision of
// subset-0-endpoint-0 (always absolute), bPrec is the per-channel precision
// of every other endpoint (absolute if !transformed, a signed delta from
// subset-0-endpoint-0 if transformed).
type modeInfo struct {
	modeID      uint16
	partitioned bool
	transformed bool
	aPrec       int
	bPrec       [3]int
}

// hdrModes is ported verbatim from BC7Data::g_hdrModes.
var hdrModes = [14]modeInfo{
	{0x00, true, true, 10, [3]int{5, 5, 5}},
	{0x01, true, true, 7, [3]int{6, 6, 6}},
	{0x02, true, true, 11, [3]int{5, 4, 4}},
	{0x06, true, true, 11, [3]int{4, 5, 4}},
	{0x0a, true, true, 11, [3]int{4, 4, 5}},
	{0x0e, true, true, 9, [3]int{5, 5, 5}},
	{0x12, true, true, 8, [3]int{6, 5, 5}},
	{0x16, true, true, 8, [3]int{5, 6, 5}},
	{0x1a, true, true, 8, [3]int{5, 5, 6}},
	{0x1e, true, false, 6, [3]int{6, 6, 6}},
	{0x03, false, false, 10, [3]int{10, 10, 10}},
	{0x07, false, true, 11, [3]int{9, 9, 9}},
	{0x0b, false, true, 12, [3]int{8, 8, 8}},
	{0x0f, false, true, 16, [3]int{4, 4, 4}},
}

// hdrModesExistForPrecision is ported verbatim from
// BC7Data::g_hdrModesExistForPrecision: [partitioned][aPrec].
var hdrModesExistForPrecision = [2][17]bool{
	{false, false, false, false, false, false, false, false, false, false, true, true, true, false, false, false, true},
	{false, false, false, false, false, false, true, true, true, true, true, true, false, false, false, false, false},
}

// maxHDRPrecision is the highest aPrec the search iterates from.
const maxHDRPrecision = 16

// partitionMap holds the first 32 entries of BC7Data::g_partitionMap (BC6H's
// partition field is 5 bits, addressing only the first half of BC7's
// 64-entry 2-subset partition table).
var partitionMap = [32]uint16{
	0xCCCC, 0x8888, 0xEEEE, 0xECC8,
	0xC880, 0xFEEC, 0xFEC8, 0xEC80,
	0xC800, 0xFFEC, 0xFE80, 0xE800,
	0xFFE8, 0xFF00, 0xFFF0, 0xF000,
	0xF710, 0x008E, 0x7100, 0x08CE,
	0x008C, 0x7310, 0x3100, 0x8CCE,
	0x088C, 0x3110, 0x6666, 0x366C,
	0x17E8, 0x0FF0, 0x718E, 0x399C,
}

// fixupIndexes is the first 32 entries of BC7Data::g_fixupIndexes2.
var fixupIndexes = [32]int{
	15, 15, 15, 15,
	15, 15, 15, 15,
	15, 15, 15, 15,
	15, 15, 15, 15,
	15, 2, 8, 2,
	2, 8, 8, 15,
	2, 8, 2, 2,
	8, 8, 2, 2,
}

func subsetOf(p, px int) int {
	return int((partitionMap[p] >> uint(px)) & 1)
}

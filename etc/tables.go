// Package etc implements the ETC1/ETC2 color encoder and the ETC2 EAC
// alpha encoder. Each block tries planar mode, T mode (with both sector assignments), H mode, and the ETC1 individual
// and differential modes, keeps the minimum-error candidate, and packs the
// 8-byte block with the mode-specific header bits.
package etc

import "sort"

// modifierTables are the eight ETC1 codeword tables in ascending order.
//
// Ported from the modifierTables array in
// ETCComputer::CompressETC1BlockInternal() in ConvectionKernels_ETC.cpp.
var modifierTables = [8][4]int{
	{-8, -2, 2, 8},
	{-17, -5, 5, 17},
	{-29, -9, 9, 29},
	{-42, -13, 13, 42},
	{-60, -18, 18, 60},
	{-80, -24, 24, 80},
	{-106, -33, 33, 106},
	{-183, -47, 47, 183},
}

// modifierCodes maps a modifier's position in the ascending table to the
// 2-bit pixel index code the hardware expects (code 0 = small positive,
// 1 = large positive, 2 = small negative, 3 = large negative).
var modifierCodes = [4]int{3, 2, 0, 1}

// hwModifier returns the modifier value the hardware applies for a 2-bit
// pixel index code; the inverse of modifierCodes over modifierTables.
func hwModifier(table, code int) int {
	switch code {
	case 0:
		return modifierTables[table][2]
	case 1:
		return modifierTables[table][3]
	case 2:
		return modifierTables[table][1]
	default:
		return modifierTables[table][0]
	}
}

// thModifierTable is the shared T/H-mode distance table.
var thModifierTable = [8]int{3, 6, 11, 16, 23, 32, 41, 64}

// alphaModifierTablePositive holds the positive half of each EAC alpha
// modifier table; index i of the negative half is -(positive[i]) - 1.
var alphaModifierTablePositive = [16][4]int{
	{2, 5, 8, 14},
	{2, 6, 9, 12},
	{1, 4, 7, 12},
	{1, 3, 5, 12},
	{2, 5, 7, 11},
	{2, 6, 8, 10},
	{3, 6, 7, 10},
	{2, 4, 7, 10},
	{1, 5, 7, 9},
	{1, 4, 7, 9},
	{1, 3, 7, 9},
	{1, 4, 6, 9},
	{2, 3, 6, 9},
	{0, 1, 2, 9},
	{3, 5, 7, 8},
	{2, 4, 6, 8},
}

// alphaModifier returns the decoded EAC modifier for a 3-bit pixel index.
func alphaModifier(table, index int) int {
	if index < 4 {
		return -alphaModifierTablePositive[table][index] - 1
	}
	return alphaModifierTablePositive[table][index-4]
}

const alphaRoundingTableWidth = 16

// alphaRoundingTables maps a positive unmultiplied offset magnitude to the
// nearest entry of the matching positive modifier table. The production
// encoder ships these as offline-generated data; here they are derived at
// init from alphaModifierTablePositive, which keeps them consistent with
// the table values by construction (see DESIGN.md).
var alphaRoundingTables [16][alphaRoundingTableWidth]int

// potentialOffsets lists, per modifier table, the candidate adjustments to
// a half-block's cumulative color sum tried when seeding ETC1 base colors.
// The achievable shifts of an 8-pixel sum are b*i + s*j with |i|+|j| <= 8
// over the table's two modifier magnitudes; the list is deduplicated and
// sorted at init (see DESIGN.md for the divergence from the production
// encoder's offline-generated list).
var potentialOffsets [8][]int

func init() {
	for t := 0; t < 16; t++ {
		pos := alphaModifierTablePositive[t]
		for l := 0; l < alphaRoundingTableWidth; l++ {
			best := 0
			bestDist := -1
			for i := 0; i < 4; i++ {
				d := pos[i] - l
				if d < 0 {
					d = -d
				}
				if bestDist < 0 || d < bestDist || (d == bestDist && pos[i] > pos[best]) {
					best = i
					bestDist = d
				}
			}
			alphaRoundingTables[t][l] = best
		}
	}

	for t := 0; t < 8; t++ {
		s := modifierTables[t][2]
		b := modifierTables[t][3]
		seen := map[int]bool{}
		for i := -8; i <= 8; i++ {
			for j := -8 + abs(i); j <= 8-abs(i); j++ {
				seen[b*i+s*j] = true
			}
		}
		offsets := make([]int, 0, len(seen))
		for v := range seen {
			offsets = append(offsets, v)
		}
		sort.Ints(offsets)
		potentialOffsets[t] = offsets
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// flipTables maps (flip, sector) to the half-block's pixel positions:
// flip 0 splits the block into left/right 2x4 columns, flip 1 into
// top/bottom 4x2 rows.
var flipTables = [2][2][8]int{
	{
		{0, 1, 4, 5, 8, 9, 12, 13},
		{2, 3, 6, 7, 10, 11, 14, 15},
	},
	{
		{0, 1, 2, 3, 4, 5, 6, 7},
		{8, 9, 10, 11, 12, 13, 14, 15},
	},
}

// pixelSelectorOrder is the column-major order in which per-pixel selector
// bits are packed into the low 32 bits of an ETC block.
var pixelSelectorOrder = [16]int{0, 4, 8, 12, 1, 5, 9, 13, 2, 6, 10, 14, 3, 7, 11, 15}

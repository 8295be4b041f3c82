// Package lane provides the batch-of-N-blocks abstraction shared by the
// block encoders: every per-block scalar becomes one lane of a vector
// value, and control flow that differs between lanes is expressed as a
// mask + conditional-set rather than a branch.
//
// This implementation realizes the abstraction as a plain Go slice rather
// than hardware SIMD registers — see DESIGN.md Open Question #1 for why.
// The seam is deliberately thin: callers that want a true vectorized
// backend can swap the element-wise loops in this package for
// architecture-specific code without touching any encoder logic.
package lane

// Width is the default batch size: the number of blocks processed in
// lockstep by one call to an encoder entry point.
const Width = 8

// Mask is a per-lane boolean used for conditional-set operations.
type Mask []bool

// NewMask returns a Mask of n lanes, all false.
func NewMask(n int) Mask { return make(Mask, n) }

// Any reports whether any lane is set.
func (m Mask) Any() bool {
	for _, v := range m {
		if v {
			return true
		}
	}
	return false
}

// F32 is a batch of N independent float32 lanes.
type F32 []float32

// NewF32 returns a batch of n lanes initialized to v.
func NewF32(n int, v float32) F32 {
	out := make(F32, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// Clone returns an independent copy of the batch.
func (a F32) Clone() F32 {
	return append(F32(nil), a...)
}

// Select returns, lane-wise, a where mask is true and b otherwise. It never
// branches on a per-lane condition; the caller computes both a and b and
// lets Select pick.
func (F32) Select(mask Mask, a, b F32) F32 {
	out := make(F32, len(mask))
	for i := range out {
		if mask[i] {
			out[i] = a[i]
		} else {
			out[i] = b[i]
		}
	}
	return out
}

// Less returns a mask that is true in lanes where a < b.
func (a F32) Less(b F32) Mask {
	out := make(Mask, len(a))
	for i := range a {
		out[i] = a[i] < b[i]
	}
	return out
}

// SetIf assigns value into dst at every lane where mask is true, leaving
// other lanes untouched. This is the lane-parallel substitute for
// "if (cond) dst = value;" inside a per-lane loop.
func (dst F32) SetIf(mask Mask, value F32) {
	for i, m := range mask {
		if m {
			dst[i] = value[i]
		}
	}
}

// ExtractLane materializes lane i of a batch for the scalar per-block
// cores: lane-dependent work like the BC7 single-color table probe and the
// ETC1 differential-pair legality sort does not vectorize usefully, so the
// encoders drop to one lane at a time there instead of forcing a vector
// shape onto inherently scalar work.
func ExtractLane[T any](batch []T, i int) T { return batch[i] }

// Package errorcalc accumulates weighted sum-of-squared-differences error
// across a block's pixels.
package errorcalc

import "github.com/blockforge/texcomp/colorspace"

// Mode selects how per-pixel residuals are weighted and combined.
type Mode uint8

const (
	// Uniform sums r²+g²+b²(+a²) with weight 1 per channel.
	Uniform Mode = iota
	// Weighted sums (w_c * diff_c)² per channel using caller-supplied
	// squared channel weights.
	Weighted
	// FakeBT709 projects both colors into the fake-BT.709 basis
	// (colorspace.ToFakeBT709) and sums squared residuals there.
	FakeBT709
)

// Accumulator collects per-pixel squared residuals for one candidate and
// finalizes them into a single scalar error once.
type Accumulator struct {
	mode       Mode
	weightsSq  [4]float32
	sum        float64
	includeA   bool
	fastSkip1v bool // the Fast flag: use the running sum immediately.
}

// New starts a fresh accumulator. weightsSq are the per-channel squared
// weights exactly as the encoders precompute them (ignored in Uniform
// mode), so error scoring and index selection share one metric; includeA
// controls whether a 4th (alpha) channel participates.
func New(mode Mode, weightsSq [4]float32, includeA bool, fast bool) *Accumulator {
	return &Accumulator{mode: mode, weightsSq: weightsSq, includeA: includeA, fastSkip1v: fast}
}

// Fast reports whether the accumulator is in fast (no two-alt-index
// tiebreak) mode.
func (a *Accumulator) Fast() bool { return a.fastSkip1v }

// AddPixel folds in one pixel's residual between the reconstructed and
// source RGBA values (0..255 range expected for LDR use).
func (a *Accumulator) AddPixel(reconstructed, source [4]float32) {
	switch a.mode {
	case FakeBT709:
		ry, ru, rv := colorspace.ToFakeBT709(reconstructed[0], reconstructed[1], reconstructed[2])
		sy, su, sv := colorspace.ToFakeBT709(source[0], source[1], source[2])
		dy, du, dv := ry-sy, ru-su, rv-sv
		a.sum += float64(dy*dy + du*du + dv*dv)
		if a.includeA {
			da := reconstructed[3] - source[3]
			a.sum += float64(da * da)
		}
	case Weighted:
		n := 3
		if a.includeA {
			n = 4
		}
		for ch := 0; ch < n; ch++ {
			d := reconstructed[ch] - source[ch]
			a.sum += float64(a.weightsSq[ch] * d * d)
		}
	default: // Uniform
		n := 3
		if a.includeA {
			n = 4
		}
		for ch := 0; ch < n; ch++ {
			d := reconstructed[ch] - source[ch]
			a.sum += float64(d * d)
		}
	}
}

// Total returns the finalized scalar error.
func (a *Accumulator) Total() float32 { return float32(a.sum) }

// ModeFromFlags derives the error Mode from the shared flags bitset, mapping
// the shared Uniform/ETCUseFakeBT709 flags onto this package's Mode.
func ModeFromFlags(uniform, fakeBT709 bool) Mode {
	switch {
	case uniform:
		return Uniform
	case fakeBT709:
		return FakeBT709
	default:
		return Weighted
	}
}

package endpoint

import "gonum.org/v1/gonum/mat"

// Refiner solves the weighted least-squares problem that recomputes endpoints that minimize squared error given a fixed
// set of per-pixel index assignments (one Lloyd refinement round).
//
// For index levels (2^indexBits values), pixel i with index idx_i
// contributes weight_i_a = (levels-1-idx_i)/(levels-1) toward endpoint a and
// weight_i_b = idx_i/(levels-1) toward endpoint b. Accumulating
// Σ weight_i_a², Σ weight_i_a*weight_i_b, Σ weight_i_b², Σ weight_i_a*p_i,
// and Σ weight_i_b*p_i per channel yields, per channel, the 2x2 system
//
//	[ Σwa²   Σwa*wb ] [a]   [Σwa*p]
//	[ Σwa*wb Σwb²   ] [b] = [Σwb*p]
//
// which this type solves with gonum/mat.
type Refiner struct {
	levels int

	waSq, wawb, wbSq float64
	waP, wbP         [4]float64
	n                int
}

// NewRefiner starts a refiner for an index precision with the given number
// of quantization levels (2^indexBits).
func NewRefiner(levels int) *Refiner {
	if levels < 2 {
		panic("endpoint: Refiner requires at least 2 levels")
	}
	return &Refiner{levels: levels}
}

// Add folds in one pixel: its weight-table index, its channel values (in the
// same space the solved endpoints are returned in), and how many channels
// (3 for RGB, 4 for RGBA) it carries.
func (r *Refiner) Add(index int, preWeightedPixel [4]float32, channels int) {
	wb := float64(index) / float64(r.levels-1)
	wa := 1 - wb

	r.waSq += wa * wa
	r.wawb += wa * wb
	r.wbSq += wb * wb
	for ch := 0; ch < channels; ch++ {
		p := float64(preWeightedPixel[ch])
		r.waP[ch] += wa * p
		r.wbP[ch] += wb * p
	}
	r.n++
}

// Solve returns refined endpoints for the given channel count. It panics if
// no pixels were added.
func (r *Refiner) Solve(channels int) (a, b [4]float64) {
	if r.n == 0 {
		panic("endpoint: Refiner.Solve with zero contributions")
	}

	A := mat.NewDense(2, 2, []float64{r.waSq, r.wawb, r.wawb, r.wbSq})
	for ch := 0; ch < channels; ch++ {
		rhs := mat.NewDense(2, 1, []float64{r.waP[ch], r.wbP[ch]})
		var x mat.Dense
		if err := x.Solve(A, rhs); err != nil {
			// Degenerate system (e.g. every pixel assigned the same
			// index): fall back to placing both endpoints at the mean
			// of the accumulated pixel values.
			mean := (r.waP[ch] + r.wbP[ch]) / float64(r.n)
			a[ch] = mean
			b[ch] = mean
			continue
		}
		a[ch] = x.At(0, 0)
		b[ch] = x.At(1, 0)
	}
	return a, b
}

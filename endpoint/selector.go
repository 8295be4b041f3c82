// Package endpoint implements the covariance-based endpoint selector, the
// weighted-least-squares endpoint refiner, and the LDR/HDR index selectors
// shared by the BC7, BC6H, and ETC encoders.
package endpoint

import (
	"math"

	"golang.org/x/image/math/f32"
	"gonum.org/v1/gonum/mat"
)

// Unfinished is the two-pass covariance fit's output: a mean point and an
// axis of a given half-length, before any per-format quantization. The true
// endpoints are mean ± axis.
type Unfinished struct {
	Mean f32.Vec3
	Axis f32.Vec3
}

// Selector accumulates weighted pixels over two passes and produces an
// Unfinished endpoint pair.
//
// Ported from the two-pass mean/covariance estimator used by
// BC7Computer::TrySinglePlane and BC6HComputer's partition loop in
// ConvectionKernels_BC67.cpp (the source inlines this per call site; this
// module factors it into one reusable type).
type Selector struct {
	n  int
	wn float64

	sum   f32.Vec3 // Σ weight_i * pixel_i
	sumW  float64  // Σ weight_i
	mean  f32.Vec3
	haveM bool

	cov [3][3]float64 // Σ weight_i * (p_i - mean)(p_i - mean)^T
}

// AddMeanPass folds one weighted pixel into the pass-0 (mean) accumulation.
func (s *Selector) AddMeanPass(pixel f32.Vec3, weight float32) {
	s.sum[0] += pixel[0] * weight
	s.sum[1] += pixel[1] * weight
	s.sum[2] += pixel[2] * weight
	s.sumW += float64(weight)
	s.n++
}

// FinishMeanPass finalizes the weighted mean; call once after every
// AddMeanPass for the block/subset, before AddCovariancePass.
func (s *Selector) FinishMeanPass() {
	if s.sumW <= 0 {
		s.mean = f32.Vec3{}
		s.haveM = true
		return
	}
	inv := float32(1.0 / s.sumW)
	s.mean = f32.Vec3{s.sum[0] * inv, s.sum[1] * inv, s.sum[2] * inv}
	s.haveM = true
}

// AddCovariancePass folds one weighted pixel into the pass-1 (covariance
// about the mean) accumulation. FinishMeanPass must have been called first.
func (s *Selector) AddCovariancePass(pixel f32.Vec3, weight float32) {
	if !s.haveM {
		panic("endpoint: AddCovariancePass before FinishMeanPass")
	}
	d := [3]float64{
		float64(pixel[0] - s.mean[0]),
		float64(pixel[1] - s.mean[1]),
		float64(pixel[2] - s.mean[2]),
	}
	w := float64(weight)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			s.cov[i][j] += w * d[i] * d[j]
		}
	}
}

// maxPowerIterations bounds the power-iteration eigenvector search.
const maxPowerIterations = 8

// GetEndpoints extracts the dominant eigenvector of the accumulated
// covariance via power iteration and returns the unfinished endpoint pair
// (mean ± k*axis), where k covers the pixel range along the axis. The
// accumulated pixels are pre-weighted (multiplied by the channel weights),
// so the axis is fitted in the channel-weight metric; weights, when
// non-nil, descale the resulting mean and axis back to raw channel space.
// A nil weights slice means the accumulation was unweighted.
func (s *Selector) GetEndpoints(pixels []f32.Vec3, weights []float32) Unfinished {
	axis := powerIterationDominantEigenvector(s.cov)

	// Project every pixel onto the axis (through the mean) and take the
	// extreme signed distances so mean±axis*scale spans the data.
	var minProj, maxProj float64
	first := true
	for _, p := range pixels {
		d := [3]float64{
			float64(p[0] - s.mean[0]),
			float64(p[1] - s.mean[1]),
			float64(p[2] - s.mean[2]),
		}
		proj := d[0]*axis[0] + d[1]*axis[1] + d[2]*axis[2]
		if first {
			minProj, maxProj = proj, proj
			first = false
			continue
		}
		if proj < minProj {
			minProj = proj
		}
		if proj > maxProj {
			maxProj = proj
		}
	}

	scaledAxis := f32.Vec3{
		float32(axis[0]) * float32(maxProj-minProj) * 0.5,
		float32(axis[1]) * float32(maxProj-minProj) * 0.5,
		float32(axis[2]) * float32(maxProj-minProj) * 0.5,
	}
	center := (maxProj + minProj) * 0.5
	mean := f32.Vec3{
		s.mean[0] + float32(axis[0]*center),
		s.mean[1] + float32(axis[1]*center),
		s.mean[2] + float32(axis[2]*center),
	}

	if weights != nil {
		for ch := 0; ch < 3; ch++ {
			if weights[ch] == 0 {
				mean[ch] = 0
				scaledAxis[ch] = 0
				continue
			}
			mean[ch] /= weights[ch]
			scaledAxis[ch] /= weights[ch]
		}
	}

	return Unfinished{Mean: mean, Axis: scaledAxis}
}

// powerIterationDominantEigenvector returns the unit-length dominant
// eigenvector of a 3x3 symmetric matrix via bounded power iteration, using
// gonum/mat for the repeated matrix-vector product.
func powerIterationDominantEigenvector(m [3][3]float64) [3]float64 {
	a := mat.NewDense(3, 3, []float64{
		m[0][0], m[0][1], m[0][2],
		m[1][0], m[1][1], m[1][2],
		m[2][0], m[2][1], m[2][2],
	})

	var v []float64
	switch {
	case m[0][0] >= m[1][1] && m[0][0] >= m[2][2]:
		v = []float64{1, 0.1, 0.1}
	case m[1][1] >= m[2][2]:
		v = []float64{0.1, 1, 0.1}
	default:
		v = []float64{0.1, 0.1, 1}
	}
	x := mat.NewVecDense(3, v)

	var nv mat.VecDense
	for i := 0; i < maxPowerIterations; i++ {
		nv.MulVec(a, x)
		n := math.Sqrt(nv.AtVec(0)*nv.AtVec(0) + nv.AtVec(1)*nv.AtVec(1) + nv.AtVec(2)*nv.AtVec(2))
		if n < 1e-12 {
			// Degenerate (constant block): any axis works since the
			// resulting endpoint range will collapse to a point anyway.
			return [3]float64{1, 0, 0}
		}
		x = mat.NewVecDense(3, []float64{nv.AtVec(0) / n, nv.AtVec(1) / n, nv.AtVec(2) / n})
	}
	return [3]float64{x.AtVec(0), x.AtVec(1), x.AtVec(2)}
}

package errorcalc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// The accumulator receives squared weights and must apply them as-is: a
// residual of d on a channel with weight w contributes w²·d², matching the
// metric the index selectors score with.
func TestWeightedUsesSquaredWeightsAsIs(t *testing.T) {
	acc := New(Weighted, [4]float32{4, 1, 1, 1}, false, false)
	acc.AddPixel([4]float32{11, 0, 0, 0}, [4]float32{10, 0, 0, 0})
	require.InDelta(t, 4.0, float64(acc.Total()), 1e-6)

	acc = New(Weighted, [4]float32{4, 9, 1, 1}, true, false)
	acc.AddPixel([4]float32{0, 2, 0, 3}, [4]float32{0, 0, 0, 0})
	require.InDelta(t, 9*4+1*9, float64(acc.Total()), 1e-5)
}

func TestUniformIgnoresWeights(t *testing.T) {
	acc := New(Uniform, [4]float32{100, 100, 100, 100}, false, false)
	acc.AddPixel([4]float32{1, 2, 3, 0}, [4]float32{0, 0, 0, 0})
	require.InDelta(t, 1+4+9, float64(acc.Total()), 1e-6)
}

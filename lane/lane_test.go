package lane

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMaskAny(t *testing.T) {
	m := NewMask(4)
	require.False(t, m.Any())

	m[2] = true
	require.True(t, m.Any())
}

func TestF32SelectAndSetIf(t *testing.T) {
	a := NewF32(4, 1)
	b := NewF32(4, 2)

	mask := a.Less(b)
	require.True(t, mask.Any())

	picked := F32{}.Select(mask, a, b)
	require.Equal(t, a, picked)

	dst := NewF32(4, 0)
	partial := NewMask(4)
	partial[1] = true
	partial[3] = true
	dst.SetIf(partial, b)
	require.Equal(t, F32{0, 2, 0, 2}, dst)
}

func TestF32CloneIsIndependent(t *testing.T) {
	a := NewF32(3, 5)
	c := a.Clone()
	c[1] = 9
	require.Equal(t, float32(5), a[1])
}

func TestExtractLane(t *testing.T) {
	batch := []int{10, 20, 30}
	require.Equal(t, 20, ExtractLane(batch, 1))
}

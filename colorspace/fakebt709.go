// Package colorspace implements the "fake BT.709" YUV-like projection used
// as an optional perceptual error metric by the ETC encoder.
// The coefficients are reproduced unchanged from the reference encoder; this is not a real colorimetric transform.
package colorspace

// ToFakeBT709 projects an RGB triple into the fake-BT.709 (Y,U,V) basis.
//
// Ported from ETCComputer::ConvertToFakeBT709() in ConvectionKernels_ETC.cpp.
func ToFakeBT709(r, g, b float32) (y, u, v float32) {
	y = 0.36823*r + 1.23876*g + 0.12505*b
	u = 0.5*r - 0.45415*g - 0.04585*b
	v = -0.08101*r - 0.27254*g + 0.35355*b
	return y, u, v
}

// FromFakeBT709 is the inverse of ToFakeBT709.
//
// Ported from ETCComputer::ConvertFromFakeBT709() in ConvectionKernels_ETC.cpp.
func FromFakeBT709(y, u, v float32) (r, g, b float32) {
	r = 0.57735*y + 1.57480*u
	g = 0.57735*y - 0.46812*u - 0.26492*v
	b = 0.57735*y + 2.62421*v
	return r, g, b
}

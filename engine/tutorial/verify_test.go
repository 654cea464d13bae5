package tutorial

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyCopy(t *testing.T) {
	v := NewVerifier(4)
	src := sequence(CopyElements)

	assert.NoError(t, v.VerifyCopy(src, append([]uint32(nil), src...)))

	dst := append([]uint32(nil), src...)
	dst[17] = 0
	var mismatch *MismatchError
	require.ErrorAs(t, v.VerifyCopy(src, dst), &mismatch)
	assert.Equal(t, "copy", mismatch.Check)
	assert.Equal(t, 17, mismatch.Index)
	assert.Equal(t, uint32(17), mismatch.Want)
	assert.Equal(t, uint32(0), mismatch.Got)

	assert.Error(t, v.VerifyCopy(src, src[:10]))
	assert.NoError(t, v.VerifyCopy(nil, nil))
}

func TestVerifyMultiply(t *testing.T) {
	v := NewVerifier(8)
	in := sequence(ComputeElements)
	out := make([]uint32, len(in))
	for i, x := range in {
		out[i] = x * MultiplyFactor
	}
	require.NoError(t, v.VerifyMultiply(in, out, MultiplyFactor))

	// Mismatches in several chunks report the lowest index.
	out[60000] = 1
	out[40000] = 1
	out[5000] = 1
	var mismatch *MismatchError
	require.ErrorAs(t, v.VerifyMultiply(in, out, MultiplyFactor), &mismatch)
	assert.Equal(t, 5000, mismatch.Index)
	assert.Equal(t, uint32(5000*MultiplyFactor), mismatch.Want)
	assert.Equal(t, "multiply mismatch at index 5000: want 60000, got 1", mismatch.Error())
}

func TestVerifyMultiplyWraps(t *testing.T) {
	v := NewVerifier(1)
	big := uint32(0xFFFFFFFF)
	assert.NoError(t, v.VerifyMultiply([]uint32{big}, []uint32{big * 12}, 12))
}

func TestVerifyImage(t *testing.T) {
	v := NewVerifier(2)
	blue := color.NRGBA{B: 255, A: 255}
	img := image.NewNRGBA(image.Rect(0, 0, 64, 32))
	for y := range 32 {
		for x := range 64 {
			img.SetNRGBA(x, y, blue)
		}
	}
	require.NoError(t, v.VerifyImage(img, blue))

	img.SetNRGBA(3, 2, color.NRGBA{R: 255, A: 255})
	var mismatch *MismatchError
	require.ErrorAs(t, v.VerifyImage(img, blue), &mismatch)
	assert.Equal(t, "pixel", mismatch.Check)
	assert.Equal(t, 2*64+3, mismatch.Index)
	assert.Equal(t, uint32(0x0000FFFF), mismatch.Want)
	assert.Equal(t, uint32(0xFF0000FF), mismatch.Got)
}

func TestVerifyImageTolerance(t *testing.T) {
	v := NewVerifier(1)
	want := color.NRGBA{R: 26, G: 153, B: 178, A: 178}
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 25, G: 153, B: 179, A: 179})
	img.SetNRGBA(1, 0, want)
	require.NoError(t, v.VerifyImage(img, want))

	img.SetNRGBA(1, 0, color.NRGBA{R: 26, G: 151, B: 178, A: 178})
	var mismatch *MismatchError
	require.ErrorAs(t, v.VerifyImage(img, want), &mismatch)
	assert.Equal(t, 1, mismatch.Index)
}

func TestPixelsMatch(t *testing.T) {
	assert.True(t, pixelsMatch(0x10203040, 0x10203040))
	assert.True(t, pixelsMatch(0x10203040, 0x111F3141))
	assert.False(t, pixelsMatch(0x10203040, 0x10203042))
	assert.False(t, pixelsMatch(0x00000000, 0xFF000000))
}

func TestNewVerifierClampsWorkers(t *testing.T) {
	assert.Equal(t, 1, NewVerifier(0).workers)
	assert.Equal(t, 1, NewVerifier(-3).workers)
}

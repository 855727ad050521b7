package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZoomFFTFindsTone(t *testing.T) {
	const fs = 1.0
	n := 400
	x := make([]float64, n)
	for i := range x {
		x[i] = math.Sin(2 * math.Pi * 0.01 * float64(i) / fs)
	}

	result, err := ZoomFFT(x, fs, 0.005, 0.02, 8)
	require.NoError(t, err)
	require.NotEmpty(t, result.Freqs)
	require.Len(t, result.Mags, len(result.Freqs))

	peak := argmax(result.Mags)
	binWidth := fs / float64(4096) // next_pow2(400) * 8
	assert.InDelta(t, 0.01, result.Freqs[peak], binWidth+1e-12)
}

func TestZoomFFTRestrictsToBand(t *testing.T) {
	x := make([]float64, 128)
	for i := range x {
		x[i] = math.Sin(2 * math.Pi * 0.05 * float64(i))
	}
	result, err := ZoomFFT(x, 1.0, 0.01, 0.1, 4)
	require.NoError(t, err)
	for _, f := range result.Freqs {
		assert.GreaterOrEqual(t, f, 0.01)
		assert.LessOrEqual(t, f, 0.1)
	}
}

func TestZoomFFTClampsMagnitudes(t *testing.T) {
	// a constant signal is all mean: the demeaned spectrum is zero and must
	// be clamped to the smallest positive float
	x := make([]float64, 64)
	for i := range x {
		x[i] = 7.0
	}
	result, err := ZoomFFT(x, 1.0, 0.1, 0.2, 2)
	require.NoError(t, err)
	require.NotEmpty(t, result.Mags)
	for _, m := range result.Mags {
		assert.GreaterOrEqual(t, m, math.SmallestNonzeroFloat64)
	}
}

func TestZoomFFTRejectsBadArgs(t *testing.T) {
	_, err := ZoomFFT(nil, 1, 0, 0.1, 8)
	assert.Error(t, err)
	_, err = ZoomFFT([]float64{1, 2}, 1, 0, 0.1, 0)
	assert.Error(t, err)
}

func TestFFTShift(t *testing.T) {
	even := []complex128{0, 1, 2, 3}
	assert.Equal(t, []complex128{2, 3, 0, 1}, FFTShift(even))

	odd := []complex128{0, 1, 2, 3, 4}
	assert.Equal(t, []complex128{3, 4, 0, 1, 2}, FFTShift(odd))
}

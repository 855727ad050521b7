package dsp

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/dsputils"
	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/stat"
)

// ZoomResult is a magnitude spectrum restricted to the requested band
type ZoomResult struct {
	Freqs []float64
	Mags  []float64
}

// ZoomFFT computes a high-resolution magnitude spectrum of x over the band
// [fmin, fmax]. The signal is demeaned, heterodyned down by the band center
// frequency, then transformed at sizeFactor times the next power of two of
// its length. Magnitudes are floored at the smallest positive float so later
// log plots stay finite.
func ZoomFFT(x []float64, fs, fmin, fmax float64, sizeFactor int) (ZoomResult, error) {
	n := len(x)
	if n == 0 {
		return ZoomResult{}, fmt.Errorf("empty signal")
	}
	if sizeFactor < 1 {
		return ZoomResult{}, fmt.Errorf("fft size factor must be >= 1, got %d", sizeFactor)
	}

	mean := stat.Mean(x, nil)
	fc := (fmin + fmax) / 2

	y := make([]complex128, n)
	for k := 0; k < n; k++ {
		t := float64(k) / fs
		y[k] = complex(x[k]-mean, 0) * cmplx.Exp(complex(0, -2*math.Pi*fc*t))
	}

	m := dsputils.NextPowerOf2(n) * sizeFactor
	spectrum := FFTShift(fft.FFT(dsputils.ZeroPad(y, m)))

	var result ZoomResult
	for i, c := range spectrum {
		freq := (float64(i)-float64(m)/2)*fs/float64(m) + fc
		if freq < fmin || freq > fmax {
			continue
		}
		mag := cmplx.Abs(c) / float64(n)
		if mag < math.SmallestNonzeroFloat64 {
			mag = math.SmallestNonzeroFloat64
		}
		if freq < math.SmallestNonzeroFloat64 {
			freq = math.SmallestNonzeroFloat64
		}
		result.Freqs = append(result.Freqs, freq)
		result.Mags = append(result.Mags, mag)
	}
	return result, nil
}

// FFTShift rotates a spectrum so the zero-frequency bin sits at the center
func FFTShift(x []complex128) []complex128 {
	n := len(x)
	out := make([]complex128, n)
	half := (n + 1) / 2
	copy(out, x[half:])
	copy(out[n-half:], x[:half])
	return out
}

// Package dsp provides the signal-processing kernels used by the analysis
// nodes: Butterworth IIR design, zero-phase filtering, and a zoom-FFT.
package dsp

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// Butterworth designs a digital low-pass Butterworth filter of the given
// order with normalized cutoff wn in (0, 1), where 1 is the Nyquist
// frequency. It returns the transfer function coefficients (b, a) obtained
// through the bilinear transform of the analog prototype.
func Butterworth(order int, wn float64) (b, a []float64, err error) {
	if order < 1 {
		return nil, nil, fmt.Errorf("filter order must be >= 1, got %d", order)
	}
	if wn <= 0 || wn >= 1 {
		return nil, nil, fmt.Errorf("normalized cutoff must be in (0, 1), got %g", wn)
	}

	// Analog prototype poles on the left half of the unit circle
	poles := make([]complex128, order)
	for k := 0; k < order; k++ {
		theta := math.Pi * float64(2*k+order+1) / float64(2*order)
		poles[k] = cmplx.Exp(complex(0, theta))
	}

	// Pre-warp the cutoff and scale the prototype
	const fs = 2.0
	warped := 2 * fs * math.Tan(math.Pi*wn/fs)
	gain := math.Pow(warped, float64(order))
	for k := range poles {
		poles[k] *= complex(warped, 0)
	}

	// Bilinear transform; the analog zeros at infinity map to z = -1
	fs2 := complex(2*fs, 0)
	zPoles := make([]complex128, order)
	denom := complex(1, 0)
	for k, p := range poles {
		zPoles[k] = (fs2 + p) / (fs2 - p)
		denom *= fs2 - p
	}
	// Poles come in conjugate pairs, so the product is real up to rounding
	zGain := gain * real(complex(1, 0)/denom)

	zZeros := make([]complex128, order)
	for k := range zZeros {
		zZeros[k] = complex(-1, 0)
	}

	b = realPoly(zZeros)
	a = realPoly(zPoles)
	for i := range b {
		b[i] *= zGain
	}
	return b, a, nil
}

// realPoly expands a polynomial from its roots and returns the real
// coefficients, highest order first with a leading 1
func realPoly(roots []complex128) []float64 {
	coeffs := []complex128{1}
	for _, r := range roots {
		next := make([]complex128, len(coeffs)+1)
		for i, c := range coeffs {
			next[i] += c
			next[i+1] -= c * r
		}
		coeffs = next
	}
	out := make([]float64, len(coeffs))
	for i, c := range coeffs {
		out[i] = real(c)
	}
	return out
}

// FiltFilt applies the filter (b, a) forward and backward so the result has
// zero phase distortion. The signal is extended at both ends by odd
// reflection before filtering, matching the conventional filtfilt behavior.
func FiltFilt(b, a, x []float64) ([]float64, error) {
	n := len(x)
	order := max(len(a), len(b))
	padlen := 3 * (order - 1)
	if n <= padlen {
		return nil, fmt.Errorf("signal length %d must exceed pad length %d", n, padlen)
	}

	ext := make([]float64, 0, n+2*padlen)
	for i := padlen; i >= 1; i-- {
		ext = append(ext, 2*x[0]-x[i])
	}
	ext = append(ext, x...)
	for i := n - 2; i >= n-1-padlen; i-- {
		ext = append(ext, 2*x[n-1]-x[i])
	}

	zi, err := lfilterZI(b, a)
	if err != nil {
		return nil, err
	}

	y := lfilter(b, a, ext, scale(zi, ext[0]))
	reverse(y)
	y = lfilter(b, a, y, scale(zi, y[0]))
	reverse(y)

	return y[padlen : padlen+n], nil
}

// lfilter runs a direct form II transposed IIR filter with initial state zi
func lfilter(b, a, x, zi []float64) []float64 {
	n := max(len(a), len(b))
	bp := padCoeffs(b, n)
	ap := padCoeffs(a, n)
	if ap[0] != 1 {
		for i := range bp {
			bp[i] /= ap[0]
		}
		for i := range ap {
			ap[i] /= ap[0]
		}
	}

	d := make([]float64, n-1)
	copy(d, zi)
	y := make([]float64, len(x))
	for i, xi := range x {
		yi := bp[0]*xi + d[0]
		for j := 0; j < n-2; j++ {
			d[j] = bp[j+1]*xi + d[j+1] - ap[j+1]*yi
		}
		d[n-2] = bp[n-1]*xi - ap[n-1]*yi
		y[i] = yi
	}
	return y
}

// lfilterZI computes the steady-state filter delays for a unit step input,
// so filtfilt startup transients vanish for constant signals
func lfilterZI(b, a []float64) ([]float64, error) {
	n := max(len(a), len(b))
	bp := padCoeffs(b, n)
	ap := padCoeffs(a, n)
	if ap[0] != 1 {
		for i := range bp {
			bp[i] /= ap[0]
		}
		for i := range ap {
			ap[i] /= ap[0]
		}
	}

	m := n - 1
	sys := mat.NewDense(m, m, nil)
	for i := 0; i < m; i++ {
		for j := 0; j < m; j++ {
			// I - transpose(companion(a))
			v := 0.0
			if i == j {
				v = 1
			}
			if j == 0 {
				v -= -ap[i+1]
			} else if i == j-1 {
				v -= 1
			}
			sys.Set(i, j, v)
		}
	}

	rhs := mat.NewVecDense(m, nil)
	for i := 0; i < m; i++ {
		rhs.SetVec(i, bp[i+1]-ap[i+1]*bp[0])
	}

	var zi mat.VecDense
	if err := zi.SolveVec(sys, rhs); err != nil {
		return nil, fmt.Errorf("steady state solve failed: %w", err)
	}

	out := make([]float64, m)
	for i := 0; i < m; i++ {
		out[i] = zi.AtVec(i)
	}
	return out, nil
}

func padCoeffs(c []float64, n int) []float64 {
	out := make([]float64, n)
	copy(out, c)
	return out
}

func scale(xs []float64, f float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = x * f
	}
	return out
}

func reverse(xs []float64) {
	for i, j := 0, len(xs)-1; i < j; i, j = i+1, j-1 {
		xs[i], xs[j] = xs[j], xs[i]
	}
}

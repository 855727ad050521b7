package graph

import "time"

// Kind identifies the variant stored in a Value
type Kind uint8

const (
	KindInvalid Kind = iota
	KindTime
	KindReal
	KindScalar
	KindSpectrum
	KindHistory
	KindBool
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindTime:
		return "time"
	case KindReal:
		return "real"
	case KindScalar:
		return "scalar"
	case KindSpectrum:
		return "spectrum"
	case KindHistory:
		return "history"
	case KindBool:
		return "bool"
	case KindText:
		return "text"
	default:
		return "invalid"
	}
}

// Spectrum is a magnitude spectrum restricted to a frequency band
type Spectrum struct {
	Freqs []float64
	Mags  []float64
	Band  [2]float64
}

// History is a time-ordered matrix of past spectra
type History struct {
	Rows  [][]float64
	Times []time.Time
}

// Value is the tagged union carried by ports. Every port and parameter is
// typed by a Kind; edges between ports of disagreeing kinds are rejected.
type Value struct {
	kind     Kind
	times    []time.Time
	reals    []float64
	scalar   float64
	spectrum Spectrum
	history  History
	flag     bool
	text     string
}

func TimeValue(times []time.Time) Value {
	return Value{kind: KindTime, times: times}
}

func RealValue(reals []float64) Value {
	return Value{kind: KindReal, reals: reals}
}

func ScalarValue(v float64) Value {
	return Value{kind: KindScalar, scalar: v}
}

func SpectrumValue(s Spectrum) Value {
	return Value{kind: KindSpectrum, spectrum: s}
}

func HistoryValue(h History) Value {
	return Value{kind: KindHistory, history: h}
}

func BoolValue(b bool) Value {
	return Value{kind: KindBool, flag: b}
}

func TextValue(s string) Value {
	return Value{kind: KindText, text: s}
}

// Kind returns the variant tag of the value
func (v Value) Kind() Kind {
	return v.kind
}

// IsValid reports whether the value holds any variant
func (v Value) IsValid() bool {
	return v.kind != KindInvalid
}

func (v Value) Times() ([]time.Time, bool) {
	return v.times, v.kind == KindTime
}

func (v Value) Reals() ([]float64, bool) {
	return v.reals, v.kind == KindReal
}

func (v Value) Scalar() (float64, bool) {
	return v.scalar, v.kind == KindScalar
}

func (v Value) Spectrum() (Spectrum, bool) {
	return v.spectrum, v.kind == KindSpectrum
}

func (v Value) History() (History, bool) {
	return v.history, v.kind == KindHistory
}

func (v Value) Bool() (bool, bool) {
	return v.flag, v.kind == KindBool
}

func (v Value) Text() (string, bool) {
	return v.text, v.kind == KindText
}

// Clone returns a deep copy. Values copied across an edge become owned by the
// destination; the source keeps its own copy for later readers.
func (v Value) Clone() Value {
	out := v
	out.times = cloneTimes(v.times)
	out.reals = cloneFloats(v.reals)
	out.spectrum = Spectrum{
		Freqs: cloneFloats(v.spectrum.Freqs),
		Mags:  cloneFloats(v.spectrum.Mags),
		Band:  v.spectrum.Band,
	}
	out.history = History{
		Rows:  cloneMatrix(v.history.Rows),
		Times: cloneTimes(v.history.Times),
	}
	return out
}

// Equal reports deep equality of two values, including the variant tag
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindTime:
		return timesEqual(v.times, other.times)
	case KindReal:
		return floatsEqual(v.reals, other.reals)
	case KindScalar:
		return v.scalar == other.scalar
	case KindSpectrum:
		return floatsEqual(v.spectrum.Freqs, other.spectrum.Freqs) &&
			floatsEqual(v.spectrum.Mags, other.spectrum.Mags) &&
			v.spectrum.Band == other.spectrum.Band
	case KindHistory:
		return matrixEqual(v.history.Rows, other.history.Rows) &&
			timesEqual(v.history.Times, other.history.Times)
	case KindBool:
		return v.flag == other.flag
	case KindText:
		return v.text == other.text
	default:
		return true
	}
}

func cloneFloats(xs []float64) []float64 {
	if xs == nil {
		return nil
	}
	out := make([]float64, len(xs))
	copy(out, xs)
	return out
}

func cloneTimes(ts []time.Time) []time.Time {
	if ts == nil {
		return nil
	}
	out := make([]time.Time, len(ts))
	copy(out, ts)
	return out
}

func cloneMatrix(rows [][]float64) [][]float64 {
	if rows == nil {
		return nil
	}
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = cloneFloats(row)
	}
	return out
}

func floatsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func timesEqual(a, b []time.Time) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func matrixEqual(a, b [][]float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !floatsEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

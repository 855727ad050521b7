package graph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueKinds(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		v    Value
		kind Kind
	}{
		{"time", TimeValue([]time.Time{now}), KindTime},
		{"real", RealValue([]float64{1, 2}), KindReal},
		{"scalar", ScalarValue(3.5), KindScalar},
		{"spectrum", SpectrumValue(Spectrum{Freqs: []float64{1}, Mags: []float64{2}}), KindSpectrum},
		{"history", HistoryValue(History{Rows: [][]float64{{1}}}), KindHistory},
		{"bool", BoolValue(true), KindBool},
		{"text", TextValue("hello"), KindText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.v.Kind())
			assert.True(t, tt.v.IsValid())
		})
	}

	var zero Value
	assert.False(t, zero.IsValid())
}

func TestValueAccessorsCheckKind(t *testing.T) {
	v := ScalarValue(1.5)

	s, ok := v.Scalar()
	require.True(t, ok)
	assert.Equal(t, 1.5, s)

	_, ok = v.Reals()
	assert.False(t, ok)
	_, ok = v.Text()
	assert.False(t, ok)
}

func TestValueCloneIsDeep(t *testing.T) {
	orig := RealValue([]float64{1, 2, 3})
	clone := orig.Clone()

	reals, _ := clone.Reals()
	reals[0] = 99

	origReals, _ := orig.Reals()
	assert.Equal(t, 1.0, origReals[0])

	hist := HistoryValue(History{
		Rows:  [][]float64{{1, 2}, {3, 4}},
		Times: []time.Time{time.Now()},
	})
	histClone := hist.Clone()
	h, _ := histClone.History()
	h.Rows[0][0] = 99

	origHist, _ := hist.History()
	assert.Equal(t, 1.0, origHist.Rows[0][0])
}

func TestValueEqual(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, RealValue([]float64{1, 2}).Equal(RealValue([]float64{1, 2})))
	assert.False(t, RealValue([]float64{1, 2}).Equal(RealValue([]float64{1, 3})))
	assert.False(t, RealValue([]float64{1}).Equal(ScalarValue(1)))
	assert.True(t, TimeValue([]time.Time{t0}).Equal(TimeValue([]time.Time{t0})))
	assert.False(t, TimeValue([]time.Time{t0}).Equal(TimeValue([]time.Time{t0.Add(time.Second)})))
	assert.True(t, TextValue("a").Equal(TextValue("a")))
	assert.False(t, BoolValue(true).Equal(BoolValue(false)))
}

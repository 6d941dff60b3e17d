package domain

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPartitionFunction(t *testing.T) {
	t.Run("reproduces tabulated points", func(t *testing.T) {
		temps := []float64{9.375, 18.75, 37.5, 75, 150, 225, 300}
		values := []float64{3.74, 7.16, 13.9, 27.4, 54.3, 81.2, 108.9}

		pf, err := NewPartitionFunction(temps, values)
		require.NoError(t, err)

		for i, temp := range temps {
			assert.InDelta(t, values[i], pf.Evaluate(temp), 1e-9, "Q(%g)", temp)
		}
	})

	t.Run("length mismatch fails", func(t *testing.T) {
		_, err := NewPartitionFunction([]float64{1, 2, 3}, []float64{1, 2})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "3 temperatures for 2 values")
	})

	t.Run("non-finite pairs are discarded", func(t *testing.T) {
		temps := []float64{10, 20, math.NaN(), 30, 40, 50}
		values := []float64{1, 2, 99, math.Inf(1), 4, 5}

		pf, err := NewPartitionFunction(temps, values)
		require.NoError(t, err)

		ts, _ := pf.Samples()
		assert.Equal(t, []float64{10, 20, 40, 50}, ts)
	})

	t.Run("too few valid points", func(t *testing.T) {
		_, err := NewPartitionFunction([]float64{10, 20, 30, math.NaN()}, []float64{1, 2, 3, 4})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInsufficientData)
	})

	t.Run("unsorted input is sorted", func(t *testing.T) {
		pf, err := NewPartitionFunction([]float64{300, 75, 150, 9.375}, []float64{100, 25, 50, 3})
		require.NoError(t, err)

		ts, qs := pf.Samples()
		assert.Equal(t, []float64{9.375, 75, 150, 300}, ts)
		assert.Equal(t, []float64{3, 25, 50, 100}, qs)
	})

	t.Run("duplicate temperatures keep first occurrence", func(t *testing.T) {
		pf, err := NewPartitionFunction([]float64{10, 10, 20, 30, 40}, []float64{1, 99, 2, 3, 4})
		require.NoError(t, err)

		ts, qs := pf.Samples()
		assert.Equal(t, []float64{10, 20, 30, 40}, ts)
		assert.Equal(t, []float64{1, 2, 3, 4}, qs)
	})
}

func TestPartitionFunctionEvaluate(t *testing.T) {
	t.Run("linear data stays linear under extrapolation", func(t *testing.T) {
		// A natural cubic fit of exactly linear samples has zero curvature,
		// so evaluation must return 2t everywhere, outside the domain too.
		pf, err := NewPartitionFunction(
			[]float64{10, 20, 30, 40, 50},
			[]float64{20, 40, 60, 80, 100},
		)
		require.NoError(t, err)

		for _, temp := range []float64{2.725, 10, 25, 35.5, 50, 300, 1000} {
			assert.InDelta(t, 2*temp, pf.Evaluate(temp), 1e-8, "Q(%g)", temp)
		}
	})

	t.Run("domain reports the sampled range", func(t *testing.T) {
		pf, err := NewPartitionFunction([]float64{75, 9.375, 300, 150}, []float64{25, 3, 100, 50})
		require.NoError(t, err)

		minT, maxT := pf.Domain()
		assert.Equal(t, 9.375, minT)
		assert.Equal(t, 300.0, maxT)
	})

	t.Run("evaluate all maps elementwise", func(t *testing.T) {
		pf, err := NewPartitionFunction([]float64{10, 20, 30, 40}, []float64{1, 2, 3, 4})
		require.NoError(t, err)

		got := pf.EvaluateAll([]float64{10, 40})
		require.Len(t, got, 2)
		assert.InDelta(t, 1, got[0], 1e-9)
		assert.InDelta(t, 4, got[1], 1e-9)
	})
}

func TestPartitionFunctionExtrapolationNotice(t *testing.T) {
	newPF := func(t *testing.T, fn func(ExtrapolationNotice)) *PartitionFunction {
		t.Helper()
		pf, err := NewPartitionFunction(
			[]float64{9.375, 18.75, 37.5, 75},
			[]float64{3.74, 7.16, 13.9, 27.4},
			WithExtrapolationNotice(fn),
		)
		require.NoError(t, err)
		return pf
	}

	t.Run("fires outside the sampled domain", func(t *testing.T) {
		var notices []ExtrapolationNotice
		pf := newPF(t, func(n ExtrapolationNotice) { notices = append(notices, n) })

		pf.Evaluate(300)

		require.Len(t, notices, 1)
		assert.Equal(t, 300.0, notices[0].Temperature)
		assert.Equal(t, 9.375, notices[0].MinSampled)
		assert.Equal(t, 75.0, notices[0].MaxSampled)
	})

	t.Run("fires below the sampled domain", func(t *testing.T) {
		var count int
		pf := newPF(t, func(ExtrapolationNotice) { count++ })

		pf.Evaluate(2.725)
		assert.Equal(t, 1, count)
	})

	t.Run("silent inside the domain", func(t *testing.T) {
		var count int
		pf := newPF(t, func(ExtrapolationNotice) { count++ })

		pf.Evaluate(9.375)
		pf.Evaluate(40)
		pf.Evaluate(75)
		assert.Zero(t, count)
	})
}

func TestPartitionFunctionJSON(t *testing.T) {
	t.Run("round trip preserves evaluation", func(t *testing.T) {
		pf, err := NewPartitionFunction(
			[]float64{9.375, 18.75, 37.5, 75, 150, 300},
			[]float64{3.74, 7.16, 13.9, 27.4, 54.3, 108.9},
		)
		require.NoError(t, err)

		data, err := json.Marshal(pf)
		require.NoError(t, err)

		var decoded PartitionFunction
		require.NoError(t, json.Unmarshal(data, &decoded))

		for _, temp := range []float64{9.375, 50, 123, 300, 500} {
			assert.InDelta(t, pf.Evaluate(temp), decoded.Evaluate(temp), 1e-9, "Q(%g)", temp)
		}
	})

	t.Run("wire form carries only sample points", func(t *testing.T) {
		pf, err := NewPartitionFunction([]float64{10, 20, 30, 40}, []float64{1, 2, 3, 4})
		require.NoError(t, err)

		data, err := json.Marshal(pf)
		require.NoError(t, err)
		assert.JSONEq(t, `{"temperatures_k":[10,20,30,40],"values":[1,2,3,4]}`, string(data))
	})

	t.Run("decoding too few points fails", func(t *testing.T) {
		var pf PartitionFunction
		err := json.Unmarshal([]byte(`{"temperatures_k":[10,20],"values":[1,2]}`), &pf)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInsufficientData))
	})
}

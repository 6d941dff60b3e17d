package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// minPartitionSamples is the fewest valid (temperature, value) pairs that
// still give a stable cubic fit.
const minPartitionSamples = 4

// ExtrapolationNotice reports an Evaluate call outside the sampled
// temperature domain. The evaluation still returns a finite value; the
// notice only adds observability.
type ExtrapolationNotice struct {
	Temperature float64
	MinSampled  float64
	MaxSampled  float64
}

// PartitionOption configures a PartitionFunction at construction.
type PartitionOption func(*PartitionFunction)

// WithExtrapolationNotice registers fn to be invoked whenever Evaluate is
// asked for a temperature outside the sampled domain. Unset, extrapolated
// evaluations are silent.
func WithExtrapolationNotice(fn func(ExtrapolationNotice)) PartitionOption {
	return func(p *PartitionFunction) { p.notice = fn }
}

// PartitionFunction interpolates a species partition function Q(T) from a
// sparse catalog sample. Immutable after construction and safe for
// concurrent evaluation.
type PartitionFunction struct {
	temps  []float64
	values []float64
	spline cubicSpline
	notice func(ExtrapolationNotice)
}

// NewPartitionFunction fits an interpolant to (temperature, value) pairs.
// Pairs with a NaN or infinite member are discarded, the remainder is
// sorted by increasing temperature, and duplicate temperatures keep their
// first occurrence. Fewer than minPartitionSamples surviving pairs fails
// with ErrInsufficientData. Catalogs rarely tabulate the full range needed
// at runtime, so the fit deliberately extrapolates beyond its sample
// rather than failing.
func NewPartitionFunction(temperatures, values []float64, opts ...PartitionOption) (*PartitionFunction, error) {
	if len(temperatures) != len(values) {
		return nil, fmt.Errorf("partition function: %d temperatures for %d values", len(temperatures), len(values))
	}

	type sample struct{ t, q float64 }
	kept := make([]sample, 0, len(temperatures))
	for i, t := range temperatures {
		if !isFinite(t) || !isFinite(values[i]) {
			continue
		}
		kept = append(kept, sample{t: t, q: values[i]})
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].t < kept[j].t })

	ts := make([]float64, 0, len(kept))
	qs := make([]float64, 0, len(kept))
	for _, s := range kept {
		if len(ts) > 0 && s.t == ts[len(ts)-1] {
			continue
		}
		ts = append(ts, s.t)
		qs = append(qs, s.q)
	}

	if len(ts) < minPartitionSamples {
		return nil, fmt.Errorf("%w: %d valid points, need %d", ErrInsufficientData, len(ts), minPartitionSamples)
	}

	p := &PartitionFunction{
		temps:  ts,
		values: qs,
		spline: fitNaturalCubic(ts, qs),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Evaluate returns Q(t). Temperatures outside the sampled domain are
// extrapolated with the boundary segment and reported through the notice
// callback when one is registered; the returned value is unaffected.
func (p *PartitionFunction) Evaluate(t float64) float64 {
	if p.notice != nil && (t < p.temps[0] || t > p.temps[len(p.temps)-1]) {
		p.notice(ExtrapolationNotice{
			Temperature: t,
			MinSampled:  p.temps[0],
			MaxSampled:  p.temps[len(p.temps)-1],
		})
	}
	return p.spline.at(t)
}

// EvaluateAll evaluates Q elementwise over a temperature slice.
func (p *PartitionFunction) EvaluateAll(ts []float64) []float64 {
	out := make([]float64, len(ts))
	for i, t := range ts {
		out[i] = p.Evaluate(t)
	}
	return out
}

// Domain returns the sampled temperature range.
func (p *PartitionFunction) Domain() (minT, maxT float64) {
	return p.temps[0], p.temps[len(p.temps)-1]
}

// Samples returns copies of the fitted (temperature, value) pairs in
// increasing temperature order.
func (p *PartitionFunction) Samples() (temperatures, values []float64) {
	return append([]float64(nil), p.temps...), append([]float64(nil), p.values...)
}

// partitionJSON is the wire form. Only the sample points travel; consumers
// re-fit the interpolant on decode.
type partitionJSON struct {
	TemperaturesK []float64 `json:"temperatures_k"`
	Values        []float64 `json:"values"`
}

func (p *PartitionFunction) MarshalJSON() ([]byte, error) {
	return json.Marshal(partitionJSON{TemperaturesK: p.temps, Values: p.values})
}

func (p *PartitionFunction) UnmarshalJSON(data []byte) error {
	var pj partitionJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return err
	}
	fitted, err := NewPartitionFunction(pj.TemperaturesK, pj.Values)
	if err != nil {
		return err
	}
	*p = *fitted
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

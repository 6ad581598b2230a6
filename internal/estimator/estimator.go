// Package estimator projects the final outcome of a bracket event from a
// live observation. Every estimate carries a provenance string so reports
// can show where a number came from.
package estimator

import (
	"fmt"

	"github.com/alejandrodnm/bracketbot/internal/domain"
	"github.com/alejandrodnm/bracketbot/internal/strategy"
)

// Estimate is a projected final value plus how it was derived.
type Estimate struct {
	Value      float64
	Provenance string
}

// Estimator turns a raw signal into an outcome estimate.
// ok=false means "no usable estimate" — the selector then falls back to
// an even spread, it is never an error.
type Estimator interface {
	Estimate(sig domain.OutcomeSignal) (Estimate, bool)
}

// ForKind devuelve el estimador correspondiente a una estrategia.
func ForKind(kind strategy.EstimatorKind) Estimator {
	switch kind {
	case strategy.EstimatorVelocity:
		return Velocity{}
	case strategy.EstimatorLatest:
		return LatestValue{}
	case strategy.EstimatorChartRank:
		return ChartRank{}
	default:
		return None{}
	}
}

// Velocity extrapolates a running count linearly over the remaining window:
// count + (count / elapsed) × remaining.
type Velocity struct{}

func (Velocity) Estimate(sig domain.OutcomeSignal) (Estimate, bool) {
	if sig.Count <= 0 || sig.ElapsedHours <= 0 || sig.RemainingHours < 0 {
		return Estimate{}, false
	}
	rate := sig.Count / sig.ElapsedHours
	projected := sig.Count + rate*sig.RemainingHours
	return Estimate{
		Value: projected,
		Provenance: fmt.Sprintf("velocity: %.0f obs @ %.2f/h, %.0fh left",
			sig.Count, rate, sig.RemainingHours),
	}, true
}

// LatestValue passes the most recent observation through unchanged.
// Used where the tracked metric is itself the outcome (e.g. a price).
type LatestValue struct{}

func (LatestValue) Estimate(sig domain.OutcomeSignal) (Estimate, bool) {
	if sig.LatestValue <= 0 {
		return Estimate{}, false
	}
	src := sig.Source
	if src == "" {
		src = "latest observation"
	}
	return Estimate{
		Value:      sig.LatestValue,
		Provenance: fmt.Sprintf("latest: %.2f (%s)", sig.LatestValue, src),
	}, true
}

// ChartRank maps a chart position to expected first-week album units.
// Below rank 10 the table gives no signal.
type ChartRank struct{}

func (ChartRank) Estimate(sig domain.OutcomeSignal) (Estimate, bool) {
	var units float64
	switch {
	case sig.ChartRank == 1:
		units = 200_000
	case sig.ChartRank >= 2 && sig.ChartRank <= 5:
		units = 100_000
	case sig.ChartRank >= 6 && sig.ChartRank <= 10:
		units = 50_000
	default:
		return Estimate{}, false
	}
	return Estimate{
		Value:      units,
		Provenance: fmt.Sprintf("chart rank %d → %.0f first-week units", sig.ChartRank, units),
	}, true
}

// None nunca produce estimación: la selección siempre será even-spread.
type None struct{}

func (None) Estimate(domain.OutcomeSignal) (Estimate, bool) {
	return Estimate{}, false
}

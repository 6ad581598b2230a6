// Package selector picks which qualifying brackets of an event to buy.
// With an outcome estimate it ranks by proximity to the estimate; without
// one it spreads the picks evenly across the sorted bracket ranges.
package selector

import (
	"math"
	"sort"

	"github.com/alejandrodnm/bracketbot/internal/domain"
)

// Select devuelve hasta target brackets.
//
// Con estimate: ordena por |midpoint − estimate| ascendente (estable, los
// títulos sin rango van al final) y toma los target primeros.
// Sin estimate: ordena por midpoint y elige posiciones equiespaciadas por
// interpolación lineal; target==1 elige el elemento central.
func Select(brackets []domain.OutcomeBracket, target int, estimate *float64) []domain.OutcomeBracket {
	n := len(brackets)
	if n == 0 || target <= 0 {
		return nil
	}

	if estimate != nil {
		ranked := make([]domain.OutcomeBracket, n)
		copy(ranked, brackets)
		sort.SliceStable(ranked, func(i, j int) bool {
			return distance(ranked[i], *estimate) < distance(ranked[j], *estimate)
		})
		if target > n {
			target = n
		}
		return ranked[:target]
	}

	spread := make([]domain.OutcomeBracket, n)
	copy(spread, brackets)
	sort.SliceStable(spread, func(i, j int) bool {
		return midpointOrInf(spread[i]) < midpointOrInf(spread[j])
	})

	if target >= n {
		return spread
	}
	if target == 1 {
		return spread[n/2 : n/2+1]
	}

	out := make([]domain.OutcomeBracket, 0, target)
	for i := 0; i < target; i++ {
		// índices 0 .. n-1 repartidos uniformemente
		idx := int(math.Round(float64(i) * float64(n-1) / float64(target-1)))
		out = append(out, spread[idx])
	}
	return out
}

// distance es |midpoint − estimate|; sin rango parseable, +Inf (al final).
func distance(b domain.OutcomeBracket, estimate float64) float64 {
	r, ok := b.Range()
	if !ok {
		return math.Inf(1)
	}
	return math.Abs(r.Midpoint() - estimate)
}

func midpointOrInf(b domain.OutcomeBracket) float64 {
	r, ok := b.Range()
	if !ok {
		return math.Inf(1)
	}
	return r.Midpoint()
}

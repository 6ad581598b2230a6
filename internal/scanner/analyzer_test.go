package scanner

import (
	"testing"

	"github.com/alejandrodnm/bracketbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeEvent(prices ...float64) domain.BracketEvent {
	ev := domain.BracketEvent{ID: "ev1", Title: "test event"}
	for _, p := range prices {
		ev.Brackets = append(ev.Brackets, domain.OutcomeBracket{AskPrice: p})
	}
	return ev
}

func TestAnalyzeComputesCostAndEdge(t *testing.T) {
	a := NewAnalyzer(Params{})
	an := a.Analyze(makeEvent(0.05, 0.30, 0.25))

	assert.InDelta(t, 0.60, an.TotalCost, 1e-9)
	assert.InDelta(t, 0.40, an.Edge, 1e-9)
	assert.InDelta(t, 40, an.EdgePct, 1e-9)
	assert.True(t, an.Viable)
}

func TestAnalyzeQualifyingBand(t *testing.T) {
	a := NewAnalyzer(Params{})
	// 0.005 por debajo de la banda, 0.12 por encima.
	an := a.Analyze(makeEvent(0.005, 0.01, 0.04, 0.10, 0.12))

	require.Len(t, an.Qualifying, 3)
	for _, b := range an.Qualifying {
		assert.GreaterOrEqual(t, b.AskPrice, 0.01)
		assert.LessOrEqual(t, b.AskPrice, 0.10)
	}
}

func TestAnalyzeViabilityGate(t *testing.T) {
	a := NewAnalyzer(Params{})

	assert.False(t, a.Analyze(makeEvent(0.50, 0.50)).Viable, "cost 1.00 has no edge")
	assert.False(t, a.Analyze(makeEvent(0.95)).Viable, "at max set cost")
	assert.False(t, a.Analyze(makeEvent()).Viable, "empty event")
	assert.True(t, a.Analyze(makeEvent(0.40, 0.30)).Viable)
}

func TestAnalyzeSkipsResolvedBrackets(t *testing.T) {
	ev := makeEvent(0.40, 0.30)
	ev.Brackets = append(ev.Brackets, domain.OutcomeBracket{AskPrice: 0.50, Resolved: true})

	an := NewAnalyzer(Params{}).Analyze(ev)
	assert.Len(t, an.Active, 2)
	assert.InDelta(t, 0.70, an.TotalCost, 1e-9)
}

func TestTradeableEitherFilter(t *testing.T) {
	a := NewAnalyzer(Params{})
	deep := domain.OrderBook{Bids: []domain.BookEntry{{Price: 0.5, Size: 5000}}} // $2500
	thin := domain.OrderBook{Bids: []domain.BookEntry{{Price: 0.5, Size: 10}}}

	assert.True(t, a.Tradeable(domain.OutcomeBracket{Volume: 2000}, thin), "volume alone qualifies")
	assert.True(t, a.Tradeable(domain.OutcomeBracket{Volume: 10}, deep), "depth alone qualifies")
	assert.False(t, a.Tradeable(domain.OutcomeBracket{Volume: 10}, thin))
}

func TestTradeableRequireBoth(t *testing.T) {
	a := NewAnalyzer(Params{RequireBoth: true})
	deep := domain.OrderBook{Asks: []domain.BookEntry{{Price: 0.5, Size: 5000}}}

	assert.False(t, a.Tradeable(domain.OutcomeBracket{Volume: 10}, deep))
	assert.True(t, a.Tradeable(domain.OutcomeBracket{Volume: 2000}, deep))
}

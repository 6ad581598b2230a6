package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/alejandrodnm/bracketbot/internal/domain"
	"github.com/alejandrodnm/bracketbot/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openOnePosition deja el engine con una única posición abierta:
// 250 shares @ 0.04 = $10 sobre el token "a".
func openOnePosition(t *testing.T, books *fakeBooks, resolutions ports.ResolutionProvider) (*Engine, domain.PaperTrade) {
	t.Helper()
	ev := testEvent(map[string]float64{"a": 0.04})
	books.books = map[string]domain.OrderBook{"a": deepAskBook("a", 0.04)}

	markets := &fakeMarkets{events: []domain.BracketEvent{ev}}
	e := newTestEngine(t, testStrategy(1), Deps{
		Markets:     markets,
		Books:       books,
		Resolutions: resolutions,
	})

	res, err := e.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Opened, 1)

	// Los ciclos siguientes no descubren nada nuevo.
	markets.events = nil
	return e, res.Opened[0]
}

func TestSettleResolutionWon(t *testing.T) {
	books := &fakeBooks{}
	resolutions := &fakeResolutions{res: map[string]domain.Resolution{}}
	e, trade := openOnePosition(t, books, resolutions)

	resolutions.res["mkt-a"] = domain.Resolution{Resolved: true, Winner: "YES"}

	res, err := e.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Closed, 1)

	closed := res.Closed[0]
	assert.Equal(t, domain.StatusWon, closed.Status)
	require.NotNil(t, closed.ExitPrice)
	assert.InDelta(t, 1.0, *closed.ExitPrice, 1e-9)
	require.NotNil(t, closed.PnL)
	// 250 shares × $1.00 − $10 de entrada.
	assert.InDelta(t, trade.Shares-trade.EntryCost, *closed.PnL, 1e-6)

	// El cash refleja el pago en la siguiente lectura.
	assert.InDelta(t, 1000-trade.EntryCost+trade.Shares, e.Ledger().Cash(), 1e-6)
}

func TestSettleResolutionLost(t *testing.T) {
	books := &fakeBooks{}
	resolutions := &fakeResolutions{res: map[string]domain.Resolution{}}
	e, trade := openOnePosition(t, books, resolutions)

	resolutions.res["mkt-a"] = domain.Resolution{Resolved: true, Winner: "NO"}

	res, err := e.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Closed, 1)

	closed := res.Closed[0]
	assert.Equal(t, domain.StatusLost, closed.Status)
	require.NotNil(t, closed.PnL)
	assert.InDelta(t, -trade.EntryCost, *closed.PnL, 1e-6)
	assert.InDelta(t, 1000-trade.EntryCost, e.Ledger().Cash(), 1e-6)
}

func TestSettleTakeProfit(t *testing.T) {
	books := &fakeBooks{}
	e, trade := openOnePosition(t, books, &fakeResolutions{})

	// Best bid 0.35 ≥ 0.30 con profundidad de sobra para 250 shares.
	books.books["a"] = domain.OrderBook{
		TokenID: "a",
		Bids:    []domain.BookEntry{{Price: 0.35, Size: 50000}},
	}

	res, err := e.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Closed, 1)

	closed := res.Closed[0]
	assert.Equal(t, domain.StatusSold, closed.Status)
	require.NotNil(t, closed.ExitPrice)
	assert.InDelta(t, 0.35, *closed.ExitPrice, 1e-9)
	require.NotNil(t, closed.PnL)
	assert.InDelta(t, trade.Shares*0.35-trade.EntryCost, *closed.PnL, 1e-6)
}

func TestSettleTakeProfitBelowThresholdHolds(t *testing.T) {
	books := &fakeBooks{}
	e, _ := openOnePosition(t, books, &fakeResolutions{})

	books.books["a"] = domain.OrderBook{
		TokenID: "a",
		Bids:    []domain.BookEntry{{Price: 0.29, Size: 50000}},
	}

	res, err := e.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Closed)
	assert.InDelta(t, 0.29, res.Marks["a"], 1e-9)
	assert.Len(t, e.Ledger().OpenTrades(), 1)
}

func TestSettleTakeProfitShortfallHolds(t *testing.T) {
	books := &fakeBooks{}
	e, _ := openOnePosition(t, books, &fakeResolutions{})

	// Bid alto pero fino: cap del 10% → solo 10 shares vendibles de 250.
	books.books["a"] = domain.OrderBook{
		TokenID: "a",
		Bids:    []domain.BookEntry{{Price: 0.40, Size: 100}},
	}

	res, err := e.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Closed)
	assert.Len(t, e.Ledger().OpenTrades(), 1)
}

func TestSettleBookFailureSkipsPosition(t *testing.T) {
	books := &fakeBooks{}
	e, _ := openOnePosition(t, books, &fakeResolutions{})

	books.errs = map[string]error{"a": errors.New("clob down")}

	res, err := e.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Closed)
	assert.NotContains(t, res.Marks, "a")
	assert.Len(t, e.Ledger().OpenTrades(), 1)
	// Sin mark el unrealized del token es 0.
	assert.InDelta(t, 0, res.Metrics.UnrealizedPnL, 1e-9)
}

func TestSettleResolutionFetchErrorFallsThroughToMark(t *testing.T) {
	books := &fakeBooks{}
	e, _ := openOnePosition(t, books, &failingResolutions{})

	books.books["a"] = domain.OrderBook{
		TokenID: "a",
		Bids:    []domain.BookEntry{{Price: 0.10, Size: 1000}},
	}

	res, err := e.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Closed)
	assert.InDelta(t, 0.10, res.Marks["a"], 1e-9)
}

type failingResolutions struct{}

func (failingResolutions) FetchResolution(context.Context, string) (domain.Resolution, error) {
	return domain.Resolution{}, errors.New("gamma down")
}

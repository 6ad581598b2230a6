package ledger

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/alejandrodnm/bracketbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore keeps the last saved state in memory.
type memStore struct {
	saved   map[string]domain.StrategyState
	loadErr error
	saves   int
}

func newMemStore() *memStore {
	return &memStore{saved: make(map[string]domain.StrategyState)}
}

func (m *memStore) LoadState(_ context.Context, strategy string) (domain.StrategyState, bool, error) {
	if m.loadErr != nil {
		return domain.StrategyState{}, false, m.loadErr
	}
	st, ok := m.saved[strategy]
	return st, ok, nil
}

func (m *memStore) SaveState(_ context.Context, st domain.StrategyState) error {
	m.saved[st.Strategy] = st
	m.saves++
	return nil
}

func (m *memStore) DeleteState(_ context.Context, strategy string) error {
	delete(m.saved, strategy)
	return nil
}

type memAudit struct {
	entries []domain.AuditEntry
}

func (m *memAudit) AppendAudit(_ context.Context, e domain.AuditEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

func fill(shares, avg float64) domain.FillResult {
	return domain.FillResult{Shares: shares, AvgPrice: avg, Notional: shares * avg}
}

func openTrade(t *testing.T, l *Ledger, token string, shares, avg float64) domain.PaperTrade {
	t.Helper()
	trade, err := l.OpenPosition(context.Background(), OpenOrder{
		EventID:      "ev1",
		TokenID:      token,
		BracketTitle: token,
		Fill:         fill(shares, avg),
	})
	require.NoError(t, err)
	return trade
}

func TestCashDerivation(t *testing.T) {
	l := Open(context.Background(), "test", 1000, 0.01, nil, nil)
	ctx := context.Background()

	assert.InDelta(t, 1000, l.Cash(), 1e-9)

	tr1 := openTrade(t, l, "tok1", 200, 0.05) // $10
	openTrade(t, l, "tok2", 100, 0.04)        // $4

	assert.InDelta(t, 986, l.Cash(), 1e-9)
	assert.InDelta(t, 14, l.Invested(), 1e-9)

	// Won: shares pay $1.00 → pnl = 200 − 10 = 190.
	_, err := l.ClosePosition(ctx, tr1.ID, domain.StatusWon, 1.0, 190)
	require.NoError(t, err)

	// cash = 1000 + 190 − 4 (still open)
	assert.InDelta(t, 1186, l.Cash(), 1e-9)
	assert.InDelta(t, 4, l.Invested(), 1e-9)
	assert.InDelta(t, 1190, l.TotalEquity(nil), 1e-9)
}

func TestCloseIsIdempotent(t *testing.T) {
	l := Open(context.Background(), "test", 1000, 0.01, nil, nil)
	ctx := context.Background()
	tr := openTrade(t, l, "tok1", 100, 0.05)

	_, err := l.ClosePosition(ctx, tr.ID, domain.StatusLost, 0, -5)
	require.NoError(t, err)
	before := l.Cash()

	_, err = l.ClosePosition(ctx, tr.ID, domain.StatusWon, 1.0, 95)
	assert.ErrorIs(t, err, ErrTradeClosed)
	assert.InDelta(t, before, l.Cash(), 1e-9, "second close must not mutate")

	_, err = l.ClosePosition(ctx, "missing", domain.StatusWon, 1.0, 0)
	assert.ErrorIs(t, err, ErrTradeNotFound)
}

func TestInsufficientCash(t *testing.T) {
	l := Open(context.Background(), "test", 10, 0.01, nil, nil)

	_, err := l.OpenPosition(context.Background(), OpenOrder{
		TokenID: "tok1",
		Fill:    fill(1000, 0.05), // $50 > $10
	})
	assert.ErrorIs(t, err, ErrInsufficientCash)
	assert.InDelta(t, 10, l.Cash(), 1e-9)
}

func TestUnrealizedIgnoresMissingMarks(t *testing.T) {
	l := Open(context.Background(), "test", 1000, 0.01, nil, nil)
	openTrade(t, l, "tok1", 200, 0.05) // $10
	openTrade(t, l, "tok2", 100, 0.04) // $4

	marks := map[string]float64{"tok1": 0.08}
	// tok1: 200×0.08 − 10 = 6; tok2 sin mark → 0
	assert.InDelta(t, 6, l.UnrealizedPnL(marks), 1e-9)
	assert.InDelta(t, 1006, l.TotalEquity(marks), 1e-9)
}

func TestBetSizeFromEquity(t *testing.T) {
	l := Open(context.Background(), "test", 1000, 0.01, nil, nil)
	assert.InDelta(t, 10, l.BetSize(nil), 1e-9)

	// Equity never drops the bet below $1.
	small := Open(context.Background(), "small", 50, 0.01, nil, nil)
	assert.InDelta(t, 1, small.BetSize(nil), 1e-9)
}

func TestMetrics(t *testing.T) {
	l := Open(context.Background(), "test", 1000, 0.01, nil, nil)
	ctx := context.Background()

	tr1 := openTrade(t, l, "tok1", 200, 0.05)
	tr2 := openTrade(t, l, "tok2", 100, 0.04)
	openTrade(t, l, "tok3", 100, 0.02)

	l.ClosePosition(ctx, tr1.ID, domain.StatusWon, 1.0, 190)
	l.ClosePosition(ctx, tr2.ID, domain.StatusLost, 0, -4)

	m := l.Metrics(nil)
	assert.Equal(t, 1, m.OpenTrades)
	assert.Equal(t, 2, m.ClosedTrades)
	assert.InDelta(t, 50, m.WinRate, 1e-9)
	assert.InDelta(t, 190.0/4.0, m.ProfitFactor, 1e-9)
	assert.InDelta(t, 186, m.RealizedPnL, 1e-9)
}

func TestMetricsProfitFactorSentinels(t *testing.T) {
	l := Open(context.Background(), "test", 1000, 0.01, nil, nil)
	ctx := context.Background()

	assert.Equal(t, 0.0, l.Metrics(nil).ProfitFactor, "no closed trades")

	tr := openTrade(t, l, "tok1", 200, 0.05)
	l.ClosePosition(ctx, tr.ID, domain.StatusWon, 1.0, 190)
	assert.True(t, math.IsInf(l.Metrics(nil).ProfitFactor, 1), "profits without losses")
}

func TestPersistenceRoundTrip(t *testing.T) {
	store := newMemStore()
	audit := &memAudit{}
	ctx := context.Background()

	l := Open(ctx, "test", 1000, 0.01, store, audit)
	tr := openTrade(t, l, "tok1", 200, 0.05)
	l.ClosePosition(ctx, tr.ID, domain.StatusSold, 0.30, 50)
	l.TrackEvent(ctx, "ev1", domain.EventMetadata{Title: "event", TotalCost: 0.6})
	l.RecordSnapshot(ctx, nil)

	// Un segundo Open debe ver exactamente el mismo estado.
	l2 := Open(ctx, "test", 1000, 0.01, store, audit)
	assert.InDelta(t, 1050, l2.Cash(), 1e-9)
	st := l2.State()
	require.Len(t, st.Trades, 1)
	assert.Equal(t, domain.StatusSold, st.Trades[0].Status)
	assert.Len(t, st.PerformanceLog, 1)
	assert.Contains(t, st.TrackedEvents, "ev1")

	require.Len(t, audit.entries, 2)
	assert.Equal(t, "TRADE_OPEN", audit.entries[0].Action)
	assert.Equal(t, "TRADE_CLOSE", audit.entries[1].Action)
}

func TestCorruptStateFallsBackFresh(t *testing.T) {
	store := newMemStore()
	store.loadErr = errors.New("disk exploded")

	l := Open(context.Background(), "test", 1000, 0.01, store, nil)
	assert.InDelta(t, 1000, l.Cash(), 1e-9)

	// Estado guardado incoherente: trade cerrado sin pnl.
	store2 := newMemStore()
	store2.saved["test"] = domain.StrategyState{
		Strategy:        "test",
		StartingCapital: 1000,
		Trades: []domain.PaperTrade{
			{ID: "x", Shares: 10, Status: domain.StatusWon},
		},
	}
	l2 := Open(context.Background(), "test", 1000, 0.01, store2, nil)
	assert.Empty(t, l2.State().Trades)
}

func TestReset(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	l := Open(ctx, "test", 1000, 0.01, store, nil)
	tr := openTrade(t, l, "tok1", 200, 0.05)
	l.ClosePosition(ctx, tr.ID, domain.StatusWon, 1.0, 190)

	l.Reset(ctx)
	assert.InDelta(t, 1000, l.Cash(), 1e-9)
	assert.Empty(t, l.State().Trades)
	assert.Empty(t, l.State().PerformanceLog)

	l2 := Open(ctx, "test", 1000, 0.01, store, nil)
	assert.InDelta(t, 1000, l2.Cash(), 1e-9)
}

func TestHasOpenPosition(t *testing.T) {
	l := Open(context.Background(), "test", 1000, 0.01, nil, nil)
	tr := openTrade(t, l, "tok1", 100, 0.05)

	assert.True(t, l.HasOpenPosition("tok1"))
	assert.False(t, l.HasOpenPosition("tok2"))

	l.ClosePosition(context.Background(), tr.ID, domain.StatusLost, 0, -5)
	assert.False(t, l.HasOpenPosition("tok1"))
}

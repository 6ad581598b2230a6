package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/bracketbot/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func ptr[T any](v T) *T { return &v }

func sampleState() domain.StrategyState {
	entry := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	exit := entry.Add(48 * time.Hour)

	return domain.StrategyState{
		Strategy:        "musk_tweets",
		StartingCapital: 1000,
		RealizedPnL:     240,
		LastUpdated:     exit,
		Trades: []domain.PaperTrade{
			{
				ID: "t1", Strategy: "musk_tweets", EventID: "ev1",
				EventTitle: "Elon Musk # tweets Aug 22-29", MarketID: "m1",
				ConditionID: "0xabc", TokenID: "tok1", BracketTitle: "300-349",
				Side: "YES", Shares: 250, EntryPrice: 0.04, EntryCost: 10,
				Slippage: 0.01, DepthAtEntry: 5000, EntryTime: entry,
				Status: domain.StatusWon, ExitPrice: ptr(1.0),
				ExitTime: &exit, PnL: ptr(240.0),
			},
			{
				ID: "t2", Strategy: "musk_tweets", EventID: "ev1",
				MarketID: "m2", TokenID: "tok2", BracketTitle: "350-399",
				Side: "YES", Shares: 125, EntryPrice: 0.08, EntryCost: 10,
				EntryTime: entry, Status: domain.StatusOpen,
			},
		},
		TrackedEvents: map[string]domain.EventMetadata{
			"ev1": {Title: "Elon Musk # tweets Aug 22-29", Brackets: 8, TotalCost: 0.62, Edge: 0.38, LastScanned: exit},
		},
		PerformanceLog: []domain.PerformanceSnapshot{
			{Timestamp: entry, Cash: 980, Invested: 20, TotalEquity: 1000, OpenPositions: 2},
			{Timestamp: exit, Cash: 1230, Invested: 10, RealizedPnL: 240, TotalEquity: 1242.5, OpenPositions: 1, ClosedPositions: 1},
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	st := sampleState()

	require.NoError(t, store.SaveState(ctx, st))

	got, found, err := store.LoadState(ctx, "musk_tweets")
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, st.Strategy, got.Strategy)
	assert.InDelta(t, st.StartingCapital, got.StartingCapital, 1e-9)
	assert.InDelta(t, st.RealizedPnL, got.RealizedPnL, 1e-9)
	assert.True(t, st.LastUpdated.Equal(got.LastUpdated))

	require.Len(t, got.Trades, 2)
	won := got.Trades[0]
	assert.Equal(t, "t1", won.ID)
	assert.Equal(t, domain.StatusWon, won.Status)
	assert.Equal(t, "300-349", won.BracketTitle)
	require.NotNil(t, won.ExitPrice)
	assert.InDelta(t, 1.0, *won.ExitPrice, 1e-9)
	require.NotNil(t, won.PnL)
	assert.InDelta(t, 240, *won.PnL, 1e-9)
	require.NotNil(t, won.ExitTime)
	assert.True(t, st.Trades[0].ExitTime.Equal(*won.ExitTime))

	open := got.Trades[1]
	assert.Equal(t, domain.StatusOpen, open.Status)
	assert.Nil(t, open.ExitPrice)
	assert.Nil(t, open.ExitTime)
	assert.Nil(t, open.PnL)

	require.Contains(t, got.TrackedEvents, "ev1")
	assert.Equal(t, 8, got.TrackedEvents["ev1"].Brackets)
	assert.InDelta(t, 0.38, got.TrackedEvents["ev1"].Edge, 1e-9)

	require.Len(t, got.PerformanceLog, 2)
	assert.InDelta(t, 1242.5, got.PerformanceLog[1].TotalEquity, 1e-9)
}

func TestSaveStateReplacesPrevious(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	st := sampleState()
	require.NoError(t, store.SaveState(ctx, st))

	// Segundo save con un solo trade: el anterior no debe sobrevivir.
	st.Trades = st.Trades[:1]
	st.PerformanceLog = nil
	require.NoError(t, store.SaveState(ctx, st))

	got, found, err := store.LoadState(ctx, "musk_tweets")
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, got.Trades, 1)
	assert.Empty(t, got.PerformanceLog)
}

func TestLoadStateNotFound(t *testing.T) {
	store := newTestStore(t)

	_, found, err := store.LoadState(context.Background(), "nunca_guardada")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeleteState(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveState(ctx, sampleState()))
	require.NoError(t, store.DeleteState(ctx, "musk_tweets"))

	_, found, err := store.LoadState(ctx, "musk_tweets")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestAuditTrail(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i, action := range []string{"TRADE_OPEN", "TRADE_OPEN", "TRADE_CLOSE"} {
		require.NoError(t, store.AppendAudit(ctx, domain.AuditEntry{
			Timestamp: now.Add(time.Duration(i) * time.Minute),
			Action:    action,
			Strategy:  "musk_tweets",
			TradeID:   "t1",
			Detail:    "300-349",
		}))
	}
	// De otra estrategia, no debe aparecer.
	require.NoError(t, store.AppendAudit(ctx, domain.AuditEntry{
		Timestamp: now, Action: "RESET", Strategy: "trump_posts",
	}))

	trail, err := store.AuditTrail(ctx, "musk_tweets", 10)
	require.NoError(t, err)
	require.Len(t, trail, 3)
	assert.Equal(t, "TRADE_CLOSE", trail[0].Action, "más reciente primero")

	trail, err = store.AuditTrail(ctx, "musk_tweets", 1)
	require.NoError(t, err)
	assert.Len(t, trail, 1)
}

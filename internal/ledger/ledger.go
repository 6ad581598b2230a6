// Package ledger tracks simulated capital and positions for one strategy.
// Cash is never stored — it is always derived from starting capital,
// realized pnl and open entry costs, so the books cannot drift.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/alejandrodnm/bracketbot/internal/domain"
	"github.com/alejandrodnm/bracketbot/internal/ports"
	"github.com/google/uuid"
)

var (
	ErrTradeNotFound    = errors.New("ledger: trade not found")
	ErrTradeClosed      = errors.New("ledger: trade already closed")
	ErrInsufficientCash = errors.New("ledger: insufficient cash")
)

const (
	DefaultStartingCapital = 1000.0
	DefaultBetFraction     = 0.01
	minBetUSD              = 1.0
)

// Ledger is the single writer for one strategy's state. All read-compute-
// write sequences run under the mutex; collaborators only see copies.
type Ledger struct {
	mu          sync.Mutex
	st          domain.StrategyState
	betFraction float64
	store       ports.StateStore
	audit       ports.AuditLogger
}

// Open carga (o crea) el ledger de una estrategia.
// Estado persistido corrupto o ilegible → ledger nuevo con el capital
// inicial, avisando por log. Nunca es fatal.
func Open(ctx context.Context, strategyID string, startingCapital, betFraction float64, store ports.StateStore, audit ports.AuditLogger) *Ledger {
	if startingCapital <= 0 {
		startingCapital = DefaultStartingCapital
	}
	if betFraction <= 0 {
		betFraction = DefaultBetFraction
	}

	l := &Ledger{
		st:          freshState(strategyID, startingCapital),
		betFraction: betFraction,
		store:       store,
		audit:       audit,
	}

	if store == nil {
		return l
	}

	st, found, err := store.LoadState(ctx, strategyID)
	switch {
	case err != nil:
		slog.Warn("ledger: stored state unreadable, starting fresh",
			"strategy", strategyID, "err", err)
	case found && stateValid(st):
		l.st = st
	case found:
		slog.Warn("ledger: stored state inconsistent, starting fresh",
			"strategy", strategyID)
	}
	return l
}

// OpenOrder es lo necesario para abrir una posición ya simulada.
type OpenOrder struct {
	EventID      string
	EventTitle   string
	MarketID     string
	ConditionID  string
	TokenID      string
	BracketTitle string
	Fill         domain.FillResult
	DepthAtEntry float64
}

// OpenPosition registra una compra simulada y descuenta el coste del cash.
func (l *Ledger) OpenPosition(ctx context.Context, o OpenOrder) (domain.PaperTrade, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if o.Fill.Notional > l.cash() {
		return domain.PaperTrade{}, fmt.Errorf("ledger.OpenPosition: cost %.2f > cash %.2f: %w",
			o.Fill.Notional, l.cash(), ErrInsufficientCash)
	}

	trade := domain.PaperTrade{
		ID:           uuid.NewString(),
		Strategy:     l.st.Strategy,
		EventID:      o.EventID,
		EventTitle:   o.EventTitle,
		MarketID:     o.MarketID,
		ConditionID:  o.ConditionID,
		TokenID:      o.TokenID,
		BracketTitle: o.BracketTitle,
		Side:         "YES",
		Shares:       o.Fill.Shares,
		EntryPrice:   o.Fill.AvgPrice,
		EntryCost:    o.Fill.Notional,
		Slippage:     o.Fill.Slippage,
		DepthAtEntry: o.DepthAtEntry,
		EntryTime:    time.Now().UTC(),
		Status:       domain.StatusOpen,
	}
	l.st.Trades = append(l.st.Trades, trade)
	l.persist(ctx)
	l.auditAppend(ctx, "TRADE_OPEN", trade.ID,
		fmt.Sprintf("%s %.2f shares @ %.4f ($%.2f)", trade.BracketTitle, trade.Shares, trade.EntryPrice, trade.EntryCost))
	return trade, nil
}

// ClosePosition cierra una posición abierta exactamente una vez.
// El pnl lo aporta el caller (resolución o venta simulada); el ledger solo
// lo acumula en realized. Segundo cierre → ErrTradeClosed sin mutación.
func (l *Ledger) ClosePosition(ctx context.Context, tradeID string, status domain.TradeStatus, exitPrice, pnl float64) (domain.PaperTrade, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := -1
	for i := range l.st.Trades {
		if l.st.Trades[i].ID == tradeID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.PaperTrade{}, fmt.Errorf("ledger.ClosePosition: %q: %w", tradeID, ErrTradeNotFound)
	}
	t := &l.st.Trades[idx]
	if t.Status != domain.StatusOpen {
		return domain.PaperTrade{}, fmt.Errorf("ledger.ClosePosition: %q is %s: %w", tradeID, t.Status, ErrTradeClosed)
	}

	now := time.Now().UTC()
	t.Status = status
	t.ExitPrice = &exitPrice
	t.ExitTime = &now
	t.PnL = &pnl
	l.st.RealizedPnL += pnl

	l.persist(ctx)
	l.auditAppend(ctx, "TRADE_CLOSE", t.ID,
		fmt.Sprintf("%s %s @ %.4f pnl %+.2f", t.BracketTitle, status, exitPrice, pnl))
	return *t, nil
}

// Cash devuelve el efectivo disponible.
func (l *Ledger) Cash() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cash()
}

// Invested es el coste de entrada de las posiciones abiertas.
func (l *Ledger) Invested() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.invested()
}

// CanAfford reporta si hay cash para un coste dado.
func (l *Ledger) CanAfford(amount float64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cash() >= amount
}

// HasOpenPosition reporta si ya hay posición abierta sobre un token.
func (l *Ledger) HasOpenPosition(tokenID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, t := range l.st.Trades {
		if t.IsOpen() && t.TokenID == tokenID {
			return true
		}
	}
	return false
}

// UnrealizedPnL marca las posiciones abiertas contra los best bids dados.
// Un token sin mark contribuye 0, no un pnl fantasma.
func (l *Ledger) UnrealizedPnL(marks map[string]float64) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.unrealized(marks)
}

// TotalEquity = cash + invertido + no realizado.
func (l *Ledger) TotalEquity(marks map[string]float64) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cash() + l.invested() + l.unrealized(marks)
}

// BetSize es el tamaño de apuesta: 1% del equity, mínimo $1.
func (l *Ledger) BetSize(marks map[string]float64) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	equity := l.cash() + l.invested() + l.unrealized(marks)
	return round2(math.Max(equity*l.betFraction, minBetUSD))
}

// OpenTrades devuelve copias de las posiciones abiertas.
func (l *Ledger) OpenTrades() []domain.PaperTrade {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []domain.PaperTrade
	for _, t := range l.st.Trades {
		if t.IsOpen() {
			out = append(out, t)
		}
	}
	return out
}

// ClosedTrades devuelve copias de las posiciones cerradas.
func (l *Ledger) ClosedTrades() []domain.PaperTrade {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []domain.PaperTrade
	for _, t := range l.st.Trades {
		if !t.IsOpen() {
			out = append(out, t)
		}
	}
	return out
}

// Metrics resume el estado del portfolio a dos decimales.
func (l *Ledger) Metrics(marks map[string]float64) domain.PortfolioMetrics {
	l.mu.Lock()
	defer l.mu.Unlock()

	unrealized := l.unrealized(marks)
	cash := l.cash()
	invested := l.invested()
	equity := cash + invested + unrealized

	var open, closed, wins int
	var grossProfit, grossLoss float64
	for _, t := range l.st.Trades {
		if t.IsOpen() {
			open++
			continue
		}
		closed++
		if t.PnL == nil {
			continue
		}
		if *t.PnL > 0 {
			wins++
			grossProfit += *t.PnL
		} else {
			grossLoss += -*t.PnL
		}
	}

	winRate := 0.0
	if closed > 0 {
		winRate = float64(wins) / float64(closed) * 100
	}

	profitFactor := 0.0
	switch {
	case grossLoss > 0:
		profitFactor = grossProfit / grossLoss
	case grossProfit > 0:
		profitFactor = math.Inf(1)
	}

	return domain.PortfolioMetrics{
		Cash:          round2(cash),
		Invested:      round2(invested),
		UnrealizedPnL: round2(unrealized),
		RealizedPnL:   round2(l.st.RealizedPnL),
		TotalEquity:   round2(equity),
		ReturnPct:     round2((equity - l.st.StartingCapital) / l.st.StartingCapital * 100),
		BetSize:       round2(math.Max(equity*l.betFraction, minBetUSD)),
		WinRate:       winRate,
		ProfitFactor:  profitFactor,
		OpenTrades:    open,
		ClosedTrades:  closed,
	}
}

// RecordSnapshot añade una fila al equity log y la persiste.
func (l *Ledger) RecordSnapshot(ctx context.Context, marks map[string]float64) domain.PerformanceSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	unrealized := l.unrealized(marks)
	cash := l.cash()
	invested := l.invested()
	var open, closed int
	for _, t := range l.st.Trades {
		if t.IsOpen() {
			open++
		} else {
			closed++
		}
	}

	snap := domain.PerformanceSnapshot{
		Timestamp:       time.Now().UTC(),
		Cash:            round2(cash),
		Invested:        round2(invested),
		UnrealizedPnL:   round2(unrealized),
		RealizedPnL:     round2(l.st.RealizedPnL),
		TotalEquity:     round2(cash + invested + unrealized),
		OpenPositions:   open,
		ClosedPositions: closed,
	}
	l.st.PerformanceLog = append(l.st.PerformanceLog, snap)
	l.persist(ctx)
	return snap
}

// TrackEvent guarda la metadata del último scan de un evento.
func (l *Ledger) TrackEvent(ctx context.Context, eventID string, meta domain.EventMetadata) {
	if eventID == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.st.TrackedEvents == nil {
		l.st.TrackedEvents = make(map[string]domain.EventMetadata)
	}
	l.st.TrackedEvents[eventID] = meta
	l.persist(ctx)
}

// Reset descarta todo y vuelve al capital inicial.
func (l *Ledger) Reset(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.st = freshState(l.st.Strategy, l.st.StartingCapital)
	l.persist(ctx)
	l.auditAppend(ctx, "RESET", "", fmt.Sprintf("ledger reset to $%.2f", l.st.StartingCapital))
}

// State devuelve una copia del estado completo (para reportes).
func (l *Ledger) State() domain.StrategyState {
	l.mu.Lock()
	defer l.mu.Unlock()

	st := l.st
	st.Trades = append([]domain.PaperTrade(nil), l.st.Trades...)
	st.PerformanceLog = append([]domain.PerformanceSnapshot(nil), l.st.PerformanceLog...)
	st.TrackedEvents = make(map[string]domain.EventMetadata, len(l.st.TrackedEvents))
	for k, v := range l.st.TrackedEvents {
		st.TrackedEvents[k] = v
	}
	return st
}

// --- internos, siempre bajo lock ---

func (l *Ledger) cash() float64 {
	return l.st.StartingCapital + l.st.RealizedPnL - l.invested()
}

func (l *Ledger) invested() float64 {
	var total float64
	for _, t := range l.st.Trades {
		if t.IsOpen() {
			total += t.EntryCost
		}
	}
	return total
}

func (l *Ledger) unrealized(marks map[string]float64) float64 {
	var total float64
	for _, t := range l.st.Trades {
		if !t.IsOpen() {
			continue
		}
		bid, ok := marks[t.TokenID]
		if !ok {
			continue
		}
		total += t.Shares*bid - t.EntryCost
	}
	return total
}

func (l *Ledger) persist(ctx context.Context) {
	if l.store == nil {
		return
	}
	l.st.LastUpdated = time.Now().UTC()
	if err := l.store.SaveState(ctx, l.st); err != nil {
		slog.Warn("ledger: persist failed", "strategy", l.st.Strategy, "err", err)
	}
}

func (l *Ledger) auditAppend(ctx context.Context, action, tradeID, detail string) {
	if l.audit == nil {
		return
	}
	err := l.audit.AppendAudit(ctx, domain.AuditEntry{
		Timestamp: time.Now().UTC(),
		Action:    action,
		Strategy:  l.st.Strategy,
		TradeID:   tradeID,
		Detail:    detail,
	})
	if err != nil {
		slog.Warn("ledger: audit append failed", "strategy", l.st.Strategy, "err", err)
	}
}

func freshState(strategyID string, startingCapital float64) domain.StrategyState {
	return domain.StrategyState{
		Strategy:        strategyID,
		StartingCapital: startingCapital,
		TrackedEvents:   make(map[string]domain.EventMetadata),
	}
}

// stateValid rechaza estados persistidos incoherentes.
func stateValid(st domain.StrategyState) bool {
	if st.StartingCapital <= 0 {
		return false
	}
	for _, t := range st.Trades {
		if t.ID == "" || t.Shares <= 0 || t.EntryCost < 0 {
			return false
		}
		if !domain.KnownStatus(t.Status) {
			return false
		}
		if !t.IsOpen() && t.PnL == nil {
			return false
		}
	}
	return true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Package engine orchestrates one strategy's paper-trading cycle:
// settle what is open, discover bracket events, analyze, estimate the
// outcome, select a spread and buy it with simulated fills.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/bracketbot/internal/domain"
	"github.com/alejandrodnm/bracketbot/internal/estimator"
	"github.com/alejandrodnm/bracketbot/internal/ledger"
	"github.com/alejandrodnm/bracketbot/internal/ports"
	"github.com/alejandrodnm/bracketbot/internal/scanner"
	"github.com/alejandrodnm/bracketbot/internal/selector"
	"github.com/alejandrodnm/bracketbot/internal/strategy"
)

// Config controla umbrales y tamaños del engine.
type Config struct {
	StartingCapital  float64
	BetFraction      float64
	MaxSetCost       float64
	TakeProfitBid    float64
	MaxDepthFraction float64
	Scanner          scanner.Params
	ScanInterval     time.Duration
}

// DefaultConfig devuelve la configuración de producción.
func DefaultConfig() Config {
	return Config{
		StartingCapital:  ledger.DefaultStartingCapital,
		BetFraction:      ledger.DefaultBetFraction,
		MaxSetCost:       0.95,
		TakeProfitBid:    0.30,
		MaxDepthFraction: domain.DefaultMaxDepthFraction,
		Scanner:          scanner.DefaultParams(),
		ScanInterval:     5 * time.Minute,
	}
}

// Engine ejecuta ciclos para una estrategia con su propio ledger.
type Engine struct {
	cfg         Config
	strat       strategy.Strategy
	markets     ports.MarketProvider
	books       ports.BookProvider
	resolutions ports.ResolutionProvider
	signals     ports.SignalProvider
	ledger      *ledger.Ledger
	analyzer    *scanner.Analyzer
	est         estimator.Estimator
}

// Deps agrupa los colaboradores externos del engine.
type Deps struct {
	Markets     ports.MarketProvider
	Books       ports.BookProvider
	Resolutions ports.ResolutionProvider
	Signals     ports.SignalProvider
	Store       ports.StateStore
	Audit       ports.AuditLogger
}

// New crea un Engine y carga (o crea) el ledger de la estrategia.
func New(ctx context.Context, cfg Config, strat strategy.Strategy, deps Deps) *Engine {
	if cfg.MaxSetCost <= 0 {
		cfg.MaxSetCost = 0.95
	}
	if cfg.TakeProfitBid <= 0 {
		cfg.TakeProfitBid = 0.30
	}
	if cfg.MaxDepthFraction <= 0 {
		cfg.MaxDepthFraction = domain.DefaultMaxDepthFraction
	}
	cfg.Scanner.MaxSetCost = cfg.MaxSetCost

	return &Engine{
		cfg:         cfg,
		strat:       strat,
		markets:     deps.Markets,
		books:       deps.Books,
		resolutions: deps.Resolutions,
		signals:     deps.Signals,
		ledger:      ledger.Open(ctx, strat.ID, cfg.StartingCapital, cfg.BetFraction, deps.Store, deps.Audit),
		analyzer:    scanner.NewAnalyzer(cfg.Scanner),
		est:         estimator.ForKind(strat.Estimator),
	}
}

// Strategy devuelve la estrategia del engine.
func (e *Engine) Strategy() strategy.Strategy { return e.strat }

// Ledger expone el ledger para reportes.
func (e *Engine) Ledger() *ledger.Ledger { return e.ledger }

// CycleResult resume lo que pasó en un ciclo.
type CycleResult struct {
	Strategy       string
	StartedAt      time.Time
	Duration       time.Duration
	EventsSeen     int
	Analyses       []scanner.Analysis
	Estimate       *estimator.Estimate
	Opened         []domain.PaperTrade
	Closed         []domain.PaperTrade
	Marks          map[string]float64 // tokenID → best bid observado
	SkippedNoFill  int
	SkippedFunds   int
	SkippedIlliq   int
	DiscoveryError error
	Metrics        domain.PortfolioMetrics
}

// RunCycle ejecuta un ciclo completo. Los fallos de red se degradan a
// skip-and-retry: el ciclo siempre termina y siempre deja snapshot.
func (e *Engine) RunCycle(ctx context.Context) (*CycleResult, error) {
	start := time.Now()
	res := &CycleResult{
		Strategy:  e.strat.ID,
		StartedAt: start.UTC(),
		Marks:     make(map[string]float64),
	}

	// 1. Liquidar lo abierto antes de comprar nada.
	e.settle(ctx, res)

	// 2. Descubrir y analizar eventos bracket.
	events, err := e.markets.FetchBracketEvents(ctx, e.strat.Queries)
	if err != nil {
		res.DiscoveryError = fmt.Errorf("engine.RunCycle: discover events: %w", err)
		slog.Warn("event discovery failed, buying skipped this cycle",
			"strategy", e.strat.ID, "err", err)
	}
	res.EventsSeen = len(events)

	// 3. Estimación del outcome, una vez por ciclo.
	res.Estimate = e.estimateOutcome(ctx)

	for _, ev := range events {
		if ctx.Err() != nil {
			break
		}
		e.tradeEvent(ctx, ev, res)
	}

	// 4. Snapshot de equity con los marks recogidos en este ciclo.
	e.ledger.RecordSnapshot(ctx, res.Marks)
	res.Metrics = e.ledger.Metrics(res.Marks)
	res.Duration = time.Since(start)

	slog.Info("cycle complete",
		"strategy", e.strat.ID,
		"events", res.EventsSeen,
		"opened", len(res.Opened),
		"closed", len(res.Closed),
		"equity", res.Metrics.TotalEquity,
		"duration", res.Duration.Round(time.Millisecond),
	)
	return res, ctx.Err()
}

// tradeEvent analiza un evento y compra el spread seleccionado.
func (e *Engine) tradeEvent(ctx context.Context, ev domain.BracketEvent, res *CycleResult) {
	an := e.analyzer.Analyze(ev)
	res.Analyses = append(res.Analyses, an)

	e.ledger.TrackEvent(ctx, ev.ID, domain.EventMetadata{
		Title:       ev.Title,
		Brackets:    len(an.Active),
		TotalCost:   an.TotalCost,
		Edge:        an.Edge,
		LastScanned: time.Now().UTC(),
	})

	if !an.Viable || len(an.Qualifying) == 0 {
		slog.Debug("event skipped",
			"event", ev.Title, "viable", an.Viable, "qualifying", len(an.Qualifying))
		return
	}

	var estValue *float64
	if res.Estimate != nil {
		estValue = &res.Estimate.Value
	}
	selected := selector.Select(an.Qualifying, e.strat.MaxBrackets, estValue)

	for _, b := range selected {
		if ctx.Err() != nil {
			return
		}
		e.buyBracket(ctx, ev, b, res)
	}
}

// buyBracket simula la compra de un bracket y la registra en el ledger.
func (e *Engine) buyBracket(ctx context.Context, ev domain.BracketEvent, b domain.OutcomeBracket, res *CycleResult) {
	if b.TokenID == "" || e.ledger.HasOpenPosition(b.TokenID) {
		return
	}

	book, err := e.books.FetchOrderBook(ctx, b.TokenID)
	if err != nil {
		slog.Warn("book fetch failed, bracket skipped",
			"strategy", e.strat.ID, "bracket", b.Title, "err", err)
		return
	}

	if !e.analyzer.Tradeable(b, book) {
		res.SkippedIlliq++
		slog.Debug("bracket fails volume/liquidity filters", "bracket", b.Title)
		return
	}

	bet := e.ledger.BetSize(res.Marks)
	if !e.ledger.CanAfford(bet) {
		res.SkippedFunds++
		slog.Debug("insufficient cash for bet", "bracket", b.Title, "bet", bet)
		return
	}

	fill := domain.SimulateBuy(book, bet, e.cfg.MaxDepthFraction)
	if fill == nil {
		res.SkippedNoFill++
		slog.Debug("buy simulation produced no fill", "bracket", b.Title)
		return
	}

	trade, err := e.ledger.OpenPosition(ctx, ledger.OpenOrder{
		EventID:      ev.ID,
		EventTitle:   ev.Title,
		MarketID:     b.MarketID,
		ConditionID:  b.ConditionID,
		TokenID:      b.TokenID,
		BracketTitle: b.Title,
		Fill:         *fill,
		DepthAtEntry: book.TotalDepthUSD(),
	})
	if err != nil {
		res.SkippedFunds++
		slog.Warn("open position rejected", "bracket", b.Title, "err", err)
		return
	}

	res.Opened = append(res.Opened, trade)
	slog.Info("position opened",
		"strategy", e.strat.ID,
		"bracket", b.Title,
		"shares", fmt.Sprintf("%.2f", trade.Shares),
		"avg_price", fmt.Sprintf("%.4f", trade.EntryPrice),
		"cost", fmt.Sprintf("%.2f", trade.EntryCost),
		"slippage", fmt.Sprintf("%.4f", trade.Slippage),
	)
}

// estimateOutcome obtiene la señal y la proyecta. Cualquier fallo degrada
// a "sin estimación" (selección even-spread), nunca a error de ciclo.
func (e *Engine) estimateOutcome(ctx context.Context) *estimator.Estimate {
	if e.signals == nil || e.strat.XTrackerUser == "" {
		return nil
	}
	sig, err := e.signals.FetchUserActivity(ctx, e.strat.XTrackerUser)
	if err != nil {
		slog.Warn("signal fetch failed, falling back to even spread",
			"strategy", e.strat.ID, "user", e.strat.XTrackerUser, "err", err)
		return nil
	}
	est, ok := e.est.Estimate(sig)
	if !ok {
		return nil
	}
	slog.Debug("outcome estimated",
		"strategy", e.strat.ID, "value", est.Value, "provenance", est.Provenance)
	return &est
}

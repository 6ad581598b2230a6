package engine

import (
	"context"
	"log/slog"
	"strings"

	"github.com/alejandrodnm/bracketbot/internal/domain"
)

// settle revisa cada posición abierta con prioridad fija:
// resolución → take-profit → mark-to-market.
// Un fallo de red deja la posición intacta hasta el siguiente ciclo.
func (e *Engine) settle(ctx context.Context, res *CycleResult) {
	open := e.ledger.OpenTrades()
	if len(open) == 0 {
		return
	}

	resolutions := make(map[string]domain.Resolution)

	for _, t := range open {
		if ctx.Err() != nil {
			return
		}

		r, ok := resolutions[t.MarketID]
		if !ok && t.MarketID != "" {
			fetched, err := e.resolutions.FetchResolution(ctx, t.MarketID)
			if err != nil {
				slog.Debug("resolution check failed",
					"trade", t.ID, "market", t.MarketID, "err", err)
			} else {
				r = fetched
				resolutions[t.MarketID] = r
			}
		}

		if r.Resolved && r.Winner != "" {
			e.settleResolved(ctx, t, r, res)
			continue
		}

		book, err := e.books.FetchOrderBook(ctx, t.TokenID)
		if err != nil {
			// Sin book no hay mark ni venta: la posición espera al
			// siguiente ciclo y no entra en el unrealized de este.
			slog.Warn("book fetch failed, position skipped this cycle",
				"trade", t.ID, "bracket", t.BracketTitle, "err", err)
			continue
		}

		bid := book.BestBid()
		res.Marks[t.TokenID] = bid

		if bid >= e.cfg.TakeProfitBid {
			e.settleTakeProfit(ctx, t, book, res)
		}
	}
}

// settleResolved cierra una posición cuyo mercado ya resolvió.
func (e *Engine) settleResolved(ctx context.Context, t domain.PaperTrade, r domain.Resolution, res *CycleResult) {
	won := strings.EqualFold(r.Winner, t.Side)

	status := domain.StatusLost
	exitPrice := 0.0
	pnl := -t.EntryCost
	if won {
		status = domain.StatusWon
		exitPrice = 1.0
		pnl = t.Shares - t.EntryCost
	}

	closed, err := e.ledger.ClosePosition(ctx, t.ID, status, exitPrice, pnl)
	if err != nil {
		slog.Warn("close on resolution failed", "trade", t.ID, "err", err)
		return
	}
	res.Closed = append(res.Closed, closed)
	slog.Info("position resolved",
		"strategy", e.strat.ID,
		"bracket", t.BracketTitle,
		"status", status,
		"pnl", pnl,
	)
}

// settleTakeProfit intenta salir vendiendo contra el book actual.
// Si la simulación no coloca todas las shares (cap de profundidad), la
// posición queda abierta y se reintenta: cerrar con venta parcial
// rompería la contabilidad de la posición.
func (e *Engine) settleTakeProfit(ctx context.Context, t domain.PaperTrade, book domain.OrderBook, res *CycleResult) {
	fill := domain.SimulateSell(book, t.Shares, e.cfg.MaxDepthFraction)
	if fill == nil || fill.Shares < t.Shares-1e-9 {
		sold := 0.0
		if fill != nil {
			sold = fill.Shares
		}
		slog.Debug("take-profit sell not fully fillable, position stays open",
			"trade", t.ID, "bracket", t.BracketTitle,
			"wanted", t.Shares, "fillable", sold)
		return
	}

	pnl := fill.Notional - t.EntryCost
	closed, err := e.ledger.ClosePosition(ctx, t.ID, domain.StatusSold, fill.AvgPrice, pnl)
	if err != nil {
		slog.Warn("take-profit close failed", "trade", t.ID, "err", err)
		return
	}
	res.Closed = append(res.Closed, closed)
	slog.Info("take-profit executed",
		"strategy", e.strat.ID,
		"bracket", t.BracketTitle,
		"exit", fill.AvgPrice,
		"pnl", pnl,
	)
}

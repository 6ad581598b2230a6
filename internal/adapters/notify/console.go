package notify

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/bracketbot/internal/domain"
	"github.com/alejandrodnm/bracketbot/internal/engine"
)

// Console imprime el estado de los ciclos y los reports de portfolio.
type Console struct {
	out  io.Writer
	full bool
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(full bool) *Console {
	return &Console{out: os.Stdout, full: full}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, full bool) *Console {
	return &Console{out: w, full: full}
}

// PrintCycleStatus imprime el resumen compacto de un ciclo, una línea por
// estrategia.
func (c *Console) PrintCycleStatus(res *engine.CycleResult) {
	now := res.StartedAt.Format("15:04:05")

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s][%s] %d events | %d open | +%d buys | %d closed | eq $%.2f (%+.1f%%)",
		now, res.Strategy, res.EventsSeen, res.Metrics.OpenTrades,
		len(res.Opened), len(res.Closed), res.Metrics.TotalEquity, res.Metrics.ReturnPct)

	if res.Estimate != nil {
		fmt.Fprintf(&sb, " | est %.0f (%s)", res.Estimate.Value, res.Estimate.Provenance)
	}
	if skipped := res.SkippedNoFill + res.SkippedFunds + res.SkippedIlliq; skipped > 0 {
		fmt.Fprintf(&sb, " | skip %d", skipped)
	}
	if res.DiscoveryError != nil {
		fmt.Fprintf(&sb, "\n  !! discovery: %v", res.DiscoveryError)
	}

	for _, t := range res.Closed {
		fmt.Fprintf(&sb, "\n  >> %s %s @ $%.3f pnl %s",
			t.Status, truncate(t.BracketTitle, 30), deref(t.ExitPrice), pnlLabel(t.PnL))
	}
	if c.full {
		for _, t := range res.Opened {
			fmt.Fprintf(&sb, "\n  ++ BUY %s: %.1f sh @ $%.4f ($%.2f, slip %.2f%%)",
				truncate(t.BracketTitle, 30), t.Shares, t.EntryPrice, t.EntryCost, t.Slippage*100)
		}
	}

	fmt.Fprintln(c.out, sb.String())
}

// PrintReport imprime el report completo de una estrategia: posiciones
// abiertas, historial de trades, equity log y métricas agregadas.
func (c *Console) PrintReport(st domain.StrategyState, m domain.PortfolioMetrics) {
	fmt.Fprintf(c.out, "\n")
	fmt.Fprintf(c.out, "========================================================\n")
	fmt.Fprintf(c.out, "  PAPER TRADING REPORT — %s\n", st.Strategy)
	if !st.LastUpdated.IsZero() {
		fmt.Fprintf(c.out, "  Last updated: %s\n", st.LastUpdated.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(c.out, "========================================================\n")

	c.printOpenPositions(st)
	c.printTradeHistory(st)
	if c.full {
		c.printEquityLog(st)
	}
	c.printMetrics(st, m)
}

func (c *Console) printOpenPositions(st domain.StrategyState) {
	var open []domain.PaperTrade
	for _, t := range st.Trades {
		if t.IsOpen() {
			open = append(open, t)
		}
	}

	fmt.Fprintf(c.out, "\n  --- OPEN POSITIONS (%d) ---\n", len(open))
	if len(open) == 0 {
		fmt.Fprintln(c.out, "  (none)")
		return
	}

	tbl := tablewriter.NewWriter(c.out)
	tbl.Header("Event", "Bracket", "Shares", "Entry", "Cost$", "Slip%", "Held")

	for _, t := range open {
		tbl.Append(
			truncate(t.EventTitle, 30),
			truncate(t.BracketTitle, 16),
			fmt.Sprintf("%.1f", t.Shares),
			fmt.Sprintf("$%.4f", t.EntryPrice),
			fmt.Sprintf("$%.2f", t.EntryCost),
			fmt.Sprintf("%.2f", t.Slippage*100),
			holdLabel(t.HoldDuration()),
		)
	}
	tbl.Render()
}

func (c *Console) printTradeHistory(st domain.StrategyState) {
	var closed []domain.PaperTrade
	for _, t := range st.Trades {
		if !t.IsOpen() {
			closed = append(closed, t)
		}
	}

	fmt.Fprintf(c.out, "\n  --- TRADE HISTORY (%d) ---\n", len(closed))
	if len(closed) == 0 {
		fmt.Fprintln(c.out, "  (no closed trades yet)")
		return
	}

	tbl := tablewriter.NewWriter(c.out)
	tbl.Header("Event", "Bracket", "Status", "Entry", "Exit", "PnL$", "Held")

	for _, t := range closed {
		tbl.Append(
			truncate(t.EventTitle, 30),
			truncate(t.BracketTitle, 16),
			string(t.Status),
			fmt.Sprintf("$%.4f", t.EntryPrice),
			fmt.Sprintf("$%.4f", deref(t.ExitPrice)),
			pnlLabel(t.PnL),
			holdLabel(t.HoldDuration()),
		)
	}
	tbl.Render()
}

func (c *Console) printEquityLog(st domain.StrategyState) {
	fmt.Fprintf(c.out, "\n  --- EQUITY LOG (last %d) ---\n", min(len(st.PerformanceLog), 20))
	if len(st.PerformanceLog) == 0 {
		fmt.Fprintln(c.out, "  (no snapshots yet)")
		return
	}

	log := st.PerformanceLog
	if len(log) > 20 {
		log = log[len(log)-20:]
	}

	tbl := tablewriter.NewWriter(c.out)
	tbl.Header("Time", "Cash$", "Invested$", "UnrlPnL$", "RlzPnL$", "Equity$", "Open", "Closed")

	for _, p := range log {
		tbl.Append(
			p.Timestamp.Format("01-02 15:04"),
			fmt.Sprintf("%.2f", p.Cash),
			fmt.Sprintf("%.2f", p.Invested),
			fmt.Sprintf("%+.2f", p.UnrealizedPnL),
			fmt.Sprintf("%+.2f", p.RealizedPnL),
			fmt.Sprintf("%.2f", p.TotalEquity),
			fmt.Sprintf("%d", p.OpenPositions),
			fmt.Sprintf("%d", p.ClosedPositions),
		)
	}
	tbl.Render()
}

func (c *Console) printMetrics(st domain.StrategyState, m domain.PortfolioMetrics) {
	pfLabel := fmt.Sprintf("%.2f", m.ProfitFactor)
	if math.IsInf(m.ProfitFactor, 1) {
		pfLabel = "INF (no losses)"
	}

	fmt.Fprintf(c.out, "\n  --- PORTFOLIO ---\n")
	fmt.Fprintf(c.out, "  Starting capital:  $%.2f\n", st.StartingCapital)
	fmt.Fprintf(c.out, "  Cash:              $%.2f\n", m.Cash)
	fmt.Fprintf(c.out, "  Invested:          $%.2f (%d positions)\n", m.Invested, m.OpenTrades)
	fmt.Fprintf(c.out, "  Unrealized PnL:    %s\n", signedUSD(m.UnrealizedPnL))
	fmt.Fprintf(c.out, "  Realized PnL:      %s\n", signedUSD(m.RealizedPnL))
	fmt.Fprintf(c.out, "  Total equity:      $%.2f (%+.2f%%)\n", m.TotalEquity, m.ReturnPct)
	fmt.Fprintf(c.out, "  Next bet size:     $%.2f\n", m.BetSize)
	fmt.Fprintf(c.out, "  Win rate:          %.1f%% (%d closed)\n", m.WinRate, m.ClosedTrades)
	fmt.Fprintf(c.out, "  Profit factor:     %s\n", pfLabel)
	fmt.Fprintf(c.out, "  Events tracked:    %d\n", len(st.TrackedEvents))
	fmt.Fprintln(c.out)
}

// --- helpers ---

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func pnlLabel(pnl *float64) string {
	if pnl == nil {
		return "-"
	}
	return signedUSD(*pnl)
}

func signedUSD(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-$%.2f", -v)
	}
	return fmt.Sprintf("+$%.2f", v)
}

func holdLabel(d time.Duration) string {
	if d < time.Hour {
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
	if d < 48*time.Hour {
		return fmt.Sprintf("%.1fh", d.Hours())
	}
	return fmt.Sprintf("%.1fd", d.Hours()/24)
}

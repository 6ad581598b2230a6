package domain

import "time"

// TradeStatus is the lifecycle state of a paper trade.
type TradeStatus string

const (
	StatusOpen TradeStatus = "OPEN"
	StatusWon  TradeStatus = "WON"  // bracket resolved YES, shares worth $1.00
	StatusLost TradeStatus = "LOST" // bracket resolved NO, shares worth $0.00
	StatusSold TradeStatus = "SOLD" // exited early via take-profit
)

// KnownStatus reporta si el estado es uno de los cuatro válidos.
func KnownStatus(s TradeStatus) bool {
	switch s {
	case StatusOpen, StatusWon, StatusLost, StatusSold:
		return true
	}
	return false
}

// PaperTrade is a simulated YES position in one outcome bracket.
// Exit fields are nil while the trade is OPEN.
type PaperTrade struct {
	ID           string
	Strategy     string
	EventID      string
	EventTitle   string
	MarketID     string
	ConditionID  string
	TokenID      string
	BracketTitle string
	Side         string // always "YES" for bracket spreads
	Shares       float64
	EntryPrice   float64 // volume-weighted average fill price
	EntryCost    float64
	Slippage     float64 // at entry, vs best ask
	DepthAtEntry float64 // total book depth USD at entry
	EntryTime    time.Time
	Status       TradeStatus
	ExitPrice    *float64
	ExitTime     *time.Time
	PnL          *float64
}

// IsOpen reporta si la posición sigue abierta.
func (t PaperTrade) IsOpen() bool {
	return t.Status == StatusOpen
}

// HoldDuration is time in position; open trades measure against now.
func (t PaperTrade) HoldDuration() time.Duration {
	if t.ExitTime != nil {
		return t.ExitTime.Sub(t.EntryTime)
	}
	return time.Since(t.EntryTime)
}

// EventMetadata is what the ledger remembers about a scanned bracket event.
type EventMetadata struct {
	Title       string
	Brackets    int // active bracket count at scan time
	TotalCost   float64
	Edge        float64
	LastScanned time.Time
}

// PerformanceSnapshot es una fila del equity log, una por ciclo.
type PerformanceSnapshot struct {
	Timestamp       time.Time
	Cash            float64
	Invested        float64
	UnrealizedPnL   float64
	RealizedPnL     float64
	TotalEquity     float64
	OpenPositions   int
	ClosedPositions int
}

// PortfolioMetrics summarizes a strategy ledger. ProfitFactor is +Inf when
// there are profits and no losses, 0 when there are no closed trades.
type PortfolioMetrics struct {
	Cash          float64
	Invested      float64
	UnrealizedPnL float64
	RealizedPnL   float64
	TotalEquity   float64
	ReturnPct     float64
	BetSize       float64
	WinRate       float64 // percent of closed trades with positive pnl
	ProfitFactor  float64
	OpenTrades    int
	ClosedTrades  int
}

// StrategyState is the full persisted state of one strategy ledger.
// Cash is never stored: it is always derived as
// starting_capital + realized_pnl − Σ entry_cost(OPEN).
type StrategyState struct {
	Strategy        string
	StartingCapital float64
	RealizedPnL     float64
	Trades          []PaperTrade
	TrackedEvents   map[string]EventMetadata
	PerformanceLog  []PerformanceSnapshot
	LastUpdated     time.Time
}

// AuditEntry es una línea del log de auditoría append-only.
type AuditEntry struct {
	Timestamp time.Time
	Action    string // TRADE_OPEN | TRADE_CLOSE | RESET
	Strategy  string
	TradeID   string
	Detail    string
}

package storage

// sqlite.go — persistencia del ledger por estrategia.
//
// Estrategia de escritura: SaveState reemplaza todo el estado de la
// estrategia en una transacción (strategies + trades + tracked_events +
// performance_log). El estado de paper trading es pequeño (decenas de
// trades) y el replace atómico es más simple de razonar que upserts
// parciales. El audit_log es aparte y append-only.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alejandrodnm/bracketbot/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS strategies (
    strategy         TEXT PRIMARY KEY,
    starting_capital REAL NOT NULL,
    realized_pnl     REAL NOT NULL DEFAULT 0,
    last_updated     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
    id             TEXT PRIMARY KEY,
    strategy       TEXT NOT NULL,
    event_id       TEXT,
    event_title    TEXT,
    market_id      TEXT,
    condition_id   TEXT,
    token_id       TEXT,
    bracket_title  TEXT,
    side           TEXT NOT NULL DEFAULT 'YES',
    shares         REAL NOT NULL,
    entry_price    REAL NOT NULL,
    entry_cost     REAL NOT NULL,
    slippage       REAL NOT NULL DEFAULT 0,
    depth_at_entry REAL NOT NULL DEFAULT 0,
    entry_time     TEXT NOT NULL,
    status         TEXT NOT NULL,
    exit_price     REAL,
    exit_time      TEXT,
    pnl            REAL
);

CREATE TABLE IF NOT EXISTS tracked_events (
    strategy     TEXT NOT NULL,
    event_id     TEXT NOT NULL,
    title        TEXT,
    brackets     INTEGER NOT NULL DEFAULT 0,
    total_cost   REAL    NOT NULL DEFAULT 0,
    edge         REAL    NOT NULL DEFAULT 0,
    last_scanned TEXT,
    PRIMARY KEY (strategy, event_id)
);

CREATE TABLE IF NOT EXISTS performance_log (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    strategy         TEXT NOT NULL,
    ts               TEXT NOT NULL,
    cash             REAL NOT NULL,
    invested         REAL NOT NULL,
    unrealized_pnl   REAL NOT NULL,
    realized_pnl     REAL NOT NULL,
    total_equity     REAL NOT NULL,
    open_positions   INTEGER NOT NULL,
    closed_positions INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_log (
    id       INTEGER PRIMARY KEY AUTOINCREMENT,
    ts       TEXT NOT NULL,
    action   TEXT NOT NULL,
    strategy TEXT NOT NULL,
    trade_id TEXT,
    detail   TEXT
);

CREATE INDEX IF NOT EXISTS idx_trades_strategy ON trades(strategy, status);
CREATE INDEX IF NOT EXISTS idx_perf_strategy   ON performance_log(strategy, ts);
CREATE INDEX IF NOT EXISTS idx_audit_strategy  ON audit_log(strategy, ts DESC);
`

// SQLiteStore implementa ports.StateStore y ports.AuditLogger usando
// SQLite (pure Go, sin CGo).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore abre (o crea) la base de datos en la ruta dada.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStore: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStore: apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// SaveState reemplaza atómicamente el estado completo de una estrategia.
func (s *SQLiteStore) SaveState(ctx context.Context, st domain.StrategyState) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveState: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO strategies (strategy, starting_capital, realized_pnl, last_updated)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(strategy) DO UPDATE SET
			starting_capital = excluded.starting_capital,
			realized_pnl     = excluded.realized_pnl,
			last_updated     = excluded.last_updated
	`, st.Strategy, st.StartingCapital, st.RealizedPnL, formatTime(st.LastUpdated)); err != nil {
		return fmt.Errorf("storage.SaveState: upsert strategy: %w", err)
	}

	for _, table := range []string{"trades", "tracked_events", "performance_log"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE strategy = ?`, st.Strategy); err != nil {
			return fmt.Errorf("storage.SaveState: clear %s: %w", table, err)
		}
	}

	tradeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trades
			(id, strategy, event_id, event_title, market_id, condition_id, token_id,
			 bracket_title, side, shares, entry_price, entry_cost, slippage,
			 depth_at_entry, entry_time, status, exit_price, exit_time, pnl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveState: prepare trades: %w", err)
	}
	defer tradeStmt.Close()

	for _, t := range st.Trades {
		var exitTime *string
		if t.ExitTime != nil {
			v := formatTime(*t.ExitTime)
			exitTime = &v
		}
		if _, err := tradeStmt.ExecContext(ctx,
			t.ID, t.Strategy, t.EventID, t.EventTitle, t.MarketID, t.ConditionID, t.TokenID,
			t.BracketTitle, t.Side, t.Shares, t.EntryPrice, t.EntryCost, t.Slippage,
			t.DepthAtEntry, formatTime(t.EntryTime), string(t.Status), t.ExitPrice, exitTime, t.PnL,
		); err != nil {
			return fmt.Errorf("storage.SaveState: insert trade %s: %w", t.ID, err)
		}
	}

	for eventID, meta := range st.TrackedEvents {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tracked_events (strategy, event_id, title, brackets, total_cost, edge, last_scanned)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, st.Strategy, eventID, meta.Title, meta.Brackets, meta.TotalCost, meta.Edge, formatTime(meta.LastScanned)); err != nil {
			return fmt.Errorf("storage.SaveState: insert event %s: %w", eventID, err)
		}
	}

	for _, p := range st.PerformanceLog {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO performance_log
				(strategy, ts, cash, invested, unrealized_pnl, realized_pnl,
				 total_equity, open_positions, closed_positions)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, st.Strategy, formatTime(p.Timestamp), p.Cash, p.Invested, p.UnrealizedPnL,
			p.RealizedPnL, p.TotalEquity, p.OpenPositions, p.ClosedPositions); err != nil {
			return fmt.Errorf("storage.SaveState: insert snapshot: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveState: commit: %w", err)
	}
	return nil
}

// LoadState reconstruye el estado de una estrategia; found=false si nunca
// se guardó.
func (s *SQLiteStore) LoadState(ctx context.Context, strategy string) (domain.StrategyState, bool, error) {
	st := domain.StrategyState{
		Strategy:      strategy,
		TrackedEvents: make(map[string]domain.EventMetadata),
	}

	var lastUpdated string
	err := s.db.QueryRowContext(ctx, `
		SELECT starting_capital, realized_pnl, last_updated FROM strategies WHERE strategy = ?
	`, strategy).Scan(&st.StartingCapital, &st.RealizedPnL, &lastUpdated)
	if err == sql.ErrNoRows {
		return domain.StrategyState{}, false, nil
	}
	if err != nil {
		return domain.StrategyState{}, false, fmt.Errorf("storage.LoadState: strategy row: %w", err)
	}
	st.LastUpdated, _ = time.Parse(time.RFC3339Nano, lastUpdated)

	if err := s.loadTrades(ctx, &st); err != nil {
		return domain.StrategyState{}, false, err
	}
	if err := s.loadTrackedEvents(ctx, &st); err != nil {
		return domain.StrategyState{}, false, err
	}
	if err := s.loadPerformanceLog(ctx, &st); err != nil {
		return domain.StrategyState{}, false, err
	}
	return st, true, nil
}

func (s *SQLiteStore) loadTrades(ctx context.Context, st *domain.StrategyState) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_id, event_title, market_id, condition_id, token_id,
		       bracket_title, side, shares, entry_price, entry_cost, slippage,
		       depth_at_entry, entry_time, status, exit_price, exit_time, pnl
		FROM trades WHERE strategy = ? ORDER BY entry_time
	`, st.Strategy)
	if err != nil {
		return fmt.Errorf("storage.LoadState: query trades: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t domain.PaperTrade
		var entryTime, status string
		var exitPrice, pnl sql.NullFloat64
		var exitTime sql.NullString

		if err := rows.Scan(
			&t.ID, &t.EventID, &t.EventTitle, &t.MarketID, &t.ConditionID, &t.TokenID,
			&t.BracketTitle, &t.Side, &t.Shares, &t.EntryPrice, &t.EntryCost, &t.Slippage,
			&t.DepthAtEntry, &entryTime, &status, &exitPrice, &exitTime, &pnl,
		); err != nil {
			return fmt.Errorf("storage.LoadState: scan trade: %w", err)
		}

		t.Strategy = st.Strategy
		t.Status = domain.TradeStatus(status)
		t.EntryTime, _ = time.Parse(time.RFC3339Nano, entryTime)
		if exitPrice.Valid {
			t.ExitPrice = &exitPrice.Float64
		}
		if pnl.Valid {
			t.PnL = &pnl.Float64
		}
		if exitTime.Valid {
			if ts, err := time.Parse(time.RFC3339Nano, exitTime.String); err == nil {
				t.ExitTime = &ts
			}
		}
		st.Trades = append(st.Trades, t)
	}
	return rows.Err()
}

func (s *SQLiteStore) loadTrackedEvents(ctx context.Context, st *domain.StrategyState) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id, title, brackets, total_cost, edge, last_scanned
		FROM tracked_events WHERE strategy = ?
	`, st.Strategy)
	if err != nil {
		return fmt.Errorf("storage.LoadState: query events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var eventID, scanned string
		var meta domain.EventMetadata
		if err := rows.Scan(&eventID, &meta.Title, &meta.Brackets, &meta.TotalCost, &meta.Edge, &scanned); err != nil {
			return fmt.Errorf("storage.LoadState: scan event: %w", err)
		}
		meta.LastScanned, _ = time.Parse(time.RFC3339Nano, scanned)
		st.TrackedEvents[eventID] = meta
	}
	return rows.Err()
}

func (s *SQLiteStore) loadPerformanceLog(ctx context.Context, st *domain.StrategyState) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, cash, invested, unrealized_pnl, realized_pnl,
		       total_equity, open_positions, closed_positions
		FROM performance_log WHERE strategy = ? ORDER BY id
	`, st.Strategy)
	if err != nil {
		return fmt.Errorf("storage.LoadState: query snapshots: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.PerformanceSnapshot
		var ts string
		if err := rows.Scan(&ts, &p.Cash, &p.Invested, &p.UnrealizedPnL, &p.RealizedPnL,
			&p.TotalEquity, &p.OpenPositions, &p.ClosedPositions); err != nil {
			return fmt.Errorf("storage.LoadState: scan snapshot: %w", err)
		}
		p.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		st.PerformanceLog = append(st.PerformanceLog, p)
	}
	return rows.Err()
}

// DeleteState borra todo lo persistido de una estrategia.
func (s *SQLiteStore) DeleteState(ctx context.Context, strategy string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.DeleteState: begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"strategies", "trades", "tracked_events", "performance_log"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE strategy = ?`, strategy); err != nil {
			return fmt.Errorf("storage.DeleteState: clear %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.DeleteState: commit: %w", err)
	}
	return nil
}

// AppendAudit añade una entrada al log de auditoría.
func (s *SQLiteStore) AppendAudit(ctx context.Context, e domain.AuditEntry) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (ts, action, strategy, trade_id, detail)
		VALUES (?, ?, ?, ?, ?)
	`, formatTime(e.Timestamp), e.Action, e.Strategy, e.TradeID, e.Detail); err != nil {
		return fmt.Errorf("storage.AppendAudit: %w", err)
	}
	return nil
}

// AuditTrail devuelve las últimas n entradas de una estrategia.
func (s *SQLiteStore) AuditTrail(ctx context.Context, strategy string, n int) ([]domain.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, action, strategy, trade_id, detail
		FROM audit_log WHERE strategy = ? ORDER BY id DESC LIMIT ?
	`, strategy, n)
	if err != nil {
		return nil, fmt.Errorf("storage.AuditTrail: query: %w", err)
	}
	defer rows.Close()

	var out []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var ts string
		if err := rows.Scan(&ts, &e.Action, &e.Strategy, &e.TradeID, &e.Detail); err != nil {
			return nil, fmt.Errorf("storage.AuditTrail: scan: %w", err)
		}
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

package engine

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Runner ejecuta varios engines en secuencia con un ticker compartido.
// Cada estrategia tiene su propio ledger, así que el orden no importa.
type Runner struct {
	engines  []*Engine
	interval time.Duration
	stopFile string
}

// NewRunner crea un Runner; interval a cero usa 5 minutos.
func NewRunner(engines []*Engine, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Runner{
		engines:  engines,
		interval: interval,
		stopFile: "STOP",
	}
}

// Run ejecuta el primer ciclo inmediatamente y luego uno por tick hasta
// que el contexto se cancele o aparezca el archivo STOP.
// Un ciclo fallido nunca tumba el loop.
func (r *Runner) Run(ctx context.Context, onCycle func(*CycleResult)) error {
	slog.Info("paper trading loop started — Ctrl+C or STOP file to exit",
		"strategies", len(r.engines),
		"interval", r.interval,
	)

	r.runAll(ctx, onCycle)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("paper trading loop stopped (signal)")
			return nil
		case <-ticker.C:
			if _, err := os.Stat(r.stopFile); err == nil {
				slog.Info("STOP file detected — shutting down")
				os.Remove(r.stopFile)
				return nil
			}
			r.runAll(ctx, onCycle)
		}
	}
}

// RunOnce ejecuta un único ciclo por engine.
func (r *Runner) RunOnce(ctx context.Context, onCycle func(*CycleResult)) {
	r.runAll(ctx, onCycle)
}

func (r *Runner) runAll(ctx context.Context, onCycle func(*CycleResult)) {
	for _, e := range r.engines {
		if ctx.Err() != nil {
			return
		}
		res, err := e.RunCycle(ctx)
		if err != nil {
			slog.Error("cycle failed", "strategy", e.Strategy().ID, "err", err)
			continue
		}
		if onCycle != nil {
			onCycle(res)
		}
	}
}

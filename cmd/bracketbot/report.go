package main

import (
	"context"
	"log/slog"

	"github.com/alejandrodnm/bracketbot/internal/adapters/notify"
	"github.com/alejandrodnm/bracketbot/internal/engine"
)

// runReport imprime el report de portfolio de cada engine.
// Sin marks frescos los abiertos cuentan a unrealized 0; el equity log
// guarda los valores marcados de cada ciclo.
func runReport(notifier *notify.Console, engines []*engine.Engine) {
	for _, e := range engines {
		led := e.Ledger()
		notifier.PrintReport(led.State(), led.Metrics(nil))
	}
}

// runReset borra el estado persistido de cada estrategia seleccionada.
func runReset(ctx context.Context, engines []*engine.Engine) {
	for _, e := range engines {
		e.Ledger().Reset(ctx)
		slog.Info("strategy state reset", "strategy", e.Strategy().ID)
	}
}

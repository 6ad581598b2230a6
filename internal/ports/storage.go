package ports

import (
	"context"

	"github.com/alejandrodnm/bracketbot/internal/domain"
)

// StateStore persiste el estado completo de un ledger por estrategia.
type StateStore interface {
	// LoadState devuelve el estado guardado; found=false si no existe.
	LoadState(ctx context.Context, strategy string) (st domain.StrategyState, found bool, err error)
	SaveState(ctx context.Context, st domain.StrategyState) error
	DeleteState(ctx context.Context, strategy string) error
}

// AuditLogger appends to the cross-strategy audit trail. Failures are
// advisory: the ledger keeps working without the trail.
type AuditLogger interface {
	AppendAudit(ctx context.Context, e domain.AuditEntry) error
}

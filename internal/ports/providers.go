package ports

import (
	"context"

	"github.com/alejandrodnm/bracketbot/internal/domain"
)

// MarketProvider descubre eventos bracket a partir de las queries de búsqueda.
type MarketProvider interface {
	FetchBracketEvents(ctx context.Context, queries []string) ([]domain.BracketEvent, error)
}

// BookProvider obtiene el orderbook completo de un token.
type BookProvider interface {
	FetchOrderBook(ctx context.Context, tokenID string) (domain.OrderBook, error)
}

// ResolutionProvider consulta el estado de resolución de un mercado.
type ResolutionProvider interface {
	FetchResolution(ctx context.Context, marketID string) (domain.Resolution, error)
}

// SignalProvider fetches the live observation behind an estimator
// (e.g. the real-time post count of a tracked account).
type SignalProvider interface {
	FetchUserActivity(ctx context.Context, username string) (domain.OutcomeSignal, error)
}

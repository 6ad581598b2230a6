package polymarket

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/alejandrodnm/bracketbot/internal/domain"
)

// minBracketMarkets filtra a eventos tipo bracket (3+ mercados).
const minBracketMarkets = 3

// FetchBracketEvents busca eventos activos por cada query, filtra por
// keyword en título/slug y deduplica por ID de evento.
// Implementa ports.MarketProvider.
func (c *Client) FetchBracketEvents(ctx context.Context, queries []string) ([]domain.BracketEvent, error) {
	seen := make(map[string]bool)
	var out []domain.BracketEvent

	for _, q := range queries {
		events, err := c.searchEvents(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("polymarket.FetchBracketEvents: query %q: %w", q, err)
		}
		for _, ev := range events {
			if ev.ID == "" || seen[ev.ID] {
				continue
			}
			seen[ev.ID] = true
			if len(ev.Markets) < minBracketMarkets {
				continue
			}
			out = append(out, mapGammaEvent(ev))
		}
	}
	return out, nil
}

// searchEvents pide los eventos activos más líquidos y filtra por keyword.
// Gamma no tiene búsqueda full-text en /events; se filtra en cliente.
func (c *Client) searchEvents(ctx context.Context, query string) ([]gammaEvent, error) {
	params := url.Values{
		"limit":     {"100"},
		"active":    {"true"},
		"closed":    {"false"},
		"order":     {"volume24hr"},
		"ascending": {"false"},
	}

	var raw []gammaEvent
	u := fmt.Sprintf("%s/events?%s", c.gammaBase, params.Encode())
	if err := c.get(ctx, c.gammaLimiter, u, &raw); err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	var matched []gammaEvent
	for _, ev := range raw {
		if strings.Contains(strings.ToLower(ev.Title), q) ||
			strings.Contains(strings.ToLower(ev.Slug), q) {
			matched = append(matched, ev)
		}
	}
	return matched, nil
}

// FetchResolution consulta un mercado por su ID numérico de Gamma.
// El query param por condition_id está roto en Gamma; siempre por path.
// Implementa ports.ResolutionProvider.
func (c *Client) FetchResolution(ctx context.Context, marketID string) (domain.Resolution, error) {
	var raw gammaMarket
	u := fmt.Sprintf("%s/markets/%s", c.gammaBase, url.PathEscape(marketID))
	if err := c.get(ctx, c.gammaLimiter, u, &raw); err != nil {
		return domain.Resolution{}, fmt.Errorf("polymarket.FetchResolution: market %s: %w", marketID, err)
	}
	return mapResolution(raw), nil
}

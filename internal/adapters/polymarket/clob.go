package polymarket

import (
	"context"
	"fmt"
	"net/url"

	"github.com/alejandrodnm/bracketbot/internal/domain"
)

// FetchOrderBook trae el book completo de un token del CLOB.
// Implementa ports.BookProvider.
func (c *Client) FetchOrderBook(ctx context.Context, tokenID string) (domain.OrderBook, error) {
	var raw clobBookResponse
	u := fmt.Sprintf("%s/book?token_id=%s", c.clobBase, url.QueryEscape(tokenID))
	if err := c.get(ctx, c.booksLimiter, u, &raw); err != nil {
		return domain.OrderBook{}, fmt.Errorf("polymarket.FetchOrderBook: token %s: %w", tokenID, err)
	}
	return mapOrderBook(tokenID, raw), nil
}

package polymarket

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/alejandrodnm/bracketbot/internal/domain"
)

// FetchUserActivity trae el contador en vivo de una cuenta trackeada
// (elonmusk, realDonaldTrump, Cobratate). Implementa ports.SignalProvider.
//
// TODO: añadir feeds de chart-rank (Apple Music) y de precios GPU para que
// album_sales y gpu_prices dejen de caer siempre en even-spread.
func (c *Client) FetchUserActivity(ctx context.Context, username string) (domain.OutcomeSignal, error) {
	var raw xtrackerUserResponse
	u := fmt.Sprintf("%s/user/%s", c.xtrackerBase, url.PathEscape(username))
	if err := c.get(ctx, c.xtrackerLimiter, u, &raw); err != nil {
		return domain.OutcomeSignal{}, fmt.Errorf("polymarket.FetchUserActivity: user %s: %w", username, err)
	}
	if raw.Username == "" {
		raw.Username = username
	}
	return mapSignal(raw, time.Now().UTC()), nil
}

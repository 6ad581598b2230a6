package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultGammaBase    = "https://gamma-api.polymarket.com"
	defaultCLOBBase     = "https://clob.polymarket.com"
	defaultXTrackerBase = "https://xtracker.polymarket.com"

	// Rate limits al 60% de los límites reales documentados.
	// Gamma /events y /markets: 300/10s → 180/10s → 18/s
	gammaRatePerSec = 18
	// CLOB /book: 500/10s → 300/10s → 30/s
	booksRatePerSec = 30
	// XTracker no documenta límites; 4/s es conservador.
	xtrackerRatePerSec = 4

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client es el HTTP client de las APIs públicas de Polymarket
// (Gamma, CLOB y XTracker) con rate limiting y retries.
type Client struct {
	http            *http.Client
	gammaBase       string
	clobBase        string
	xtrackerBase    string
	gammaLimiter    *rate.Limiter
	booksLimiter    *rate.Limiter
	xtrackerLimiter *rate.Limiter
}

// NewClient crea un Client con los base URLs dados.
// Los URLs vacíos usan los endpoints de producción.
func NewClient(gammaBase, clobBase, xtrackerBase string) *Client {
	if gammaBase == "" {
		gammaBase = defaultGammaBase
	}
	if clobBase == "" {
		clobBase = defaultCLOBBase
	}
	if xtrackerBase == "" {
		xtrackerBase = defaultXTrackerBase
	}
	return &Client{
		http:            &http.Client{Timeout: 15 * time.Second},
		gammaBase:       gammaBase,
		clobBase:        clobBase,
		xtrackerBase:    xtrackerBase,
		gammaLimiter:    rate.NewLimiter(gammaRatePerSec, 10),
		booksLimiter:    rate.NewLimiter(booksRatePerSec, 5),
		xtrackerLimiter: rate.NewLimiter(xtrackerRatePerSec, 2),
	}
}

// get hace un GET con rate limiting y retries.
func (c *Client) get(ctx context.Context, limiter *rate.Limiter, url string, out any) error {
	return c.doWithRetry(ctx, limiter, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return c.http.Do(req)
	}, out)
}

// doWithRetry ejecuta la función con backoff exponencial.
func (c *Client) doWithRetry(ctx context.Context, limiter *rate.Limiter, fn func() (*http.Response, error), out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := fn()
		if err != nil {
			if attempt == maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			slog.Warn("rate limited by API", "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("server error %d after %d retries", resp.StatusCode, maxRetries)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
		}

		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}

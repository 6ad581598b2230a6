package polymarket

import (
	"encoding/json"
	"sort"
	"strconv"
	"time"

	"github.com/alejandrodnm/bracketbot/internal/domain"
)

// mapGammaEvent convierte un evento Gamma a domain.BracketEvent.
func mapGammaEvent(ev gammaEvent) domain.BracketEvent {
	out := domain.BracketEvent{
		ID:    ev.ID,
		Title: ev.Title,
		Slug:  ev.Slug,
	}
	for _, m := range ev.Markets {
		out.Brackets = append(out.Brackets, mapGammaMarket(m))
	}
	return out
}

// mapGammaMarket extrae el bracket YES de un mercado Gamma.
func mapGammaMarket(m gammaMarket) domain.OutcomeBracket {
	title := m.GroupItemTitle
	if title == "" {
		title = m.Question
	}

	b := domain.OutcomeBracket{
		MarketID:    m.ID,
		ConditionID: m.ConditionID,
		TokenID:     yesTokenID(m),
		Title:       title,
		AskPrice:    yesPrice(m),
		Volume:      marketVolume(m),
		Resolved:    m.Resolved,
		Closed:      m.Closed,
	}

	if m.EndDate != "" {
		// Polymarket usa varios formatos; intentamos los más comunes
		for _, layout := range []string{
			time.RFC3339,
			"2006-01-02T15:04:05.000Z",
			"2006-01-02T15:04:05Z",
			"2006-01-02",
		} {
			if t, err := time.Parse(layout, m.EndDate); err == nil {
				b.EndDate = t.UTC()
				break
			}
		}
	}
	return b
}

// yesPrice saca el precio YES de outcomePrices, con bestAsk de fallback.
func yesPrice(m gammaMarket) float64 {
	var prices []string
	if m.OutcomePrices != "" {
		if err := json.Unmarshal([]byte(m.OutcomePrices), &prices); err == nil && len(prices) > 0 {
			if v := domain.ParsePrice(prices[0]); v > 0 {
				return v
			}
		}
	}
	return anyToFloat(m.BestAsk)
}

// yesTokenID saca el primer token de clobTokenIds (YES por convención).
func yesTokenID(m gammaMarket) string {
	if m.ClobTokenIDs == "" {
		return ""
	}
	var tokens []string
	if err := json.Unmarshal([]byte(m.ClobTokenIDs), &tokens); err != nil || len(tokens) == 0 {
		return ""
	}
	return tokens[0]
}

// marketVolume toma el mayor de los campos de volumen disponibles.
func marketVolume(m gammaMarket) float64 {
	vol := m.VolumeNum
	if v, err := strconv.ParseFloat(m.Volume, 64); err == nil && v > vol {
		vol = v
	}
	return vol
}

// mapResolution deriva el estado de resolución y el lado ganador.
// Un mercado resuelto tiene outcomePrices colapsados a "1"/"0".
func mapResolution(m gammaMarket) domain.Resolution {
	if !m.Resolved {
		return domain.Resolution{}
	}
	res := domain.Resolution{Resolved: true}

	var prices []string
	if m.OutcomePrices != "" {
		if err := json.Unmarshal([]byte(m.OutcomePrices), &prices); err != nil {
			return res
		}
	}

	var outcomes []string
	if m.Outcomes != "" {
		_ = json.Unmarshal([]byte(m.Outcomes), &outcomes)
	}

	for i, p := range prices {
		if domain.ParsePrice(p) >= 0.999 {
			if i < len(outcomes) {
				res.Winner = outcomes[i]
			} else if i == 0 {
				res.Winner = "YES"
			} else {
				res.Winner = "NO"
			}
			return res
		}
	}
	return res
}

// mapOrderBook convierte la respuesta de /book, ordenando ambos lados.
func mapOrderBook(tokenID string, raw clobBookResponse) domain.OrderBook {
	ob := domain.OrderBook{
		TokenID: tokenID,
		Bids:    mapBookEntries(raw.Bids, false),
		Asks:    mapBookEntries(raw.Asks, true),
	}
	if raw.AssetID != "" {
		ob.TokenID = raw.AssetID
	}
	return ob
}

// mapBookEntries convierte entries raw a domain.BookEntry y los ordena.
// ascending=true → menor a mayor (asks), ascending=false → mayor a menor (bids).
// El CLOB devuelve ambos lados worst-first, así que el orden nunca se asume.
func mapBookEntries(raw []bookEntryRaw, ascending bool) []domain.BookEntry {
	entries := make([]domain.BookEntry, 0, len(raw))
	for _, r := range raw {
		price, _ := strconv.ParseFloat(r.Price, 64)
		size, _ := strconv.ParseFloat(r.Size, 64)
		if price <= 0 || size <= 0 {
			continue
		}
		entries = append(entries, domain.BookEntry{Price: price, Size: size})
	}

	sort.Slice(entries, func(i, j int) bool {
		if ascending {
			return entries[i].Price < entries[j].Price
		}
		return entries[i].Price > entries[j].Price
	})

	return entries
}

// mapSignal convierte la respuesta de XTracker en una señal con ventana.
// Sin ventana parseable la señal sale sin horas y el estimador de
// velocidad declinará estimar.
func mapSignal(raw xtrackerUserResponse, now time.Time) domain.OutcomeSignal {
	sig := domain.OutcomeSignal{
		Count:  anyToFloat(raw.Count),
		Source: "xtracker:" + raw.Username,
	}

	start, okStart := parseXTime(raw.PeriodStart)
	end, okEnd := parseXTime(raw.PeriodEnd)
	if okStart && now.After(start) {
		sig.ElapsedHours = now.Sub(start).Hours()
	}
	if okEnd && end.After(now) {
		sig.RemainingHours = end.Sub(now).Hours()
	}
	return sig
}

func parseXTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.000Z", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// anyToFloat tolera números y strings numéricos en campos inconsistentes.
func anyToFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case string:
		f, _ := strconv.ParseFloat(x, 64)
		return f
	case json.Number:
		f, _ := x.Float64()
		return f
	default:
		return 0
	}
}

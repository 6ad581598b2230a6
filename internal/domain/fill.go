package domain

import "sort"

// DefaultMaxDepthFraction limits a simulated market order to 10% of the
// visible depth on the side it consumes.
const DefaultMaxDepthFraction = 0.10

// FillResult describes a simulated market order execution.
// Slippage is relative to the best quote at execution time: positive means
// the average fill was worse than the top of book.
type FillResult struct {
	Shares    float64 // shares filled (buy) or sold (sell)
	AvgPrice  float64 // volume-weighted average price
	Notional  float64 // USD spent (buy) or proceeds (sell)
	Slippage  float64 // relative to BestQuote
	BestQuote float64 // best ask (buy) or best bid (sell) before the walk
	LevelsHit int
}

// SimulateBuy walks the ask side of the book spending up to amountUSD,
// never taking more than maxDepthFraction of the total ask depth.
// The levels are re-sorted best-first; the feed's ordering is not trusted.
// Returns nil when nothing can be filled.
func SimulateBuy(book OrderBook, amountUSD, maxDepthFraction float64) *FillResult {
	if amountUSD <= 0 || len(book.Asks) == 0 {
		return nil
	}
	if maxDepthFraction <= 0 {
		maxDepthFraction = DefaultMaxDepthFraction
	}

	asks := sortedLevels(book.Asks, true)
	bestAsk := asks[0].Price

	var totalDepth float64
	for _, lvl := range asks {
		totalDepth += lvl.Size
	}
	maxShares := totalDepth * maxDepthFraction

	remaining := amountUSD
	var shares, cost float64
	levels := 0

	for _, lvl := range asks {
		if remaining <= 0 || shares >= maxShares {
			break
		}
		fill := min(lvl.Size, remaining/lvl.Price, maxShares-shares)
		if fill <= 0 {
			break
		}
		shares += fill
		cost += fill * lvl.Price
		remaining -= fill * lvl.Price
		levels++
	}

	if shares <= 0 {
		return nil
	}

	avg := cost / shares
	slippage := 0.0
	if bestAsk > 0 {
		slippage = (avg - bestAsk) / bestAsk
	}
	return &FillResult{
		Shares:    shares,
		AvgPrice:  avg,
		Notional:  cost,
		Slippage:  slippage,
		BestQuote: bestAsk,
		LevelsHit: levels,
	}
}

// SimulateSell walks the bid side of the book selling up to shares,
// capped at maxDepthFraction of the total bid depth.
// Returns nil when nothing can be sold.
func SimulateSell(book OrderBook, shares, maxDepthFraction float64) *FillResult {
	if shares <= 0 || len(book.Bids) == 0 {
		return nil
	}
	if maxDepthFraction <= 0 {
		maxDepthFraction = DefaultMaxDepthFraction
	}

	bids := sortedLevels(book.Bids, false)
	bestBid := bids[0].Price

	var totalDepth float64
	for _, lvl := range bids {
		totalDepth += lvl.Size
	}
	maxSellable := min(shares, totalDepth*maxDepthFraction)

	remaining := maxSellable
	var proceeds float64
	levels := 0

	for _, lvl := range bids {
		if remaining <= 0 {
			break
		}
		fill := min(lvl.Size, remaining)
		proceeds += fill * lvl.Price
		remaining -= fill
		levels++
	}

	sold := maxSellable - remaining
	if sold <= 0 {
		return nil
	}

	avg := proceeds / sold
	slippage := 0.0
	if bestBid > 0 {
		slippage = (bestBid - avg) / bestBid
	}
	return &FillResult{
		Shares:    sold,
		AvgPrice:  avg,
		Notional:  proceeds,
		Slippage:  slippage,
		BestQuote: bestBid,
		LevelsHit: levels,
	}
}

// sortedLevels devuelve una copia ordenada: ascending=true para asks
// (mejor primero), false para bids.
func sortedLevels(levels []BookEntry, ascending bool) []BookEntry {
	out := make([]BookEntry, len(levels))
	copy(out, levels)
	sort.Slice(out, func(i, j int) bool {
		if ascending {
			return out[i].Price < out[j].Price
		}
		return out[i].Price > out[j].Price
	})
	return out
}

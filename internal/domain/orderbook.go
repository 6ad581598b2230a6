package domain

import "strconv"

// OrderBook representa el libro de órdenes de un token.
type OrderBook struct {
	TokenID string
	Bids    []BookEntry // ordenados mayor a menor precio
	Asks    []BookEntry // ordenados menor a mayor precio
}

// BookEntry es un nivel de precio en el orderbook.
type BookEntry struct {
	Price float64
	Size  float64
}

// BestBid devuelve el mejor precio de compra (mayor bid).
// Devuelve 0 si no hay bids.
func (ob OrderBook) BestBid() float64 {
	best := 0.0
	for _, b := range ob.Bids {
		if b.Price > best {
			best = b.Price
		}
	}
	return best
}

// BestAsk devuelve el mejor precio de venta (menor ask).
// Sin asks, el precio efectivo de compra es 1.
func (ob OrderBook) BestAsk() float64 {
	if len(ob.Asks) == 0 {
		return 1
	}
	best := ob.Asks[0].Price
	for _, a := range ob.Asks[1:] {
		if a.Price < best {
			best = a.Price
		}
	}
	return best
}

// Midpoint devuelve el punto medio entre best bid y best ask.
func (ob OrderBook) Midpoint() float64 {
	if len(ob.Bids) == 0 || len(ob.Asks) == 0 {
		return 0
	}
	return (ob.BestBid() + ob.BestAsk()) / 2
}

// Spread devuelve el spread del book (ask - bid).
func (ob OrderBook) Spread() float64 {
	if len(ob.Bids) == 0 || len(ob.Asks) == 0 {
		return 0
	}
	spread := ob.BestAsk() - ob.BestBid()
	if spread < 0 {
		return 0
	}
	return spread
}

// BidDepthUSD calcula el valor en USD (size × price) de todos los bids.
func (ob OrderBook) BidDepthUSD() float64 {
	var total float64
	for _, b := range ob.Bids {
		total += b.Size * b.Price
	}
	return total
}

// AskDepthUSD calcula el valor en USD (size × price) de todos los asks.
func (ob OrderBook) AskDepthUSD() float64 {
	var total float64
	for _, a := range ob.Asks {
		total += a.Size * a.Price
	}
	return total
}

// TotalDepthUSD es la profundidad total del book en USD (bids + asks).
func (ob OrderBook) TotalDepthUSD() float64 {
	return ob.BidDepthUSD() + ob.AskDepthUSD()
}

// ParsePrice convierte un string de precio a float64.
// Usado en el mapping de la API.
func ParsePrice(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

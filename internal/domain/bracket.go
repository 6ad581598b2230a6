package domain

import "time"

// OutcomeBracket is one mutually-exclusive outcome market inside a bracket
// event ("100-119 posts", "≤31F", ...). AskPrice is the YES side quote.
type OutcomeBracket struct {
	MarketID    string
	ConditionID string
	TokenID     string // YES outcome token
	Title       string
	AskPrice    float64
	Volume      float64
	Resolved    bool
	Closed      bool
	EndDate     time.Time
}

// Active reporta si el bracket sigue operable.
func (b OutcomeBracket) Active() bool {
	return !b.Resolved && !b.Closed
}

// Range parses the numeric interval implied by the bracket title.
func (b OutcomeBracket) Range() (BracketRange, bool) {
	return ParseRange(b.Title)
}

// BracketEvent groups the outcome markets of one underlying question.
// Exactly one bracket resolves YES at $1.00; the rest go to $0.00.
type BracketEvent struct {
	ID       string
	Title    string
	Slug     string
	Brackets []OutcomeBracket
}

// ActiveBrackets devuelve los brackets no resueltos ni cerrados.
func (e BracketEvent) ActiveBrackets() []OutcomeBracket {
	out := make([]OutcomeBracket, 0, len(e.Brackets))
	for _, b := range e.Brackets {
		if b.Active() {
			out = append(out, b)
		}
	}
	return out
}

// SetCost suma los precios YES de los brackets dados.
// Por debajo de $1.00 el spread completo tiene edge teórico.
func SetCost(brackets []OutcomeBracket) float64 {
	var total float64
	for _, b := range brackets {
		if b.AskPrice > 0 {
			total += b.AskPrice
		}
	}
	return total
}

// TheoreticalEdge es el beneficio garantizado de comprar el set completo:
// 1.00 - coste total. Negativo cuando no hay edge.
func TheoreticalEdge(totalCost float64) float64 {
	return 1.0 - totalCost
}

// Resolution is the on-chain outcome of a single bracket market.
type Resolution struct {
	Resolved bool
	Winner   string // "YES" or "NO", empty while unresolved
}

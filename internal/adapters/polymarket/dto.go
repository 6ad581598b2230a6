package polymarket

// DTOs crudos de las APIs. Gamma codifica casi todo como strings,
// incluidos arrays JSON dentro de strings (outcomePrices, clobTokenIds).

type gammaEvent struct {
	ID      string        `json:"id"`
	Title   string        `json:"title"`
	Slug    string        `json:"slug"`
	Markets []gammaMarket `json:"markets"`
}

type gammaMarket struct {
	ID             string  `json:"id"`
	Question       string  `json:"question"`
	GroupItemTitle string  `json:"groupItemTitle"`
	ConditionID    string  `json:"conditionId"`
	ClobTokenIDs   string  `json:"clobTokenIds"`  // JSON array en string: ["yes","no"]
	OutcomePrices  string  `json:"outcomePrices"` // JSON array en string: ["0.05","0.95"]
	Outcomes       string  `json:"outcomes"`      // JSON array en string: ["Yes","No"]
	BestAsk        any     `json:"bestAsk"`       // número o string según endpoint
	Volume         string  `json:"volume"`
	VolumeNum      float64 `json:"volumeNum"`
	Resolved       bool    `json:"resolved"`
	Closed         bool    `json:"closed"`
	Active         bool    `json:"active"`
	EndDate        string  `json:"endDate"`
}

type clobBookResponse struct {
	AssetID string         `json:"asset_id"`
	Bids    []bookEntryRaw `json:"bids"`
	Asks    []bookEntryRaw `json:"asks"`
}

type bookEntryRaw struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

type xtrackerUserResponse struct {
	Username    string `json:"username"`
	Count       any    `json:"count"` // número o string
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
}

// Package scanner turns discovered bracket events into actionable analyses:
// set cost, theoretical edge and the cheap-tail subset worth buying.
package scanner

import (
	"log/slog"

	"github.com/alejandrodnm/bracketbot/internal/domain"
)

// Params controla la calificación de brackets.
type Params struct {
	QualifyMin float64 // precio mínimo del tramo barato
	QualifyMax float64 // precio máximo del tramo barato
	MaxSetCost float64 // coste total máximo del set para entrar
	MinVolume  float64 // filtro de volumen por bracket
	MinDepth   float64 // filtro de profundidad del book en USD

	// RequireBoth exige volumen Y liquidez. Por defecto basta con uno,
	// porque los brackets de cola suelen tener book profundo y volumen bajo.
	RequireBoth bool
}

// DefaultParams devuelve los umbrales de producción.
func DefaultParams() Params {
	return Params{
		QualifyMin: 0.01,
		QualifyMax: 0.10,
		MaxSetCost: 0.95,
		MinVolume:  1000,
		MinDepth:   1000,
	}
}

// Analysis es el resultado de analizar un evento bracket.
type Analysis struct {
	Event      domain.BracketEvent
	Active     []domain.OutcomeBracket
	Qualifying []domain.OutcomeBracket
	TotalCost  float64
	Edge       float64
	EdgePct    float64
	Viable     bool // coste total en (0, MaxSetCost)
}

// Analyzer aplica los umbrales configurados a eventos descubiertos.
type Analyzer struct {
	p Params
}

// NewAnalyzer crea un Analyzer; los campos a cero usan los defaults.
func NewAnalyzer(p Params) *Analyzer {
	d := DefaultParams()
	if p.QualifyMin <= 0 {
		p.QualifyMin = d.QualifyMin
	}
	if p.QualifyMax <= 0 {
		p.QualifyMax = d.QualifyMax
	}
	if p.MaxSetCost <= 0 {
		p.MaxSetCost = d.MaxSetCost
	}
	if p.MinVolume <= 0 {
		p.MinVolume = d.MinVolume
	}
	if p.MinDepth <= 0 {
		p.MinDepth = d.MinDepth
	}
	return &Analyzer{p: p}
}

// Analyze computa coste, edge y subset calificante de un evento.
func (a *Analyzer) Analyze(ev domain.BracketEvent) Analysis {
	active := ev.ActiveBrackets()
	totalCost := domain.SetCost(active)
	edge := domain.TheoreticalEdge(totalCost)

	var qualifying []domain.OutcomeBracket
	for _, b := range active {
		if b.AskPrice >= a.p.QualifyMin && b.AskPrice <= a.p.QualifyMax {
			qualifying = append(qualifying, b)
		}
	}

	an := Analysis{
		Event:      ev,
		Active:     active,
		Qualifying: qualifying,
		TotalCost:  totalCost,
		Edge:       edge,
		EdgePct:    edge * 100,
		Viable:     totalCost > 0 && totalCost < a.p.MaxSetCost,
	}

	slog.Debug("event analyzed",
		"event", ev.Title,
		"active", len(active),
		"total_cost", totalCost,
		"edge_pct", an.EdgePct,
		"qualifying", len(qualifying),
		"viable", an.Viable,
	)
	return an
}

// Tradeable aplica los filtros de volumen/liquidez con el book ya cargado.
func (a *Analyzer) Tradeable(b domain.OutcomeBracket, book domain.OrderBook) bool {
	volOK := b.Volume >= a.p.MinVolume
	liqOK := book.TotalDepthUSD() >= a.p.MinDepth
	if a.p.RequireBoth {
		return volOK && liqOK
	}
	return volOK || liqOK
}

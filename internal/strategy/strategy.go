// Package strategy holds the static catalog of bracket-market strategies.
// Each strategy names the Gamma search queries that find its events, the
// estimator that projects the final outcome, and how many brackets the
// spread buyer may take per event.
package strategy

import "sort"

// EstimatorKind selects how the final outcome is projected.
type EstimatorKind string

const (
	// EstimatorVelocity projects count/elapsed × remaining + count from a
	// tracked account's live post count.
	EstimatorVelocity EstimatorKind = "velocity"
	// EstimatorLatest passes the most recent observed value through.
	EstimatorLatest EstimatorKind = "latest"
	// EstimatorChartRank maps a chart position to expected first-week units.
	EstimatorChartRank EstimatorKind = "chart_rank"
	// EstimatorNone siempre cae en selección even-spread.
	EstimatorNone EstimatorKind = "none"
)

// Strategy es una configuración estática de descubrimiento y selección.
type Strategy struct {
	ID           string
	Name         string
	Tier         int
	Queries      []string
	XTrackerUser string // empty when no tracked account exists
	Estimator    EstimatorKind
	MaxBrackets  int
}

var catalog = []Strategy{
	{
		ID: "trump_posts", Name: "Trump Truth Social Posts", Tier: 1,
		Queries:      []string{"truth social", "donald trump # truth"},
		XTrackerUser: "realDonaldTrump",
		Estimator:    EstimatorVelocity,
		MaxBrackets:  8,
	},
	{
		ID: "mrbeast_views", Name: "MrBeast Video Views", Tier: 1,
		Queries:     []string{"mrbeast", "mr beast"},
		Estimator:   EstimatorNone,
		MaxBrackets: 8,
	},
	{
		ID: "kaito_ai", Name: "Kaito AI Mindshare", Tier: 1,
		Queries:     []string{"kaito", "mindshare"},
		Estimator:   EstimatorNone,
		MaxBrackets: 8,
	},
	{
		ID: "album_sales", Name: "Album First-Week Sales", Tier: 1,
		Queries:     []string{"album", "first week sales"},
		Estimator:   EstimatorChartRank,
		MaxBrackets: 8,
	},
	{
		ID: "temperature", Name: "Daily High Temperature", Tier: 2,
		Queries:     []string{"highest temperature"},
		Estimator:   EstimatorNone,
		MaxBrackets: 6,
	},
	{
		ID: "tate_posts", Name: "Andrew Tate Posts", Tier: 2,
		Queries:      []string{"andrew tate", "tate # posts"},
		XTrackerUser: "Cobratate",
		Estimator:    EstimatorVelocity,
		MaxBrackets:  15,
	},
	{
		ID: "box_office", Name: "Box Office Opening Weekend", Tier: 2,
		Queries:     []string{"box office", "opening weekend"},
		Estimator:   EstimatorNone,
		MaxBrackets: 4,
	},
	{
		ID: "gpu_prices", Name: "GPU Retail Prices", Tier: 2,
		Queries:     []string{"gpu price", "rtx price"},
		Estimator:   EstimatorLatest,
		MaxBrackets: 6,
	},
	{
		ID: "musk_tweets", Name: "Elon Musk Tweets", Tier: 2,
		Queries:      []string{"musk # tweets", "musk tweets"},
		XTrackerUser: "elonmusk",
		Estimator:    EstimatorVelocity,
		MaxBrackets:  10,
	},
}

// All devuelve el catálogo completo ordenado por tier y nombre.
func All() []Strategy {
	out := make([]Strategy, len(catalog))
	copy(out, catalog)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Tier != out[j].Tier {
			return out[i].Tier < out[j].Tier
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ByID busca una estrategia por su identificador.
func ByID(id string) (Strategy, bool) {
	for _, s := range catalog {
		if s.ID == id {
			return s, true
		}
	}
	return Strategy{}, false
}

// IDs devuelve los identificadores de todas las estrategias.
func IDs() []string {
	ids := make([]string, 0, len(catalog))
	for _, s := range All() {
		ids = append(ids, s.ID)
	}
	return ids
}

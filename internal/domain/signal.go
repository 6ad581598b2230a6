package domain

// OutcomeSignal is a raw observation an estimator can project from.
// Which fields are meaningful depends on the estimator kind: velocity uses
// Count plus the window hours, latest-value uses LatestValue, chart-rank
// uses ChartRank.
type OutcomeSignal struct {
	Count          float64
	ElapsedHours   float64
	RemainingHours float64
	LatestValue    float64
	ChartRank      int
	Source         string
}

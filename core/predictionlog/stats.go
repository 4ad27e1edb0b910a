package predictionlog

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarises predicted delivery times over a set of entries.
type Stats struct {
	Count          int            `json:"count"`
	Mean           float64        `json:"mean"`
	StdDev         float64        `json:"std_dev"`
	Min            float64        `json:"min"`
	Max            float64        `json:"max"`
	P50            float64        `json:"p50"`
	P95            float64        `json:"p95"`
	ByModelVersion map[string]int `json:"by_model_version"`
}

// Summarize computes Stats. An empty slice yields a zero Count.
func Summarize(entries []Entry) Stats {
	st := Stats{Count: len(entries), ByModelVersion: map[string]int{}}
	if len(entries) == 0 {
		return st
	}
	xs := make([]float64, len(entries))
	for i, e := range entries {
		xs[i] = e.PredictedTime
		st.ByModelVersion[e.ModelVersion]++
	}
	sort.Float64s(xs)
	st.Mean, st.StdDev = stat.MeanStdDev(xs, nil)
	if len(xs) == 1 {
		st.StdDev = 0
	}
	st.Min = floats.Min(xs)
	st.Max = floats.Max(xs)
	st.P50 = stat.Quantile(0.5, stat.Empirical, xs, nil)
	st.P95 = stat.Quantile(0.95, stat.Empirical, xs, nil)
	return st
}

package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary describes the energy distribution of the living population.
type Summary struct {
	Count int
	Mean  float64
	Std   float64
	P10   float64
	P50   float64
	P90   float64
}

// Summarize computes mean, standard deviation, and percentiles of the
// given values. Returns the zero Summary for an empty slice.
func Summarize(values []float64) Summary {
	n := len(values)
	if n == 0 {
		return Summary{}
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	mean, std := stat.MeanStdDev(sorted, nil)
	if n == 1 {
		std = 0
	}
	return Summary{
		Count: n,
		Mean:  mean,
		Std:   std,
		P10:   stat.Quantile(0.10, stat.Empirical, sorted, nil),
		P50:   stat.Quantile(0.50, stat.Empirical, sorted, nil),
		P90:   stat.Quantile(0.90, stat.Empirical, sorted, nil),
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s Summary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("count", s.Count),
		slog.Float64("mean", s.Mean),
		slog.Float64("std", s.Std),
		slog.Float64("p10", s.P10),
		slog.Float64("p50", s.P50),
		slog.Float64("p90", s.P90),
	)
}

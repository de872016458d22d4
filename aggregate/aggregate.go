// Package aggregate computes read-only summaries over filtered warning
// views. Every reducer takes a caller-supplied slice rather than the
// store, so aggregation composes transparently with the query engine, and
// every reducer is total: empty input yields an empty result, never an
// error or a divide by zero.
package aggregate

import (
	"sort"

	"fraudwatch/core"
)

// ValueFn projects a numeric value out of a warning
type ValueFn func(*core.FraudWarning) float64

// GroupFn projects a grouping key out of a warning
type GroupFn[K comparable] func(*core.FraudWarning) K

// CountByStatus returns warning counts per lifecycle state. Statuses with
// no warnings are omitted entirely, not reported as zero.
func CountByStatus(view []*core.FraudWarning) map[core.InvestigationStatus]int {
	counts := make(map[core.InvestigationStatus]int)
	for _, w := range view {
		counts[w.InvestigationStatus]++
	}
	return counts
}

// DistributionBy returns counts per group for categorical summaries such
// as loyalty tier or currency.
func DistributionBy[K comparable](view []*core.FraudWarning, group GroupFn[K]) map[K]int {
	counts := make(map[K]int)
	for _, w := range view {
		counts[group(w)]++
	}
	return counts
}

// AverageBy returns the mean of value per group. Groups with zero members
// never appear, so no division by zero is possible.
func AverageBy[K comparable](view []*core.FraudWarning, group GroupFn[K], value ValueFn) map[K]float64 {
	sums := make(map[K]float64)
	counts := make(map[K]int)
	for _, w := range view {
		k := group(w)
		sums[k] += value(w)
		counts[k]++
	}

	means := make(map[K]float64, len(sums))
	for k, sum := range sums {
		means[k] = sum / float64(counts[k])
	}
	return means
}

// TopN returns the n highest-value warnings, ties broken by id ascending.
// Asking for more than the view holds returns the whole view; n <= 0
// returns nil. The input slice is not modified.
func TopN(view []*core.FraudWarning, value ValueFn, n int) []*core.FraudWarning {
	if n <= 0 || len(view) == 0 {
		return nil
	}

	ranked := make([]*core.FraudWarning, len(view))
	copy(ranked, view)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := value(ranked[i]), value(ranked[j])
		if a != b {
			return a > b
		}
		return ranked[i].ID < ranked[j].ID
	})

	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}

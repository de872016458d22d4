package query

import (
	"sort"

	"fraudwatch/core"
)

// Projection extracts a single categorical value from a warning.
// Empty projections are dropped from distinct results.
type Projection func(*core.FraudWarning) string

// MultiProjection extracts zero or more categorical values from a
// warning, for list-valued fields like detection module names.
type MultiProjection func(*core.FraudWarning) []string

// DistinctValues maps the projection over the view, deduplicates, and
// returns the values sorted ascending. One generic operation replaces the
// per-field lookup functions the feed UI's selectors used to call.
func DistinctValues(items []*core.FraudWarning, projection Projection) []string {
	seen := make(map[string]bool)
	for _, w := range items {
		if v := projection(w); v != "" {
			seen[v] = true
		}
	}
	return sortedKeys(seen)
}

// DistinctValuesMulti is DistinctValues for list-valued projections
func DistinctValuesMulti(items []*core.FraudWarning, projection MultiProjection) []string {
	seen := make(map[string]bool)
	for _, w := range items {
		for _, v := range projection(w) {
			if v != "" {
				seen[v] = true
			}
		}
	}
	return sortedKeys(seen)
}

func sortedKeys(set map[string]bool) []string {
	values := make([]string, 0, len(set))
	for v := range set {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

// Standard projections for the filter-selector dimensions the feed
// exposes.
var (
	ByClassification Projection = func(w *core.FraudWarning) string { return w.FraudClassification }
	ByEntity         Projection = func(w *core.FraudWarning) string { return w.AssociatedEntityID }
	ByCurrency       Projection = func(w *core.FraudWarning) string { return w.TransactionDetails.Currency }
	ByUserAgent      Projection = func(w *core.FraudWarning) string { return w.TransactionDetails.UserAgent }
	ByMerchant       Projection = func(w *core.FraudWarning) string { return w.TransactionDetails.MerchantID }
	ByLoyaltyTier    Projection = func(w *core.FraudWarning) string { return w.CustomerProfile.LoyaltyTier }
	ByStatus         Projection = func(w *core.FraudWarning) string { return string(w.InvestigationStatus) }
	BySeverity       Projection = func(w *core.FraudWarning) string { return string(w.SeverityLevel) }

	ByDetectionModule MultiProjection = func(w *core.FraudWarning) []string {
		names := make([]string, 0, len(w.DetectionModules))
		for _, m := range w.DetectionModules {
			names = append(names, m.ModuleName)
		}
		return names
	}
)

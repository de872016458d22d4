package query

import (
	"fmt"
	"sort"

	"fraudwatch/core"
)

// SortField identifies a scalar field warnings can be ordered by
type SortField string

const (
	SortByCreatedAt        SortField = "createdAt"
	SortByUpdatedAt        SortField = "updatedAt"
	SortByTimestampOfEvent SortField = "timestampOfEvent"
	SortByRiskScore        SortField = "riskScore"
	SortBySeverity         SortField = "severityLevel"
	SortByAmount           SortField = "amount"
	SortByStatus           SortField = "investigationStatus"
	SortByID               SortField = "id"
)

// SortOrder is the direction of a sort
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Sort describes the requested ordering. The zero value means
// createdAt descending, the feed's default.
type Sort struct {
	Field SortField `json:"field"`
	Order SortOrder `json:"order"`
}

// Page describes limit/offset pagination. A zero or negative limit means
// no limit; an offset at or beyond the filtered length yields an empty
// page, never an error.
type Page struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Result is a filtered, sorted, paginated view. TotalCount is the
// filtered-but-unpaginated count pagination UIs need.
type Result struct {
	Items      []*core.FraudWarning `json:"items"`
	TotalCount int                  `json:"totalCount"`
}

// Run applies the predicates conjunctively, sorts, then paginates.
// The input slice is not modified.
func Run(items []*core.FraudWarning, preds []Predicate, s Sort, page Page) (*Result, error) {
	match := And(preds...)

	filtered := make([]*core.FraudWarning, 0, len(items))
	for _, w := range items {
		if match(w) {
			filtered = append(filtered, w)
		}
	}

	if err := sortWarnings(filtered, s); err != nil {
		return nil, err
	}

	total := len(filtered)

	start := page.Offset
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := total
	if page.Limit > 0 && start+page.Limit < end {
		end = start + page.Limit
	}

	return &Result{Items: filtered[start:end], TotalCount: total}, nil
}

// sortWarnings orders the slice in place. Ties always break by id
// ascending so pagination is deterministic regardless of map iteration
// order upstream.
func sortWarnings(items []*core.FraudWarning, s Sort) error {
	field := s.Field
	if field == "" {
		field = SortByCreatedAt
	}
	order := s.Order
	if order == "" {
		if s.Field == "" {
			order = SortDesc
		} else {
			order = SortAsc
		}
	}
	if order != SortAsc && order != SortDesc {
		return fmt.Errorf("unknown sort order: %s", order)
	}

	if field == SortByID {
		sort.SliceStable(items, func(i, j int) bool {
			if order == SortAsc {
				return items[i].ID < items[j].ID
			}
			return items[i].ID > items[j].ID
		})
		return nil
	}

	key, err := sortKey(field)
	if err != nil {
		return err
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := key(items[i]), key(items[j])
		if a != b {
			if order == SortAsc {
				return a < b
			}
			return a > b
		}
		return items[i].ID < items[j].ID
	})
	return nil
}

// sortKey maps each numeric-sortable field onto a float64 projection.
// Id sorting is handled separately as a pure string comparison.
func sortKey(field SortField) (func(*core.FraudWarning) float64, error) {
	switch field {
	case SortByCreatedAt:
		return func(w *core.FraudWarning) float64 { return float64(w.CreatedAt) }, nil
	case SortByUpdatedAt:
		return func(w *core.FraudWarning) float64 { return float64(w.UpdatedAt) }, nil
	case SortByTimestampOfEvent:
		return func(w *core.FraudWarning) float64 { return float64(w.TimestampOfEvent) }, nil
	case SortByRiskScore:
		return func(w *core.FraudWarning) float64 { return w.RiskScore }, nil
	case SortBySeverity:
		return func(w *core.FraudWarning) float64 { return float64(w.SeverityLevel.Rank()) }, nil
	case SortByAmount:
		return func(w *core.FraudWarning) float64 { return w.TransactionDetails.Amount }, nil
	case SortByStatus:
		return func(w *core.FraudWarning) float64 { return float64(statusRank(w.InvestigationStatus)) }, nil
	default:
		return nil, fmt.Errorf("unknown sort field: %s", field)
	}
}

// statusRank orders statuses by lifecycle progression for sorting
func statusRank(s core.InvestigationStatus) int {
	switch s {
	case core.StatusNew:
		return 0
	case core.StatusPending:
		return 1
	case core.StatusInvestigating:
		return 2
	case core.StatusEscalated:
		return 3
	case core.StatusResolved:
		return 4
	case core.StatusFalsePositive:
		return 5
	}
	return -1
}

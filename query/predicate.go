// Package query filters, sorts and paginates warning snapshots. A single
// composable Predicate mechanism covers every field the feed UI can filter
// on; predicates combine conjunctively and evaluate against immutable
// snapshots, so the engine holds no locks and no state of its own.
package query

import (
	"strings"

	"fraudwatch/core"
)

// Predicate is a pure boolean test over a single warning
type Predicate func(*core.FraudWarning) bool

// And combines predicates conjunctively. An empty predicate list matches
// everything.
func And(preds ...Predicate) Predicate {
	return func(w *core.FraudWarning) bool {
		for _, p := range preds {
			if !p(w) {
				return false
			}
		}
		return true
	}
}

// StatusEquals matches warnings in the given lifecycle state
func StatusEquals(status core.InvestigationStatus) Predicate {
	return func(w *core.FraudWarning) bool {
		return w.InvestigationStatus == status
	}
}

// StatusIn matches warnings in any of the given lifecycle states
func StatusIn(statuses ...core.InvestigationStatus) Predicate {
	set := make(map[core.InvestigationStatus]bool, len(statuses))
	for _, s := range statuses {
		set[s] = true
	}
	return func(w *core.FraudWarning) bool {
		return set[w.InvestigationStatus]
	}
}

// Terminal matches resolved and false-positive warnings
func Terminal() Predicate {
	return func(w *core.FraudWarning) bool {
		return w.InvestigationStatus.IsTerminal()
	}
}

// SeverityEquals matches warnings at exactly the given severity
func SeverityEquals(level core.SeverityLevel) Predicate {
	return func(w *core.FraudWarning) bool {
		return w.SeverityLevel == level
	}
}

// SeverityAtLeast matches warnings at or above the given severity
func SeverityAtLeast(level core.SeverityLevel) Predicate {
	threshold := level.Rank()
	return func(w *core.FraudWarning) bool {
		return w.SeverityLevel.Rank() >= threshold
	}
}

// RiskScoreBetween matches risk scores in [min, max] inclusive
func RiskScoreBetween(min, max float64) Predicate {
	return func(w *core.FraudWarning) bool {
		return w.RiskScore >= min && w.RiskScore <= max
	}
}

// ClassificationEquals matches the open-ended fraud category key
func ClassificationEquals(classification string) Predicate {
	return func(w *core.FraudWarning) bool {
		return w.FraudClassification == classification
	}
}

// EntityEquals matches warnings grouped under the given business entity
func EntityEquals(entityID string) Predicate {
	return func(w *core.FraudWarning) bool {
		return w.AssociatedEntityID == entityID
	}
}

// ChargeEquals matches the external charge identifier
func ChargeEquals(chargeID string) Predicate {
	return func(w *core.FraudWarning) bool {
		return w.ChargeIdentifier == chargeID
	}
}

// AssignedTo matches warnings owned by the given analyst
func AssignedTo(userID string) Predicate {
	return func(w *core.FraudWarning) bool {
		return w.AssignedToUserID != nil && *w.AssignedToUserID == userID
	}
}

// Unassigned matches warnings with no analyst
func Unassigned() Predicate {
	return func(w *core.FraudWarning) bool {
		return !w.IsAssigned()
	}
}

// AmountBetween matches transaction amounts in [min, max] inclusive
func AmountBetween(min, max float64) Predicate {
	return func(w *core.FraudWarning) bool {
		return w.TransactionDetails.Amount >= min && w.TransactionDetails.Amount <= max
	}
}

// CurrencyEquals matches the transaction currency code
func CurrencyEquals(currency string) Predicate {
	return func(w *core.FraudWarning) bool {
		return w.TransactionDetails.Currency == currency
	}
}

// MerchantEquals matches the transaction merchant id
func MerchantEquals(merchantID string) Predicate {
	return func(w *core.FraudWarning) bool {
		return w.TransactionDetails.MerchantID == merchantID
	}
}

// BillingCountryEquals matches the billing country code
func BillingCountryEquals(country string) Predicate {
	return func(w *core.FraudWarning) bool {
		return w.TransactionDetails.BillingCountry == country
	}
}

// ShippingCountryEquals matches the shipping country code
func ShippingCountryEquals(country string) Predicate {
	return func(w *core.FraudWarning) bool {
		return w.TransactionDetails.ShippingCountry == country
	}
}

// CountryMismatch matches warnings whose billing and shipping countries
// differ, a common manual-review trigger.
func CountryMismatch() Predicate {
	return func(w *core.FraudWarning) bool {
		return w.TransactionDetails.BillingCountry != w.TransactionDetails.ShippingCountry
	}
}

// IPEquals matches the transaction source IP
func IPEquals(ip string) Predicate {
	return func(w *core.FraudWarning) bool {
		return w.TransactionDetails.IPAddress == ip
	}
}

// UserAgentContains does a case-insensitive substring match on the
// transaction user agent.
func UserAgentContains(fragment string) Predicate {
	needle := strings.ToLower(fragment)
	return func(w *core.FraudWarning) bool {
		return strings.Contains(strings.ToLower(w.TransactionDetails.UserAgent), needle)
	}
}

// NotesContain does a case-insensitive substring match on the audit trail
func NotesContain(fragment string) Predicate {
	needle := strings.ToLower(fragment)
	return func(w *core.FraudWarning) bool {
		return strings.Contains(strings.ToLower(w.Notes), needle)
	}
}

// EventBetween matches event timestamps in [from, to] inclusive,
// epoch milliseconds.
func EventBetween(from, to int64) Predicate {
	return func(w *core.FraudWarning) bool {
		return w.TimestampOfEvent >= from && w.TimestampOfEvent <= to
	}
}

// CreatedBetween matches creation timestamps in [from, to] inclusive
func CreatedBetween(from, to int64) Predicate {
	return func(w *core.FraudWarning) bool {
		return w.CreatedAt >= from && w.CreatedAt <= to
	}
}

// DetectedBy matches warnings flagged by the named detection module
func DetectedBy(moduleName string) Predicate {
	return func(w *core.FraudWarning) bool {
		for _, m := range w.DetectionModules {
			if m.ModuleName == moduleName {
				return true
			}
		}
		return false
	}
}

// ModuleConfidenceAtLeast matches warnings where any detection module
// reported confidence at or above the threshold.
func ModuleConfidenceAtLeast(threshold float64) Predicate {
	return func(w *core.FraudWarning) bool {
		for _, m := range w.DetectionModules {
			if m.ConfidenceScore >= threshold {
				return true
			}
		}
		return false
	}
}

// ActionTakenEquals matches the decision engine's verdict
func ActionTakenEquals(action core.ActionTaken) Predicate {
	return func(w *core.FraudWarning) bool {
		return w.DecisionEngineOutcome.ActionTaken == action
	}
}

// RuleNameEquals matches the decision engine rule that fired
func RuleNameEquals(ruleName string) Predicate {
	return func(w *core.FraudWarning) bool {
		return w.DecisionEngineOutcome.RuleName == ruleName
	}
}

// LoyaltyTierEquals matches the customer's loyalty tier
func LoyaltyTierEquals(tier string) Predicate {
	return func(w *core.FraudWarning) bool {
		return w.CustomerProfile.LoyaltyTier == tier
	}
}

// ResolvedBy matches terminal warnings closed out by the given analyst
func ResolvedBy(userID string) Predicate {
	return func(w *core.FraudWarning) bool {
		return w.ResolutionDetails.ResolverUserID != nil &&
			*w.ResolutionDetails.ResolverUserID == userID
	}
}

package core

import (
	"fmt"
	"time"
)

// SeverityLevel represents the severity of a fraud warning
type SeverityLevel string

const (
	SeverityLow      SeverityLevel = "LOW"
	SeverityMedium   SeverityLevel = "MEDIUM"
	SeverityHigh     SeverityLevel = "HIGH"
	SeverityCritical SeverityLevel = "CRITICAL"
)

// IsValid checks if the severity level is valid
func (s SeverityLevel) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Rank orders severities from LOW (0) to CRITICAL (3) for sorting and
// threshold predicates. Unknown severities rank below LOW.
func (s SeverityLevel) Rank() int {
	switch s {
	case SeverityLow:
		return 0
	case SeverityMedium:
		return 1
	case SeverityHigh:
		return 2
	case SeverityCritical:
		return 3
	}
	return -1
}

// InvestigationStatus represents the lifecycle state of a fraud warning
type InvestigationStatus string

const (
	StatusNew           InvestigationStatus = "NEW"
	StatusPending       InvestigationStatus = "PENDING"
	StatusInvestigating InvestigationStatus = "INVESTIGATING"
	StatusEscalated     InvestigationStatus = "ESCALATED"
	StatusResolved      InvestigationStatus = "RESOLVED"
	StatusFalsePositive InvestigationStatus = "FALSE_POSITIVE"
)

// IsValid checks if the investigation status is valid
func (s InvestigationStatus) IsValid() bool {
	switch s {
	case StatusNew, StatusPending, StatusInvestigating,
		StatusEscalated, StatusResolved, StatusFalsePositive:
		return true
	}
	return false
}

// ActionTaken represents the decision engine's verdict on the charge
type ActionTaken string

const (
	ActionBlock  ActionTaken = "BLOCK"
	ActionFlag   ActionTaken = "FLAG"
	ActionAllow  ActionTaken = "ALLOW"
	ActionReview ActionTaken = "REVIEW"
)

// IsValid checks if the action is valid
func (a ActionTaken) IsValid() bool {
	switch a {
	case ActionBlock, ActionFlag, ActionAllow, ActionReview:
		return true
	}
	return false
}

// ResolutionFalsePositive is the resolution type recorded when a warning
// is dismissed as a false positive.
const ResolutionFalsePositive = "False_Positive"

// TransactionDetails holds the charge context a warning was raised against.
// Owned by the warning and copied wholesale; never referenced independently.
type TransactionDetails struct {
	Amount          float64 `json:"amount" validate:"gte=0"`
	Currency        string  `json:"currency" validate:"required,len=3"`
	MerchantID      string  `json:"merchantId" validate:"required"`
	CardBrand       string  `json:"cardBrand"`
	CardLast4       string  `json:"cardLast4"`
	IPAddress       string  `json:"ipAddress"`
	UserAgent       string  `json:"userAgent"`
	BillingCountry  string  `json:"billingCountry"`
	ShippingCountry string  `json:"shippingCountry"`
}

// CustomerProfile summarizes the cardholder's account history
type CustomerProfile struct {
	AccountID         string  `json:"accountId" validate:"required"`
	RegistrationDate  int64   `json:"registrationDate"`
	HistoryCount      int     `json:"historyCount" validate:"gte=0"`
	AverageOrderValue float64 `json:"averageOrderValue" validate:"gte=0"`
	LoyaltyTier       string  `json:"loyaltyTier"`
}

// DetectionModule records one detector's verdict contributing to the warning
type DetectionModule struct {
	ModuleName      string  `json:"moduleName" validate:"required"`
	Version         string  `json:"version"`
	ConfidenceScore float64 `json:"confidenceScore" validate:"gte=0,lte=1"`
}

// DecisionEngineOutcome records the rule that fired and the action taken
type DecisionEngineOutcome struct {
	RuleName    string      `json:"ruleName"`
	ActionTaken ActionTaken `json:"actionTaken" validate:"omitempty,oneof=BLOCK FLAG ALLOW REVIEW"`
}

// ResolutionDetails captures how a warning was closed out.
// All fields are nil until the warning reaches a terminal state.
type ResolutionDetails struct {
	ResolutionType *string `json:"resolutionType"`
	ResolvedAt     *int64  `json:"resolvedAt"`
	ResolverUserID *string `json:"resolverUserId"`
}

// FraudWarning is an early fraud warning raised against a payment charge.
//
// Timestamps are epoch milliseconds. Invariants maintained by the store and
// lifecycle layer: CreatedAt <= UpdatedAt, and ResolvedAt >= CreatedAt once
// set. Nullable references serialize as explicit JSON null, never omitted.
type FraudWarning struct {
	ID                  string              `json:"id" validate:"required"`
	ChargeIdentifier    string              `json:"chargeIdentifier" validate:"required"`
	AssociatedEntityID  string              `json:"associatedEntityId"`
	FraudClassification string              `json:"fraudClassification" validate:"required"`
	SeverityLevel       SeverityLevel       `json:"severityLevel" validate:"required,oneof=LOW MEDIUM HIGH CRITICAL"`
	RiskScore           float64             `json:"riskScore" validate:"gte=0,lte=1"`
	InvestigationStatus InvestigationStatus `json:"investigationStatus" validate:"required,oneof=NEW PENDING INVESTIGATING ESCALATED RESOLVED FALSE_POSITIVE"`
	AssignedToUserID    *string             `json:"assignedToUserId"`

	CreatedAt        int64 `json:"createdAt" validate:"gt=0"`
	UpdatedAt        int64 `json:"updatedAt" validate:"gtefield=CreatedAt"`
	TimestampOfEvent int64 `json:"timestampOfEvent" validate:"gt=0"`

	TransactionDetails    TransactionDetails    `json:"transactionDetails"`
	CustomerProfile       CustomerProfile       `json:"customerProfile"`
	DetectionModules      []DetectionModule     `json:"detectionModules" validate:"dive"`
	DecisionEngineOutcome DecisionEngineOutcome `json:"decisionEngineOutcome"`
	ResolutionDetails     ResolutionDetails     `json:"resolutionDetails"`

	// Notes is an append-only audit trail. Mutations go through AddNote.
	Notes string `json:"notes"`
}

// Clone returns a deep copy of the warning. The store hands out clones so
// callers can never mutate stored state directly.
func (w *FraudWarning) Clone() *FraudWarning {
	c := *w

	if w.AssignedToUserID != nil {
		v := *w.AssignedToUserID
		c.AssignedToUserID = &v
	}
	if w.ResolutionDetails.ResolutionType != nil {
		v := *w.ResolutionDetails.ResolutionType
		c.ResolutionDetails.ResolutionType = &v
	}
	if w.ResolutionDetails.ResolvedAt != nil {
		v := *w.ResolutionDetails.ResolvedAt
		c.ResolutionDetails.ResolvedAt = &v
	}
	if w.ResolutionDetails.ResolverUserID != nil {
		v := *w.ResolutionDetails.ResolverUserID
		c.ResolutionDetails.ResolverUserID = &v
	}
	if w.DetectionModules != nil {
		c.DetectionModules = make([]DetectionModule, len(w.DetectionModules))
		copy(c.DetectionModules, w.DetectionModules)
	}

	return &c
}

// AddNote appends a timestamped, attributed line to the audit trail.
// Prior text is never overwritten.
func (w *FraudWarning) AddNote(authorID, text string, at int64) {
	line := fmt.Sprintf("[%s] %s: %s",
		time.UnixMilli(at).UTC().Format(time.RFC3339), authorID, text)
	if w.Notes == "" {
		w.Notes = line
		return
	}
	w.Notes += "\n" + line
}

// IsAssigned reports whether an analyst currently owns the warning
func (w *FraudWarning) IsAssigned() bool {
	return w.AssignedToUserID != nil && *w.AssignedToUserID != ""
}

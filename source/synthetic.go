// Package source provides the external ingestion collaborator the
// refresh coordinator polls. The production system sits behind a payment
// provider's early-fraud-warning webhook; this package's Synthetic source
// stands in for it with a deterministic, seedable generator so feed
// behavior and property tests are reproducible run to run.
package source

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/google/uuid"

	"fraudwatch/core"
	"fraudwatch/refresh"
)

var (
	classifications = []string{
		"card_testing", "account_takeover", "friendly_fraud",
		"stolen_card", "triangulation", "refund_abuse",
	}
	severities = []core.SeverityLevel{
		core.SeverityLow, core.SeverityMedium, core.SeverityHigh, core.SeverityCritical,
	}
	currencies   = []string{"USD", "EUR", "GBP", "JPY", "BRL"}
	countries    = []string{"US", "GB", "DE", "BR", "NG", "RO", "JP"}
	loyaltyTiers = []string{"bronze", "silver", "gold", "platinum"}
	userAgents   = []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)",
		"Mozilla/5.0 (X11; Linux x86_64)",
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)",
		"okhttp/4.12.0",
		"curl/8.4.0",
	}
	detectionModules = []string{
		"velocity-check", "geo-anomaly", "device-fingerprint",
		"bin-attack-monitor", "ml-scorer",
	}
	decisionRules = []string{
		"high-risk-geo", "velocity-threshold", "card-testing-pattern",
		"amount-outlier", "new-account-high-value",
	}
	actions = []core.ActionTaken{
		core.ActionBlock, core.ActionFlag, core.ActionAllow, core.ActionReview,
	}
	entityIDs = []string{"ent-na-retail", "ent-eu-retail", "ent-digital-goods", "ent-marketplace"}
)

// Synthetic is a seeded fraud-warning generator implementing
// refresh.Source. The same seed always produces the same sequence of
// warnings, ids included.
type Synthetic struct {
	mu      sync.Mutex
	rng     *rand.Rand
	clock   func() int64
	seq     int
	byID    map[string]*core.FraudWarning
	ordered []*core.FraudWarning

	failNext error
}

// NewSynthetic creates a generator from a seed, stamping warnings with
// the given clock (epoch milliseconds).
func NewSynthetic(seed int64, clock func() int64) *Synthetic {
	return &Synthetic{
		rng:   rand.New(rand.NewSource(seed)),
		clock: clock,
		byID:  make(map[string]*core.FraudWarning),
	}
}

// FetchWarnings generates a fresh batch, newest-first. The generated
// history is retained so FetchWarningByID and offset reads work like a
// real upstream.
func (s *Synthetic) FetchWarnings(ctx context.Context, opts refresh.FetchOptions) ([]*core.FraudWarning, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", refresh.ErrSourceUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return nil, err
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 5
	}

	for i := 0; i < limit; i++ {
		w := s.generate()
		s.byID[w.ID] = w
		s.ordered = append(s.ordered, w)
	}

	// Newest-first over the retained history, then filter, offset, limit
	batch := make([]*core.FraudWarning, 0, limit)
	skipped := 0
	for i := len(s.ordered) - 1; i >= 0 && len(batch) < limit; i-- {
		w := s.ordered[i]
		if opts.EntityID != "" && w.AssociatedEntityID != opts.EntityID {
			continue
		}
		if skipped < opts.Offset {
			skipped++
			continue
		}
		batch = append(batch, w.Clone())
	}
	return batch, nil
}

// FetchWarningByID returns a previously generated warning, or nil if the
// id was never issued.
func (s *Synthetic) FetchWarningByID(ctx context.Context, id string) (*core.FraudWarning, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", refresh.ErrSourceUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	return w.Clone(), nil
}

// FailNext makes the next FetchWarnings call fail with err, simulating an
// upstream outage for coordinator tests.
func (s *Synthetic) FailNext(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}

func (s *Synthetic) generate() *core.FraudWarning {
	s.seq++
	now := s.clock()

	id, err := uuid.NewRandomFromReader(s.rng)
	if err != nil {
		// The seeded reader never fails; fall back to the sequence number
		return &core.FraudWarning{ID: fmt.Sprintf("efw-%06d", s.seq)}
	}

	severity := pick(s.rng, severities)
	amount := float64(s.rng.Intn(500000)) / 100

	modules := make([]core.DetectionModule, 1+s.rng.Intn(3))
	seen := make(map[string]bool)
	for i := range modules {
		name := pick(s.rng, detectionModules)
		for seen[name] {
			name = pick(s.rng, detectionModules)
		}
		seen[name] = true
		modules[i] = core.DetectionModule{
			ModuleName:      name,
			Version:         fmt.Sprintf("%d.%d.%d", 1+s.rng.Intn(3), s.rng.Intn(10), s.rng.Intn(20)),
			ConfidenceScore: roundScore(s.rng.Float64()),
		}
	}

	return &core.FraudWarning{
		ID:                  id.String(),
		ChargeIdentifier:    fmt.Sprintf("ch_%024x", s.rng.Int63()),
		AssociatedEntityID:  pick(s.rng, entityIDs),
		FraudClassification: pick(s.rng, classifications),
		SeverityLevel:       severity,
		RiskScore:           roundScore(s.rng.Float64()),
		InvestigationStatus: core.StatusNew,
		CreatedAt:           now,
		UpdatedAt:           now,
		TimestampOfEvent:    now - int64(s.rng.Intn(3_600_000)),
		TransactionDetails: core.TransactionDetails{
			Amount:          amount,
			Currency:        pick(s.rng, currencies),
			MerchantID:      fmt.Sprintf("m-%04d", 1+s.rng.Intn(40)),
			CardBrand:       pick(s.rng, []string{"visa", "mastercard", "amex"}),
			CardLast4:       fmt.Sprintf("%04d", s.rng.Intn(10000)),
			IPAddress:       fmt.Sprintf("203.0.113.%d", s.rng.Intn(256)),
			UserAgent:       pick(s.rng, userAgents),
			BillingCountry:  pick(s.rng, countries),
			ShippingCountry: pick(s.rng, countries),
		},
		CustomerProfile: core.CustomerProfile{
			AccountID:         fmt.Sprintf("acct-%06d", 1+s.rng.Intn(900000)),
			RegistrationDate:  now - int64(s.rng.Intn(730))*86_400_000,
			HistoryCount:      s.rng.Intn(200),
			AverageOrderValue: float64(s.rng.Intn(30000)) / 100,
			LoyaltyTier:       pick(s.rng, loyaltyTiers),
		},
		DetectionModules: modules,
		DecisionEngineOutcome: core.DecisionEngineOutcome{
			RuleName:    pick(s.rng, decisionRules),
			ActionTaken: pick(s.rng, actions),
		},
	}
}

func pick[T any](rng *rand.Rand, values []T) T {
	return values[rng.Intn(len(values))]
}

// roundScore keeps scores at two decimals, matching what the upstream
// provider emits.
func roundScore(v float64) float64 {
	return float64(int(v*100)) / 100
}

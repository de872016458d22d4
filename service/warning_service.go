// Package service implements the business-logic layer between consumers
// (the feed UI, reporting) and the warning store. All lifecycle mutations
// flow through WarningService, which validates transitions against the
// core state machine and returns the authoritative post-mutation entity —
// consumers hold no optimistic state.
package service

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"fraudwatch/core"
	"fraudwatch/metrics"
	"fraudwatch/query"
	"fraudwatch/storage"
)

// distinctCacheSize bounds the memoized selector dimensions. There are
// fewer than a dozen dimensions; headroom covers a few generations.
const distinctCacheSize = 32

// WarningService orchestrates reads and lifecycle mutations over the
// warning store.
type WarningService struct {
	store     *storage.WarningStore
	validate  *validator.Validate
	distincts *query.DistinctCache
	logger    *zap.SugaredLogger
}

// NewWarningService creates a WarningService. Store and logger are
// required; the constructor panics on nil to fail fast at wiring time.
func NewWarningService(store *storage.WarningStore, logger *zap.SugaredLogger) *WarningService {
	if store == nil {
		panic("store is required")
	}
	if logger == nil {
		panic("logger is required")
	}

	distincts, err := query.NewDistinctCache(distinctCacheSize)
	if err != nil {
		panic(fmt.Sprintf("distinct cache: %v", err))
	}

	return &WarningService{
		store:     store,
		validate:  validator.New(),
		distincts: distincts,
		logger:    logger,
	}
}

// Ingest validates and inserts a warning. Warnings arriving without an id
// keep the source-assigned one; missing lifecycle fields default to a
// fresh NEW warning. Returns the stored snapshot.
func (s *WarningService) Ingest(w *core.FraudWarning) (*core.FraudWarning, error) {
	if w == nil {
		return nil, fmt.Errorf("warning is required")
	}

	in := w.Clone()
	now := s.store.Now()
	if in.InvestigationStatus == "" {
		in.InvestigationStatus = core.StatusNew
	}
	if in.CreatedAt == 0 {
		in.CreatedAt = now
	}
	if in.UpdatedAt < in.CreatedAt {
		in.UpdatedAt = in.CreatedAt
	}

	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("validating warning %s: %w", in.ID, err)
	}

	if err := s.store.Insert(in); err != nil {
		return nil, err
	}

	metrics.WarningsIngested.WithLabelValues(string(in.SeverityLevel)).Inc()
	metrics.WarningsHeld.Set(float64(s.store.Len()))
	s.logger.Debugf("Ingested warning %s (classification=%s severity=%s risk=%.2f)",
		in.ID, in.FraudClassification, in.SeverityLevel, in.RiskScore)
	return in.Clone(), nil
}

// GetWarning returns a snapshot of one warning
func (s *WarningService) GetWarning(id string) (*core.FraudWarning, error) {
	if id == "" {
		return nil, fmt.Errorf("warning id is required")
	}
	return s.store.Get(id)
}

// Query filters, sorts and paginates the current store contents. The
// result is computed against one atomic snapshot.
func (s *WarningService) Query(preds []query.Predicate, sort query.Sort, page query.Page) (*query.Result, error) {
	return query.Run(s.store.All(), preds, sort, page)
}

// Assign hands the warning to an analyst. Warnings still in NEW or
// PENDING auto-advance to INVESTIGATING; reassignment of a warning
// already under investigation just swaps the owner. Terminal warnings
// reject assignment.
func (s *WarningService) Assign(id, userID string) (*core.FraudWarning, error) {
	if userID == "" {
		return nil, fmt.Errorf("userID is required")
	}

	updated, err := s.store.Update(id, func(w *core.FraudWarning) error {
		if w.InvestigationStatus.IsTerminal() {
			return fmt.Errorf("%w: cannot assign %s warning", core.ErrInvalidTransition, w.InvestigationStatus)
		}
		w.AssignedToUserID = &userID
		if w.InvestigationStatus == core.StatusNew || w.InvestigationStatus == core.StatusPending {
			if err := w.TransitionTo(core.StatusInvestigating); err != nil {
				return err
			}
			metrics.LifecycleTransitions.WithLabelValues(string(core.StatusInvestigating)).Inc()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infof("Warning %s assigned to %s (status=%s)", id, userID, updated.InvestigationStatus)
	return updated, nil
}

// Escalate moves a non-terminal warning to ESCALATED and appends the
// reason to the audit trail.
func (s *WarningService) Escalate(id, reason string) (*core.FraudWarning, error) {
	updated, err := s.store.Update(id, func(w *core.FraudWarning) error {
		if err := w.TransitionTo(core.StatusEscalated); err != nil {
			return err
		}
		if reason != "" {
			w.AddNote("system", "escalated: "+reason, s.store.Now())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.LifecycleTransitions.WithLabelValues(string(core.StatusEscalated)).Inc()
	s.logger.Infof("Warning %s escalated: %s", id, reason)
	return updated, nil
}

// Resolve closes a non-terminal warning as RESOLVED, recording who
// resolved it, how, and when. Optional notes are appended to the trail.
func (s *WarningService) Resolve(id, userID, resolutionType string, notes ...string) (*core.FraudWarning, error) {
	return s.close(id, userID, core.StatusResolved, resolutionType, notes)
}

// MarkFalsePositive closes a non-terminal warning as FALSE_POSITIVE with
// the false-positive resolution marker.
func (s *WarningService) MarkFalsePositive(id, userID string, notes ...string) (*core.FraudWarning, error) {
	return s.close(id, userID, core.StatusFalsePositive, core.ResolutionFalsePositive, notes)
}

func (s *WarningService) close(id, userID string, target core.InvestigationStatus, resolutionType string, notes []string) (*core.FraudWarning, error) {
	if userID == "" {
		return nil, fmt.Errorf("userID is required")
	}
	if resolutionType == "" {
		return nil, fmt.Errorf("resolutionType is required")
	}

	updated, err := s.store.Update(id, func(w *core.FraudWarning) error {
		if err := w.TransitionTo(target); err != nil {
			return err
		}
		resolvedAt := s.store.Now()
		if resolvedAt < w.CreatedAt {
			resolvedAt = w.CreatedAt
		}
		w.ResolutionDetails = core.ResolutionDetails{
			ResolutionType: &resolutionType,
			ResolvedAt:     &resolvedAt,
			ResolverUserID: &userID,
		}
		for _, n := range notes {
			if n != "" {
				w.AddNote(userID, n, resolvedAt)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.LifecycleTransitions.WithLabelValues(string(target)).Inc()
	s.logger.Infof("Warning %s closed as %s by %s (%s)", id, target, userID, resolutionType)
	return updated, nil
}

// UpdateStatus applies an arbitrary status transition, validated against
// the lifecycle matrix. Requesting the current status on a non-terminal
// warning is a no-op write.
func (s *WarningService) UpdateStatus(id string, status core.InvestigationStatus) (*core.FraudWarning, error) {
	updated, err := s.store.Update(id, func(w *core.FraudWarning) error {
		return w.TransitionTo(status)
	})
	if err != nil {
		return nil, err
	}

	metrics.LifecycleTransitions.WithLabelValues(string(status)).Inc()
	s.logger.Infof("Warning %s status set to %s", id, status)
	return updated, nil
}

// AddNote appends an attributed note to the warning's audit trail. Notes
// are allowed in any state, terminal included: the trail is the audit
// record, not a lifecycle transition.
func (s *WarningService) AddNote(id, authorID, text string) (*core.FraudWarning, error) {
	if authorID == "" {
		return nil, fmt.Errorf("authorID is required")
	}
	if text == "" {
		return nil, fmt.Errorf("note text is required")
	}

	return s.store.Update(id, func(w *core.FraudWarning) error {
		w.AddNote(authorID, text, s.store.Now())
		return nil
	})
}

// AllowedTransitions returns the valid target states for a warning, for
// populating the status selector.
func (s *WarningService) AllowedTransitions(id string) ([]core.InvestigationStatus, error) {
	w, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	return w.AllowedTransitions(), nil
}

// Distinct returns the sorted distinct values of a selector dimension,
// memoized per store generation.
func (s *WarningService) Distinct(dimension string, projection query.Projection) []string {
	gen := s.store.Generation()
	if values, ok := s.distincts.Get(dimension, gen); ok {
		return values
	}
	values := query.DistinctValues(s.store.All(), projection)
	s.distincts.Put(dimension, gen, values)
	return values
}

// DistinctClassifications returns every fraud category currently seen
func (s *WarningService) DistinctClassifications() []string {
	return s.Distinct("classification", query.ByClassification)
}

// DistinctEntities returns every associated business entity id
func (s *WarningService) DistinctEntities() []string {
	return s.Distinct("entity", query.ByEntity)
}

// DistinctCurrencies returns every transaction currency seen
func (s *WarningService) DistinctCurrencies() []string {
	return s.Distinct("currency", query.ByCurrency)
}

// DistinctUserAgents returns every transaction user agent seen
func (s *WarningService) DistinctUserAgents() []string {
	return s.Distinct("userAgent", query.ByUserAgent)
}

// DistinctLoyaltyTiers returns every customer loyalty tier seen
func (s *WarningService) DistinctLoyaltyTiers() []string {
	return s.Distinct("loyaltyTier", query.ByLoyaltyTier)
}

// DistinctDetectionModules returns every detection module name seen
func (s *WarningService) DistinctDetectionModules() []string {
	gen := s.store.Generation()
	if values, ok := s.distincts.Get("detectionModule", gen); ok {
		return values
	}
	values := query.DistinctValuesMulti(s.store.All(), query.ByDetectionModule)
	s.distincts.Put("detectionModule", gen, values)
	return values
}

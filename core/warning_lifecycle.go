package core

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when a lifecycle mutation is requested
// from a state that does not admit it. Terminal warnings admit nothing:
// repeating resolve on an already-resolved warning is an error, not a
// silent overwrite.
var ErrInvalidTransition = errors.New("invalid status transition")

// validTransitions defines the allowed forward transitions per state.
// NEW → PENDING → INVESTIGATING → ESCALATED → {RESOLVED, FALSE_POSITIVE};
// states may be skipped forward but never revisited. RESOLVED and
// FALSE_POSITIVE are terminal.
var validTransitions = map[InvestigationStatus][]InvestigationStatus{
	StatusNew:           {StatusPending, StatusInvestigating, StatusEscalated, StatusResolved, StatusFalsePositive},
	StatusPending:       {StatusInvestigating, StatusEscalated, StatusResolved, StatusFalsePositive},
	StatusInvestigating: {StatusEscalated, StatusResolved, StatusFalsePositive},
	StatusEscalated:     {StatusResolved, StatusFalsePositive},
	StatusResolved:      {},
	StatusFalsePositive: {},
}

// IsTerminal reports whether the status admits no further transitions
func (s InvestigationStatus) IsTerminal() bool {
	allowed, exists := validTransitions[s]
	return exists && len(allowed) == 0
}

// CanTransitionTo checks if a transition is allowed without executing it.
// Same-state is allowed for non-terminal states (a no-op write).
func (w *FraudWarning) CanTransitionTo(target InvestigationStatus) bool {
	if !target.IsValid() {
		return false
	}
	if w.InvestigationStatus.IsTerminal() {
		return false
	}
	if target == w.InvestigationStatus {
		return true
	}
	for _, s := range validTransitions[w.InvestigationStatus] {
		if s == target {
			return true
		}
	}
	return false
}

// TransitionTo validates and executes a status transition.
// Requesting the current status again on a non-terminal warning is a
// no-op success; any request against a terminal warning fails with
// ErrInvalidTransition.
func (w *FraudWarning) TransitionTo(target InvestigationStatus) error {
	if !target.IsValid() {
		return fmt.Errorf("unknown investigation status: %s", target)
	}

	if w.InvestigationStatus.IsTerminal() {
		return fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, w.InvestigationStatus)
	}

	if target == w.InvestigationStatus {
		return nil
	}

	if !w.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, w.InvestigationStatus, target)
	}

	w.InvestigationStatus = target
	return nil
}

// AllowedTransitions returns all valid target states from the current
// state, for populating status selectors. Returns a copy.
func (w *FraudWarning) AllowedTransitions() []InvestigationStatus {
	allowed, exists := validTransitions[w.InvestigationStatus]
	if !exists {
		return []InvestigationStatus{}
	}
	result := make([]InvestigationStatus, len(allowed))
	copy(result, allowed)
	return result
}

package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fraudwatch/core"
	"fraudwatch/query"
	"fraudwatch/storage"
)

func newTestService(t *testing.T) (*WarningService, *storage.WarningStore) {
	t.Helper()
	store := newClockedStore()
	return NewWarningService(store, zap.NewNop().Sugar()), store
}

// newClockedStore pins the clock so timestamp assertions are exact
func newClockedStore() *storage.WarningStore {
	now := int64(1700000000000)
	return storage.NewWarningStoreWithClock(func() int64 {
		now += 1000
		return now
	})
}

func seedWarning(t *testing.T, svc *WarningService, id string) *core.FraudWarning {
	t.Helper()
	w := &core.FraudWarning{
		ID:                  id,
		ChargeIdentifier:    "ch_" + id,
		FraudClassification: "card_testing",
		SeverityLevel:       core.SeverityCritical,
		RiskScore:           0.91,
		TimestampOfEvent:    1699999000000,
		TransactionDetails: core.TransactionDetails{
			Amount: 120, Currency: "USD", MerchantID: "m-1",
		},
		CustomerProfile: core.CustomerProfile{AccountID: "acct-1"},
	}
	stored, err := svc.Ingest(w)
	require.NoError(t, err)
	return stored
}

func TestWarningService_Ingest_Defaults(t *testing.T) {
	svc, _ := newTestService(t)

	stored := seedWarning(t, svc, "efw-1")
	assert.Equal(t, core.StatusNew, stored.InvestigationStatus)
	assert.Greater(t, stored.CreatedAt, int64(0))
	assert.GreaterOrEqual(t, stored.UpdatedAt, stored.CreatedAt)
	assert.Nil(t, stored.AssignedToUserID)
	assert.Nil(t, stored.ResolutionDetails.ResolvedAt)
}

func TestWarningService_Ingest_RejectsInvalid(t *testing.T) {
	svc, store := newTestService(t)

	_, err := svc.Ingest(&core.FraudWarning{
		ID:                  "efw-bad",
		ChargeIdentifier:    "ch_x",
		FraudClassification: "card_testing",
		SeverityLevel:       core.SeverityHigh,
		RiskScore:           1.5, // out of [0,1]
		TimestampOfEvent:    1,
		TransactionDetails:  core.TransactionDetails{Currency: "USD", MerchantID: "m-1"},
		CustomerProfile:     core.CustomerProfile{AccountID: "acct-1"},
	})
	require.Error(t, err)
	assert.Equal(t, 0, store.Len())
}

func TestWarningService_Ingest_Duplicate(t *testing.T) {
	svc, _ := newTestService(t)
	seedWarning(t, svc, "efw-1")

	_, err := svc.Ingest(&core.FraudWarning{
		ID:                  "efw-1",
		ChargeIdentifier:    "ch_other",
		FraudClassification: "account_takeover",
		SeverityLevel:       core.SeverityLow,
		TimestampOfEvent:    1,
		TransactionDetails:  core.TransactionDetails{Currency: "USD", MerchantID: "m-1"},
		CustomerProfile:     core.CustomerProfile{AccountID: "acct-2"},
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateWarning)
}

// Covers the assign-then-resolve analyst flow end to end
func TestWarningService_AssignThenResolve(t *testing.T) {
	svc, _ := newTestService(t)
	stored := seedWarning(t, svc, "efw-1")

	assigned, err := svc.Assign("efw-1", "analyst-1")
	require.NoError(t, err)
	assert.Equal(t, core.StatusInvestigating, assigned.InvestigationStatus)
	require.NotNil(t, assigned.AssignedToUserID)
	assert.Equal(t, "analyst-1", *assigned.AssignedToUserID)

	resolved, err := svc.Resolve("efw-1", "analyst-1", "Manual_Review")
	require.NoError(t, err)
	assert.Equal(t, core.StatusResolved, resolved.InvestigationStatus)
	require.NotNil(t, resolved.ResolutionDetails.ResolverUserID)
	assert.Equal(t, "analyst-1", *resolved.ResolutionDetails.ResolverUserID)
	require.NotNil(t, resolved.ResolutionDetails.ResolutionType)
	assert.Equal(t, "Manual_Review", *resolved.ResolutionDetails.ResolutionType)
	require.NotNil(t, resolved.ResolutionDetails.ResolvedAt)
	assert.GreaterOrEqual(t, *resolved.ResolutionDetails.ResolvedAt, stored.CreatedAt)
}

// Repeat-terminal policy: a second resolve is an error, never a silent
// overwrite.
func TestWarningService_Resolve_Twice(t *testing.T) {
	svc, _ := newTestService(t)
	seedWarning(t, svc, "efw-1")

	first, err := svc.Resolve("efw-1", "analyst-1", "Manual_Review")
	require.NoError(t, err)

	_, err = svc.Resolve("efw-1", "analyst-1", "Manual_Review")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidTransition)

	// Store state unchanged by the failed call
	after, err := svc.GetWarning("efw-1")
	require.NoError(t, err)
	assert.Equal(t, first, after)
}

func TestWarningService_Assign_ReassignKeepsStatus(t *testing.T) {
	svc, _ := newTestService(t)
	seedWarning(t, svc, "efw-1")

	_, err := svc.Assign("efw-1", "analyst-1")
	require.NoError(t, err)
	_, err = svc.Escalate("efw-1", "needs payments review")
	require.NoError(t, err)

	// Reassignment swaps the owner without touching ESCALATED
	reassigned, err := svc.Assign("efw-1", "analyst-2")
	require.NoError(t, err)
	assert.Equal(t, core.StatusEscalated, reassigned.InvestigationStatus)
	assert.Equal(t, "analyst-2", *reassigned.AssignedToUserID)
}

func TestWarningService_Assign_TerminalRejected(t *testing.T) {
	svc, _ := newTestService(t)
	seedWarning(t, svc, "efw-1")

	_, err := svc.MarkFalsePositive("efw-1", "analyst-1")
	require.NoError(t, err)

	_, err = svc.Assign("efw-1", "analyst-2")
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
}

func TestWarningService_Escalate_AppendsReason(t *testing.T) {
	svc, _ := newTestService(t)
	seedWarning(t, svc, "efw-1")

	escalated, err := svc.Escalate("efw-1", "velocity spike across 14 cards")
	require.NoError(t, err)
	assert.Equal(t, core.StatusEscalated, escalated.InvestigationStatus)
	assert.Contains(t, escalated.Notes, "velocity spike across 14 cards")
}

func TestWarningService_MarkFalsePositive(t *testing.T) {
	svc, _ := newTestService(t)
	seedWarning(t, svc, "efw-1")

	fp, err := svc.MarkFalsePositive("efw-1", "analyst-3", "customer verified by phone")
	require.NoError(t, err)
	assert.Equal(t, core.StatusFalsePositive, fp.InvestigationStatus)
	require.NotNil(t, fp.ResolutionDetails.ResolutionType)
	assert.Equal(t, core.ResolutionFalsePositive, *fp.ResolutionDetails.ResolutionType)
	assert.Contains(t, fp.Notes, "customer verified by phone")
}

func TestWarningService_UpdateStatus(t *testing.T) {
	svc, _ := newTestService(t)
	seedWarning(t, svc, "efw-1")

	updated, err := svc.UpdateStatus("efw-1", core.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, core.StatusPending, updated.InvestigationStatus)

	_, err = svc.UpdateStatus("efw-1", core.StatusNew)
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
}

func TestWarningService_AddNote_AppendOnly(t *testing.T) {
	svc, _ := newTestService(t)
	seedWarning(t, svc, "efw-1")

	first, err := svc.AddNote("efw-1", "analyst-1", "checking device history")
	require.NoError(t, err)
	second, err := svc.AddNote("efw-1", "analyst-2", "IP is a known proxy exit")
	require.NoError(t, err)

	assert.Contains(t, second.Notes, first.Notes)
	assert.Contains(t, second.Notes, "analyst-2")
	assert.Greater(t, second.UpdatedAt, first.CreatedAt)
}

func TestWarningService_Mutator_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Assign("missing", "analyst-1")
	assert.ErrorIs(t, err, storage.ErrWarningNotFound)
	_, err = svc.Resolve("missing", "analyst-1", "Manual_Review")
	assert.ErrorIs(t, err, storage.ErrWarningNotFound)
	_, err = svc.AddNote("missing", "analyst-1", "text")
	assert.ErrorIs(t, err, storage.ErrWarningNotFound)
}

func TestWarningService_Query(t *testing.T) {
	svc, _ := newTestService(t)
	seedWarning(t, svc, "efw-1")
	seedWarning(t, svc, "efw-2")
	_, err := svc.Assign("efw-2", "analyst-1")
	require.NoError(t, err)

	res, err := svc.Query(
		[]query.Predicate{query.StatusEquals(core.StatusNew)},
		query.Sort{Field: query.SortByID, Order: query.SortAsc},
		query.Page{},
	)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "efw-1", res.Items[0].ID)
	assert.Equal(t, 1, res.TotalCount)
}

func TestWarningService_AllowedTransitions(t *testing.T) {
	svc, _ := newTestService(t)
	seedWarning(t, svc, "efw-1")

	allowed, err := svc.AllowedTransitions("efw-1")
	require.NoError(t, err)
	assert.Contains(t, allowed, core.StatusPending)
	assert.Contains(t, allowed, core.StatusResolved)
}

func TestWarningService_Distincts(t *testing.T) {
	svc, _ := newTestService(t)
	seedWarning(t, svc, "efw-1")

	assert.Equal(t, []string{"card_testing"}, svc.DistinctClassifications())
	assert.Equal(t, []string{"USD"}, svc.DistinctCurrencies())

	// Repeated call at the same generation hits the cache and agrees
	assert.Equal(t, svc.DistinctClassifications(), svc.DistinctClassifications())

	// A mutation invalidates by generation
	w := &core.FraudWarning{
		ID: "efw-2", ChargeIdentifier: "ch_2", FraudClassification: "account_takeover",
		SeverityLevel: core.SeverityLow, TimestampOfEvent: 1,
		TransactionDetails: core.TransactionDetails{Currency: "EUR", MerchantID: "m-2"},
		CustomerProfile:    core.CustomerProfile{AccountID: "acct-2"},
	}
	_, err := svc.Ingest(w)
	require.NoError(t, err)
	assert.Equal(t, []string{"account_takeover", "card_testing"}, svc.DistinctClassifications())
	assert.Equal(t, []string{"EUR", "USD"}, svc.DistinctCurrencies())
}

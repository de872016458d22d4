package refresh

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fraudwatch/core"
	"fraudwatch/storage"
)

// stubSource serves canned batches and counts fetches
type stubSource struct {
	mu      sync.Mutex
	batches [][]*core.FraudWarning
	err     error
	fetches int
}

func (s *stubSource) FetchWarnings(ctx context.Context, opts FetchOptions) ([]*core.FraudWarning, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.err != nil {
		return nil, s.err
	}
	if len(s.batches) == 0 {
		return nil, nil
	}
	batch := s.batches[0]
	if len(s.batches) > 1 {
		s.batches = s.batches[1:]
	}
	return batch, nil
}

func (s *stubSource) FetchWarningByID(ctx context.Context, id string) (*core.FraudWarning, error) {
	return nil, nil
}

func (s *stubSource) fetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

// storeIngester feeds a bare store, standing in for the service layer
type storeIngester struct {
	store *storage.WarningStore
}

func (i *storeIngester) Ingest(w *core.FraudWarning) (*core.FraudWarning, error) {
	if err := i.store.Insert(w); err != nil {
		return nil, err
	}
	return w, nil
}

func testWarning(id string, eventTS int64) *core.FraudWarning {
	return &core.FraudWarning{
		ID:                  id,
		ChargeIdentifier:    "ch_" + id,
		FraudClassification: "card_testing",
		SeverityLevel:       core.SeverityHigh,
		RiskScore:           0.5,
		InvestigationStatus: core.StatusNew,
		CreatedAt:           eventTS,
		UpdatedAt:           eventTS,
		TimestampOfEvent:    eventTS,
	}
}

func newTestCoordinator(src Source, opts Options, cap int) (*Coordinator, *storage.WarningStore, *storage.FeedIndex) {
	store := storage.NewWarningStore()
	feed := storage.NewFeedIndex(cap)
	c := NewCoordinator(src, &storeIngester{store: store}, feed, opts, zap.NewNop().Sugar())
	return c, store, feed
}

func TestMerge_SkipsDuplicatesAndInsertsNew(t *testing.T) {
	src := &stubSource{}
	c, store, _ := newTestCoordinator(src, Options{}, 50)

	existing := testWarning("efw-1", 1000)
	require.NoError(t, store.Insert(existing))

	// Mutate the stored copy the way an analyst would
	_, err := store.Update("efw-1", func(w *core.FraudWarning) error {
		w.InvestigationStatus = core.StatusInvestigating
		return nil
	})
	require.NoError(t, err)

	// The source re-sends efw-1 alongside one unseen warning
	stale := testWarning("efw-1", 1000)
	inserted := c.Merge([]*core.FraudWarning{stale, testWarning("efw-2", 2000)})

	assert.Equal(t, 1, inserted)
	assert.Equal(t, 2, store.Len(), "store grows by exactly the unseen ids")

	// The pre-existing warning's mutable state is untouched
	got, err := store.Get("efw-1")
	require.NoError(t, err)
	assert.Equal(t, core.StatusInvestigating, got.InvestigationStatus)
}

func TestMerge_FeedCapEvictsViewOnly(t *testing.T) {
	src := &stubSource{}
	c, store, feed := newTestCoordinator(src, Options{}, 3)

	batch := make([]*core.FraudWarning, 5)
	for i := range batch {
		batch[i] = testWarning(fmt.Sprintf("efw-%d", i), int64(1000*(i+1)))
	}
	c.Merge(batch)

	assert.Equal(t, 3, feed.Len(), "feed view is capped")
	assert.Equal(t, 5, store.Len(), "eviction is a display concern, never deletion")
	assert.False(t, feed.Contains("efw-0"))
	assert.True(t, feed.Contains("efw-4"))
}

func TestCoordinator_PollsOnSchedule(t *testing.T) {
	src := &stubSource{batches: [][]*core.FraudWarning{
		{testWarning("efw-1", 1000)},
		{testWarning("efw-2", 2000)},
		{testWarning("efw-2", 2000)}, // repeated tail batch
	}}
	c, store, _ := newTestCoordinator(src, Options{Interval: 5 * time.Millisecond}, 50)

	c.Start()
	defer c.Stop()

	require.Eventually(t, func() bool { return store.Len() == 2 },
		time.Second, 2*time.Millisecond)
}

func TestCoordinator_FetchFailureSkipsCycleKeepsSchedule(t *testing.T) {
	src := &stubSource{err: ErrSourceUnavailable}
	c, store, _ := newTestCoordinator(src, Options{Interval: 5 * time.Millisecond}, 50)

	c.Start()
	defer c.Stop()

	// The schedule keeps ticking through failures
	require.Eventually(t, func() bool { return src.fetchCount() >= 3 },
		time.Second, 2*time.Millisecond)
	assert.Equal(t, 0, store.Len())

	// Upstream recovers, next tick merges
	src.mu.Lock()
	src.err = nil
	src.batches = [][]*core.FraudWarning{{testWarning("efw-1", 1000)}}
	src.mu.Unlock()

	require.Eventually(t, func() bool { return store.Len() == 1 },
		time.Second, 2*time.Millisecond)
}

func TestCoordinator_StopIsDeterministic(t *testing.T) {
	src := &stubSource{batches: [][]*core.FraudWarning{
		{testWarning("efw-1", 1000)},
	}}
	c, store, _ := newTestCoordinator(src, Options{Interval: time.Millisecond}, 50)

	c.Start()
	require.Eventually(t, func() bool { return store.Len() >= 1 },
		time.Second, time.Millisecond)

	c.Stop()
	lenAtStop := store.Len()
	fetchesAtStop := src.fetchCount()

	// No merge, and no fetch, may land after Stop returns
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, lenAtStop, store.Len())
	assert.Equal(t, fetchesAtStop, src.fetchCount())
}

func TestCoordinator_StartStopIdempotent(t *testing.T) {
	src := &stubSource{}
	c, _, _ := newTestCoordinator(src, Options{Interval: time.Hour}, 50)

	c.Start()
	c.Start()
	c.Stop()
	c.Stop()
}

func TestCoordinator_RateLimitThrottlesFetches(t *testing.T) {
	src := &stubSource{}
	// Ticks every millisecond but at most ~2 upstream fetches per second
	c, _, _ := newTestCoordinator(src, Options{Interval: time.Millisecond, FetchRate: 2}, 50)

	c.Start()
	time.Sleep(100 * time.Millisecond)
	c.Stop()

	assert.LessOrEqual(t, src.fetchCount(), 3, "burst of 1 plus replenishment")
}

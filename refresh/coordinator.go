// Package refresh pulls newly-created warnings from the external source
// on a schedule and merges them into the warning store under the feed's
// display cap.
package refresh

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"fraudwatch/core"
	"fraudwatch/metrics"
	"fraudwatch/storage"
)

// ErrSourceUnavailable is returned by sources when the upstream fetch
// collaborator failed. The coordinator treats any fetch error as a soft
// failure: log, skip the cycle, keep the schedule.
var ErrSourceUnavailable = errors.New("warning source unavailable")

// FetchOptions narrows a source pull
type FetchOptions struct {
	EntityID  string
	Limit     int
	Offset    int
	SortBy    string
	SortOrder string
}

// Source is the ingestion collaborator the coordinator polls. Warnings
// come back newest-first.
type Source interface {
	FetchWarnings(ctx context.Context, opts FetchOptions) ([]*core.FraudWarning, error)
	FetchWarningByID(ctx context.Context, id string) (*core.FraudWarning, error)
}

// Ingester is the slice of the service layer the coordinator needs
type Ingester interface {
	Ingest(w *core.FraudWarning) (*core.FraudWarning, error)
}

// Options configures a Coordinator. Injected explicitly rather than read
// from process-wide state.
type Options struct {
	// Interval between pulls
	Interval time.Duration
	// BatchSize is how many warnings each pull requests
	BatchSize int
	// FetchRate caps upstream fetches per second; zero means no cap
	FetchRate float64
}

// Coordinator merges the source's newest warnings into the store on a
// schedule. Merge is by id: anything already in the store is skipped, so
// the store stays the source of truth for mutable state. The feed index
// caps how many of the merged warnings stay visible.
type Coordinator struct {
	source   Source
	ingester Ingester
	feed     *storage.FeedIndex
	opts     Options
	limiter  *rate.Limiter
	logger   *zap.SugaredLogger

	mu      sync.Mutex
	stopCh  chan struct{}
	wg      sync.WaitGroup
	started bool
}

// NewCoordinator creates a stopped coordinator
func NewCoordinator(source Source, ingester Ingester, feed *storage.FeedIndex, opts Options, logger *zap.SugaredLogger) *Coordinator {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 5
	}

	var limiter *rate.Limiter
	if opts.FetchRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.FetchRate), 1)
	}

	return &Coordinator{
		source:   source,
		ingester: ingester,
		feed:     feed,
		opts:     opts,
		limiter:  limiter,
		logger:   logger,
	}
}

// Start launches the polling loop. Calling Start on a running
// coordinator is a no-op.
func (c *Coordinator) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return
	}
	c.started = true
	c.stopCh = make(chan struct{})
	c.wg.Add(1)
	go c.run(c.stopCh)
	c.logger.Infof("Refresh coordinator started (interval=%s batch=%d)", c.opts.Interval, c.opts.BatchSize)
}

// Stop halts the schedule and waits for the loop to exit. Once Stop
// returns, no further merge can land: the loop re-checks the stop channel
// after the fetch and before the merge commits, so an in-flight cycle
// either completed before Stop observed it or is abandoned.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return
	}
	c.started = false
	close(c.stopCh)
	c.mu.Unlock()

	c.wg.Wait()
	c.logger.Info("Refresh coordinator stopped")
}

func (c *Coordinator) run(stopCh chan struct{}) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cycle(stopCh)
		case <-stopCh:
			return
		}
	}
}

// cycle performs one fetch-and-merge pass. Fetch failures skip the cycle
// and never terminate the schedule.
func (c *Coordinator) cycle(stopCh chan struct{}) {
	if c.limiter != nil && !c.limiter.Allow() {
		metrics.RefreshCycles.WithLabelValues("throttled").Inc()
		c.logger.Debug("Refresh cycle throttled by fetch rate limit")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.opts.Interval)
	defer cancel()

	batch, err := c.source.FetchWarnings(ctx, FetchOptions{
		Limit:     c.opts.BatchSize,
		SortBy:    "createdAt",
		SortOrder: "desc",
	})
	if err != nil {
		metrics.RefreshCycles.WithLabelValues("fetch_failed").Inc()
		c.logger.Warnf("Refresh fetch failed, skipping cycle: %v", err)
		return
	}

	// Cancellation barrier: a stop requested while the fetch was in
	// flight must not let this merge commit.
	select {
	case <-stopCh:
		return
	default:
	}

	c.Merge(batch)
	metrics.RefreshCycles.WithLabelValues("ok").Inc()
}

// Merge folds a fetched batch into the store. Duplicate ids are expected
// skips; fresh warnings enter the feed view, which may evict older ids to
// stay within its cap. Returns the number of newly inserted warnings.
func (c *Coordinator) Merge(batch []*core.FraudWarning) int {
	inserted := 0
	for _, w := range batch {
		if w == nil {
			continue
		}
		if _, err := c.ingester.Ingest(w); err != nil {
			if errors.Is(err, storage.ErrDuplicateWarning) {
				continue
			}
			c.logger.Warnf("Dropping warning %s from merge: %v", w.ID, err)
			continue
		}
		inserted++

		evicted := c.feed.Add(w.ID, w.TimestampOfEvent)
		if len(evicted) > 0 {
			metrics.FeedEvictions.Add(float64(len(evicted)))
			c.logger.Debugf("Feed view evicted %d warning(s) beyond cap", len(evicted))
		}
	}

	if inserted > 0 {
		c.logger.Infof("Refresh merged %d new warning(s) of %d fetched", inserted, len(batch))
	}
	return inserted
}

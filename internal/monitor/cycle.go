// Package monitor runs the collection cycle: fetch all four feeds, persist
// whatever came back, and hand the fresh history to the change detector.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/jonboulle/clockwork"

	"github.com/mossburn/hk-conditions-monitor/internal/domain"
	"github.com/mossburn/hk-conditions-monitor/internal/feed"
	"github.com/mossburn/hk-conditions-monitor/internal/observability"
)

// Recorder is the slice of the store the cycle writes to and reads back.
type Recorder interface {
	Append(rec domain.Record) error
	Snapshot() (domain.Snapshot, error)
}

// ChangeDetector compares the newest history rows and emits alerts. The
// orchestrator only cares that it ran; delivery is the detector's problem.
type ChangeDetector interface {
	Run(ctx context.Context) (int, error)
}

// Sources names the payload origin for each feed.
type Sources struct {
	Warnings feed.Source
	Rain     feed.Source
	AQHI     feed.Source
	Traffic  feed.Source
}

// Targets selects which district, station, and region the rain, AQHI, and
// traffic collectors report on.
type Targets struct {
	RainDistrict  string
	AQHIStation   string
	TrafficRegion string
}

// Monitor orchestrates one collection cycle end to end. Collectors run
// concurrently since the feeds are independent, but the monitor is the only
// writer to the store, so appends happen serially on the cycle goroutine.
type Monitor struct {
	collector *feed.Collector
	store     Recorder
	detector  ChangeDetector // nil when change detection is disabled
	sources   Sources
	targets   Targets
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock

	ready atomic.Bool
}

// New creates a Monitor. Pass a nil detector to collect and persist without
// change detection.
func New(collector *feed.Collector, store Recorder, detector ChangeDetector, sources Sources, targets Targets, logger *slog.Logger, metrics *observability.Metrics) *Monitor {
	return &Monitor{
		collector: collector,
		store:     store,
		detector:  detector,
		sources:   sources,
		targets:   targets,
		logger:    logger,
		metrics:   metrics,
		clock:     clockwork.NewRealClock(),
	}
}

// SetClock swaps the cycle's time source, for tests.
func (m *Monitor) SetClock(c clockwork.Clock) {
	m.clock = c
}

// RunCycle collects all four feeds, appends every record that survived
// collection, runs change detection, and returns the resulting snapshot.
// Collector failures never fail the cycle: a feed that produced nothing is
// simply absent this round. Store and detector errors do fail it, since they
// mean the history itself is broken.
func (m *Monitor) RunCycle(ctx context.Context) (domain.Snapshot, error) {
	start := m.clock.Now()
	defer func() {
		m.metrics.CycleDuration.Observe(m.clock.Since(start).Seconds())
	}()

	records := m.collect(ctx)

	appended := 0
	var appendErrs []error
	for _, rec := range records {
		if err := m.store.Append(rec); err != nil {
			appendErrs = append(appendErrs, err)
			continue
		}
		m.metrics.RecordsAppended.WithLabelValues(string(rec.Stream())).Inc()
		appended++
	}
	if len(appendErrs) > 0 {
		m.metrics.CycleErrors.Inc()
		return domain.Snapshot{}, fmt.Errorf("append records: %w", errors.Join(appendErrs...))
	}

	alerts := 0
	if m.detector != nil {
		n, err := m.detector.Run(ctx)
		if err != nil {
			m.metrics.CycleErrors.Inc()
			return domain.Snapshot{}, fmt.Errorf("change detection: %w", err)
		}
		alerts = n
	}

	snap, err := m.store.Snapshot()
	if err != nil {
		m.metrics.CycleErrors.Inc()
		return domain.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}

	m.ready.Store(true)
	m.logger.Info("cycle complete",
		"collected", len(records), "appended", appended, "alerts", alerts,
		"duration", m.clock.Since(start))
	return snap, nil
}

// collect fans the four collectors out concurrently and gathers the non-nil
// results. Order across streams is irrelevant; each stream yields at most one
// record per cycle.
func (m *Monitor) collect(ctx context.Context) []domain.Record {
	results := make(chan domain.Record, len(domain.Streams()))

	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		if rec := m.collector.CollectWarning(ctx, m.sources.Warnings); rec != nil {
			results <- rec
		}
	}()
	go func() {
		defer wg.Done()
		if rec := m.collector.CollectRain(ctx, m.sources.Rain, m.targets.RainDistrict); rec != nil {
			results <- rec
		}
	}()
	go func() {
		defer wg.Done()
		if rec := m.collector.CollectAQHI(ctx, m.sources.AQHI, m.targets.AQHIStation); rec != nil {
			results <- rec
		}
	}()
	go func() {
		defer wg.Done()
		if rec := m.collector.CollectTraffic(ctx, m.sources.Traffic, m.targets.TrafficRegion); rec != nil {
			results <- rec
		}
	}()
	wg.Wait()
	close(results)

	var records []domain.Record
	for rec := range results {
		records = append(records, rec)
	}
	return records
}

// CheckReadiness reports whether at least one cycle has completed since start.
func (m *Monitor) CheckReadiness(ctx context.Context) error {
	if !m.ready.Load() {
		return errors.New("no collection cycle has completed yet")
	}
	return nil
}

package monitor_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mossburn/hk-conditions-monitor/internal/alert"
	"github.com/mossburn/hk-conditions-monitor/internal/domain"
	"github.com/mossburn/hk-conditions-monitor/internal/feed"
	"github.com/mossburn/hk-conditions-monitor/internal/fixtures"
	"github.com/mossburn/hk-conditions-monitor/internal/monitor"
	"github.com/mossburn/hk-conditions-monitor/internal/observability"
	"github.com/mossburn/hk-conditions-monitor/internal/store"
)

func testSources(t *testing.T) monitor.Sources {
	t.Helper()
	dir := t.TempDir()
	write := func(feedName string) string {
		path := filepath.Join(dir, feedName+".json")
		require.NoError(t, os.WriteFile(path, fixtures.MustPayload(feedName), 0o644))
		return path
	}
	return monitor.Sources{
		Warnings: feed.Source{Feed: "warnings", MockPath: write("warnings")},
		Rain:     feed.Source{Feed: "rainfall", MockPath: write("rainfall")},
		AQHI:     feed.Source{Feed: "aqhi", MockPath: write("aqhi")},
		Traffic:  feed.Source{Feed: "traffic", MockPath: write("traffic")},
	}
}

func testTargets() monitor.Targets {
	return monitor.Targets{
		RainDistrict:  "Central & Western",
		AQHIStation:   "Central/Western",
		TrafficRegion: "Hong Kong Island",
	}
}

func newTestMonitor(t *testing.T, st monitor.Recorder, det monitor.ChangeDetector, sources monitor.Sources) *monitor.Monitor {
	t.Helper()
	client := feed.NewClient(2*time.Second, slog.Default())
	cache := feed.NewCache(t.TempDir())
	opts := feed.Options{Retries: 1, BaseDelay: time.Millisecond, UseMock: true}
	collector := feed.NewCollector(client, cache, opts, slog.Default(), observability.NewMetricsForTesting())
	return monitor.New(collector, st, det, sources, testTargets(), slog.Default(), observability.NewMetricsForTesting())
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "monitor.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestRunCycle_AllFeedsPersisted(t *testing.T) {
	st := openStore(t)
	m := newTestMonitor(t, st, nil, testSources(t))

	snap, err := m.RunCycle(context.Background())
	require.NoError(t, err)

	require.NotNil(t, snap.Warnings)
	require.NotNil(t, snap.Rain)
	require.NotNil(t, snap.AQHI)
	require.NotNil(t, snap.Traffic)
	assert.Equal(t, "TC8", snap.Warnings.Level)
	assert.Equal(t, "17.5 mm (Red Rain)", snap.Rain.Intensity)
	assert.Equal(t, "Moderate", snap.AQHI.Risk)
	assert.Equal(t, "Serious", snap.Traffic.Severity)
}

func TestRunCycle_MissingFeedSkipped(t *testing.T) {
	st := openStore(t)
	sources := testSources(t)
	sources.AQHI.MockPath = filepath.Join(t.TempDir(), "nope.json")
	m := newTestMonitor(t, st, nil, sources)

	snap, err := m.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Nil(t, snap.AQHI)
	assert.NotNil(t, snap.Warnings)
	assert.NotNil(t, snap.Rain)
	assert.NotNil(t, snap.Traffic)
}

func TestRunCycle_DetectorAlertsOnSecondCycle(t *testing.T) {
	st := openStore(t)
	sink := &captureNotifier{}
	det := alert.NewDetector(st, []alert.Notifier{sink}, slog.Default(), observability.NewMetricsForTesting())
	sources := testSources(t)
	m := newTestMonitor(t, st, det, sources)

	_, err := m.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sink.messages, "single record per stream, nothing to compare")

	// Warning drops from TC8 to None on the next cycle.
	cleared := []byte(`{"details": [], "updateTime": "2024-05-01T12:45:00+08:00"}`)
	require.NoError(t, os.WriteFile(sources.Warnings.MockPath, cleared, 0o644))

	_, err = m.RunCycle(context.Background())
	require.NoError(t, err)

	require.Len(t, sink.messages, 1)
	assert.Equal(t, domain.StreamWarnings, sink.messages[0].Stream)
	assert.Equal(t, "TC8", sink.messages[0].Previous)
	assert.Equal(t, "None", sink.messages[0].Current)
}

func TestRunCycle_AppendErrorFailsCycle(t *testing.T) {
	m := newTestMonitor(t, &failingRecorder{}, nil, testSources(t))

	_, err := m.RunCycle(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "append records")
}

func TestRunCycle_DetectorErrorFailsCycle(t *testing.T) {
	st := openStore(t)
	m := newTestMonitor(t, st, stubDetector{err: errors.New("history unreadable")}, testSources(t))

	_, err := m.RunCycle(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "change detection")
}

func TestCheckReadiness(t *testing.T) {
	st := openStore(t)
	m := newTestMonitor(t, st, nil, testSources(t))

	require.Error(t, m.CheckReadiness(context.Background()))

	_, err := m.RunCycle(context.Background())
	require.NoError(t, err)

	assert.NoError(t, m.CheckReadiness(context.Background()))
}

type captureNotifier struct {
	messages []alert.Message
}

func (c *captureNotifier) Name() string { return "capture" }

func (c *captureNotifier) Notify(_ context.Context, msg alert.Message) error {
	c.messages = append(c.messages, msg)
	return nil
}

type failingRecorder struct{}

func (failingRecorder) Append(domain.Record) error { return errors.New("disk full") }

func (failingRecorder) Snapshot() (domain.Snapshot, error) {
	return domain.Snapshot{}, errors.New("disk full")
}

type stubDetector struct {
	err error
}

func (s stubDetector) Run(context.Context) (int, error) { return 0, s.err }

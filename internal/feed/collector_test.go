package feed_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mossburn/hk-conditions-monitor/internal/domain"
	"github.com/mossburn/hk-conditions-monitor/internal/feed"
	"github.com/mossburn/hk-conditions-monitor/internal/fixtures"
	"github.com/mossburn/hk-conditions-monitor/internal/observability"
)

func newTestCollector(t *testing.T, useMock bool) (*feed.Collector, string) {
	t.Helper()
	cacheDir := t.TempDir()
	client := feed.NewClient(2*time.Second, slog.Default())
	cache := feed.NewCache(cacheDir)
	opts := feed.Options{Retries: 3, BaseDelay: time.Millisecond, UseMock: useMock}
	return feed.NewCollector(client, cache, opts, slog.Default(), observability.NewMetricsForTesting()), cacheDir
}

func writeMock(t *testing.T, name string, payload []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name+".json")
	require.NoError(t, os.WriteFile(path, payload, 0o644))
	return path
}

func TestCollectWarning_Mock(t *testing.T) {
	c, _ := newTestCollector(t, true)
	src := feed.Source{Feed: "warnings", MockPath: writeMock(t, "warnings", fixtures.MustPayload("warnings"))}

	rec := c.CollectWarning(context.Background(), src)

	require.NotNil(t, rec)
	assert.Equal(t, "TC8", rec.Level)
	assert.Contains(t, rec.Message, "Typhoon signal 8")
	assert.False(t, rec.Observed.IsZero())
}

func TestCollectWarning_NoWarningsInForce(t *testing.T) {
	c, _ := newTestCollector(t, true)
	payload := []byte(`{"details": [], "updateTime": "2024-05-01T11:45:00+08:00"}`)
	src := feed.Source{Feed: "warnings", MockPath: writeMock(t, "warnings", payload)}

	rec := c.CollectWarning(context.Background(), src)

	require.NotNil(t, rec)
	assert.Equal(t, "None", rec.Level)
	assert.Equal(t, "No weather warnings in force.", rec.Message)
}

func TestCollectWarning_AlternateContainerKey(t *testing.T) {
	c, _ := newTestCollector(t, true)
	payload := []byte(`{"warning": [{"warningSignal": "WRAIN", "message": "Rainstorm warning."}]}`)
	src := feed.Source{Feed: "warnings", MockPath: writeMock(t, "warnings", payload)}

	rec := c.CollectWarning(context.Background(), src)

	require.NotNil(t, rec)
	assert.Equal(t, "WRAIN", rec.Level)
	assert.Equal(t, "Rainstorm warning.", rec.Message)
}

func TestCollectWarning_MalformedPayload(t *testing.T) {
	c, _ := newTestCollector(t, true)
	src := feed.Source{Feed: "warnings", MockPath: writeMock(t, "warnings", []byte("{not json"))}

	assert.Nil(t, c.CollectWarning(context.Background(), src))
}

func TestCollectWarning_MissingMockFile(t *testing.T) {
	c, _ := newTestCollector(t, true)
	src := feed.Source{Feed: "warnings", MockPath: filepath.Join(t.TempDir(), "nope.json")}

	assert.Nil(t, c.CollectWarning(context.Background(), src))
}

func TestCollectRain_Mock(t *testing.T) {
	c, _ := newTestCollector(t, true)
	src := feed.Source{Feed: "rainfall", MockPath: writeMock(t, "rainfall", fixtures.MustPayload("rainfall"))}

	// The fixture says "Central & Western District"; the configured target
	// omits the suffix and must still match.
	rec := c.CollectRain(context.Background(), src, "Central & Western")

	require.NotNil(t, rec)
	assert.Equal(t, "Central & Western District", rec.District)
	assert.Equal(t, "17.5 mm (Red Rain)", rec.Intensity)
}

func TestCollectRain_StringValue(t *testing.T) {
	c, _ := newTestCollector(t, true)
	src := feed.Source{Feed: "rainfall", MockPath: writeMock(t, "rainfall", fixtures.MustPayload("rainfall"))}

	rec := c.CollectRain(context.Background(), src, "Sham Shui Po")

	require.NotNil(t, rec)
	assert.Equal(t, "2.0 mm (Showers)", rec.Intensity)
}

func TestCollectRain_TopLevelArray(t *testing.T) {
	c, _ := newTestCollector(t, true)
	payload := []byte(`[{"place": "Kwun Tong", "value": "garbage", "recordTime": "2024-05-01T11:45:00+08:00"}]`)
	src := feed.Source{Feed: "rainfall", MockPath: writeMock(t, "rainfall", payload)}

	rec := c.CollectRain(context.Background(), src, "Kwun Tong")

	require.NotNil(t, rec)
	// Unparsable numeric degrades to 0.0, not a failure.
	assert.Equal(t, "0.0 mm (Dry)", rec.Intensity)
}

func TestCollectRain_SelectionMiss(t *testing.T) {
	c, _ := newTestCollector(t, true)
	src := feed.Source{Feed: "rainfall", MockPath: writeMock(t, "rainfall", fixtures.MustPayload("rainfall"))}

	assert.Nil(t, c.CollectRain(context.Background(), src, "Atlantis"))
}

func TestCollectAQHI_Mock(t *testing.T) {
	c, _ := newTestCollector(t, true)
	src := feed.Source{Feed: "aqhi", MockPath: writeMock(t, "aqhi", fixtures.MustPayload("aqhi"))}

	rec := c.CollectAQHI(context.Background(), src, "Central/Western")

	require.NotNil(t, rec)
	assert.Equal(t, "Central/Western", rec.Station)
	assert.Equal(t, "Moderate", rec.Risk)
	assert.Equal(t, 3.1, rec.Value)
}

func TestCollectAQHI_DerivesCategoryWhenMissing(t *testing.T) {
	c, _ := newTestCollector(t, true)
	src := feed.Source{Feed: "aqhi", MockPath: writeMock(t, "aqhi", fixtures.MustPayload("aqhi"))}

	// Tap Mun has no health_risk field; the band comes from the value.
	rec := c.CollectAQHI(context.Background(), src, "Tap Mun")

	require.NotNil(t, rec)
	assert.Equal(t, "Low", rec.Risk)
	assert.Equal(t, 2.0, rec.Value)
}

func TestCollectAQHI_NestedContainerKey(t *testing.T) {
	c, _ := newTestCollector(t, true)
	payload := []byte(`{"data": [{"station": "Causeway Bay", "index": 10.2}]}`)
	src := feed.Source{Feed: "aqhi", MockPath: writeMock(t, "aqhi", payload)}

	rec := c.CollectAQHI(context.Background(), src, "Causeway Bay")

	require.NotNil(t, rec)
	assert.Equal(t, "Serious", rec.Risk)
}

func TestCollectAQHI_StationMiss(t *testing.T) {
	c, _ := newTestCollector(t, true)
	src := feed.Source{Feed: "aqhi", MockPath: writeMock(t, "aqhi", fixtures.MustPayload("aqhi"))}

	assert.Nil(t, c.CollectAQHI(context.Background(), src, "Nowhere"))
}

func TestCollectTraffic_RegionFuzzyMatch(t *testing.T) {
	c, _ := newTestCollector(t, true)
	src := feed.Source{Feed: "traffic", MockPath: writeMock(t, "traffic", fixtures.MustPayload("traffic"))}

	// The fixture's region reads "Hong  Kong Island" with a double space and
	// mixed-case severity; matching must tolerate both.
	rec := c.CollectTraffic(context.Background(), src, "hong kong island")

	require.NotNil(t, rec)
	assert.Equal(t, "Serious", rec.Severity)
	assert.Contains(t, rec.Detail, "Gloucester Road")
}

func TestCollectTraffic_EmptyTargetTakesFirst(t *testing.T) {
	c, _ := newTestCollector(t, true)
	src := feed.Source{Feed: "traffic", MockPath: writeMock(t, "traffic", fixtures.MustPayload("traffic"))}

	rec := c.CollectTraffic(context.Background(), src, "")

	require.NotNil(t, rec)
	assert.Contains(t, rec.Detail, "Nathan Road")
}

func TestCollectTraffic_NoMatchFallsBackToFirst(t *testing.T) {
	c, _ := newTestCollector(t, true)
	src := feed.Source{Feed: "traffic", MockPath: writeMock(t, "traffic", fixtures.MustPayload("traffic"))}

	rec := c.CollectTraffic(context.Background(), src, "Lantau")

	require.NotNil(t, rec)
	assert.Equal(t, "Slow Traffic", rec.Severity)
}

func TestCollectTraffic_LiveXML(t *testing.T) {
	xmlBody := `<?xml version="1.0" encoding="UTF-8"?>
<list>
  <message>
    <INCIDENT_NUMBER>20240501-0012</INCIDENT_NUMBER>
    <INCIDENT_HEADING_EN>Serious Accident</INCIDENT_HEADING_EN>
    <INCIDENT_DETAIL_EN>Accident on Island Eastern Corridor westbound.</INCIDENT_DETAIL_EN>
    <LOCATION_EN>Island Eastern Corridor</LOCATION_EN>
    <DIRECTION_EN>Westbound</DIRECTION_EN>
    <DISTRICT_EN>Hong Kong Island</DISTRICT_EN>
    <ANNOUNCEMENT_DATE>2024-05-01 11:50</ANNOUNCEMENT_DATE>
    <INCIDENT_STATUS_EN>NEW</INCIDENT_STATUS_EN>
  </message>
  <message>
    <INCIDENT_HEADING_EN>Slow Traffic</INCIDENT_HEADING_EN>
    <CONTENT_EN>Slow traffic on Lung Cheung Road.</CONTENT_EN>
    <DISTRICT_EN>Kowloon</DISTRICT_EN>
    <ANNOUNCEMENT_DATE>2024-05-01 11:30</ANNOUNCEMENT_DATE>
  </message>
</list>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write([]byte(xmlBody))
	}))
	defer srv.Close()

	c, _ := newTestCollector(t, false)
	src := feed.Source{Feed: "traffic", URL: srv.URL}

	rec := c.CollectTraffic(context.Background(), src, "Kowloon")

	require.NotNil(t, rec)
	assert.Equal(t, "Slow Traffic", rec.Severity)
	assert.Equal(t, "Slow traffic on Lung Cheung Road.", rec.Detail)
	assert.Equal(t, time.Date(2024, 5, 1, 11, 30, 0, 0, time.UTC), rec.Observed)
}

func TestLiveFetchWritesCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(fixtures.MustPayload("warnings"))
	}))
	defer srv.Close()

	c, cacheDir := newTestCollector(t, false)
	src := feed.Source{Feed: "warnings", URL: srv.URL}

	rec := c.CollectWarning(context.Background(), src)

	require.NotNil(t, rec)
	assert.Equal(t, "TC8", rec.Level)

	cached, err := os.ReadFile(filepath.Join(cacheDir, "warnings.raw"))
	require.NoError(t, err)
	assert.Equal(t, fixtures.MustPayload("warnings"), cached)
}

func TestOutageFallsBackToCache(t *testing.T) {
	var attempts atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cacheDir := t.TempDir()
	cache := feed.NewCache(cacheDir)
	require.NoError(t, cache.Write("warnings", fixtures.MustPayload("warnings")))

	client := feed.NewClient(2*time.Second, slog.Default())
	opts := feed.Options{Retries: 3, BaseDelay: time.Millisecond}
	c := feed.NewCollector(client, cache, opts, slog.Default(), observability.NewMetricsForTesting())

	src := feed.Source{Feed: "warnings", URL: srv.URL}
	rec := c.CollectWarning(context.Background(), src)

	require.NotNil(t, rec, "cached payload must produce a record after retry exhaustion")
	assert.Equal(t, "TC8", rec.Level)
	assert.Equal(t, int64(3), attempts.Load(), "fetch must use the full retry budget")
}

func TestOutageWithoutCacheReturnsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, _ := newTestCollector(t, false)
	src := feed.Source{Feed: "warnings", URL: srv.URL}

	assert.Nil(t, c.CollectWarning(context.Background(), src))
}

func TestMockModeIdempotent(t *testing.T) {
	frozen := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(frozen))
	defer domain.SetClock(nil)

	c, _ := newTestCollector(t, true)
	src := feed.Source{Feed: "aqhi", MockPath: writeMock(t, "aqhi", fixtures.MustPayload("aqhi"))}

	first := c.CollectAQHI(context.Background(), src, "Central/Western")
	second := c.CollectAQHI(context.Background(), src, "Central/Western")

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, *first, *second)
}

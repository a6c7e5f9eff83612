package feed

import (
	"context"

	"github.com/mossburn/hk-conditions-monitor/internal/domain"
)

// CollectAQHI produces an AQHI record for the configured station, or nil when
// the station is absent from the payload.
func (c *Collector) CollectAQHI(ctx context.Context, src Source, station string) *domain.AQHIRecord {
	raw, ok := c.payload(ctx, src)
	if !ok {
		return nil
	}

	payload, ok := decodeJSON(raw)
	if !ok {
		c.logger.Warn("malformed aqhi payload", "feed", src.Feed)
		return nil
	}

	entries := entryList(payload, "aqhi", "data")
	var entry map[string]any
	for _, e := range entries {
		if stringField(e, "station") == station {
			entry = e
			break
		}
	}
	if entry == nil {
		return nil
	}

	value := domain.FloatOrZero(anyField(entry, "aqhi", "value", "index"))

	risk := stringField(entry, "health_risk", "category")
	if risk == "" {
		risk = domain.AQHICategory(value)
	}

	updated := stringField(entry, "time", "publish_date", "updateTime")
	if updated == "" {
		if m, isMap := payload.(map[string]any); isMap {
			updated = stringField(m, "publishDate", "updateTime")
		}
	}

	name := stringField(entry, "station")
	if name == "" {
		name = station
	}

	return &domain.AQHIRecord{
		Station:  name,
		Risk:     risk,
		Value:    value,
		Observed: domain.ParseTimestamp(updated),
	}
}

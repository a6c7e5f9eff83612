package feed

import (
	"context"
	"fmt"

	"github.com/mossburn/hk-conditions-monitor/internal/domain"
)

// CollectRain produces a rainfall record for the configured district, or nil
// when the district has no reading this cycle.
func (c *Collector) CollectRain(ctx context.Context, src Source, district string) *domain.RainRecord {
	raw, ok := c.payload(ctx, src)
	if !ok {
		return nil
	}

	payload, ok := decodeJSON(raw)
	if !ok {
		c.logger.Warn("malformed rainfall payload", "feed", src.Feed)
		return nil
	}

	entries := entryList(payload, "data", "rainfall.data")
	entry := pickRainEntry(entries, district)
	if entry == nil {
		return nil
	}

	value := domain.FloatOrZero(anyField(entry, "max", "value", "mm"))
	intensity := fmt.Sprintf("%.1f mm (%s)", value, domain.RainCategory(value))

	place := stringField(entry, "place")
	if place == "" {
		place = district
	}

	updated := stringField(entry, "recordTime", "time")
	if updated == "" {
		if m, isMap := payload.(map[string]any); isMap {
			updated = stringField(m, "updateTime")
		}
	}

	return &domain.RainRecord{
		District:  place,
		Intensity: intensity,
		Observed:  domain.ParseTimestamp(updated),
	}
}

// pickRainEntry matches the configured district exactly first, then falls
// back to the normalized form so "Sham Shui Po District" and "sham shui po"
// select the same row.
func pickRainEntry(entries []map[string]any, district string) map[string]any {
	for _, entry := range entries {
		if stringField(entry, "place") == district {
			return entry
		}
	}

	target := domain.NormalizeDistrict(district)
	if target == "" {
		return nil
	}
	for _, entry := range entries {
		if domain.NormalizeDistrict(stringField(entry, "place")) == target {
			return entry
		}
	}
	return nil
}

package feed

import (
	"context"

	"github.com/mossburn/hk-conditions-monitor/internal/domain"
)

// CollectWarning produces the current severe weather warning record, or nil
// when no usable payload is available this cycle. An explicitly empty warning
// list yields a synthetic "None" record so a cancelled signal still registers
// as a category change downstream.
func (c *Collector) CollectWarning(ctx context.Context, src Source) *domain.WarningRecord {
	raw, ok := c.payload(ctx, src)
	if !ok {
		return nil
	}

	payload, ok := decodeJSON(raw)
	if !ok {
		c.logger.Warn("malformed warning payload", "feed", src.Feed)
		return nil
	}
	m, ok := payload.(map[string]any)
	if !ok {
		return nil
	}

	feedTime := stringField(m, "updateTime", "issueTime")
	entries := entryList(m, "details", "warning", "data")
	if len(entries) == 0 {
		return &domain.WarningRecord{
			Level:    "None",
			Message:  "No weather warnings in force.",
			Observed: domain.ParseTimestamp(feedTime),
		}
	}

	entry := entries[0]
	level := stringField(entry,
		"warningStatementCode", "warningMessageCode", "warningSignal", "warningType", "level")
	if level == "" {
		level = "Unknown"
	}
	message := stringField(entry, "warningMessage", "message", "description")
	if message == "" {
		message = "Weather warning in effect."
	}
	updated := stringField(entry, "updateTime", "issueTime")
	if updated == "" {
		updated = feedTime
	}

	return &domain.WarningRecord{
		Level:    level,
		Message:  message,
		Observed: domain.ParseTimestamp(updated),
	}
}

// Package alert decides whether conditions changed between consecutive
// readings and routes the resulting messages to notification sinks.
package alert

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mossburn/hk-conditions-monitor/internal/domain"
	"github.com/mossburn/hk-conditions-monitor/internal/observability"
)

// HistoryReader is the slice of the store the detector needs.
type HistoryReader interface {
	LatestTwo(stream domain.Stream) ([]domain.Record, error)
}

// Notifier delivers one formatted alert. Concrete sinks (console, Telegram,
// Kafka) live alongside the detector but the detector knows nothing about
// delivery.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, msg Message) error
}

// Detector compares the two newest records per stream and emits an alert when
// the category label differs. Comparison is exact string equality: a value
// that moves within the same band never alerts.
type Detector struct {
	history   HistoryReader
	notifiers []Notifier
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewDetector creates a Detector fanning out to the given sinks.
func NewDetector(history HistoryReader, notifiers []Notifier, logger *slog.Logger, metrics *observability.Metrics) *Detector {
	return &Detector{
		history:   history,
		notifiers: notifiers,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run checks all four streams and returns the number of alerts emitted.
// Streams with fewer than two records are skipped. Store errors propagate:
// they indicate the history itself is unreadable, which fails the cycle.
// Sink delivery errors do not fail the run; delivery is at-least-once across
// cycles, not exactly-once.
func (d *Detector) Run(ctx context.Context) (int, error) {
	emitted := 0

	for _, stream := range domain.Streams() {
		rows, err := d.history.LatestTwo(stream)
		if err != nil {
			return emitted, fmt.Errorf("read latest two for %s: %w", stream, err)
		}
		if len(rows) < 2 {
			continue
		}

		newer, older := rows[0], rows[1]
		if newer.Category() == older.Category() {
			continue
		}

		msg := Message{
			Stream:      stream,
			Previous:    older.Category(),
			Current:     newer.Category(),
			Description: newer.Description(),
		}
		d.logger.Info("category change detected",
			"stream", stream, "previous", msg.Previous, "current", msg.Current)
		d.metrics.AlertsEmitted.WithLabelValues(string(stream)).Inc()
		emitted++

		for _, n := range d.notifiers {
			if err := n.Notify(ctx, msg); err != nil {
				d.logger.Warn("alert delivery failed", "sink", n.Name(), "stream", stream, "error", err)
				d.metrics.NotifyErrors.WithLabelValues(n.Name()).Inc()
			}
		}
	}
	return emitted, nil
}

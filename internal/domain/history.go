package domain

// AQHIHistorySummary aggregates the most recent AQHI readings for one
// station, newest first in Readings.
type AQHIHistorySummary struct {
	Station      string       `json:"station"`
	Count        int          `json:"count"`
	Min          float64      `json:"min"`
	Max          float64      `json:"max"`
	Mean         float64      `json:"mean"`
	LatestChange float64      `json:"latest_change"`
	Readings     []AQHIRecord `json:"readings"`
}

// SummarizeAQHIHistory computes range, mean, and the latest step change over
// a slice of AQHI readings ordered newest first. Returns a zero-count summary
// for empty input.
func SummarizeAQHIHistory(readings []AQHIRecord) AQHIHistorySummary {
	if len(readings) == 0 {
		return AQHIHistorySummary{}
	}

	summary := AQHIHistorySummary{
		Station:  readings[0].Station,
		Count:    len(readings),
		Min:      readings[0].Value,
		Max:      readings[0].Value,
		Readings: readings,
	}

	var sum float64
	for _, r := range readings {
		if r.Value < summary.Min {
			summary.Min = r.Value
		}
		if r.Value > summary.Max {
			summary.Max = r.Value
		}
		sum += r.Value
	}
	summary.Mean = sum / float64(len(readings))

	if len(readings) >= 2 {
		summary.LatestChange = readings[0].Value - readings[1].Value
	}
	return summary
}

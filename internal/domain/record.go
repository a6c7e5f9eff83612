package domain

import (
	"fmt"
	"time"
)

// Stream identifies one of the four persisted record histories.
type Stream string

const (
	StreamWarnings Stream = "warnings"
	StreamRain     Stream = "rain"
	StreamAQHI     Stream = "aqhi"
	StreamTraffic  Stream = "traffic"
)

// Streams returns all streams in their canonical order.
func Streams() []Stream {
	return []Stream{StreamWarnings, StreamRain, StreamAQHI, StreamTraffic}
}

// Record is one normalized reading from a feed. Records are immutable once
// created; the store assigns ordering, not the record itself.
type Record interface {
	Stream() Stream
	// Category is the qualitative label compared across consecutive records
	// to decide whether conditions changed.
	Category() string
	// Description is the human-readable body used in alert messages.
	Description() string
	ObservedAt() time.Time
}

// WarningRecord is a severe weather warning from the HK Observatory.
type WarningRecord struct {
	Level    string    `json:"level"`
	Message  string    `json:"message"`
	Observed time.Time `json:"observed_at"`
}

func (r WarningRecord) Stream() Stream        { return StreamWarnings }
func (r WarningRecord) Category() string      { return r.Level }
func (r WarningRecord) Description() string   { return r.Message }
func (r WarningRecord) ObservedAt() time.Time { return r.Observed }

// RainRecord is a rainfall reading for the configured district. Intensity
// embeds both the measured millimetres and the derived band, e.g.
// "17.5 mm (Red Rain)".
type RainRecord struct {
	District  string    `json:"district"`
	Intensity string    `json:"intensity"`
	Observed  time.Time `json:"observed_at"`
}

func (r RainRecord) Stream() Stream        { return StreamRain }
func (r RainRecord) Category() string      { return r.Intensity }
func (r RainRecord) Description() string   { return r.District + ": " + r.Intensity }
func (r RainRecord) ObservedAt() time.Time { return r.Observed }

// AQHIRecord is an Air Quality Health Index reading for one station.
type AQHIRecord struct {
	Station  string    `json:"station"`
	Risk     string    `json:"category"`
	Value    float64   `json:"value"`
	Observed time.Time `json:"observed_at"`
}

func (r AQHIRecord) Stream() Stream   { return StreamAQHI }
func (r AQHIRecord) Category() string { return r.Risk }
func (r AQHIRecord) Description() string {
	return fmt.Sprintf("%s AQHI %.1f", r.Station, r.Value)
}
func (r AQHIRecord) ObservedAt() time.Time { return r.Observed }

// TrafficRecord describes the most relevant traffic incident for the
// configured region.
type TrafficRecord struct {
	Severity string    `json:"severity"`
	Detail   string    `json:"description"`
	Observed time.Time `json:"observed_at"`
}

func (r TrafficRecord) Stream() Stream        { return StreamTraffic }
func (r TrafficRecord) Category() string      { return r.Severity }
func (r TrafficRecord) Description() string   { return r.Detail }
func (r TrafficRecord) ObservedAt() time.Time { return r.Observed }

// Snapshot holds the latest record per stream. Nil entries mean the stream
// has no history yet.
type Snapshot struct {
	Warnings *WarningRecord `json:"warnings"`
	Rain     *RainRecord    `json:"rain"`
	AQHI     *AQHIRecord    `json:"aqhi"`
	Traffic  *TrafficRecord `json:"traffic"`
}

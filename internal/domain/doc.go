// Package domain models the Hong Kong public conditions feeds.
//
// # Data Sources
//
// Four open feeds published by HK government bodies:
//
//	Warnings: HK Observatory warning summary (warnsum), JSON.
//	Rainfall: HK Observatory current weather report (rhrread), JSON.
//	AQHI:     EPD per-station Air Quality Health Index, JSON.
//	Traffic:  Transport Department special traffic news, XML.
//
// # Feed Conventions
//
// Container keys vary by provider version. Each feed nests its entry list
// under a different, inconsistently named key:
//
//	Warnings: "details", "warning", or "data"
//	Rainfall: "data" or nested {"rainfall":{"data":[...]}}, sometimes a bare array
//	AQHI:     bare array, "aqhi", or "data"
//	Traffic:  "trafficnews", "incidents", "messages", or "data"
//
// Collectors probe these keys in order and take the first that yields a list.
//
// Numeric fields may arrive as JSON numbers, quoted strings, or garbage;
// unparsable values are treated as 0.0. See [FloatOrZero].
//
// Upstream timestamps come in a handful of ISO-ish layouts; anything that
// fails all of them falls back to ingestion wall-clock time so observed_at is
// never zero. See [ParseTimestamp].
//
// # Category Banding
//
// When a feed omits a qualitative label, one is derived from the numeric
// value:
//
//	Rain (mm):  ≥30 Black Rain | ≥15 Red Rain | ≥5 Amber Rain | ≥1 Showers | else Dry
//	AQHI:       ≥10 Serious | ≥7 Very High | ≥4 High | ≥3 Moderate | else Low
//
// Warnings keep the upstream signal code (TC3, TC8, ...) or "Unknown";
// traffic incidents keep the upstream heading or "Info".
//
// The category string is the only field the change detector compares, so two
// readings inside the same band never raise an alert even when the numeric
// value moved.
package domain

package feed

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/mossburn/hk-conditions-monitor/internal/domain"
)

// CollectTraffic produces a record for the incident best matching the
// configured region, or nil when no incidents are available this cycle.
func (c *Collector) CollectTraffic(ctx context.Context, src Source, region string) *domain.TrafficRecord {
	raw, ok := c.payload(ctx, src)
	if !ok {
		return nil
	}

	entries := trafficEntries(raw)
	if entries == nil {
		c.logger.Warn("malformed traffic payload", "feed", src.Feed)
		return nil
	}

	entry := pickTrafficEntry(entries, region)
	if entry == nil {
		return nil
	}

	severity := stringField(entry, "severity", "category", "status")
	if severity == "" {
		severity = "Info"
	}
	description := stringField(entry, "content", "description", "summary")
	if description == "" {
		description = "Traffic update"
	}
	updated := stringField(entry, "update_time", "updateTime")

	return &domain.TrafficRecord{
		Severity: titleCase(severity),
		Detail:   strings.TrimSpace(description),
		Observed: domain.ParseTimestamp(updated),
	}
}

// trafficEntries accepts both payload encodings: the live endpoint serves
// XML, while mock fixtures and some mirrors serve JSON. Returns nil when
// neither parses.
func trafficEntries(raw []byte) []map[string]any {
	if payload, ok := decodeJSON(raw); ok {
		return entryList(payload, "trafficnews", "incidents", "messages", "data")
	}
	entries, err := parseTrafficXML(raw)
	if err != nil {
		return nil
	}
	return entries
}

// parseTrafficXML walks the special-traffic-news document and flattens each
// <message> element's children into a field map. Element names are
// lowercased so provider casing changes don't break the mapping.
func parseTrafficXML(raw []byte) ([]map[string]any, error) {
	decoder := xml.NewDecoder(bytes.NewReader(raw))
	decoder.Strict = false

	entries := []map[string]any{}
	var fields map[string]string
	var currentTag string

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := strings.ToLower(t.Name.Local)
			if name == "message" {
				fields = make(map[string]string)
				currentTag = ""
			} else if fields != nil {
				currentTag = name
			}
		case xml.CharData:
			if fields != nil && currentTag != "" {
				fields[currentTag] += string(t)
			}
		case xml.EndElement:
			name := strings.ToLower(t.Name.Local)
			if name == "message" && fields != nil {
				entries = append(entries, remapTrafficFields(fields))
				fields = nil
			} else if name == currentTag {
				currentTag = ""
			}
		}
	}
	return entries, nil
}

// remapTrafficFields translates Transport Department element names into the
// canonical incident keys shared with the JSON encoding.
func remapTrafficFields(fields map[string]string) map[string]any {
	get := func(keys ...string) string {
		for _, k := range keys {
			if v := strings.TrimSpace(fields[k]); v != "" {
				return v
			}
		}
		return ""
	}
	return map[string]any{
		"region":      get("district_en", "region"),
		"severity":    get("incident_heading_en", "severity"),
		"content":     get("content_en", "incident_detail_en"),
		"update_time": get("announcement_date", "update_time"),
		"location":    get("location_en"),
		"direction":   get("direction_en"),
		"description": get("incident_detail_en"),
		"status":      get("incident_status_en"),
	}
}

// pickTrafficEntry selects the incident whose region, location, direction, or
// text contains the target substring, case-insensitive. An empty target or no
// match falls back to the first incident.
func pickTrafficEntry(entries []map[string]any, region string) map[string]any {
	if len(entries) == 0 {
		return nil
	}

	needle := squashSpace(region)
	if needle == "" {
		return entries[0]
	}

	for _, entry := range entries {
		joined := squashSpace(strings.Join([]string{
			stringField(entry, "region"),
			stringField(entry, "location"),
			stringField(entry, "direction"),
			stringField(entry, "content"),
			stringField(entry, "description"),
		}, " "))
		if strings.Contains(joined, needle) {
			return entry
		}
	}
	return entries[0]
}

// squashSpace lowercases and collapses runs of whitespace so matching
// tolerates sloppy upstream formatting.
func squashSpace(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// titleCase uppercases the first letter of each word, mirroring how the
// upstream headings are displayed.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

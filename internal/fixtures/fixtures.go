// Package fixtures bundles one offline payload per feed, shaped like the
// real HK endpoints. Mock mode and the test suites read these instead of the
// network; cmd/genfixtures writes them to disk.
package fixtures

import (
	"embed"
	"fmt"
)

//go:embed data/*.json
var data embed.FS

// Feeds lists the feed names with a bundled payload.
func Feeds() []string {
	return []string{"warnings", "rainfall", "aqhi", "traffic"}
}

// Payload returns the bundled raw payload for a feed.
func Payload(feed string) ([]byte, error) {
	raw, err := data.ReadFile(fmt.Sprintf("data/%s.json", feed))
	if err != nil {
		return nil, fmt.Errorf("no fixture for feed %q: %w", feed, err)
	}
	return raw, nil
}

// MustPayload is Payload for test setup; it panics on unknown feeds.
func MustPayload(feed string) []byte {
	raw, err := Payload(feed)
	if err != nil {
		panic(err)
	}
	return raw
}

// Command genfixtures writes the bundled feed payloads to disk so mock mode
// has files to read. Run it once before starting the monitor with
// USE_MOCK_DATA=true.
//
// Usage:
//
//	go run ./cmd/genfixtures -out data/mock
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/mossburn/hk-conditions-monitor/internal/fixtures"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/mock", "directory to write mock payloads into")
	flag.Parse()

	if err := os.MkdirAll(*out, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	for _, feed := range fixtures.Feeds() {
		payload, err := fixtures.Payload(feed)
		if err != nil {
			return err
		}
		path := filepath.Join(*out, feed+".json")
		if err := os.WriteFile(path, payload, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Printf("wrote %s (%d bytes)\n", path, len(payload))
	}
	return nil
}

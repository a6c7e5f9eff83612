package alert

import (
	"fmt"
	"strings"

	"github.com/mossburn/hk-conditions-monitor/internal/domain"
)

// Message is one category-change alert ready for delivery.
type Message struct {
	Stream      domain.Stream `json:"stream"`
	Previous    string        `json:"previous"`
	Current     string        `json:"current"`
	Description string        `json:"description"`
}

// Format renders the canonical alert text shared by all sinks.
func (m Message) Format() string {
	header := fmt.Sprintf("[%s] %s -> %s", strings.ToUpper(string(m.Stream)), m.Previous, m.Current)
	return header + "\n" + m.Description
}

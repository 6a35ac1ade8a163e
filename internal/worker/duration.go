package worker

import (
	"strings"
	"time"
)

// defaultServiceDuration is assumed when the service descriptor names no
// recognizable duration.
const defaultServiceDuration = 60 * time.Minute

// durationKeywords map descriptor fragments to service lengths. Longest
// matches are listed first so "90 min" doesn't resolve via "0 min".
var durationKeywords = []struct {
	fragment string
	length   time.Duration
}{
	{"120 min", 120 * time.Minute},
	{"2 hour", 120 * time.Minute},
	{"two hour", 120 * time.Minute},
	{"90 min", 90 * time.Minute},
	{"1.5 hour", 90 * time.Minute},
	{"ninety", 90 * time.Minute},
	{"60 min", 60 * time.Minute},
	{"1 hour", 60 * time.Minute},
	{"one hour", 60 * time.Minute},
	{"45 min", 45 * time.Minute},
	{"30 min", 30 * time.Minute},
	{"half hour", 30 * time.Minute},
}

// parseServiceDuration guesses the service length from the free-text
// descriptor ("90 min deep tissue" -> 90m). Heuristic by design.
func parseServiceDuration(serviceType string) time.Duration {
	descriptor := strings.ToLower(serviceType)
	for _, kw := range durationKeywords {
		if strings.Contains(descriptor, kw.fragment) {
			return kw.length
		}
	}
	return defaultServiceDuration
}

package day

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseClock parses "HH:MM" (or "H:MM") into minutes after midnight.
// Anything malformed reports ok=false so the owning factor can treat the
// field as absent.
func ParseClock(s string) (int, bool) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 || len(parts[1]) != 2 {
		return 0, false
	}
	return h*60 + m, true
}

// FormatClock renders minutes after midnight as HH:MM, wrapping past 24h.
func FormatClock(minutes int) string {
	minutes = ((minutes % 1440) + 1440) % 1440
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

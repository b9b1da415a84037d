// Package hours decides whether a deal category's human-readable time
// window (for example "11:00 PM to 3:00 AM") covers a given moment.
package hours

import (
	"strings"
	"time"
)

// ActiveAt reports whether now falls inside the window. Windows are
// "<start> to <end>" in 12-hour clock form and may cross midnight. An
// empty window, the "all day" marker, or anything unparseable counts as
// always active, matching the permissive read-time behavior of the
// storefront.
func ActiveAt(window string, now time.Time) bool {
	window = strings.TrimSpace(window)
	if window == "" || strings.EqualFold(window, "all day") {
		return true
	}

	parts := strings.SplitN(window, " to ", 2)
	if len(parts) != 2 {
		return true
	}

	start, okStart := parseClock(parts[0])
	end, okEnd := parseClock(parts[1])
	if !okStart || !okEnd {
		return true
	}

	minutes := now.Hour()*60 + now.Minute()

	if start <= end {
		return minutes >= start && minutes < end
	}
	// Crosses midnight: active from start until midnight, and from
	// midnight until end.
	return minutes >= start || minutes < end
}

// parseClock converts "3:00 AM" or "11:30 pm" to minutes since midnight.
func parseClock(s string) (int, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))

	for _, layout := range []string{"3:04 PM", "3 PM", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour()*60 + t.Minute(), true
		}
	}
	return 0, false
}

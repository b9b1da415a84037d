package hours

import (
	"testing"
	"time"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 14, hour, minute, 0, 0, time.UTC)
}

func TestActiveAt(t *testing.T) {
	cases := []struct {
		name   string
		window string
		now    time.Time
		want   bool
	}{
		{"midnight crossing, inside after midnight", "11:00 PM to 3:00 AM", at(1, 0), true},
		{"midnight crossing, inside before midnight", "11:00 PM to 3:00 AM", at(23, 30), true},
		{"midnight crossing, outside", "11:00 PM to 3:00 AM", at(12, 0), false},
		{"day window, inside", "11:00 AM to 3:00 PM", at(13, 0), true},
		{"day window, after close", "11:00 AM to 3:00 PM", at(16, 0), false},
		{"day window, at open", "11:00 AM to 3:00 PM", at(11, 0), true},
		{"day window, at close", "11:00 AM to 3:00 PM", at(15, 0), false},
		{"all day marker", "All Day", at(4, 0), true},
		{"empty window", "", at(4, 0), true},
		{"lowercase all day", "all day", at(4, 0), true},
		{"unparseable", "whenever we feel like it", at(4, 0), true},
		{"missing separator", "11:00 AM", at(4, 0), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ActiveAt(tc.window, tc.now); got != tc.want {
				t.Errorf("ActiveAt(%q, %s) = %v, want %v", tc.window, tc.now.Format("15:04"), got, tc.want)
			}
		})
	}
}

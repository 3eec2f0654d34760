package window

import (
	"testing"
	"time"
)

func at(hour, min int) time.Time {
	return time.Date(2024, 3, 14, hour, min, 0, 0, time.UTC)
}

func TestIsOpen(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		now        time.Time
		want       bool
	}{
		{"inside plain window", "09:00", "17:00", at(12, 30), true},
		{"at start", "09:00", "17:00", at(9, 0), true},
		{"at end is closed", "09:00", "17:00", at(17, 0), false},
		{"before start", "09:00", "17:00", at(8, 59), false},
		{"wrap open before midnight", "22:00", "02:00", at(23, 30), true},
		{"wrap open after midnight", "22:00", "02:00", at(1, 0), true},
		{"wrap closed midday", "22:00", "02:00", at(10, 0), false},
		{"wrap closed at end", "22:00", "02:00", at(2, 0), false},
		{"zero-length window never opens", "08:00", "08:00", at(8, 0), false},
		{"malformed start", "8am", "17:00", at(12, 0), false},
		{"malformed end", "09:00", "", at(12, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsOpen(tt.start, tt.end, tt.now); got != tt.want {
				t.Errorf("IsOpen(%q, %q, %s) = %v, want %v", tt.start, tt.end, tt.now, got, tt.want)
			}
		})
	}
}

func TestEndOn(t *testing.T) {
	day := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)

	got := EndOn(day, "09:00", "17:00")
	want := time.Date(2024, 3, 14, 17, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("EndOn plain = %s, want %s", got, want)
	}

	got = EndOn(day, "22:00", "02:00")
	want = time.Date(2024, 3, 15, 2, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("EndOn wrapped = %s, want %s", got, want)
	}
}

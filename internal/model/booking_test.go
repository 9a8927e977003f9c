package model

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBookingOverlaps(t *testing.T) {
	b := &Booking{From: date(2026, 1, 1), To: date(2026, 1, 5)}

	tests := []struct {
		name     string
		from, to time.Time
		expected bool
	}{
		{"identical range", date(2026, 1, 1), date(2026, 1, 5), true},
		{"contained", date(2026, 1, 2), date(2026, 1, 3), true},
		{"containing", date(2025, 12, 1), date(2026, 2, 1), true},
		{"partial tail", date(2026, 1, 3), date(2026, 1, 10), true},
		{"partial head", date(2025, 12, 30), date(2026, 1, 2), true},
		// Inclusive bounds: touching a single day counts as overlap.
		{"touching end", date(2026, 1, 5), date(2026, 1, 10), true},
		{"touching start", date(2025, 12, 20), date(2026, 1, 1), true},
		{"after", date(2026, 1, 6), date(2026, 1, 10), false},
		{"before", date(2025, 12, 20), date(2025, 12, 31), false},
	}

	for _, tt := range tests {
		if got := b.Overlaps(tt.from, tt.to); got != tt.expected {
			t.Errorf("%s: Overlaps(%v, %v) = %v, want %v", tt.name, tt.from, tt.to, got, tt.expected)
		}
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{StatusPending, StatusPlanned, StatusOngoing, StatusFinished, StatusRejected} {
		if !ValidStatus(s) {
			t.Errorf("ValidStatus(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"", "active", "deleted", "PLANNED"} {
		if ValidStatus(s) {
			t.Errorf("ValidStatus(%q) = true, want false", s)
		}
	}
}

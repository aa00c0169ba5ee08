package chat

import (
	"testing"
	"time"
)

// testNow pins "now" to a Wednesday so relative dates are deterministic.
var testNow = time.Date(2025, time.March, 5, 10, 30, 0, 0, time.UTC)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"2025-03-10", "2025-03-10", true},
		{"today", "2025-03-05", true},
		{"Tomorrow", "2025-03-06", true},
		{"day after tomorrow", "2025-03-07", true},
		{"in 3 days", "2025-03-08", true},
		{"monday", "2025-03-10", true},
		{"next monday", "2025-03-10", true},
		{"wednesday", "2025-03-12", true}, // same weekday rolls a week forward
		{"March 10, 2025", "2025-03-10", true},
		{"10 March 2025", "2025-03-10", true},
		{"03/10/2025", "2025-03-10", true},
		{"sometime soon", "sometime soon", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := NormalizeDate(tt.raw, testNow)
			if got != tt.want || ok != tt.ok {
				t.Errorf("NormalizeDate(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestNormalizeTime(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"3:00 PM", "15:00", true},
		{"15:00", "15:00", true},
		{"3pm", "15:00", true},
		{"3 pm", "15:00", true},
		{"12am", "00:00", true},
		{"12pm", "12:00", true},
		{"9:15am", "09:15", true},
		{"noon", "12:00", true},
		{"midnight", "00:00", true},
		{"18", "18:00", true},  // already a 24-hour value
		{"3", "15:00", true},   // bare 1-7 reads as afternoon
		{"9", "09:00", true},
		{"afternoonish", "afternoonish", false},
		{"25:00", "25:00", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := NormalizeTime(tt.raw)
			if got != tt.want || ok != tt.ok {
				t.Errorf("NormalizeTime(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestIsCanonical(t *testing.T) {
	if !IsCanonicalDate("2025-03-10") {
		t.Error("expected 2025-03-10 to be canonical")
	}
	if IsCanonicalDate("tomorrow") || IsCanonicalDate("2025-13-40") {
		t.Error("expected non-dates to be rejected")
	}
	if !IsCanonicalTime("09:30") {
		t.Error("expected 09:30 to be canonical")
	}
	if IsCanonicalTime("3pm") || IsCanonicalTime("24:00") {
		t.Error("expected non-canonical times to be rejected")
	}
}

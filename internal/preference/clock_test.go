package preference

import (
	"testing"
	"time"
)

func TestTimeOfDayFor(t *testing.T) {
	tests := []struct {
		hour     int
		expected string
	}{
		{0, "breakfast"},
		{7, "breakfast"},
		{9, "breakfast"},
		{10, "lunch"},
		{14, "lunch"},
		{15, "snack"},
		{17, "snack"},
		{18, "dinner"},
		{23, "dinner"},
	}

	for _, tt := range tests {
		ts := time.Date(2026, 5, 1, tt.hour, 0, 0, 0, time.UTC)
		if got := TimeOfDayFor(ts); got != tt.expected {
			t.Errorf("hour %d: expected %s, got %s", tt.hour, tt.expected, got)
		}
	}
}

func TestSeasonFor(t *testing.T) {
	tests := []struct {
		month    time.Month
		expected string
	}{
		{time.January, "winter"},
		{time.February, "winter"},
		{time.March, "spring"},
		{time.May, "spring"},
		{time.June, "summer"},
		{time.August, "summer"},
		{time.September, "fall"},
		{time.November, "fall"},
		{time.December, "winter"},
	}

	for _, tt := range tests {
		ts := time.Date(2026, tt.month, 15, 12, 0, 0, 0, time.UTC)
		if got := SeasonFor(ts); got != tt.expected {
			t.Errorf("%s: expected %s, got %s", tt.month, tt.expected, got)
		}
	}
}

func TestDaylight(t *testing.T) {
	// Helsinki in midsummer: bright at noon, dark at midnight
	lat, lon := 60.17, 24.94
	noon := time.Date(2026, 6, 21, 12, 0, 0, 0, time.UTC)
	midnight := time.Date(2026, 12, 21, 0, 0, 0, 0, time.UTC)

	if !Daylight(noon, lat, lon) {
		t.Error("expected daylight at midsummer noon")
	}
	if Daylight(midnight, lat, lon) {
		t.Error("expected darkness at midwinter midnight")
	}
}

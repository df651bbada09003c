package usage

import (
	"testing"
	"time"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in     string
		want   Period
		wantOK bool
	}{
		{"", PeriodDay, true},
		{"day", PeriodDay, true},
		{"month", PeriodMonth, true},
		{"total", "", false},
		{"DAY", "", false},
	}
	for _, tt := range tests {
		got, ok := ParsePeriod(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParsePeriod(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestBudget_Exhausted(t *testing.T) {
	tests := []struct {
		name string
		b    Budget
		want bool
	}{
		{"unlimited", Budget{Limit: 0, Used: 500, Remaining: -1}, false},
		{"has room", Budget{Limit: 1000, Used: 400, Remaining: 600}, false},
		{"at limit", Budget{Limit: 1000, Used: 1000, Remaining: 0}, true},
		{"over limit", Budget{Limit: 1000, Used: 1200, Remaining: 0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.b.Exhausted(); got != tt.want {
				t.Errorf("Exhausted() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPeriod_Window(t *testing.T) {
	at := time.Date(2026, 12, 31, 23, 30, 0, 0, time.FixedZone("UTC-2", -2*3600))

	start, end := PeriodDay.Window(at)
	if !start.Equal(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)) || !end.Equal(time.Date(2027, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("day window = %v - %v", start, end)
	}
	start, end = PeriodMonth.Window(at)
	if !start.Equal(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)) || !end.Equal(time.Date(2027, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("month window = %v - %v", start, end)
	}
	if s, _ := Period("week").Window(at); !s.Equal(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unknown period start = %v", s)
	}
}

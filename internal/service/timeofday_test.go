package service

import "testing"

func TestParseTimeOfDay(t *testing.T) {
	t.Parallel()

	cases := []struct {
		value   string
		minutes int
		wantErr bool
	}{
		{value: "00:00", minutes: 0},
		{value: "09:05", minutes: 545},
		{value: "23:59", minutes: 1439},
		{value: " 08:30 ", minutes: 510},
		{value: "24:00", wantErr: true},
		{value: "12:60", wantErr: true},
		{value: "12", wantErr: true},
		{value: "ab:cd", wantErr: true},
		{value: "", wantErr: true},
	}
	for _, tc := range cases {
		got, err := parseTimeOfDay(tc.value)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseTimeOfDay(%q): expected error, got %d", tc.value, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseTimeOfDay(%q): %v", tc.value, err)
			continue
		}
		if got != tc.minutes {
			t.Errorf("parseTimeOfDay(%q) = %d, want %d", tc.value, got, tc.minutes)
		}
	}
}

func TestMinutesApartWrapsMidnight(t *testing.T) {
	t.Parallel()

	cases := []struct {
		a, b, want int
	}{
		{a: 23*60 + 50, b: 5, want: 15},
		{a: 5, b: 23*60 + 50, want: 15},
		{a: 9 * 60, b: 9 * 60, want: 0},
		{a: 0, b: 12 * 60, want: 720},
		{a: 8*60 + 35, b: 9 * 60, want: 25},
	}
	for _, tc := range cases {
		if got := minutesApart(tc.a, tc.b); got != tc.want {
			t.Errorf("minutesApart(%d, %d) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestInWindow(t *testing.T) {
	t.Parallel()

	mustParse := func(value string) int {
		minutes, err := parseTimeOfDay(value)
		if err != nil {
			t.Fatalf("parse %q: %v", value, err)
		}
		return minutes
	}

	cases := []struct {
		now, start, end string
		want            bool
	}{
		// Window spanning midnight.
		{now: "23:00", start: "22:00", end: "06:00", want: true},
		{now: "02:00", start: "22:00", end: "06:00", want: true},
		{now: "12:00", start: "22:00", end: "06:00", want: false},
		// Same-day window.
		{now: "23:00", start: "08:00", end: "20:00", want: false},
		{now: "12:00", start: "08:00", end: "20:00", want: true},
		{now: "08:00", start: "08:00", end: "20:00", want: true},
		{now: "20:00", start: "08:00", end: "20:00", want: true},
	}
	for _, tc := range cases {
		got := inWindow(mustParse(tc.now), mustParse(tc.start), mustParse(tc.end))
		if got != tc.want {
			t.Errorf("inWindow(%s in %s-%s) = %v, want %v", tc.now, tc.start, tc.end, got, tc.want)
		}
	}
}

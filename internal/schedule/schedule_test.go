package schedule

import (
	"testing"
	"time"
)

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd string
		want                       bool
	}{
		{"disjoint", "09:00", "10:00", "10:00", "11:00", false}, // touching ends are free
		{"contained", "09:00", "11:00", "09:30", "10:00", true},
		{"partial", "09:30", "10:30", "10:00", "11:00", true},
		{"identical", "09:00", "10:00", "09:00", "10:00", true},
		{"before", "08:00", "09:00", "09:30", "10:00", false},
		{"seconds_ignored", "09:00:00", "10:00:00", "10:00", "11:00", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Overlaps(c.aStart, c.aEnd, c.bStart, c.bEnd); got != c.want {
				t.Fatalf("Overlaps(%s-%s, %s-%s) = %v, want %v",
					c.aStart, c.aEnd, c.bStart, c.bEnd, got, c.want)
			}
		})
	}
}

func TestChanged(t *testing.T) {
	d := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

	if Changed(d, d, "09:00", "09:00", "10:00", "10:00", "A", "A") {
		t.Fatal("identical schedule reported as changed")
	}
	if !Changed(d, d.AddDate(0, 0, 1), "09:00", "09:00", "10:00", "10:00", "A", "A") {
		t.Fatal("date change not detected")
	}
	if !Changed(d, d, "09:00", "09:30", "10:00", "10:00", "A", "A") {
		t.Fatal("start change not detected")
	}
	if !Changed(d, d, "09:00", "09:00", "10:00", "10:00", "A", "B") {
		t.Fatal("room change not detected")
	}
	// Same instant at second precision is not a change.
	if Changed(d, d, "09:00:00", "09:00", "10:00", "10:00:00", "A", "A") {
		t.Fatal("second-precision noise reported as change")
	}
	// Trailing space in the room is normalization, not a move.
	if Changed(d, d, "09:00", "09:00", "10:00", "10:00", "A", "A ") {
		t.Fatal("room whitespace reported as change")
	}
}

func TestValidSpan(t *testing.T) {
	if !ValidSpan("09:00", "10:00") {
		t.Fatal("well-ordered span rejected")
	}
	if ValidSpan("10:00", "09:00") {
		t.Fatal("inverted span accepted")
	}
	if ValidSpan("09:00", "09:00") {
		t.Fatal("empty span accepted")
	}
	if ValidSpan("9:00", "10:00") {
		t.Fatal("unpadded hour accepted")
	}
}

package timewindow

import (
	"testing"
	"time"
)

func at(hour, minute int) time.Time {
	return time.Date(2025, 1, 1, hour, minute, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name                   string
		aStart, aEnd           time.Time
		bStart, bEnd           time.Time
		expected               bool
	}{
		{
			name:   "fully contained",
			aStart: at(18, 0), aEnd: at(20, 0),
			bStart: at(18, 30), bEnd: at(19, 30),
			expected: true,
		},
		{
			name:   "partial overlap",
			aStart: at(18, 0), aEnd: at(20, 0),
			bStart: at(19, 0), bEnd: at(21, 0),
			expected: true,
		},
		{
			name:   "identical windows",
			aStart: at(18, 0), aEnd: at(20, 0),
			bStart: at(18, 0), bEnd: at(20, 0),
			expected: true,
		},
		{
			name:   "touching boundary does not conflict",
			aStart: at(18, 0), aEnd: at(20, 0),
			bStart: at(20, 0), bEnd: at(22, 0),
			expected: false,
		},
		{
			name:   "touching boundary reversed",
			aStart: at(20, 0), aEnd: at(22, 0),
			bStart: at(18, 0), bEnd: at(20, 0),
			expected: false,
		},
		{
			name:   "disjoint",
			aStart: at(10, 0), aEnd: at(12, 0),
			bStart: at(18, 0), bEnd: at(20, 0),
			expected: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Overlaps(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd)
			if got != tc.expected {
				t.Fatalf("Overlaps = %v, expected %v", got, tc.expected)
			}
			// Overlap is symmetric in its two windows.
			if mirrored := Overlaps(tc.bStart, tc.bEnd, tc.aStart, tc.aEnd); mirrored != got {
				t.Fatalf("Overlaps is not symmetric: %v vs %v", got, mirrored)
			}
		})
	}
}

func TestDeriveEnd(t *testing.T) {
	start := at(18, 0)

	if got := DeriveEnd(start, 90*time.Minute); !got.Equal(at(19, 30)) {
		t.Fatalf("DeriveEnd(90m) = %v", got)
	}
	if got := DeriveEnd(start, 0); !got.Equal(at(20, 0)) {
		t.Fatalf("DeriveEnd should fall back to the default duration, got %v", got)
	}
	if got := DeriveEnd(start, -time.Hour); !got.Equal(at(20, 0)) {
		t.Fatalf("DeriveEnd with negative duration should fall back, got %v", got)
	}
}

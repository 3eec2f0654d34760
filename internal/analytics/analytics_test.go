package analytics

import (
	"testing"
	"time"
)

func d(month, day int) time.Time {
	return time.Date(2024, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func TestHeatmapLevels(t *testing.T) {
	ref := d(1, 10)
	records := []Record{
		// day 10: 2 of 3 approved -> level 2
		{Day: d(1, 10), Approved: true},
		{Day: d(1, 10), Approved: true},
		{Day: d(1, 10), Approved: false},
		// day 9: 3 of 3 -> level 3
		{Day: d(1, 9), Approved: true},
		{Day: d(1, 9), Approved: true},
		{Day: d(1, 9), Approved: true},
		// day 8: 0 of 2 -> level 1
		{Day: d(1, 8), Approved: false},
		{Day: d(1, 8), Approved: false},
		// day 7: no records -> level 0
	}
	cells := Heatmap(records, ref, 4)
	if len(cells) != 4 {
		t.Fatalf("got %d cells, want 4", len(cells))
	}
	wantLevels := []int{0, 1, 3, 2}
	for i, want := range wantLevels {
		if cells[i].Level != want {
			t.Errorf("cell %s level = %d, want %d", cells[i].Day, cells[i].Level, want)
		}
	}
	if cells[0].Day != "2024-01-07" || cells[3].Day != "2024-01-10" {
		t.Errorf("window bounds = %s..%s, want 2024-01-07..2024-01-10", cells[0].Day, cells[3].Day)
	}
}

func TestHeatmapHalfExactlyIsLevelTwo(t *testing.T) {
	records := []Record{
		{Day: d(1, 5), Approved: true},
		{Day: d(1, 5), Approved: false},
	}
	cells := Heatmap(records, d(1, 5), 1)
	if cells[0].Level != 2 {
		t.Errorf("1 of 2 approved: level = %d, want 2", cells[0].Level)
	}
}

func TestWeeklyBuckets(t *testing.T) {
	records := []Record{
		{Day: d(1, 1), Approved: true},  // 2024-W01
		{Day: d(1, 2), Approved: false}, // 2024-W01
		{Day: d(1, 8), Approved: true},  // 2024-W02
	}
	got := Weekly(records)
	if len(got) != 2 {
		t.Fatalf("got %d buckets, want 2", len(got))
	}
	if got[0].Key != "2024-W01" || got[0].Rate != 50 || got[0].Total != 2 {
		t.Errorf("first bucket = %+v, want 2024-W01 rate 50 total 2", got[0])
	}
	if got[1].Key != "2024-W02" || got[1].Rate != 100 {
		t.Errorf("second bucket = %+v, want 2024-W02 rate 100", got[1])
	}
}

func TestMonthlyBucketsOmitEmptyAndRound(t *testing.T) {
	records := []Record{
		{Day: d(1, 1), Approved: true},
		{Day: d(1, 2), Approved: true},
		{Day: d(1, 3), Approved: false},
		{Day: d(3, 1), Approved: false},
	}
	got := Monthly(records)
	if len(got) != 2 {
		t.Fatalf("got %d buckets, want 2 (february omitted)", len(got))
	}
	if got[0].Key != "2024-01" || got[0].Rate != 67 {
		t.Errorf("january = %+v, want rate 67", got[0])
	}
	if got[1].Key != "2024-03" || got[1].Rate != 0 {
		t.Errorf("march = %+v, want rate 0", got[1])
	}
}

func TestAggregatesAreIdempotent(t *testing.T) {
	records := []Record{
		{Day: d(2, 1), Approved: true},
		{Day: d(2, 2), Approved: false},
	}
	a := Heatmap(records, d(2, 3), 5)
	b := Heatmap(records, d(2, 3), 5)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("heatmap not idempotent at %d: %+v vs %+v", i, a[i], b[i])
		}
	}
	wa, wb := Weekly(records), Weekly(records)
	for i := range wa {
		if wa[i] != wb[i] {
			t.Fatalf("weekly not idempotent at %d", i)
		}
	}
}

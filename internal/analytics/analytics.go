package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Record is the minimal view of an attendance record the aggregator needs.
type Record struct {
	Day      time.Time
	Approved bool
}

// HeatmapDay is one cell of the trailing-window heatmap.
// Level 0 = no records, 1 = below half approved, 2 = half or more, 3 = all.
type HeatmapDay struct {
	Day      string `json:"day"`
	Level    int    `json:"level"`
	Approved int    `json:"approved"`
	Total    int    `json:"total"`
}

// Bucket is an aggregate over an ISO week or a calendar month.
type Bucket struct {
	Key      string `json:"key"`
	Approved int    `json:"approved"`
	Total    int    `json:"total"`
	Rate     int    `json:"rate"`
}

// Heatmap buckets records into the trailing days window ending at ref,
// oldest day first. Every day in the window is present, including empties.
func Heatmap(records []Record, ref time.Time, days int) []HeatmapDay {
	if days <= 0 {
		return nil
	}
	type tally struct{ approved, total int }
	byDay := make(map[string]*tally)
	for _, r := range records {
		k := dateKey(r.Day)
		t, ok := byDay[k]
		if !ok {
			t = &tally{}
			byDay[k] = t
		}
		t.total++
		if r.Approved {
			t.approved++
		}
	}

	out := make([]HeatmapDay, 0, days)
	start := dateOnly(ref).AddDate(0, 0, -(days - 1))
	for i := 0; i < days; i++ {
		d := start.AddDate(0, 0, i)
		k := dateKey(d)
		cell := HeatmapDay{Day: k}
		if t, ok := byDay[k]; ok {
			cell.Approved = t.approved
			cell.Total = t.total
			cell.Level = levelFor(t.approved, t.total)
		}
		out = append(out, cell)
	}
	return out
}

func levelFor(approved, total int) int {
	switch {
	case total == 0:
		return 0
	case approved == total:
		return 3
	case float64(approved)/float64(total) >= 0.5:
		return 2
	default:
		return 1
	}
}

// Weekly groups records by ISO week, e.g. "2024-W05", ascending by key.
// Weeks with no records are omitted.
func Weekly(records []Record) []Bucket {
	return buckets(records, func(d time.Time) string {
		year, week := d.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	})
}

// Monthly groups records by calendar month, e.g. "2024-01", ascending by key.
// Months with no records are omitted.
func Monthly(records []Record) []Bucket {
	return buckets(records, func(d time.Time) string {
		return d.Format("2006-01")
	})
}

func buckets(records []Record, keyFn func(time.Time) string) []Bucket {
	byKey := make(map[string]*Bucket)
	for _, r := range records {
		k := keyFn(r.Day)
		b, ok := byKey[k]
		if !ok {
			b = &Bucket{Key: k}
			byKey[k] = b
		}
		b.Total++
		if r.Approved {
			b.Approved++
		}
	}
	out := make([]Bucket, 0, len(byKey))
	for _, b := range byKey {
		b.Rate = int(math.Round(float64(b.Approved) / float64(b.Total) * 100))
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

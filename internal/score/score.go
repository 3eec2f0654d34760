package score

import "time"

// Record statuses mirrored from the attendance package; duplicated here so
// the engine stays dependency-free and testable in isolation.
const (
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusMissed   = "missed"
)

// Event is one scored point in a user's history, already joined with the
// room window it was submitted against.
type Event struct {
	Day         time.Time
	Status      string
	SubmittedAt time.Time
	WindowEnd   time.Time
	NoteLength  int
}

// Weights holds the point values applied per event.
type Weights struct {
	Approved      int
	StreakBonus   int
	OnTimeBonus   int
	Missed        int
	Rejected      int
	Reflection    int
	ReflectionMin int
}

// DefaultWeights are the shipped point values.
var DefaultWeights = Weights{
	Approved:      10,
	StreakBonus:   2,
	OnTimeBonus:   3,
	Missed:        -15,
	Rejected:      -5,
	Reflection:    5,
	ReflectionMin: 20,
}

// Result is a bounded score with its derived level.
type Result struct {
	Score    int `json:"score"`
	Level    int `json:"level"`
	Progress int `json:"progress_to_next_level"`
}

// Compute folds events in chronological order into a running total. The
// total is clamped to max after every event so display values stay bounded;
// negative totals are kept as-is. Events must be sorted by Day ascending.
func Compute(events []Event, w Weights, max int) Result {
	total := 0
	run := 0
	var lastApproved time.Time
	for _, e := range events {
		day := dateOnly(e.Day)
		switch e.Status {
		case StatusApproved:
			switch {
			case !lastApproved.IsZero() && day.Equal(lastApproved):
				// another room approved the same day; the run holds
			case !lastApproved.IsZero() && day.Sub(lastApproved) == 24*time.Hour:
				run++
			default:
				run = 1
			}
			lastApproved = day
			total += w.Approved + w.StreakBonus*run
			if !e.SubmittedAt.IsZero() && e.SubmittedAt.Before(e.WindowEnd) {
				total += w.OnTimeBonus
			}
			if e.NoteLength >= w.ReflectionMin && w.ReflectionMin > 0 {
				total += w.Reflection
			}
		case StatusMissed:
			total += w.Missed
		case StatusRejected:
			total += w.Rejected
		}
		if max > 0 && total > max {
			total = max
		}
	}
	return Result{
		Score:    total,
		Level:    levelFor(total),
		Progress: progressFor(total),
	}
}

// levelFor uses floor division so negative scores map below level 1.
func levelFor(score int) int {
	q := score / 100
	if score < 0 && score%100 != 0 {
		q--
	}
	return q + 1
}

func progressFor(score int) int {
	p := score % 100
	if p < 0 {
		p += 100
	}
	return p
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

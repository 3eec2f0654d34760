package streak

import (
	"sort"
	"time"
)

// Streak summarizes runs of consecutive approved days.
type Streak struct {
	Current int `json:"current"`
	Best    int `json:"best"`
}

// Compute walks the approved days and measures consecutive-day runs.
// Current counts the most recent run only while it is still alive: its
// newest day must be today or yesterday, so a user whose window has not
// opened yet today is not punished mid-day.
func Compute(approved []time.Time, today time.Time) Streak {
	days := dedupeDays(approved)
	if len(days) == 0 {
		return Streak{}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	ref := dateOnly(today)
	var s Streak
	run := 1
	for i := 1; i <= len(days); i++ {
		if i < len(days) && days[i-1].Sub(days[i]) == 24*time.Hour {
			run++
			continue
		}
		if run > s.Best {
			s.Best = run
		}
		if i == run { // run anchored at the newest approved day
			gap := ref.Sub(days[0])
			if gap <= 24*time.Hour {
				s.Current = run
			}
		}
		run = 1
	}
	return s
}

func dedupeDays(ts []time.Time) []time.Time {
	seen := make(map[time.Time]bool, len(ts))
	out := make([]time.Time, 0, len(ts))
	for _, t := range ts {
		d := dateOnly(t)
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

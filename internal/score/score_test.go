package score

import (
	"testing"
	"time"
)

func day(n int) time.Time {
	return time.Date(2024, 1, n, 0, 0, 0, 0, time.UTC)
}

func approvedOn(n int) Event {
	return Event{
		Day:         day(n),
		Status:      StatusApproved,
		SubmittedAt: day(n).Add(10 * time.Hour),
		WindowEnd:   day(n).Add(9 * time.Hour), // after close, no on-time bonus
	}
}

func TestComputeEmptyHistory(t *testing.T) {
	got := Compute(nil, DefaultWeights, 1500)
	if got.Score != 0 || got.Level != 1 || got.Progress != 0 {
		t.Errorf("Compute(nil) = %+v, want score 0 level 1 progress 0", got)
	}
}

func TestComputeStreakBonusAccumulates(t *testing.T) {
	events := []Event{approvedOn(1), approvedOn(2), approvedOn(3)}
	// 10+2 + 10+4 + 10+6 = 42
	got := Compute(events, DefaultWeights, 1500)
	if got.Score != 42 {
		t.Errorf("score = %d, want 42", got.Score)
	}
}

func TestComputeSameDayEventsKeepStreak(t *testing.T) {
	// two rooms approved on each of three consecutive days
	var events []Event
	for n := 1; n <= 3; n++ {
		events = append(events, approvedOn(n), approvedOn(n))
	}
	w := Weights{Approved: 10, StreakBonus: 2}
	// runs 1,1,2,2,3,3: 60 + 2*12 = 84
	got := Compute(events, w, 1500)
	if got.Score != 84 {
		t.Errorf("score = %d, want 84", got.Score)
	}
}

func TestComputeStreakResetsAfterGap(t *testing.T) {
	events := []Event{approvedOn(1), approvedOn(2), approvedOn(5)}
	// 12 + 14 + 12 = 38
	got := Compute(events, DefaultWeights, 1500)
	if got.Score != 38 {
		t.Errorf("score = %d, want 38", got.Score)
	}
}

func TestComputeOnTimeAndReflection(t *testing.T) {
	e := Event{
		Day:         day(1),
		Status:      StatusApproved,
		SubmittedAt: day(1).Add(8 * time.Hour),
		WindowEnd:   day(1).Add(9 * time.Hour),
		NoteLength:  40,
	}
	// 10 + 2 + 3 + 5 = 20
	got := Compute([]Event{e}, DefaultWeights, 1500)
	if got.Score != 20 {
		t.Errorf("score = %d, want 20", got.Score)
	}
}

func TestComputePenalties(t *testing.T) {
	events := []Event{
		{Day: day(1), Status: StatusMissed},
		{Day: day(2), Status: StatusRejected},
	}
	got := Compute(events, DefaultWeights, 1500)
	if got.Score != -20 {
		t.Errorf("score = %d, want -20", got.Score)
	}
	if got.Level != 0 {
		t.Errorf("level = %d, want 0", got.Level)
	}
	if got.Progress != 80 {
		t.Errorf("progress = %d, want 80", got.Progress)
	}
}

func TestComputeNegativeLevelFloors(t *testing.T) {
	events := make([]Event, 10)
	for i := range events {
		events[i] = Event{Day: day(i + 1), Status: StatusMissed}
	}
	got := Compute(events, DefaultWeights, 1500) // -150
	if got.Score != -150 {
		t.Errorf("score = %d, want -150", got.Score)
	}
	if got.Level != -1 {
		t.Errorf("level = %d, want -1", got.Level)
	}
}

func TestComputeClampsRunningTotal(t *testing.T) {
	w := Weights{Approved: 100, StreakBonus: 0}
	events := make([]Event, 20)
	for i := range events {
		events[i] = Event{Day: day(i + 1), Status: StatusApproved}
	}
	got := Compute(events, w, 1500) // raw 2000
	if got.Score != 1500 {
		t.Errorf("score = %d, want clamped 1500", got.Score)
	}
	if got.Level != 16 {
		t.Errorf("level = %d, want 16", got.Level)
	}
	if got.Progress != 0 {
		t.Errorf("progress = %d, want 0", got.Progress)
	}
}

func TestComputeClampDoesNotHideLaterPenalties(t *testing.T) {
	w := Weights{Approved: 1600, Missed: -15}
	events := []Event{
		{Day: day(1), Status: StatusApproved},
		{Day: day(2), Status: StatusMissed},
	}
	got := Compute(events, w, 1500)
	if got.Score != 1485 {
		t.Errorf("score = %d, want 1485", got.Score)
	}
}

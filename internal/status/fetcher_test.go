package status

import (
	"context"
	"errors"
	"testing"
	"time"

	"habitroom/internal/attendance"
	"habitroom/internal/room"
)

func rooms(n int) []room.Room {
	out := make([]room.Room, n)
	for i := range out {
		out[i] = room.Room{ID: string(rune('a' + i))}
	}
	return out
}

func TestFetchAllIsolatesFailures(t *testing.T) {
	fetch := func(_ context.Context, rm room.Room, _ time.Time) (*attendance.TodayStatus, error) {
		if rm.ID == "b" {
			return nil, errors.New("boom")
		}
		return &attendance.TodayStatus{RoomID: rm.ID, Open: true}, nil
	}
	f := NewFetcher(fetch, time.Second)

	got := f.FetchAll(context.Background(), rooms(4), time.Now())
	if len(got) != 4 {
		t.Fatalf("got %d entries, want 4 (every room present)", len(got))
	}
	if got["b"] != nil {
		t.Errorf("failed room = %+v, want nil", got["b"])
	}
	for _, id := range []string{"a", "c", "d"} {
		if got[id] == nil || got[id].RoomID != id {
			t.Errorf("room %s = %+v, want status", id, got[id])
		}
	}
}

func TestFetchAllTimesOutSlowRoom(t *testing.T) {
	fetch := func(ctx context.Context, rm room.Room, _ time.Time) (*attendance.TodayStatus, error) {
		if rm.ID == "a" {
			select {
			case <-time.After(5 * time.Second):
				return &attendance.TodayStatus{RoomID: rm.ID}, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return &attendance.TodayStatus{RoomID: rm.ID}, nil
	}
	f := NewFetcher(fetch, 50*time.Millisecond)

	start := time.Now()
	got := f.FetchAll(context.Background(), rooms(3), time.Now())
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("batch took %s, slow room must not stall it", elapsed)
	}
	if got["a"] != nil {
		t.Errorf("slow room = %+v, want nil", got["a"])
	}
	if got["b"] == nil || got["c"] == nil {
		t.Error("fast rooms must still resolve")
	}
}

func TestFetchAllEmpty(t *testing.T) {
	f := NewFetcher(func(context.Context, room.Room, time.Time) (*attendance.TodayStatus, error) {
		return nil, nil
	}, time.Second)
	if got := f.FetchAll(context.Background(), nil, time.Now()); len(got) != 0 {
		t.Errorf("got %d entries, want 0", len(got))
	}
}

package status

import (
	"context"
	"sync"
	"time"

	"habitroom/internal/attendance"
	"habitroom/internal/room"
)

// Func resolves one room's current-day status.
type Func func(ctx context.Context, rm room.Room, now time.Time) (*attendance.TodayStatus, error)

// Fetcher fans a dashboard query out across rooms. Each room gets its own
// timeout so one slow backend cannot stall the batch, and a failed room
// resolves to a nil status rather than failing its siblings.
type Fetcher struct {
	fetch   Func
	timeout time.Duration
}

// NewFetcher creates a fetcher with a per-room timeout.
func NewFetcher(fetch Func, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Fetcher{fetch: fetch, timeout: timeout}
}

// FetchAll resolves every room concurrently. The returned map holds one
// entry per requested room id; failed or timed-out rooms map to nil.
func (f *Fetcher) FetchAll(ctx context.Context, rooms []room.Room, now time.Time) map[string]*attendance.TodayStatus {
	out := make(map[string]*attendance.TodayStatus, len(rooms))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, rm := range rooms {
		wg.Add(1)
		go func(rm room.Room) {
			defer wg.Done()
			roomCtx, cancel := context.WithTimeout(ctx, f.timeout)
			defer cancel()
			st, err := f.fetch(roomCtx, rm, now)
			if err != nil {
				st = nil
			}
			mu.Lock()
			out[rm.ID] = st
			mu.Unlock()
		}(rm)
	}
	wg.Wait()
	return out
}

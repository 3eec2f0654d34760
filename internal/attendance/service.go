package attendance

import (
	"context"
	"errors"
	"time"

	"habitroom/internal/room"
	"habitroom/internal/window"
)

// Store is the persistence surface the service needs. *Repository
// implements it; tests use an in-memory fake.
type Store interface {
	Get(ctx context.Context, roomID string, day time.Time) (*Record, error)
	Insert(ctx context.Context, rec Record) (Record, error)
	Resubmit(ctx context.Context, roomID string, day time.Time, proofRef, note string, now time.Time) (*Record, error)
	SetReviewed(ctx context.Context, roomID string, day time.Time, status, reviewerID string, reason *string, now time.Time) (*Record, error)
	InsertMissedRange(ctx context.Context, roomID string, from, to time.Time) error
	ListByRoom(ctx context.Context, roomID string, from, to time.Time) ([]Record, error)
	ListApprovedDays(ctx context.Context, roomID string) ([]time.Time, error)
}

// Service owns the attendance lifecycle: submission validation, admin
// review, and missed-day reconciliation. Derivations (streaks, scores,
// analytics) read through it but never write.
type Service struct {
	store    Store
	lookback int // days the reconciler backfills
}

// NewService creates a service backed by a store.
func NewService(store Store, lookbackDays int) *Service {
	if lookbackDays <= 0 {
		lookbackDays = 30
	}
	return &Service{store: store, lookback: lookbackDays}
}

// Submit validates and writes a proof submission for rm on day. A zero day
// means today. Past days are accepted only with the room's late-upload
// override; they overwrite a reconciled missed record in place.
func (s *Service) Submit(ctx context.Context, rm room.Room, day time.Time, proofRef, note string, now time.Time) (Record, error) {
	if proofRef == "" {
		return Record{}, errors.New("proof_ref required")
	}
	if !rm.HasAdmin() {
		return Record{}, ErrNoReviewer
	}
	if rm.IsPaused {
		return Record{}, ErrRoomPaused
	}

	today := DateOf(now)
	if day.IsZero() {
		day = today
	} else {
		day = DateOf(day)
	}
	switch {
	case day.After(today):
		return Record{}, ErrWindowClosed
	case day.Equal(today):
		if !window.IsOpen(rm.TimeStart, rm.TimeEnd, now) && !rm.AllowLateUpload {
			return Record{}, ErrWindowClosed
		}
	default: // a past day is always after close
		if !rm.AllowLateUpload {
			return Record{}, ErrWindowClosed
		}
	}

	// One retry: a lost race re-reads and goes through the overwrite path.
	for attempt := 0; attempt < 2; attempt++ {
		existing, err := s.store.Get(ctx, rm.ID, day)
		if err != nil {
			return Record{}, err
		}
		if existing == nil {
			rec, err := s.store.Insert(ctx, Record{
				RoomID:      rm.ID,
				Day:         day,
				Status:      StatusPending,
				ProofRef:    proofRef,
				Note:        note,
				SubmittedAt: &now,
			})
			if errors.Is(err, ErrConflict) {
				continue
			}
			return rec, err
		}
		if existing.Status == StatusApproved {
			return Record{}, ErrAlreadyApproved
		}
		rec, err := s.store.Resubmit(ctx, rm.ID, day, proofRef, note, now)
		if err != nil {
			return Record{}, err
		}
		if rec == nil {
			continue
		}
		return *rec, nil
	}
	return Record{}, ErrConflict
}

// Approve marks a pending record approved.
func (s *Service) Approve(ctx context.Context, rm room.Room, day time.Time, reviewerID string, now time.Time) (Record, error) {
	return s.review(ctx, rm, day, StatusApproved, reviewerID, nil, now)
}

// Reject marks a pending record rejected with an optional reason.
func (s *Service) Reject(ctx context.Context, rm room.Room, day time.Time, reviewerID, reason string, now time.Time) (Record, error) {
	var r *string
	if reason != "" {
		r = &reason
	}
	return s.review(ctx, rm, day, StatusRejected, reviewerID, r, now)
}

func (s *Service) review(ctx context.Context, rm room.Room, day time.Time, status, reviewerID string, reason *string, now time.Time) (Record, error) {
	day = DateOf(day)
	rec, err := s.store.SetReviewed(ctx, rm.ID, day, status, reviewerID, reason, now)
	if err != nil {
		return Record{}, err
	}
	if rec != nil {
		return *rec, nil
	}
	// Guard failed: distinguish a missing record from one that moved.
	existing, err := s.store.Get(ctx, rm.ID, day)
	if err != nil {
		return Record{}, err
	}
	if existing == nil {
		return Record{}, ErrNotFound
	}
	return Record{}, ErrInvalidTransition
}

// Reconcile backfills missed records for the room's recent fully elapsed
// days. Safe to call from any read path and from concurrent callers; the
// store's create-if-absent keeps it idempotent. Paused and admin-less
// rooms accrue nothing.
func (s *Service) Reconcile(ctx context.Context, rm room.Room, now time.Time) error {
	if rm.IsPaused || !rm.HasAdmin() {
		return nil
	}
	to := DateOf(now).AddDate(0, 0, -1)
	// A wrapping window spills past midnight: yesterday only counts as
	// missed once its window has fully closed.
	if window.EndOn(to, rm.TimeStart, rm.TimeEnd).After(now) {
		to = to.AddDate(0, 0, -1)
	}
	from := to.AddDate(0, 0, -(s.lookback - 1))
	if created := DateOf(rm.CreatedAt); created.After(from) {
		from = created
	}
	if to.Before(from) {
		return nil
	}
	return s.store.InsertMissedRange(ctx, rm.ID, from, to)
}

// TodayStatus is the dashboard view of one room.
type TodayStatus struct {
	RoomID string  `json:"room_id"`
	Day    string  `json:"day"`
	Open   bool    `json:"open"`
	Record *Record `json:"record,omitempty"`
}

// Today reconciles the room and returns its current-day state.
func (s *Service) Today(ctx context.Context, rm room.Room, now time.Time) (*TodayStatus, error) {
	if err := s.Reconcile(ctx, rm, now); err != nil {
		return nil, err
	}
	day := DateOf(now)
	rec, err := s.store.Get(ctx, rm.ID, day)
	if err != nil {
		return nil, err
	}
	return &TodayStatus{
		RoomID: rm.ID,
		Day:    day.Format("2006-01-02"),
		Open:   rm.OpenAt(now),
		Record: rec,
	}, nil
}

// History reconciles and lists the room's records in [from, to].
func (s *Service) History(ctx context.Context, rm room.Room, from, to time.Time, now time.Time) ([]Record, error) {
	if err := s.Reconcile(ctx, rm, now); err != nil {
		return nil, err
	}
	return s.store.ListByRoom(ctx, rm.ID, DateOf(from), DateOf(to))
}

// ApprovedDays reconciles and returns the room's approved days for the
// streak calculator.
func (s *Service) ApprovedDays(ctx context.Context, rm room.Room, now time.Time) ([]time.Time, error) {
	if err := s.Reconcile(ctx, rm, now); err != nil {
		return nil, err
	}
	return s.store.ListApprovedDays(ctx, rm.ID)
}

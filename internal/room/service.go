package room

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"habitroom/internal/window"
)

// ErrNotFound is returned when a room does not exist or the caller cannot see it.
var ErrNotFound = errors.New("room not found")

// ErrForbidden is returned when the caller is not allowed to act on the room.
var ErrForbidden = errors.New("not allowed for this room")

// Service coordinates room management.
type Service struct {
	repo *Repository
}

// NewService creates a service backed by a repository.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Create validates the daily window and persists a new room for ownerID.
func (s *Service) Create(ctx context.Context, ownerID, name, timeStart, timeEnd string, allowLateUpload bool) (Room, error) {
	if ownerID == "" {
		return Room{}, errors.New("owner required")
	}
	if name == "" {
		return Room{}, errors.New("name required")
	}
	if !window.Valid(timeStart) || !window.Valid(timeEnd) {
		return Room{}, errors.New("time_start and time_end must be HH:MM")
	}
	return s.repo.Insert(ctx, Room{
		OwnerID:         ownerID,
		Name:            name,
		TimeStart:       timeStart,
		TimeEnd:         timeEnd,
		AllowLateUpload: allowLateUpload,
	})
}

// Get returns a room visible to callerID.
func (s *Service) Get(ctx context.Context, callerID, roomID string) (Room, error) {
	rm, err := s.repo.Get(ctx, roomID)
	if err != nil {
		return Room{}, err
	}
	if rm == nil || !rm.IsMember(callerID) {
		return Room{}, ErrNotFound
	}
	return *rm, nil
}

// ListForUser returns rooms the user owns or administers.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]Room, error) {
	return s.repo.ListForUser(ctx, userID)
}

// Settings carries the mutable room configuration for Update.
type Settings struct {
	Name            *string
	TimeStart       *string
	TimeEnd         *string
	IsPaused        *bool
	AllowLateUpload *bool
}

// Update applies the provided settings. Owner and admin may both adjust the
// room; fields left nil keep their current value.
func (s *Service) Update(ctx context.Context, callerID, roomID string, in Settings) (Room, error) {
	rm, err := s.Get(ctx, callerID, roomID)
	if err != nil {
		return Room{}, err
	}
	if in.Name != nil {
		rm.Name = *in.Name
	}
	if in.TimeStart != nil {
		rm.TimeStart = *in.TimeStart
	}
	if in.TimeEnd != nil {
		rm.TimeEnd = *in.TimeEnd
	}
	if !window.Valid(rm.TimeStart) || !window.Valid(rm.TimeEnd) {
		return Room{}, errors.New("time_start and time_end must be HH:MM")
	}
	if in.IsPaused != nil {
		rm.IsPaused = *in.IsPaused
	}
	if in.AllowLateUpload != nil {
		rm.AllowLateUpload = *in.AllowLateUpload
	}
	out, err := s.repo.UpdateSettings(ctx, rm)
	if err != nil {
		return Room{}, err
	}
	if out == nil {
		return Room{}, ErrNotFound
	}
	return *out, nil
}

// Invite issues a one-time code the accountability partner redeems to
// become the room admin. Only the owner of an admin-less room may invite.
func (s *Service) Invite(ctx context.Context, callerID, roomID string) (string, error) {
	rm, err := s.repo.Get(ctx, roomID)
	if err != nil {
		return "", err
	}
	if rm == nil {
		return "", ErrNotFound
	}
	if rm.OwnerID != callerID {
		return "", ErrForbidden
	}
	if rm.HasAdmin() {
		return "", errors.New("room already has an admin")
	}
	code := uuid.NewString()
	if err := s.repo.SetInviteCode(ctx, roomID, code); err != nil {
		return "", err
	}
	return code, nil
}

// AcceptInvite redeems an invite code, making callerID the room admin.
func (s *Service) AcceptInvite(ctx context.Context, callerID, code string) (Room, error) {
	rm, err := s.repo.AcceptInvite(ctx, code, callerID)
	if err != nil {
		return Room{}, err
	}
	if rm == nil {
		return Room{}, ErrNotFound
	}
	return *rm, nil
}

// Delete removes the room and returns proof refs for artifact cleanup.
// Records cascade with the room; proof deletion is the caller's to dispatch.
func (s *Service) Delete(ctx context.Context, callerID, roomID string) ([]string, error) {
	rm, err := s.repo.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if rm == nil {
		return nil, ErrNotFound
	}
	if rm.OwnerID != callerID {
		return nil, ErrForbidden
	}
	return s.repo.Delete(ctx, roomID)
}

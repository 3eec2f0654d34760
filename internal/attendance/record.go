package attendance

import (
	"errors"
	"time"
)

// Review statuses of an attendance record. pending_review is the only state
// an admin can act on; rejected and missed can be re-entered by a fresh
// submission, approved is final.
const (
	StatusPending  = "pending_review"
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusMissed   = "missed"
)

// Expected outcomes of submission and review. These are results, not
// failures; handlers map them to 4xx responses without logging.
var (
	ErrRoomPaused        = errors.New("room is paused")
	ErrWindowClosed      = errors.New("submission window is closed")
	ErrAlreadyApproved   = errors.New("record already approved")
	ErrNoReviewer        = errors.New("room has no admin yet")
	ErrInvalidTransition = errors.New("record is not pending review")
	ErrNotFound          = errors.New("record not found")
	ErrConflict          = errors.New("record changed concurrently")
)

// Record is one day's proof for one room. At most one exists per (room, day).
type Record struct {
	ID              string     `json:"id"`
	RoomID          string     `json:"room_id"`
	Day             time.Time  `json:"day"`
	Status          string     `json:"status"`
	ProofRef        string     `json:"proof_ref,omitempty"`
	Note            string     `json:"note,omitempty"`
	SubmittedAt     *time.Time `json:"submitted_at,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	ReviewerID      *string    `json:"reviewer_id,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// UserRecord is a record joined with the window of its room, enough for the
// score engine to award on-time bonuses.
type UserRecord struct {
	Record
	RoomTimeStart string `json:"-"`
	RoomTimeEnd   string `json:"-"`
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

package room

import (
	"time"

	"habitroom/internal/window"
)

// Room is a recurring daily time-boxed activity. The owner submits proof
// inside the daily window; the admin (accountability partner) reviews it.
// AdminID stays nil until an invite is accepted.
type Room struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"owner_id"`
	AdminID         *string   `json:"admin_id,omitempty"`
	Name            string    `json:"name"`
	TimeStart       string    `json:"time_start"`
	TimeEnd         string    `json:"time_end"`
	IsPaused        bool      `json:"is_paused"`
	AllowLateUpload bool      `json:"allow_late_upload"`
	InviteCode      *string   `json:"invite_code,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// OpenAt reports whether the room accepts submissions at now.
// Paused rooms are always closed.
func (r Room) OpenAt(now time.Time) bool {
	if r.IsPaused {
		return false
	}
	return window.IsOpen(r.TimeStart, r.TimeEnd, now)
}

// HasAdmin reports whether an accountability partner has accepted.
func (r Room) HasAdmin() bool {
	return r.AdminID != nil && *r.AdminID != ""
}

// IsMember reports whether userID is the owner or the admin.
func (r Room) IsMember(userID string) bool {
	return r.OwnerID == userID || (r.AdminID != nil && *r.AdminID == userID)
}

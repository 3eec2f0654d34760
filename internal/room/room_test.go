package room

import (
	"testing"
	"time"
)

func TestOpenAt(t *testing.T) {
	admin := "partner"
	rm := Room{
		ID:        "r1",
		OwnerID:   "owner",
		AdminID:   &admin,
		TimeStart: "06:00",
		TimeEnd:   "08:00",
	}

	inside := time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC)
	outside := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	if !rm.OpenAt(inside) {
		t.Error("expected room open inside window")
	}
	if rm.OpenAt(outside) {
		t.Error("expected room closed outside window")
	}

	rm.IsPaused = true
	if rm.OpenAt(inside) {
		t.Error("paused room must be closed even inside window")
	}
}

func TestIsMemberAndHasAdmin(t *testing.T) {
	rm := Room{OwnerID: "owner"}
	if rm.HasAdmin() {
		t.Error("room without admin reported HasAdmin")
	}
	if !rm.IsMember("owner") {
		t.Error("owner should be a member")
	}
	if rm.IsMember("partner") {
		t.Error("stranger should not be a member")
	}

	admin := "partner"
	rm.AdminID = &admin
	if !rm.HasAdmin() || !rm.IsMember("partner") {
		t.Error("admin should be recognized after invite accept")
	}
}

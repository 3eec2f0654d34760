package room

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// Repository persists rooms in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const roomColumns = `id, owner_id, admin_id, name, time_start, time_end, is_paused, allow_late_upload, invite_code, created_at`

func scanRoom(row interface{ Scan(...any) error }) (Room, error) {
	var r Room
	err := row.Scan(&r.ID, &r.OwnerID, &r.AdminID, &r.Name, &r.TimeStart, &r.TimeEnd,
		&r.IsPaused, &r.AllowLateUpload, &r.InviteCode, &r.CreatedAt)
	return r, err
}

// Insert writes a new room.
func (r *Repository) Insert(ctx context.Context, rm Room) (Room, error) {
	if rm.ID == "" {
		rm.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO rooms (id, owner_id, name, time_start, time_end, is_paused, allow_late_upload)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at
	`, rm.ID, rm.OwnerID, rm.Name, rm.TimeStart, rm.TimeEnd, rm.IsPaused, rm.AllowLateUpload)
	if err := row.Scan(&rm.CreatedAt); err != nil {
		return Room{}, err
	}
	return rm, nil
}

// Get returns a room by id, or nil when absent.
func (r *Repository) Get(ctx context.Context, id string) (*Room, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1`, id)
	rm, err := scanRoom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rm, nil
}

// ListForUser returns rooms the user owns or administers, oldest first.
func (r *Repository) ListForUser(ctx context.Context, userID string) ([]Room, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+roomColumns+`
		FROM rooms
		WHERE owner_id = $1 OR admin_id = $1
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Room
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, rm)
	}
	return res, rows.Err()
}

// ListAll returns every room; used by the worker sweep.
func (r *Repository) ListAll(ctx context.Context) ([]Room, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Room
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, rm)
	}
	return res, rows.Err()
}

// UpdateSettings applies window, pause and late-upload changes in one write
// so submission logic always evaluates a consistent snapshot.
func (r *Repository) UpdateSettings(ctx context.Context, rm Room) (*Room, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE rooms
		SET name = $2, time_start = $3, time_end = $4, is_paused = $5, allow_late_upload = $6
		WHERE id = $1
		RETURNING `+roomColumns+`
	`, rm.ID, rm.Name, rm.TimeStart, rm.TimeEnd, rm.IsPaused, rm.AllowLateUpload)
	out, err := scanRoom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

// SetInviteCode stores a fresh invite code on a room without an admin.
func (r *Repository) SetInviteCode(ctx context.Context, roomID, code string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE rooms SET invite_code = $2 WHERE id = $1 AND admin_id IS NULL
	`, roomID, code)
	return err
}

// AcceptInvite claims the invite code for adminID. The guard on invite_code
// and admin_id makes concurrent accepts resolve to a single winner; the
// losers see no row returned.
func (r *Repository) AcceptInvite(ctx context.Context, code, adminID string) (*Room, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE rooms
		SET admin_id = $2, invite_code = NULL
		WHERE invite_code = $1 AND admin_id IS NULL AND owner_id <> $2
		RETURNING `+roomColumns+`
	`, code, adminID)
	rm, err := scanRoom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rm, nil
}

// Delete removes a room; attendance records cascade at the database level.
// It returns the proof refs of the room's records so the caller can hand
// them to the cleanup worker.
func (r *Repository) Delete(ctx context.Context, roomID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT proof_ref FROM attendance_records
		WHERE room_id = $1 AND proof_ref <> ''
	`, roomID)
	if err != nil {
		return nil, err
	}
	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			rows.Close()
			return nil, err
		}
		refs = append(refs, ref)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, roomID); err != nil {
		return nil, err
	}
	return refs, nil
}

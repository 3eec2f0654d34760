package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Repository persists attendance records in Postgres. Review and
// resubmission use guarded updates so racing writers resolve through the
// database instead of locks: whoever matches the WHERE clause wins, the
// loser sees no row and re-reads.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const recordColumns = `id, room_id, day, status, proof_ref, note, submitted_at, reviewed_at, reviewer_id, rejection_reason, created_at`

func scanRecord(row interface{ Scan(...any) error }) (Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.RoomID, &rec.Day, &rec.Status, &rec.ProofRef, &rec.Note,
		&rec.SubmittedAt, &rec.ReviewedAt, &rec.ReviewerID, &rec.RejectionReason, &rec.CreatedAt)
	return rec, err
}

// Get returns the record for (roomID, day), or nil when absent.
func (r *Repository) Get(ctx context.Context, roomID string, day time.Time) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+` FROM attendance_records
		WHERE room_id = $1 AND day = $2
	`, roomID, day)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// Insert writes a new record. A duplicate (room, day) returns ErrConflict
// so the service can re-read and take the resubmission path.
func (r *Repository) Insert(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance_records (id, room_id, day, status, proof_ref, note, submitted_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at
	`, rec.ID, rec.RoomID, rec.Day, rec.Status, rec.ProofRef, rec.Note, rec.SubmittedAt)
	if err := row.Scan(&rec.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Record{}, ErrConflict
		}
		return Record{}, err
	}
	return rec, nil
}

// Resubmit overwrites a non-approved record in place, resetting it to
// pending_review and clearing any earlier review. Returns nil when the
// record moved to approved (or vanished) concurrently.
func (r *Repository) Resubmit(ctx context.Context, roomID string, day time.Time, proofRef, note string, now time.Time) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE attendance_records
		SET status = $3, proof_ref = $4, note = $5, submitted_at = $6,
		    reviewed_at = NULL, reviewer_id = NULL, rejection_reason = NULL
		WHERE room_id = $1 AND day = $2
		  AND status IN ('pending_review', 'rejected', 'missed')
		RETURNING `+recordColumns+`
	`, roomID, day, StatusPending, proofRef, note, now)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// SetReviewed moves a pending record to approved or rejected. The status
// guard is the optimistic check: nil comes back when the record is no
// longer pending.
func (r *Repository) SetReviewed(ctx context.Context, roomID string, day time.Time, status, reviewerID string, reason *string, now time.Time) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE attendance_records
		SET status = $3, reviewed_at = $4, reviewer_id = $5, rejection_reason = $6
		WHERE room_id = $1 AND day = $2 AND status = 'pending_review'
		RETURNING `+recordColumns+`
	`, roomID, day, status, now, reviewerID, reason)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// InsertMissedRange materializes missed records for every day in
// [from, to] that has none. ON CONFLICT DO NOTHING keeps concurrent
// reconcilers idempotent: exactly one row per day survives.
func (r *Repository) InsertMissedRange(ctx context.Context, roomID string, from, to time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance_records (id, room_id, day, status, proof_ref, note)
		SELECT gen_random_uuid(), $1, d::date, 'missed', '', ''
		FROM generate_series($2::date, $3::date, interval '1 day') AS d
		ON CONFLICT (room_id, day) DO NOTHING
	`, roomID, from, to)
	return err
}

// ListByRoom returns a room's records in [from, to], oldest first.
func (r *Repository) ListByRoom(ctx context.Context, roomID string, from, to time.Time) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recordColumns+` FROM attendance_records
		WHERE room_id = $1 AND day BETWEEN $2 AND $3
		ORDER BY day
	`, roomID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

// ListApprovedDays returns the distinct approved days for a room, newest first.
func (r *Repository) ListApprovedDays(ctx context.Context, roomID string) ([]time.Time, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT day FROM attendance_records
		WHERE room_id = $1 AND status = 'approved'
		ORDER BY day DESC
	`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var days []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// ListForUser returns every record across the rooms ownerID owns, joined
// with each room's window, oldest first. Feeds scoring and analytics.
func (r *Repository) ListForUser(ctx context.Context, ownerID string, from, to time.Time) ([]UserRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ar.id, ar.room_id, ar.day, ar.status, ar.proof_ref, ar.note,
		       ar.submitted_at, ar.reviewed_at, ar.reviewer_id, ar.rejection_reason, ar.created_at,
		       rm.time_start, rm.time_end
		FROM attendance_records ar
		JOIN rooms rm ON rm.id = ar.room_id
		WHERE rm.owner_id = $1 AND ar.day BETWEEN $2 AND $3
		ORDER BY ar.day, ar.created_at
	`, ownerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []UserRecord
	for rows.Next() {
		var ur UserRecord
		if err := rows.Scan(&ur.ID, &ur.RoomID, &ur.Day, &ur.Status, &ur.ProofRef, &ur.Note,
			&ur.SubmittedAt, &ur.ReviewedAt, &ur.ReviewerID, &ur.RejectionReason, &ur.CreatedAt,
			&ur.RoomTimeStart, &ur.RoomTimeEnd); err != nil {
			return nil, err
		}
		res = append(res, ur)
	}
	return res, rows.Err()
}

// ListPendingForAdmin returns pending records across rooms adminID
// reviews, oldest first. Exposed so an external notifier can poll counts.
func (r *Repository) ListPendingForAdmin(ctx context.Context, adminID string) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM attendance_records
		WHERE status = 'pending_review'
		  AND room_id IN (SELECT id FROM rooms WHERE admin_id = $1)
		ORDER BY day
	`, adminID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

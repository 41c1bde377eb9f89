package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"motorent/internal/database"
	apperrors "motorent/internal/errors"
	"motorent/internal/models"
)

type BookingRepository struct {
	db *database.DB
}

func NewBookingRepository(db *database.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	query := `
		INSERT INTO bookings (user_id, vehicle_id, start_date, end_date, rent_type, total_price, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		booking.UserID,
		booking.VehicleID,
		booking.StartDate,
		booking.EndDate,
		booking.RentType,
		booking.TotalPrice,
		booking.Status,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)

	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}

	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	booking := &models.Booking{}
	query := `
		SELECT id, user_id, vehicle_id, start_date, end_date, rent_type,
		       total_price, status, created_at, updated_at
		FROM bookings
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&booking.ID,
		&booking.UserID,
		&booking.VehicleID,
		&booking.StartDate,
		&booking.EndDate,
		&booking.RentType,
		&booking.TotalPrice,
		&booking.Status,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}

	return booking, nil
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID int64) ([]models.Booking, error) {
	query := `
		SELECT id, user_id, vehicle_id, start_date, end_date, rent_type,
		       total_price, status, created_at, updated_at
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// ListAll returns every booking joined with vehicle and user summaries,
// newest first. Admin use only.
func (r *BookingRepository) ListAll(ctx context.Context) ([]models.BookingSummary, error) {
	query := `
		SELECT b.id, b.user_id, b.vehicle_id, b.start_date, b.end_date, b.rent_type,
		       b.total_price, b.status, b.created_at, b.updated_at,
		       v.name, v.model,
		       u.email, u.first_name || ' ' || u.surname
		FROM bookings b
		JOIN vehicles v ON v.id = b.vehicle_id
		JOIN users u ON u.user_id = b.user_id
		ORDER BY b.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var summaries []models.BookingSummary
	for rows.Next() {
		var s models.BookingSummary
		err := rows.Scan(
			&s.ID,
			&s.UserID,
			&s.VehicleID,
			&s.StartDate,
			&s.EndDate,
			&s.RentType,
			&s.TotalPrice,
			&s.Status,
			&s.CreatedAt,
			&s.UpdatedAt,
			&s.VehicleName,
			&s.VehicleModel,
			&s.UserEmail,
			&s.UserName,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
		}
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}

	return summaries, nil
}

// UpdateStatus applies a status transition as a single conditional UPDATE.
// The statement matches when the booking already holds the target status
// (no-op, idempotent success) or holds a status the transition table allows
// as a prior. Zero rows affected is disambiguated with a follow-up read:
// unknown id vs illegal transition.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id int64, status models.BookingStatus) error {
	if !models.ValidStatus(status) {
		return fmt.Errorf("%w: unknown status %q", apperrors.ErrValidation, status)
	}

	prior := models.PriorStatuses(status)
	priorStrs := make([]string, len(prior))
	for i, p := range prior {
		priorStrs[i] = string(p)
	}

	query := `
		UPDATE bookings
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND (status = $2 OR status = ANY($3))`

	res, err := r.db.ExecContext(ctx, query, id, status, pq.Array(priorStrs))
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}
	if affected > 0 {
		return nil
	}

	var current models.BookingStatus
	err = r.db.QueryRowContext(ctx, `SELECT status FROM bookings WHERE id = $1`, id).Scan(&current)
	if err == sql.ErrNoRows {
		return apperrors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}

	return fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidTransition, current, status)
}

// ListExpired returns pending bookings created before the cutoff, oldest
// first. Used by the expiration sweep.
func (r *BookingRepository) ListExpired(ctx context.Context, before time.Time) ([]models.Booking, error) {
	query := `
		SELECT id, user_id, vehicle_id, start_date, end_date, rent_type,
		       total_price, status, created_at, updated_at
		FROM bookings
		WHERE status = 'pending'
		  AND created_at < $1
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

func scanBookings(rows *sql.Rows) ([]models.Booking, error) {
	var bookings []models.Booking
	for rows.Next() {
		var booking models.Booking
		err := rows.Scan(
			&booking.ID,
			&booking.UserID,
			&booking.VehicleID,
			&booking.StartDate,
			&booking.EndDate,
			&booking.RentType,
			&booking.TotalPrice,
			&booking.Status,
			&booking.CreatedAt,
			&booking.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}

	return bookings, nil
}

package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motorent/internal/database"
	apperrors "motorent/internal/errors"
	"motorent/internal/models"
)

func newMockRepo(t *testing.T) (*BookingRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewBookingRepository(&database.DB{DB: db}), mock
}

func TestBookingRepository_Create(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO bookings`).
		WithArgs(int64(7), "veh-1", sqlmock.AnyArg(), sqlmock.AnyArg(), models.RateDaily, int64(300), models.StatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(42), now, now))

	booking := &models.Booking{
		UserID:     7,
		VehicleID:  "veh-1",
		StartDate:  now,
		EndDate:    now.Add(72 * time.Hour),
		RentType:   models.RateDaily,
		TotalPrice: 300,
		Status:     models.StatusPending,
	}

	require.NoError(t, repo.Create(context.Background(), booking))
	assert.Equal(t, int64(42), booking.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_UpdateStatus_Applies(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`UPDATE bookings`).
		WithArgs(int64(42), models.StatusConfirmed, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), 42, models.StatusConfirmed)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_UpdateStatus_IdempotentReapply(t *testing.T) {
	repo, mock := newMockRepo(t)

	// Both deliveries match the conditional UPDATE: the first via the
	// pending prior, the second via status = target.
	mock.ExpectExec(`UPDATE bookings`).
		WithArgs(int64(42), models.StatusConfirmed, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE bookings`).
		WithArgs(int64(42), models.StatusConfirmed, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.UpdateStatus(context.Background(), 42, models.StatusConfirmed))
	assert.NoError(t, repo.UpdateStatus(context.Background(), 42, models.StatusConfirmed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_UpdateStatus_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`UPDATE bookings`).
		WithArgs(int64(99), models.StatusConfirmed, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT status FROM bookings`).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	err := repo.UpdateStatus(context.Background(), 99, models.StatusConfirmed)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_UpdateStatus_RejectsSkippedTransition(t *testing.T) {
	repo, mock := newMockRepo(t)

	// pending -> completed must not match; the follow-up read reveals why.
	mock.ExpectExec(`UPDATE bookings`).
		WithArgs(int64(42), models.StatusCompleted, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT status FROM bookings`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("pending"))

	err := repo.UpdateStatus(context.Background(), 42, models.StatusCompleted)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_UpdateStatus_StoreFailure(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`UPDATE bookings`).
		WithArgs(int64(42), models.StatusCancelled, sqlmock.AnyArg()).
		WillReturnError(sql.ErrConnDone)

	err := repo.UpdateStatus(context.Background(), 42, models.StatusCancelled)
	assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_UpdateStatus_UnknownStatus(t *testing.T) {
	repo, _ := newMockRepo(t)

	err := repo.UpdateStatus(context.Background(), 42, models.BookingStatus("refunded"))
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestBookingRepository_ListByUser_NewestFirst(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now()
	cols := []string{"id", "user_id", "vehicle_id", "start_date", "end_date", "rent_type",
		"total_price", "status", "created_at", "updated_at"}
	mock.ExpectQuery(`SELECT (.+) FROM bookings`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(2), int64(7), "veh-1", now, now.Add(time.Hour), "hourly", int64(30), "pending", now, now).
			AddRow(int64(1), int64(7), "veh-2", now, now.Add(time.Hour), "daily", int64(300), "confirmed", now.Add(-time.Hour), now))

	bookings, err := repo.ListByUser(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	assert.Equal(t, int64(2), bookings[0].ID)
	assert.Equal(t, models.StatusConfirmed, bookings[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

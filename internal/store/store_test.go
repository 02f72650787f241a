package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"reservas-backend/internal/model"
)

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func sampleReservation() model.Reservation {
	return model.Reservation{
		Date:            "2025-03-01",
		Shift:           model.ShiftLunch,
		TableNumber:     7,
		ClientName:      "Maria",
		GuestCount:      4,
		ReservationTime: "12:30",
		Notes:           "Aniversário",
	}
}

func TestGormStore_UpsertFallsBackOnRejectedEncoding(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	enumErr := errors.New(`ERROR: invalid input value for enum reservation_shift: "lunch" (SQLSTATE 22P02)`)

	mock.ExpectQuery(`SELECT "id" FROM "reservations" WHERE date = \$1 AND table_number = \$2 AND CAST\(shift AS TEXT\) IN`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "reservations".*ON CONFLICT`).
		WithArgs(Any{}, "2025-03-01", "lunch", 7, "Maria", 4, "12:30", nil, "Aniversário").
		WillReturnError(enumErr)
	mock.ExpectRollback()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "reservations".*ON CONFLICT`).
		WithArgs(Any{}, "2025-03-01", "almoco", 7, "Maria", 4, "12:30", nil, "Aniversário").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.Upsert(context.Background(), sampleReservation())
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_UpsertReusesStoredID(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB, WithEncodings(NewShiftEncodings(map[string][]string{"lunch": {"lunch", "almoco"}})))

	mock.ExpectQuery(`SELECT "id" FROM "reservations" WHERE`).
		WithArgs("2025-03-01", 7, "lunch", "almoco", Any{}).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("legacy-1"))

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "reservations".*ON CONFLICT`).
		WithArgs("legacy-1", "2025-03-01", "lunch", 7, "Maria", 4, "12:30", nil, "Aniversário").
		WillReturnError(errors.New(`ERROR: duplicate key value violates unique constraint "reservations_pkey" (SQLSTATE 23505)`))
	mock.ExpectRollback()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "reservations".*ON CONFLICT`).
		WithArgs("legacy-1", "2025-03-01", "almoco", 7, "Maria", 4, "12:30", nil, "Aniversário").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.Upsert(context.Background(), sampleReservation())
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_UpsertRejectsInvalidReservation(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	r := sampleReservation()
	r.GuestCount = 0

	err := s.Upsert(context.Background(), r)
	assert.ErrorIs(t, err, model.ErrInvalidReservation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_DeleteTriesNextEncodingOnMiss(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "reservations" WHERE`).
		WithArgs("2025-03-01", "dinner", 12).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "reservations" WHERE`).
		WithArgs("2025-03-01", "jantar", 12).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.Delete(context.Background(), "2025-03-01", model.ShiftDinner, 12)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_MarkArrivedDropsMissingPhoneColumn(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB, WithEncodings(NewShiftEncodings(map[string][]string{"lunch": {"lunch"}})))

	notes := "Status: chegou | Telefone: 5599 | Aniversário"
	phoneErr := errors.New(`ERROR: column "phone" of relation "reservations" does not exist (SQLSTATE 42703)`)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "reservations" SET "notes"=\$1,"phone"=\$2 WHERE`).
		WithArgs(notes, "5599", "2025-03-01", "lunch", 3).
		WillReturnError(phoneErr)
	mock.ExpectRollback()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "reservations" SET "notes"=\$1 WHERE`).
		WithArgs(notes, "2025-03-01", "lunch", 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.MarkArrived(context.Background(), "2025-03-01", model.ShiftLunch, 3, "5599", "Aniversário")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_FetchByDate(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectQuery(`SELECT \* FROM "reservations" WHERE "date" = \$1 ORDER BY table_number`).
		WithArgs("2025-03-01").
		WillReturnRows(sqlmock.NewRows([]string{"id", "date", "shift", "table_number", "client_name", "guest_count", "reservation_time", "notes"}).
			AddRow("r1", "2025-03-01", "Almoço", 7, "Maria", 4, "12:30", "Telefone: 1 | x"))

	rows, err := s.FetchByDate(context.Background(), "2025-03-01")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Almoço", rows[0].Shift)
	assert.Nil(t, rows[0].Phone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Any is a helper for sqlmock to match any argument.
type Any struct{}

// Match satisfies the sqlmock.Argument interface
func (a Any) Match(v driver.Value) bool {
	return true
}

package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newMockOptionRepository creates a GormOptionRepository over a mocked SQL
// connection, for driver-level failure paths the sqlite tests cannot reach.
func newMockOptionRepository(t *testing.T) (*GormOptionRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	return NewGormOptionRepository(gormDB), mock, mockDB
}

func TestGormOptionRepository_DecrementStock_ReturnsRemaining(t *testing.T) {
	repo, mock, mockDB := newMockOptionRepository(t)
	defer mockDB.Close()

	mock.ExpectQuery("UPDATE group_buy_options SET stock = stock -").
		WillReturnRows(sqlmock.NewRows([]string{"stock"}).AddRow(6))

	remaining, err := repo.DecrementStock(context.Background(), uuid.New(), 4)
	require.NoError(t, err)
	assert.Equal(t, 6, remaining)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormOptionRepository_DecrementStock_DriverError(t *testing.T) {
	repo, mock, mockDB := newMockOptionRepository(t)
	defer mockDB.Close()

	driverErr := errors.New("connection reset by peer")
	mock.ExpectQuery("UPDATE group_buy_options SET stock = stock -").
		WillReturnError(driverErr)

	_, err := repo.DecrementStock(context.Background(), uuid.New(), 1)
	require.Error(t, err)
	assert.ErrorContains(t, err, "connection reset by peer")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormOptionRepository_IncrementStock_DriverError(t *testing.T) {
	repo, mock, mockDB := newMockOptionRepository(t)
	defer mockDB.Close()

	driverErr := errors.New("connection reset by peer")
	mock.ExpectExec(`UPDATE "group_buy_options" SET`).
		WillReturnError(driverErr)

	err := repo.IncrementStock(context.Background(), uuid.New(), 2)
	require.Error(t, err)
	assert.ErrorContains(t, err, "connection reset by peer")
	assert.NoError(t, mock.ExpectationsWereMet())
}

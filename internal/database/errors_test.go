package database

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(errors.New("connection refused")))

	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, IsUniqueViolation(errors.New(
		"UNIQUE constraint failed: ratings.owner_id, ratings.movie_id")))
	assert.True(t, IsUniqueViolation(errors.New(
		`ERROR: duplicate key value violates unique constraint "idx_ratings_owner_movie" (SQLSTATE 23505)`)))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(gorm.ErrRecordNotFound))
	assert.True(t, IsNotFound(ErrNotFound))
	assert.False(t, IsNotFound(nil))
	assert.False(t, IsNotFound(errors.New("boom")))
}

// The postgres driver surfaces constraint violations as driver errors on the
// insert; they must still classify as duplicates.
func TestUniqueViolationThroughDriver(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger:               gormlogger.Default.LogMode(gormlogger.Silent),
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "directors"`).
		WillReturnError(errors.New(
			`ERROR: duplicate key value violates unique constraint "idx_directors_name" (SQLSTATE 23505)`))
	mock.ExpectRollback()

	createErr := db.Create(&Director{Name: "Chantal Akerman"}).Error
	require.Error(t, createErr)
	assert.True(t, IsUniqueViolation(createErr))
	assert.NoError(t, mock.ExpectationsWereMet())
}

//go:build !integration
// +build !integration

package infra_postgres_preference

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"

	"github.com/FreerikH/popcorn/internal/model"
)

type PreferenceInfraUnitSuite struct {
	suite.Suite
}

func TestPreferenceInfraUnitSuite(t *testing.T) {
	suite.RunSuite(t, new(PreferenceInfraUnitSuite))
}

type resources struct {
	db     *sqlx.DB
	mock   sqlmock.Sqlmock
	driver *Driver
	ctx    context.Context
}

func initResources(t provider.T) *resources {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return &resources{
		db:     sqlxDB,
		mock:   mock,
		driver: New(sqlxDB),
		ctx:    context.Background(),
	}
}

func (s *PreferenceInfraUnitSuite) TestUpsert(t provider.T) {
	r := initResources(t)
	defer r.db.Close()

	userID := uuid.New()
	r.mock.ExpectExec("INSERT INTO preferences").
		WithArgs(userID, int64(603), 5).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := r.driver.Upsert(r.ctx, model.Preference{
		UserID:  userID,
		MovieID: 603,
		Score:   5,
	})
	assert.NoError(t, err)
	assert.NoError(t, r.mock.ExpectationsWereMet())
}

func (s *PreferenceInfraUnitSuite) TestByUser(t provider.T) {
	r := initResources(t)
	defer r.db.Close()

	userID := uuid.New()
	ratedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"user_id", "movie_id", "rating", "created_at"}).
		AddRow(userID, int64(603), 5, ratedAt).
		AddRow(userID, int64(604), 1, ratedAt.Add(-time.Hour))

	r.mock.ExpectQuery("SELECT user_id, movie_id, rating, created_at").
		WithArgs(userID).
		WillReturnRows(rows)

	prefs, err := r.driver.ByUser(r.ctx, userID)
	assert.NoError(t, err)
	assert.Len(t, prefs, 2)
	assert.Equal(t, int64(603), prefs[0].MovieID)
	assert.Equal(t, 5, prefs[0].Score)
	assert.NoError(t, r.mock.ExpectationsWereMet())
}

func (s *PreferenceInfraUnitSuite) TestCombined(t provider.T) {
	r := initResources(t)
	defer r.db.Close()

	userID := uuid.New()
	friendID := uuid.New()
	ratedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"movie_id", "user_rating", "friend_rating", "rated_at"}).
		AddRow(int64(603), 5, 3, ratedAt).
		AddRow(int64(604), 1, nil, ratedAt)

	r.mock.ExpectQuery("FULL JOIN").
		WithArgs(userID, friendID).
		WillReturnRows(rows)

	combined, err := r.driver.Combined(r.ctx, userID, friendID)
	assert.NoError(t, err)
	assert.Len(t, combined, 2)
	assert.Equal(t, 5, *combined[0].UserScore)
	assert.Equal(t, 3, *combined[0].FriendScore)
	assert.Nil(t, combined[1].FriendScore)
	assert.NoError(t, r.mock.ExpectationsWereMet())
}

//go:build !integration
// +build !integration

package usecase_preference

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"

	"github.com/FreerikH/popcorn/internal/model"
)

type PreferenceUnitSuite struct {
	suite.Suite
}

func TestPreferenceUnitSuite(t *testing.T) {
	suite.RunSuite(t, new(PreferenceUnitSuite))
}

type fakeRepository struct {
	upserted    []model.Preference
	upsertErr   error
	byUser      []model.Preference
	combined    []model.CombinedPreference
	combinedErr error
}

func (f *fakeRepository) Upsert(_ context.Context, p model.Preference) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, p)
	return nil
}

func (f *fakeRepository) ByUser(_ context.Context, _ uuid.UUID) ([]model.Preference, error) {
	return f.byUser, nil
}

func (f *fakeRepository) Combined(_ context.Context, _, _ uuid.UUID) ([]model.CombinedPreference, error) {
	return f.combined, f.combinedErr
}

func intp(v int) *int { return &v }

func (s *PreferenceUnitSuite) TestSave(t provider.T) {
	testCases := []struct {
		name        string
		score       int
		expectError error
	}{
		{name: "watch maps to the top of the scale", score: model.RatingWatch.Score()},
		{name: "skip maps to the bottom of the scale", score: model.RatingSkip.Score()},
		{name: "zero is rejected", score: 0, expectError: ErrInvalidScore},
		{name: "above scale is rejected", score: 6, expectError: ErrInvalidScore},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			repo := &fakeRepository{}
			uc := New(repo)

			err := uc.Save(context.Background(), uuid.New(), 603, tc.score)
			if tc.expectError != nil {
				assert.True(t, errors.Is(err, tc.expectError))
				assert.Empty(t, repo.upserted)
				return
			}
			assert.NoError(t, err)
			assert.Len(t, repo.upserted, 1)
			assert.Equal(t, tc.score, repo.upserted[0].Score)
		})
	}
}

func (s *PreferenceUnitSuite) TestSaveRepositoryFailure(t provider.T) {
	repo := &fakeRepository{upsertErr: errors.New("connection refused")}
	uc := New(repo)

	err := uc.Save(context.Background(), uuid.New(), 603, 3)
	assert.True(t, errors.Is(err, ErrFailedToSave))
}

func (s *PreferenceUnitSuite) TestCompare(t provider.T) {
	repo := &fakeRepository{
		combined: []model.CombinedPreference{
			{MovieID: 1, UserScore: intp(5), FriendScore: intp(5)},
			{MovieID: 2, UserScore: intp(1), FriendScore: intp(5)},
			{MovieID: 3, UserScore: intp(3)}, // not co-rated, ignored
		},
	}
	uc := New(repo)

	cmp, err := uc.Compare(context.Background(), uuid.New(), uuid.New())
	assert.NoError(t, err)
	assert.Equal(t, 2, cmp.SharedCount)
	assert.Len(t, cmp.Preferences, 3)
	// diffs 0 and 4 → mean 2 → 100*(1-2/4) = 50
	assert.InDelta(t, 50.0, cmp.Compatibility, 0.001)
}

func (s *PreferenceUnitSuite) TestCompareNoOverlap(t provider.T) {
	repo := &fakeRepository{
		combined: []model.CombinedPreference{
			{MovieID: 1, UserScore: intp(5)},
			{MovieID: 2, FriendScore: intp(3)},
		},
	}
	uc := New(repo)

	cmp, err := uc.Compare(context.Background(), uuid.New(), uuid.New())
	assert.NoError(t, err)
	assert.Equal(t, 0, cmp.SharedCount)
	assert.Equal(t, 0.0, cmp.Compatibility)
}

func (s *PreferenceUnitSuite) TestCompareRepositoryFailure(t provider.T) {
	repo := &fakeRepository{combinedErr: errors.New("connection refused")}
	uc := New(repo)

	_, err := uc.Compare(context.Background(), uuid.New(), uuid.New())
	assert.True(t, errors.Is(err, ErrFailedToLoad))
}

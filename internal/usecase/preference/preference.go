// Package usecase_preference persists ratings and builds the pairwise
// comparison view.
package usecase_preference

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/FreerikH/popcorn/internal/model"
)

var (
	ErrInvalidScore = errors.New("invalid score")
	ErrFailedToSave = errors.New("failed to save preference")
	ErrFailedToLoad = errors.New("failed to load preferences")
)

type Repository interface {
	Upsert(ctx context.Context, p model.Preference) error
	ByUser(ctx context.Context, userID uuid.UUID) ([]model.Preference, error)
	Combined(ctx context.Context, userID, friendID uuid.UUID) ([]model.CombinedPreference, error)
}

type Usecase struct {
	repository Repository
}

func New(repository Repository) *Usecase {
	return &Usecase{repository: repository}
}

// Save upserts one rating. Re-rating a movie overwrites the previous score.
func (u *Usecase) Save(ctx context.Context, userID uuid.UUID, movieID int64, score int) error {
	if score < model.MinScore || score > model.MaxScore {
		return fmt.Errorf("%w: %d not in [%d,%d]", ErrInvalidScore, score, model.MinScore, model.MaxScore)
	}

	p := model.Preference{
		UserID:  userID,
		MovieID: movieID,
		Score:   score,
	}
	if err := u.repository.Upsert(ctx, p); err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToSave, err)
	}
	return nil
}

func (u *Usecase) List(ctx context.Context, userID uuid.UUID) ([]model.Preference, error) {
	prefs, err := u.repository.ByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToLoad, err)
	}
	return prefs, nil
}

// Compare joins both users' ratings and computes the compatibility score:
// 100 * (1 - mean(|a-b|)/4) over co-rated movies, 0 when none overlap.
func (u *Usecase) Compare(ctx context.Context, userID, friendID uuid.UUID) (model.Comparison, error) {
	combined, err := u.repository.Combined(ctx, userID, friendID)
	if err != nil {
		return model.Comparison{}, fmt.Errorf("%w: %w", ErrFailedToLoad, err)
	}

	var (
		shared    int
		totalDiff float64
	)
	for _, cp := range combined {
		if cp.UserScore == nil || cp.FriendScore == nil {
			continue
		}
		shared++
		totalDiff += math.Abs(float64(*cp.UserScore - *cp.FriendScore))
	}

	comparison := model.Comparison{
		Preferences: combined,
		SharedCount: shared,
	}
	if shared > 0 {
		span := float64(model.MaxScore - model.MinScore)
		comparison.Compatibility = 100 * (1 - (totalDiff/float64(shared))/span)
	}
	return comparison, nil
}

package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	MinScore = 1
	MaxScore = 5
)

// Preference is one persisted (user, movie, score) row.
type Preference struct {
	UserID  uuid.UUID
	MovieID int64
	Score   int
	RatedAt time.Time
}

// CombinedPreference joins two users' scores for one movie.
// A nil score means that side has not rated the movie.
type CombinedPreference struct {
	MovieID     int64
	UserScore   *int
	FriendScore *int
	RatedAt     *time.Time
}

// Comparison is the pairwise view rendered by the compare screen.
type Comparison struct {
	Preferences []CombinedPreference

	// Compatibility is 0..100 over co-rated movies, 0 when none overlap.
	Compatibility float64
	SharedCount   int
}

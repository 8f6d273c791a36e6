package infra_postgres_preference

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/FreerikH/popcorn/internal/model"
)

type Driver struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Driver {
	return &Driver{db: db}
}

type preferenceDTO struct {
	UserID  uuid.UUID `db:"user_id"`
	MovieID int64     `db:"movie_id"`
	Rating  int       `db:"rating"`
	RatedAt time.Time `db:"created_at"`
}

type combinedDTO struct {
	MovieID      int64         `db:"movie_id"`
	UserRating   sql.NullInt64 `db:"user_rating"`
	FriendRating sql.NullInt64 `db:"friend_rating"`
	RatedAt      sql.NullTime  `db:"rated_at"`
}

func (d *Driver) Upsert(ctx context.Context, p model.Preference) error {
	query := `
		INSERT INTO preferences (user_id, movie_id, rating, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, movie_id)
		DO UPDATE SET rating = EXCLUDED.rating, created_at = NOW()
	`

	_, err := d.db.ExecContext(ctx, query, p.UserID, p.MovieID, p.Score)
	return err
}

func (d *Driver) ByUser(ctx context.Context, userID uuid.UUID) ([]model.Preference, error) {
	var rows []preferenceDTO

	query := `
		SELECT user_id, movie_id, rating, created_at
		FROM preferences
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	if err := d.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, err
	}

	out := make([]model.Preference, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.Preference{
			UserID:  r.UserID,
			MovieID: r.MovieID,
			Score:   r.Rating,
			RatedAt: r.RatedAt,
		})
	}
	return out, nil
}

// Combined returns one row per movie either user rated, with both scores
// where they overlap.
func (d *Driver) Combined(ctx context.Context, userID, friendID uuid.UUID) ([]model.CombinedPreference, error) {
	var rows []combinedDTO

	query := `
		SELECT movie_id,
		       a.rating AS user_rating,
		       b.rating AS friend_rating,
		       GREATEST(a.created_at, b.created_at) AS rated_at
		FROM (SELECT movie_id, rating, created_at FROM preferences WHERE user_id = $1) a
		FULL JOIN (SELECT movie_id, rating, created_at FROM preferences WHERE user_id = $2) b USING (movie_id)
		ORDER BY rated_at DESC
	`

	if err := d.db.SelectContext(ctx, &rows, query, userID, friendID); err != nil {
		return nil, err
	}

	out := make([]model.CombinedPreference, 0, len(rows))
	for _, r := range rows {
		cp := model.CombinedPreference{MovieID: r.MovieID}
		if r.UserRating.Valid {
			v := int(r.UserRating.Int64)
			cp.UserScore = &v
		}
		if r.FriendRating.Valid {
			v := int(r.FriendRating.Int64)
			cp.FriendScore = &v
		}
		if r.RatedAt.Valid {
			t := r.RatedAt.Time
			cp.RatedAt = &t
		}
		out = append(out, cp)
	}
	return out, nil
}

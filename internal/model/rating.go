package model

import "fmt"

// Rating is the three-way decision a user makes on the current movie.
type Rating string

const (
	RatingSkip  Rating = "skip"
	RatingMaybe Rating = "maybe"
	RatingWatch Rating = "watch"
)

// Score maps the label onto the 1..5 scale the preference store validates.
// skip=1, maybe=3, watch=5.
func (r Rating) Score() int {
	switch r {
	case RatingSkip:
		return 1
	case RatingMaybe:
		return 3
	case RatingWatch:
		return 5
	}
	return 0
}

func ParseRating(s string) (Rating, error) {
	switch Rating(s) {
	case RatingSkip, RatingMaybe, RatingWatch:
		return Rating(s), nil
	}
	return "", fmt.Errorf("unknown rating %q", s)
}

package model

// Movie is a single TMDB record as served by the catalog.
// Immutable once fetched.
type Movie struct {
	ID          int64
	Title       string
	Overview    string
	PosterLink  string
	ReleaseDate string
	Runtime     int // minutes, 0 when unknown
	Genres      []string

	// Flatrate providers the movie is currently available on.
	StreamingOptions []string
}

// Package infra_movie_cache stores discovered movies in Redis under
// movie_<id> keys. The keyspace mirrors what the catalog crawl produces
// so restarts reuse earlier top-ups.
package infra_movie_cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-redis/redis"

	"github.com/FreerikH/popcorn/internal/model"
)

var ErrMovieNotCached = errors.New("movie not cached")

const moviePrefix = "movie_"

type Driver struct {
	client *redis.Client
}

func New(client *redis.Client) *Driver {
	return &Driver{client: client}
}

type movieDTO struct {
	ID               int64    `json:"id"`
	Title            string   `json:"title"`
	Overview         string   `json:"overview"`
	PosterLink       string   `json:"poster_link"`
	ReleaseDate      string   `json:"release_date"`
	Runtime          int      `json:"runtime,omitempty"`
	Genres           []string `json:"genres"`
	StreamingOptions []string `json:"streaming_options"`
}

func convertToDTO(m model.Movie) movieDTO {
	return movieDTO(m)
}

func (d movieDTO) convert() model.Movie {
	return model.Movie(d)
}

func (d *Driver) Store(m model.Movie) error {
	raw, err := json.Marshal(convertToDTO(m))
	if err != nil {
		return err
	}
	return d.client.Set(moviePrefix+strconv.FormatInt(m.ID, 10), raw, 0).Err()
}

func (d *Driver) Movie(id int64) (model.Movie, error) {
	raw, err := d.client.Get(moviePrefix + strconv.FormatInt(id, 10)).Result()
	if err != nil {
		if err == redis.Nil {
			return model.Movie{}, ErrMovieNotCached
		}
		return model.Movie{}, err
	}
	var dto movieDTO
	if err := json.Unmarshal([]byte(raw), &dto); err != nil {
		return model.Movie{}, fmt.Errorf("corrupt cache entry for movie %d: %w", id, err)
	}
	return dto.convert(), nil
}

// IDs lists every cached movie id.
func (d *Driver) IDs() ([]int64, error) {
	keys, err := d.client.Keys(moviePrefix + "*").Result()
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(keys))
	for _, k := range keys {
		id, err := strconv.ParseInt(strings.TrimPrefix(k, moviePrefix), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

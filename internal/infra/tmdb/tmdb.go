// Package tmdb wraps the TMDB v3 endpoints the catalog needs: discover
// pages, the genre list and flatrate watch providers. Calls are rate
// limited so a cache top-up burst stays inside the upstream quota.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/FreerikH/popcorn/internal/model"
)

var ErrBadStatus = errors.New("tmdb: unexpected status")

const (
	defaultBaseURL   = "https://api.themoviedb.org/3"
	posterBaseURL    = "https://image.tmdb.org/t/p/w500"
	defaultRegion    = "DE"
	defaultRPS       = 10
	defaultTimeout   = 15 * time.Second
	releasedBefore   = "2025-01-01"
	discoverSortedBy = "popularity.desc"
)

type Client struct {
	baseURL    string
	token      string
	region     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger

	mu     sync.Mutex
	genres map[int64]string
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

func WithRegion(region string) Option {
	return func(c *Client) {
		if region != "" {
			c.region = region
		}
	}
}

func WithRPS(rps int) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), rps)
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func New(token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		token:      token,
		region:     defaultRegion,
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(defaultRPS), defaultRPS),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type genreListDTO struct {
	Genres []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"genres"`
}

type discoverDTO struct {
	Results []struct {
		ID          int64   `json:"id"`
		Title       string  `json:"title"`
		Overview    string  `json:"overview"`
		PosterPath  string  `json:"poster_path"`
		ReleaseDate string  `json:"release_date"`
		GenreIDs    []int64 `json:"genre_ids"`
	} `json:"results"`
	TotalPages int `json:"total_pages"`
}

type providersDTO struct {
	Results map[string]struct {
		Flatrate []struct {
			ProviderName string `json:"provider_name"`
		} `json:"flatrate"`
	} `json:"results"`
}

// Discover returns one page of popular movies with genre IDs already
// resolved to names. An empty slice means the catalog is exhausted.
func (c *Client) Discover(ctx context.Context, page int) ([]model.Movie, error) {
	genres, err := c.genreMap(ctx)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("sort_by", discoverSortedBy)
	q.Set("primary_release_date.lte", releasedBefore)
	q.Set("page", strconv.Itoa(page))

	var dto discoverDTO
	if err := c.get(ctx, "/discover/movie", q, &dto); err != nil {
		return nil, err
	}

	out := make([]model.Movie, 0, len(dto.Results))
	for _, r := range dto.Results {
		names := make([]string, 0, len(r.GenreIDs))
		for _, id := range r.GenreIDs {
			if name, ok := genres[id]; ok {
				names = append(names, name)
			}
		}
		poster := ""
		if r.PosterPath != "" {
			poster = posterBaseURL + r.PosterPath
		}
		out = append(out, model.Movie{
			ID:          r.ID,
			Title:       r.Title,
			Overview:    r.Overview,
			PosterLink:  poster,
			ReleaseDate: r.ReleaseDate,
			Genres:      names,
		})
	}
	return out, nil
}

// Providers returns the flatrate provider names for the configured region.
// Missing providers are not an error.
func (c *Client) Providers(ctx context.Context, movieID int64) ([]string, error) {
	var dto providersDTO
	path := fmt.Sprintf("/movie/%d/watch/providers", movieID)
	if err := c.get(ctx, path, nil, &dto); err != nil {
		return nil, err
	}
	region, ok := dto.Results[c.region]
	if !ok {
		return nil, nil
	}
	names := make([]string, 0, len(region.Flatrate))
	for _, p := range region.Flatrate {
		names = append(names, p.ProviderName)
	}
	return names, nil
}

// genreMap fetches the genre list once and keeps it for the client's
// lifetime; the list is static enough for a session.
func (c *Client) genreMap(ctx context.Context) (map[int64]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.genres != nil {
		return c.genres, nil
	}

	var dto genreListDTO
	if err := c.get(ctx, "/genre/movie/list", nil, &dto); err != nil {
		return nil, err
	}
	genres := make(map[int64]string, len(dto.Genres))
	for _, g := range dto.Genres {
		genres[g.ID] = g.Name
	}
	c.genres = genres
	c.logger.Info("loaded tmdb genres", slog.Int("count", len(genres)))
	return genres, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s %s", ErrBadStatus, path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

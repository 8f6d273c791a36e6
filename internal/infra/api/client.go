// Package api is the REST client the explorer queue runs against. It
// implements the explorer's Source and Sink contracts on top of the
// popcorn backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/FreerikH/popcorn/internal/model"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadStatus    = errors.New("unexpected status")
)

const defaultTimeout = 15 * time.Second

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

type Option func(*Client)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken attaches the bearer credential used on all subsequent calls.
func (c *Client) SetToken(token string) {
	c.token = token
}

type movieDTO struct {
	ID               int64    `json:"id"`
	Title            string   `json:"title"`
	Overview         string   `json:"overview"`
	PosterLink       string   `json:"poster_link"`
	ReleaseDate      string   `json:"release_date"`
	Runtime          int      `json:"runtime,omitempty"`
	Genres           []string `json:"genres"`
	StreamingOptions []string `json:"streaming_options,omitempty"`
}

func (d movieDTO) convert() model.Movie {
	return model.Movie{
		ID:               d.ID,
		Title:            d.Title,
		Overview:         d.Overview,
		PosterLink:       d.PosterLink,
		ReleaseDate:      d.ReleaseDate,
		Runtime:          d.Runtime,
		Genres:           d.Genres,
		StreamingOptions: d.StreamingOptions,
	}
}

type moviesListDTO struct {
	Movies []movieDTO `json:"movies"`
	Total  int        `json:"total"`
}

type preferenceRequestDTO struct {
	MovieID int64 `json:"movie_id"`
	Rating  int   `json:"rating"`
}

type loginRequestDTO struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type loginResponseDTO struct {
	Token string `json:"token"`
}

// Login exchanges the access code for a bearer token and stores it on the
// client. The name identifies the user to the backend.
func (c *Client) Login(ctx context.Context, code, name string) error {
	body, err := json.Marshal(loginRequestDTO{Code: code, Name: name})
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	var out loginResponseDTO
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode login response: %w", err)
	}
	c.token = out.Token
	return nil
}

// FetchMovie returns one movie outside the exclusion set.
func (c *Client) FetchMovie(ctx context.Context, exclude []int64) (model.Movie, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/movies", movieQuery(exclude, 0), nil)
	if err != nil {
		return model.Movie{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.Movie{}, statusError(resp)
	}
	var dto movieDTO
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
		return model.Movie{}, fmt.Errorf("decode movie: %w", err)
	}
	return dto.convert(), nil
}

// FetchMovies returns up to count movies outside the exclusion set.
func (c *Client) FetchMovies(ctx context.Context, exclude []int64, count int) ([]model.Movie, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/movies", movieQuery(exclude, count), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}
	var dto moviesListDTO
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
		return nil, fmt.Errorf("decode movie list: %w", err)
	}
	out := make([]model.Movie, 0, len(dto.Movies))
	for _, m := range dto.Movies {
		out = append(out, m.convert())
	}
	return out, nil
}

// SubmitRating persists one rating. The response body is ignored beyond the
// status code.
func (c *Client) SubmitRating(ctx context.Context, movieID int64, score int) error {
	body, err := json.Marshal(preferenceRequestDTO{MovieID: movieID, Rating: score})
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, http.MethodPost, "/api/movies/preferences", nil, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return nil
}

func movieQuery(exclude []int64, count int) url.Values {
	q := url.Values{}
	if len(exclude) > 0 {
		parts := make([]string, 0, len(exclude))
		for _, id := range exclude {
			parts = append(parts, strconv.FormatInt(id, 10))
		}
		q.Set("exclude", strings.Join(parts, ","))
	}
	if count > 0 {
		q.Set("count", strconv.Itoa(count))
	}
	return q
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte) (*http.Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.httpClient.Do(req)
}

func statusError(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusNotFound:
		return model.ErrNoEligibleMovie
	case http.StatusUnauthorized:
		return ErrUnauthorized
	}
	return fmt.Errorf("%w: %s", ErrBadStatus, resp.Status)
}

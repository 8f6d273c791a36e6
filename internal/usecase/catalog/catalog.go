// Package usecase_catalog serves random not-yet-seen movies out of the
// Redis cache and tops the cache up from TMDB when the eligible set runs
// dry.
package usecase_catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/FreerikH/popcorn/internal/model"
)

var (
	ErrFailedToLoadCache = errors.New("failed to load movie cache")
	ErrFailedToTopUp     = errors.New("failed to top up movie cache")
	ErrMovieNotFound     = errors.New("movie not found")
	ErrInvalidInput      = errors.New("invalid input")
)

// MovieCache is the Redis-backed movie store.
type MovieCache interface {
	IDs() ([]int64, error)
	Movie(id int64) (model.Movie, error)
	Store(m model.Movie) error
}

// Discoverer crawls the external catalog.
type Discoverer interface {
	Discover(ctx context.Context, page int) ([]model.Movie, error)
	Providers(ctx context.Context, movieID int64) ([]string, error)
}

const (
	defaultTopUpAttempts = 3
	topUpBatch           = 40
)

type Usecase struct {
	cache      MovieCache
	discoverer Discoverer
	logger     *slog.Logger

	topUpAttempts     int
	requiredProviders map[string]struct{}

	mu   sync.Mutex
	page int // last consumed discover page
}

type Option func(*Usecase)

func WithLogger(logger *slog.Logger) Option {
	return func(u *Usecase) {
		u.logger = logger
	}
}

func WithTopUpAttempts(n int) Option {
	return func(u *Usecase) {
		if n > 0 {
			u.topUpAttempts = n
		}
	}
}

// WithRequiredProviders restricts selection to movies available on at
// least one of the given streaming providers. Without it everything in
// the cache is eligible.
func WithRequiredProviders(providers []string) Option {
	return func(u *Usecase) {
		if len(providers) == 0 {
			return
		}
		u.requiredProviders = make(map[string]struct{}, len(providers))
		for _, p := range providers {
			u.requiredProviders[p] = struct{}{}
		}
	}
}

func New(cache MovieCache, discoverer Discoverer, opts ...Option) *Usecase {
	u := &Usecase{
		cache:         cache,
		discoverer:    discoverer,
		logger:        slog.Default(),
		topUpAttempts: defaultTopUpAttempts,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Random picks count random movies outside the exclusion set, honoring
// the required-providers filter. When the cache cannot satisfy the
// request it is topped up from the discoverer a bounded number of times;
// if the eligible set is still empty the caller gets ErrNoEligibleMovie,
// which the client treats as retry-shortly.
func (u *Usecase) Random(ctx context.Context, exclude []int64, count int) ([]model.Movie, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: count must be positive", ErrInvalidInput)
	}

	excluded := make(map[int64]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}

	for attempt := 0; ; attempt++ {
		ids, err := u.cache.IDs()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFailedToLoadCache, err)
		}

		eligible := ids[:0:0]
		for _, id := range ids {
			if _, ok := excluded[id]; ok {
				continue
			}
			if !u.providerEligible(id) {
				continue
			}
			eligible = append(eligible, id)
		}

		if len(eligible) >= count || (len(eligible) > 0 && attempt >= u.topUpAttempts) {
			return u.pick(eligible, count)
		}
		if attempt >= u.topUpAttempts {
			return nil, model.ErrNoEligibleMovie
		}

		known := append(append([]int64(nil), ids...), exclude...)
		if err := u.topUp(ctx, known); err != nil {
			u.logger.Warn("cache top-up failed",
				slog.Int("attempt", attempt+1),
				slog.String("error", err.Error()),
			)
		}
	}
}

// Movie returns one cached movie by id.
func (u *Usecase) Movie(ctx context.Context, id int64) (model.Movie, error) {
	m, err := u.cache.Movie(id)
	if err != nil {
		return model.Movie{}, fmt.Errorf("%w: %d", ErrMovieNotFound, id)
	}
	return m, nil
}

// providerEligible reports whether the cached movie streams on at least
// one required provider. Unreadable cache entries are treated as
// ineligible rather than failing the whole selection.
func (u *Usecase) providerEligible(id int64) bool {
	if len(u.requiredProviders) == 0 {
		return true
	}
	m, err := u.cache.Movie(id)
	if err != nil {
		return false
	}
	for _, p := range m.StreamingOptions {
		if _, ok := u.requiredProviders[p]; ok {
			return true
		}
	}
	return false
}

func (u *Usecase) pick(eligible []int64, count int) ([]model.Movie, error) {
	rand.Shuffle(len(eligible), func(i, j int) {
		eligible[i], eligible[j] = eligible[j], eligible[i]
	})
	if count > len(eligible) {
		count = len(eligible)
	}

	out := make([]model.Movie, 0, count)
	for _, id := range eligible[:count] {
		m, err := u.cache.Movie(id)
		if err != nil {
			u.logger.Warn("cached movie vanished", slog.Int64("movie_id", id))
			continue
		}
		out = append(out, m)
	}
	if len(out) == 0 {
		return nil, model.ErrNoEligibleMovie
	}
	return out, nil
}

// topUp crawls discover pages until it has stored topUpBatch movies not
// already known, enriching each with its streaming providers.
func (u *Usecase) topUp(ctx context.Context, known []int64) error {
	knownSet := make(map[int64]struct{}, len(known))
	for _, id := range known {
		knownSet[id] = struct{}{}
	}

	collected := 0
	for collected < topUpBatch {
		u.mu.Lock()
		u.page++
		page := u.page
		u.mu.Unlock()

		movies, err := u.discoverer.Discover(ctx, page)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrFailedToTopUp, err)
		}
		if len(movies) == 0 {
			break // catalog exhausted
		}

		for _, m := range movies {
			if _, ok := knownSet[m.ID]; ok {
				continue
			}
			knownSet[m.ID] = struct{}{}

			providers, err := u.discoverer.Providers(ctx, m.ID)
			if err != nil {
				u.logger.Debug("no providers for movie",
					slog.Int64("movie_id", m.ID),
					slog.String("error", err.Error()),
				)
			}
			m.StreamingOptions = providers

			if err := u.cache.Store(m); err != nil {
				return fmt.Errorf("%w: %w", ErrFailedToTopUp, err)
			}
			collected++
			if collected >= topUpBatch {
				break
			}
		}
	}

	u.logger.Info("movie cache topped up", slog.Int("added", collected))
	return nil
}

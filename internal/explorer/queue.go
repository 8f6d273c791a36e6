// Package explorer keeps exactly one displayable movie ready at all times
// while hiding network latency from the rating action. It owns a small
// lookahead buffer that is refilled in the background as the user rates.
package explorer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/FreerikH/popcorn/internal/model"
)

var (
	ErrFailedToFetch = errors.New("failed to fetch movie")
	ErrNothingToRate = errors.New("no current movie to rate")
)

// Source serves not-yet-seen movies, best-effort excluding the given IDs.
type Source interface {
	FetchMovie(ctx context.Context, exclude []int64) (model.Movie, error)
	FetchMovies(ctx context.Context, exclude []int64, count int) ([]model.Movie, error)
}

// Sink persists a rating. Its outcome never influences queue state.
type Sink interface {
	SubmitRating(ctx context.Context, movieID int64, score int) error
}

// State of the displayed slot.
type State int

const (
	StateEmpty State = iota
	StateLoading
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Snapshot is the read-only view handed to the rendering layer.
type Snapshot struct {
	State    State
	Current  *model.Movie
	Buffered int
	Seen     int
	Err      error
}

const (
	defaultTarget  = 3
	defaultRetries = 3
	defaultBackoff = 500 * time.Millisecond

	// Exclusion lists grow for the whole session; only the most recent IDs
	// go on the wire so request size stays bounded. The exclusion is
	// best-effort anyway.
	maxExcludeParam = 500

	ratingWriteTimeout = 10 * time.Second
)

// Queue is the movie queue manager. All exported methods are safe for
// concurrent use; state is owned by a single mutex.
type Queue struct {
	source Source
	sink   Sink
	logger *slog.Logger

	target  int
	minFill int
	retries int
	backoff time.Duration

	mu           sync.Mutex
	state        State
	err          error
	current      *model.Movie
	buffer       []model.Movie
	seen         map[int64]struct{}
	seenOrder    []int64
	replenishing bool
	closed       bool

	bg    sync.WaitGroup
	sleep func(time.Duration)
}

type Option func(*Queue)

func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) {
		q.logger = logger
	}
}

// WithTarget sets the lookahead buffer capacity (the current movie is not
// counted against it).
func WithTarget(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.target = n
		}
	}
}

// WithMinFill sets the threshold below which a replenish fires.
func WithMinFill(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.minFill = n
		}
	}
}

func WithRetries(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.retries = n
		}
	}
}

func WithBackoff(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.backoff = d
		}
	}
}

func New(source Source, sink Sink, opts ...Option) *Queue {
	q := &Queue{
		source:  source,
		sink:    sink,
		logger:  slog.Default(),
		target:  defaultTarget,
		retries: defaultRetries,
		backoff: defaultBackoff,
		seen:    make(map[int64]struct{}),
		sleep:   time.Sleep,
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.minFill == 0 || q.minFill > q.target {
		q.minFill = q.target
	}
	return q
}

// Initialize fills the queue from scratch: one batch of target+1 movies,
// first becomes current, the rest the lookahead. On failure no partial
// state is left current.
func (q *Queue) Initialize(ctx context.Context) error {
	q.mu.Lock()
	q.state = StateLoading
	q.err = nil
	q.mu.Unlock()

	movies, err := q.fetchWithRetry(ctx, q.target+1)
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	if err != nil {
		q.current = nil
		q.buffer = nil
		q.state = StateError
		q.err = err
		return fmt.Errorf("%w: %w", ErrFailedToFetch, err)
	}

	head := movies[0]
	q.current = &head
	q.buffer = append([]model.Movie(nil), movies[1:]...)
	if len(q.buffer) > q.target {
		q.buffer = q.buffer[:q.target]
	}
	q.state = StateReady
	return nil
}

// Replenish tops the buffer up toward target in the background. No-op when
// a refill is already in flight or the buffer is at its threshold. Failures
// are logged, never surfaced: the user is not interrupted for a prefetch.
func (q *Queue) Replenish(ctx context.Context) {
	q.mu.Lock()
	if q.replenishing || q.closed || len(q.buffer) >= q.minFill {
		q.mu.Unlock()
		return
	}
	q.replenishing = true
	need := q.target - len(q.buffer)
	q.mu.Unlock()

	q.bg.Add(1)
	go func() {
		defer q.bg.Done()
		movies, err := q.fetchWithRetry(ctx, need)

		q.mu.Lock()
		defer q.mu.Unlock()
		q.replenishing = false
		if q.closed {
			return
		}
		if err != nil {
			q.logger.Warn("background replenish failed",
				slog.Int("need", need),
				slog.String("error", err.Error()),
			)
			return
		}
		q.buffer = append(q.buffer, movies...)
		if len(q.buffer) > q.target {
			q.buffer = q.buffer[:q.target]
		}
	}()
}

// Advance pops the buffer head into current. With an empty buffer it
// fetches synchronously and the snapshot reports loading until it resolves.
func (q *Queue) Advance(ctx context.Context) error {
	q.mu.Lock()
	if len(q.buffer) > 0 {
		head := q.buffer[0]
		q.buffer = append([]model.Movie(nil), q.buffer[1:]...)
		q.current = &head
		q.state = StateReady
		q.err = nil
		q.mu.Unlock()
		q.Replenish(ctx)
		return nil
	}
	q.current = nil
	q.state = StateLoading
	q.err = nil
	q.mu.Unlock()

	movies, err := q.fetchWithRetry(ctx, 1)
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	if err != nil {
		q.state = StateError
		q.err = err
		return fmt.Errorf("%w: %w", ErrFailedToFetch, err)
	}
	head := movies[0]
	q.current = &head
	q.state = StateReady
	return nil
}

// Rate records the decision for the current movie. The queue advances
// before the write resolves; the write itself is detached and its failure
// is only logged.
func (q *Queue) Rate(ctx context.Context, rating model.Rating) error {
	q.mu.Lock()
	if q.current == nil {
		q.mu.Unlock()
		return ErrNothingToRate
	}
	movieID := q.current.ID
	q.mu.Unlock()

	err := q.Advance(ctx)

	q.bg.Add(1)
	go func(id int64, score int) {
		defer q.bg.Done()
		wctx, cancel := context.WithTimeout(context.Background(), ratingWriteTimeout)
		defer cancel()
		if werr := q.sink.SubmitRating(wctx, id, score); werr != nil {
			q.logger.Warn("rating write failed",
				slog.Int64("movie_id", id),
				slog.Int("score", score),
				slog.String("error", werr.Error()),
			)
		}
	}(movieID, rating.Score())

	return err
}

// Snapshot returns a copy of the visible state.
func (q *Queue) Snapshot() Snapshot {
	q.mu.Lock()
	defer q.mu.Unlock()
	s := Snapshot{
		State:    q.state,
		Buffered: len(q.buffer),
		Seen:     len(q.seen),
		Err:      q.err,
	}
	if q.current != nil {
		c := *q.current
		s.Current = &c
	}
	return s
}

// Close marks the queue unmounted and waits for detached work to drain.
// In-flight fetches are not aborted; their completions see closed and leave
// the discarded state alone.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.bg.Wait()
}

// fetchWithRetry issues one fetch of count movies, retrying only the
// transient no-eligible-movie condition with linearly increasing delay.
// Successfully fetched IDs are recorded into the seen set.
func (q *Queue) fetchWithRetry(ctx context.Context, count int) ([]model.Movie, error) {
	var lastErr error
	for attempt := 1; attempt <= q.retries; attempt++ {
		exclude := q.excludeIDs()

		var (
			movies []model.Movie
			err    error
		)
		if count == 1 {
			var m model.Movie
			m, err = q.source.FetchMovie(ctx, exclude)
			movies = []model.Movie{m}
		} else {
			movies, err = q.source.FetchMovies(ctx, exclude, count)
		}
		if err == nil && len(movies) == 0 {
			err = model.ErrNoEligibleMovie
		}
		if err == nil {
			q.markSeen(movies)
			return movies, nil
		}
		lastErr = err
		if !errors.Is(err, model.ErrNoEligibleMovie) || attempt == q.retries {
			break
		}
		q.sleep(time.Duration(attempt) * q.backoff)
	}
	return nil, lastErr
}

func (q *Queue) excludeIDs() []int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	ids := q.seenOrder
	if len(ids) > maxExcludeParam {
		ids = ids[len(ids)-maxExcludeParam:]
	}
	out := make([]int64, len(ids))
	copy(out, ids)
	return out
}

func (q *Queue) markSeen(movies []model.Movie) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, m := range movies {
		if _, ok := q.seen[m.ID]; ok {
			continue
		}
		q.seen[m.ID] = struct{}{}
		q.seenOrder = append(q.seenOrder, m.ID)
	}
}

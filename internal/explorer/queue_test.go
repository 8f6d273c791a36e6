//go:build !integration
// +build !integration

package explorer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"

	"github.com/FreerikH/popcorn/internal/model"
)

type QueueUnitSuite struct {
	suite.Suite
}

func TestQueueUnitSuite(t *testing.T) {
	suite.RunSuite(t, new(QueueUnitSuite))
}

type MovieBuilder struct {
	m model.Movie
}

func NewMovieBuilder(id int64) *MovieBuilder {
	return &MovieBuilder{
		m: model.Movie{
			ID:          id,
			Title:       fmt.Sprintf("Test Movie %d", id),
			Overview:    "Test overview",
			PosterLink:  "https://image.tmdb.org/t/p/w500/test.jpg",
			ReleaseDate: "2024-05-01",
			Runtime:     112,
			Genres:      []string{"Drama", "Comedy"},
		},
	}
}

func (b *MovieBuilder) Build() model.Movie {
	return b.m
}

func movies(ids ...int64) []model.Movie {
	out := make([]model.Movie, 0, len(ids))
	for _, id := range ids {
		out = append(out, NewMovieBuilder(id).Build())
	}
	return out
}

// fakeSource scripts Source responses and records every call.
type fakeSource struct {
	mu sync.Mutex

	fetchMovie  func(exclude []int64) (model.Movie, error)
	fetchMovies func(exclude []int64, count int) ([]model.Movie, error)

	singleCalls int
	batchCalls  int
	excludes    [][]int64
}

func (f *fakeSource) FetchMovie(_ context.Context, exclude []int64) (model.Movie, error) {
	f.mu.Lock()
	f.singleCalls++
	f.excludes = append(f.excludes, append([]int64(nil), exclude...))
	fn := f.fetchMovie
	f.mu.Unlock()
	if fn == nil {
		return model.Movie{}, errors.New("unexpected FetchMovie call")
	}
	return fn(exclude)
}

func (f *fakeSource) FetchMovies(_ context.Context, exclude []int64, count int) ([]model.Movie, error) {
	f.mu.Lock()
	f.batchCalls++
	f.excludes = append(f.excludes, append([]int64(nil), exclude...))
	fn := f.fetchMovies
	f.mu.Unlock()
	if fn == nil {
		return nil, errors.New("unexpected FetchMovies call")
	}
	return fn(exclude, count)
}

type fakeSink struct {
	mu      sync.Mutex
	submit  func(movieID int64, score int) error
	calls   int
	lastID  int64
	lastVal int
}

func (f *fakeSink) SubmitRating(_ context.Context, movieID int64, score int) error {
	f.mu.Lock()
	f.calls++
	f.lastID = movieID
	f.lastVal = score
	fn := f.submit
	f.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(movieID, score)
}

func noSleep(q *Queue) {
	q.sleep = func(time.Duration) {}
}

func (s *QueueUnitSuite) TestInitialize(t provider.T) {
	t.Run("fills current and lookahead from one batch", func(t provider.T) {
		source := &fakeSource{
			fetchMovies: func(_ []int64, count int) ([]model.Movie, error) {
				assert.Equal(t, 3, count)
				return movies(1, 2, 3), nil
			},
		}
		q := New(source, &fakeSink{}, WithTarget(2))
		noSleep(q)

		err := q.Initialize(context.Background())
		assert.NoError(t, err)

		snap := q.Snapshot()
		assert.Equal(t, StateReady, snap.State)
		assert.Equal(t, int64(1), snap.Current.ID)
		assert.Equal(t, 2, snap.Buffered)
		assert.Equal(t, 3, snap.Seen)
	})

	t.Run("surfaces an error and leaves no partial state", func(t provider.T) {
		source := &fakeSource{
			fetchMovies: func([]int64, int) ([]model.Movie, error) {
				return nil, errors.New("upstream down")
			},
		}
		q := New(source, &fakeSink{}, WithTarget(2))
		noSleep(q)

		err := q.Initialize(context.Background())
		assert.Error(t, err)
		assert.True(t, errors.Is(err, ErrFailedToFetch))

		snap := q.Snapshot()
		assert.Equal(t, StateError, snap.State)
		assert.Nil(t, snap.Current)
		assert.Equal(t, 0, snap.Buffered)
	})

	t.Run("truncates an oversized batch but remembers every id", func(t provider.T) {
		source := &fakeSource{
			fetchMovies: func([]int64, int) ([]model.Movie, error) {
				return movies(1, 2, 3, 4), nil
			},
		}
		q := New(source, &fakeSink{}, WithTarget(2))
		noSleep(q)

		assert.NoError(t, q.Initialize(context.Background()))

		snap := q.Snapshot()
		assert.Equal(t, int64(1), snap.Current.ID)
		assert.Equal(t, 2, snap.Buffered)
		assert.Equal(t, 4, snap.Seen)
	})
}

func (s *QueueUnitSuite) TestBufferBounds(t provider.T) {
	var (
		idMu sync.Mutex
		next int64
	)
	nextID := func() int64 {
		idMu.Lock()
		defer idMu.Unlock()
		next++
		return next + 100
	}
	source := &fakeSource{}
	source.fetchMovie = func([]int64) (model.Movie, error) {
		return NewMovieBuilder(nextID()).Build(), nil
	}
	source.fetchMovies = func(_ []int64, count int) ([]model.Movie, error) {
		out := make([]model.Movie, 0, count)
		for i := 0; i < count; i++ {
			out = append(out, NewMovieBuilder(nextID()).Build())
		}
		return out, nil
	}

	q := New(source, &fakeSink{}, WithTarget(3))
	noSleep(q)
	assert.NoError(t, q.Initialize(context.Background()))

	for i := 0; i < 20; i++ {
		assert.NoError(t, q.Rate(context.Background(), model.RatingSkip))
		snap := q.Snapshot()
		assert.GreaterOrEqual(t, snap.Buffered, 0)
		assert.LessOrEqual(t, snap.Buffered, 3)
		assert.NotNil(t, snap.Current)
	}
	q.Close()
}

func (s *QueueUnitSuite) TestReplenishSingleFlight(t provider.T) {
	release := make(chan struct{})
	source := &fakeSource{
		fetchMovies: func(_ []int64, count int) ([]model.Movie, error) {
			<-release
			return movies(1, 2, 3), nil
		},
	}
	q := New(source, &fakeSink{}, WithTarget(3))
	noSleep(q)

	q.Replenish(context.Background())
	q.Replenish(context.Background())
	q.Replenish(context.Background())
	close(release)
	q.bg.Wait()

	source.mu.Lock()
	defer source.mu.Unlock()
	assert.Equal(t, 1, source.batchCalls)
}

func (s *QueueUnitSuite) TestImmediateAdvance(t provider.T) {
	source := &fakeSource{
		fetchMovies: func(_ []int64, count int) ([]model.Movie, error) {
			return movies(10, 11, 12), nil
		},
	}
	sinkRelease := make(chan struct{})
	sink := &fakeSink{
		submit: func(int64, int) error {
			<-sinkRelease
			return nil
		},
	}
	q := New(source, sink, WithTarget(2))
	noSleep(q)
	assert.NoError(t, q.Initialize(context.Background()))

	// The write is still pending when Rate returns; current must already
	// be the prior buffer head.
	assert.NoError(t, q.Rate(context.Background(), model.RatingWatch))
	snap := q.Snapshot()
	assert.Equal(t, int64(11), snap.Current.ID)

	close(sinkRelease)
	q.bg.Wait()

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, 1, sink.calls)
	assert.Equal(t, int64(10), sink.lastID)
	assert.Equal(t, model.RatingWatch.Score(), sink.lastVal)
}

func (s *QueueUnitSuite) TestDedupPropagation(t provider.T) {
	source := &fakeSource{
		fetchMovies: func(exclude []int64, count int) ([]model.Movie, error) {
			return movies(1, 2, 3), nil
		},
		fetchMovie: func(exclude []int64) (model.Movie, error) {
			return NewMovieBuilder(4).Build(), nil
		},
	}
	q := New(source, &fakeSink{}, WithTarget(2))
	noSleep(q)
	assert.NoError(t, q.Initialize(context.Background()))

	assert.NoError(t, q.Rate(context.Background(), model.RatingMaybe))
	q.bg.Wait()

	source.mu.Lock()
	defer source.mu.Unlock()
	assert.GreaterOrEqual(t, len(source.excludes), 2)
	assert.ElementsMatch(t, []int64{1, 2, 3}, source.excludes[1])
}

func (s *QueueUnitSuite) TestRetryBound(t provider.T) {
	source := &fakeSource{
		fetchMovie: func([]int64) (model.Movie, error) {
			return model.Movie{}, model.ErrNoEligibleMovie
		},
	}
	q := New(source, &fakeSink{}, WithTarget(2), WithRetries(3), WithBackoff(100*time.Millisecond))

	var delays []time.Duration
	q.sleep = func(d time.Duration) {
		delays = append(delays, d)
	}

	// Empty buffer: Advance takes the synchronous single-fetch path.
	err := q.Advance(context.Background())
	assert.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrNoEligibleMovie))

	source.mu.Lock()
	assert.Equal(t, 3, source.singleCalls)
	source.mu.Unlock()

	assert.Len(t, delays, 2)
	assert.Less(t, delays[0], delays[1])

	snap := q.Snapshot()
	assert.Equal(t, StateError, snap.State)
}

func (s *QueueUnitSuite) TestHardFailureDoesNotRetry(t provider.T) {
	source := &fakeSource{
		fetchMovie: func([]int64) (model.Movie, error) {
			return model.Movie{}, errors.New("connection refused")
		},
	}
	q := New(source, &fakeSink{}, WithTarget(2))
	noSleep(q)

	err := q.Advance(context.Background())
	assert.Error(t, err)

	source.mu.Lock()
	defer source.mu.Unlock()
	assert.Equal(t, 1, source.singleCalls)
}

func (s *QueueUnitSuite) TestWriteFailureIsolation(t provider.T) {
	initialized := false
	source := &fakeSource{
		fetchMovies: func(_ []int64, count int) ([]model.Movie, error) {
			if !initialized {
				initialized = true
				return movies(100, 1, 2), nil // X, A, B
			}
			return nil, errors.New("upstream down")
		},
		// Background top-up failing must stay invisible too.
		fetchMovie: func([]int64) (model.Movie, error) {
			return model.Movie{}, errors.New("upstream down")
		},
	}
	sink := &fakeSink{
		submit: func(int64, int) error {
			return errors.New("write rejected")
		},
	}
	q := New(source, sink, WithTarget(2))
	noSleep(q)
	assert.NoError(t, q.Initialize(context.Background()))

	assert.NoError(t, q.Rate(context.Background(), model.RatingWatch))
	q.bg.Wait()

	snap := q.Snapshot()
	assert.Equal(t, StateReady, snap.State)
	assert.NoError(t, snap.Err)
	assert.Equal(t, int64(1), snap.Current.ID)
	assert.Equal(t, 1, snap.Buffered)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, 1, sink.calls)
}

func (s *QueueUnitSuite) TestRateWithEmptyBuffer(t provider.T) {
	source := &fakeSource{
		fetchMovies: func(_ []int64, count int) ([]model.Movie, error) {
			return movies(7), nil // current only, nothing buffered
		},
		fetchMovie: func([]int64) (model.Movie, error) {
			return NewMovieBuilder(8).Build(), nil
		},
	}
	q := New(source, &fakeSink{}, WithTarget(2))
	noSleep(q)
	assert.NoError(t, q.Initialize(context.Background()))
	assert.Equal(t, 0, q.Snapshot().Buffered)

	assert.NoError(t, q.Rate(context.Background(), model.RatingSkip))
	snap := q.Snapshot()
	assert.Equal(t, StateReady, snap.State)
	assert.Equal(t, int64(8), snap.Current.ID)
	q.Close()
}

func (s *QueueUnitSuite) TestRateWithoutCurrent(t provider.T) {
	q := New(&fakeSource{}, &fakeSink{}, WithTarget(2))
	noSleep(q)

	err := q.Rate(context.Background(), model.RatingWatch)
	assert.True(t, errors.Is(err, ErrNothingToRate))
}

func (s *QueueUnitSuite) TestCloseDiscardsLateCompletions(t provider.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	source := &fakeSource{
		fetchMovies: func(_ []int64, count int) ([]model.Movie, error) {
			close(started)
			<-release
			return movies(1, 2, 3), nil
		},
	}
	q := New(source, &fakeSink{}, WithTarget(3))
	noSleep(q)

	q.Replenish(context.Background())
	<-started

	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	close(release)
	q.bg.Wait()

	assert.Equal(t, 0, q.Snapshot().Buffered)
}

func (s *QueueUnitSuite) TestExcludeListWireCap(t provider.T) {
	q := New(&fakeSource{}, &fakeSink{}, WithTarget(2))
	noSleep(q)

	batch := make([]model.Movie, 0, 600)
	for id := int64(1); id <= 600; id++ {
		batch = append(batch, NewMovieBuilder(id).Build())
	}
	q.markSeen(batch)

	// The wire list holds the most recent cap's worth; the local seen set
	// keeps everything.
	exclude := q.excludeIDs()
	assert.Len(t, exclude, maxExcludeParam)
	assert.Equal(t, int64(101), exclude[0])
	assert.Equal(t, int64(600), exclude[len(exclude)-1])
	assert.Equal(t, 600, q.Snapshot().Seen)
}

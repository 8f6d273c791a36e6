//go:build !integration
// +build !integration

package tmdb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"
)

type TMDBClientUnitSuite struct {
	suite.Suite
}

func TestTMDBClientUnitSuite(t *testing.T) {
	suite.RunSuite(t, new(TMDBClientUnitSuite))
}

func newStub() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/genre/movie/list", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"genres": []map[string]any{
				{"id": 28, "name": "Action"},
				{"id": 878, "name": "Science Fiction"},
			},
		})
	})
	mux.HandleFunc("/discover/movie", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{
					"id":           603,
					"title":        "The Matrix",
					"overview":     "A hacker learns the truth.",
					"poster_path":  "/matrix.jpg",
					"release_date": "1999-03-31",
					"genre_ids":    []int64{28, 878, 999},
				},
			},
			"total_pages": 1,
		})
	})
	mux.HandleFunc("/movie/603/watch/providers", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"results": map[string]any{
				"DE": map[string]any{
					"flatrate": []map[string]any{
						{"provider_name": "Netflix"},
						{"provider_name": "WOW"},
					},
				},
			},
		})
	})
	return httptest.NewServer(mux)
}

func (s *TMDBClientUnitSuite) TestDiscoverResolvesGenres(t provider.T) {
	server := newStub()
	defer server.Close()

	client := New("test-token", WithBaseURL(server.URL))
	movies, err := client.Discover(context.Background(), 1)
	assert.NoError(t, err)
	assert.Len(t, movies, 1)
	assert.Equal(t, int64(603), movies[0].ID)
	// Unknown genre id 999 is dropped, known ones resolve to names.
	assert.Equal(t, []string{"Action", "Science Fiction"}, movies[0].Genres)
	assert.Equal(t, posterBaseURL+"/matrix.jpg", movies[0].PosterLink)
}

func (s *TMDBClientUnitSuite) TestProvidersForRegion(t provider.T) {
	server := newStub()
	defer server.Close()

	client := New("test-token", WithBaseURL(server.URL), WithRegion("DE"))
	providers, err := client.Providers(context.Background(), 603)
	assert.NoError(t, err)
	assert.Equal(t, []string{"Netflix", "WOW"}, providers)
}

func (s *TMDBClientUnitSuite) TestProvidersMissingRegion(t provider.T) {
	server := newStub()
	defer server.Close()

	client := New("test-token", WithBaseURL(server.URL), WithRegion("SE"))
	providers, err := client.Providers(context.Background(), 603)
	assert.NoError(t, err)
	assert.Empty(t, providers)
}

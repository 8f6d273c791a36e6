package http_movie

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	http_common "github.com/FreerikH/popcorn/internal/delivery/http/common"
	http_auth_middleware "github.com/FreerikH/popcorn/internal/delivery/http/middleware/auth"
	"github.com/FreerikH/popcorn/internal/model"
	usecase_catalog "github.com/FreerikH/popcorn/internal/usecase/catalog"
)

const maxBatchCount = 20

type MovieResponseDTO struct {
	ID               int64    `json:"id"`
	Title            string   `json:"title"`
	Overview         string   `json:"overview"`
	PosterLink       string   `json:"poster_link"`
	ReleaseDate      string   `json:"release_date"`
	Runtime          int      `json:"runtime,omitempty"`
	Genres           []string `json:"genres"`
	StreamingOptions []string `json:"streaming_options,omitempty"`
}

type MoviesListResponseDTO struct {
	Movies []MovieResponseDTO `json:"movies"`
	Total  int                `json:"total"`
}

func ConvertFromMovie(m model.Movie) MovieResponseDTO {
	return MovieResponseDTO{
		ID:               m.ID,
		Title:            m.Title,
		Overview:         m.Overview,
		PosterLink:       m.PosterLink,
		ReleaseDate:      m.ReleaseDate,
		Runtime:          m.Runtime,
		Genres:           m.Genres,
		StreamingOptions: m.StreamingOptions,
	}
}

func ConvertFromMovieList(movies []model.Movie) []MovieResponseDTO {
	out := make([]MovieResponseDTO, len(movies))
	for i, m := range movies {
		out[i] = ConvertFromMovie(m)
	}
	return out
}

type Controller struct {
	uc         *usecase_catalog.Usecase
	middleware *http_auth_middleware.Middleware

	logger *slog.Logger
}

type ControllerOption func(*Controller)

func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

func New(uc *usecase_catalog.Usecase,
	middleware *http_auth_middleware.Middleware,
	opts ...ControllerOption) *Controller {
	c := &Controller{
		uc:         uc,
		middleware: middleware,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	movies := router.Group("/movies")
	movies.Use(c.middleware.AuthRequired())
	movies.GET("", c.getMovies)
	movies.GET("/:movie_id", c.getMovie)
}

// getMovies serves the explorer queue: one random not-yet-seen movie, or
// a batch when count is given. 404 means "nothing eligible right now,
// retry shortly", which the client treats as transient.
func (c *Controller) getMovies(ctx *gin.Context) {
	exclude, err := parseExclude(ctx.Query("exclude"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Error: "Invalid exclude list",
			Code:  http.StatusBadRequest,
		})
		return
	}

	count := 1
	if raw := ctx.Query("count"); raw != "" {
		count, err = strconv.Atoi(raw)
		if err != nil || count < 1 || count > maxBatchCount {
			ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
				Error: "Invalid count",
				Code:  http.StatusBadRequest,
			})
			return
		}
	}

	movies, err := c.uc.Random(ctx.Request.Context(), exclude, count)
	if err != nil {
		if errors.Is(err, model.ErrNoEligibleMovie) {
			ctx.JSON(http.StatusNotFound, http_common.ErrorResponse{
				Error: "No eligible movie",
				Code:  http.StatusNotFound,
			})
			return
		}
		c.logger.Error("failed to pick movies", slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
			Error:   "Failed to pick movies",
			Message: err.Error(),
			Code:    http.StatusInternalServerError,
		})
		return
	}

	if ctx.Query("count") == "" {
		ctx.JSON(http.StatusOK, ConvertFromMovie(movies[0]))
		return
	}
	ctx.JSON(http.StatusOK, MoviesListResponseDTO{
		Movies: ConvertFromMovieList(movies),
		Total:  len(movies),
	})
}

func (c *Controller) getMovie(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("movie_id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Error: "Invalid movie ID",
			Code:  http.StatusBadRequest,
		})
		return
	}

	movie, err := c.uc.Movie(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, usecase_catalog.ErrMovieNotFound) {
			ctx.JSON(http.StatusNotFound, http_common.ErrorResponse{
				Error: "Movie not found",
				Code:  http.StatusNotFound,
			})
			return
		}
		c.logger.Error("failed to load movie",
			slog.Int64("movie_id", id),
			slog.String("error", err.Error()),
		)
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
			Error:   "Failed to load movie",
			Message: err.Error(),
			Code:    http.StatusInternalServerError,
		})
		return
	}

	ctx.JSON(http.StatusOK, ConvertFromMovie(movie))
}

func parseExclude(raw string) ([]int64, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

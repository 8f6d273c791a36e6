package http_preference

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	http_common "github.com/FreerikH/popcorn/internal/delivery/http/common"
	http_auth_middleware "github.com/FreerikH/popcorn/internal/delivery/http/middleware/auth"
	"github.com/FreerikH/popcorn/internal/model"
	usecase_preference "github.com/FreerikH/popcorn/internal/usecase/preference"
)

type CreatePreferenceRequestDTO struct {
	MovieID int64 `json:"movie_id" binding:"required"`
	Rating  int   `json:"rating" binding:"required"`
}

type PreferenceResponseDTO struct {
	MovieID int64  `json:"movie_id"`
	Rating  int    `json:"rating"`
	RatedAt string `json:"rated_at"`
}

type CombinedPreferenceResponseDTO struct {
	MovieID      int64  `json:"movie_id"`
	UserRating   *int   `json:"user_rating,omitempty"`
	FriendRating *int   `json:"friend_rating,omitempty"`
	RatedAt      string `json:"rated_at,omitempty"`
}

type ComparisonResponseDTO struct {
	Preferences   []CombinedPreferenceResponseDTO `json:"preferences"`
	Compatibility float64                         `json:"compatibility"`
	SharedCount   int                             `json:"shared_count"`
}

func ConvertFromPreference(p model.Preference) PreferenceResponseDTO {
	return PreferenceResponseDTO{
		MovieID: p.MovieID,
		Rating:  p.Score,
		RatedAt: p.RatedAt.Format(time.RFC3339),
	}
}

func ConvertFromComparison(cmp model.Comparison) ComparisonResponseDTO {
	prefs := make([]CombinedPreferenceResponseDTO, len(cmp.Preferences))
	for i, cp := range cmp.Preferences {
		dto := CombinedPreferenceResponseDTO{
			MovieID:      cp.MovieID,
			UserRating:   cp.UserScore,
			FriendRating: cp.FriendScore,
		}
		if cp.RatedAt != nil {
			dto.RatedAt = cp.RatedAt.Format(time.RFC3339)
		}
		prefs[i] = dto
	}
	return ComparisonResponseDTO{
		Preferences:   prefs,
		Compatibility: cmp.Compatibility,
		SharedCount:   cmp.SharedCount,
	}
}

type Controller struct {
	uc         *usecase_preference.Usecase
	middleware *http_auth_middleware.Middleware

	logger *slog.Logger
}

type ControllerOption func(*Controller)

func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

func New(uc *usecase_preference.Usecase,
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
	prefs := router.Group("/movies/preferences")
	prefs.Use(c.middleware.AuthRequired())
	prefs.POST("", c.createPreference)
	prefs.GET("", c.getPreferences)
	prefs.GET("/combined/:user_id", c.getCombined)
}

func (c *Controller) createPreference(ctx *gin.Context) {
	userID, ok := http_auth_middleware.UserID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, http_common.ErrorResponse{
			Error: "Not authenticated",
			Code:  http.StatusUnauthorized,
		})
		return
	}

	var req CreatePreferenceRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Error: "Invalid request body",
			Code:  http.StatusBadRequest,
		})
		return
	}

	if err := c.uc.Save(ctx.Request.Context(), userID, req.MovieID, req.Rating); err != nil {
		if errors.Is(err, usecase_preference.ErrInvalidScore) {
			ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
				Error: "Rating out of range",
				Code:  http.StatusBadRequest,
			})
			return
		}
		c.logger.Error("failed to save preference",
			slog.Int64("movie_id", req.MovieID),
			slog.String("error", err.Error()),
		)
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
			Error:   "Failed to save preference",
			Message: err.Error(),
			Code:    http.StatusInternalServerError,
		})
		return
	}

	ctx.Status(http.StatusCreated)
}

func (c *Controller) getPreferences(ctx *gin.Context) {
	userID, ok := http_auth_middleware.UserID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, http_common.ErrorResponse{
			Error: "Not authenticated",
			Code:  http.StatusUnauthorized,
		})
		return
	}

	prefs, err := c.uc.List(ctx.Request.Context(), userID)
	if err != nil {
		c.logger.Error("failed to list preferences", slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
			Error:   "Failed to list preferences",
			Message: err.Error(),
			Code:    http.StatusInternalServerError,
		})
		return
	}

	out := make([]PreferenceResponseDTO, len(prefs))
	for i, p := range prefs {
		out[i] = ConvertFromPreference(p)
	}
	ctx.JSON(http.StatusOK, out)
}

func (c *Controller) getCombined(ctx *gin.Context) {
	userID, ok := http_auth_middleware.UserID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, http_common.ErrorResponse{
			Error: "Not authenticated",
			Code:  http.StatusUnauthorized,
		})
		return
	}

	friendID, err := uuid.Parse(ctx.Param("user_id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Error: "Invalid user ID",
			Code:  http.StatusBadRequest,
		})
		return
	}

	comparison, err := c.uc.Compare(ctx.Request.Context(), userID, friendID)
	if err != nil {
		c.logger.Error("failed to compare preferences",
			slog.String("friend_id", friendID.String()),
			slog.String("error", err.Error()),
		)
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
			Error:   "Failed to compare preferences",
			Message: err.Error(),
			Code:    http.StatusInternalServerError,
		})
		return
	}

	ctx.JSON(http.StatusOK, ConvertFromComparison(comparison))
}

package http_auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	http_common "github.com/FreerikH/popcorn/internal/delivery/http/common"
	service_session_auth "github.com/FreerikH/popcorn/internal/service/auth/session"
)

type LoginRequestDTO struct {
	Code string `json:"code" binding:"required"`
	Name string `json:"name" binding:"required"`
}

type LoginResponseDTO struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

type Controller struct {
	auth   *service_session_auth.Service
	logger *slog.Logger
}

type ControllerOption func(*Controller)

func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

func New(auth *service_session_auth.Service, opts ...ControllerOption) *Controller {
	c := &Controller{
		auth:   auth,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	auth.POST("/login", c.login)
}

func (c *Controller) login(ctx *gin.Context) {
	var req LoginRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Error: "Invalid request body",
			Code:  http.StatusBadRequest,
		})
		return
	}

	token, user, err := c.auth.Login(req.Code, req.Name)
	if err != nil {
		if errors.Is(err, service_session_auth.ErrWrongCode) {
			ctx.JSON(http.StatusUnauthorized, http_common.ErrorResponse{
				Error: "Wrong access code",
				Code:  http.StatusUnauthorized,
			})
			return
		}
		c.logger.Error("login failed", slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
			Error:   "Login failed",
			Message: err.Error(),
			Code:    http.StatusInternalServerError,
		})
		return
	}

	ctx.JSON(http.StatusOK, LoginResponseDTO{
		Token:  token,
		UserID: user.ID.String(),
		Name:   user.Name,
	})
}

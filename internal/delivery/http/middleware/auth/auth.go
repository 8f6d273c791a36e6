package http_auth_middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	http_common "github.com/FreerikH/popcorn/internal/delivery/http/common"
)

// UserIDKey is where the middleware leaves the authenticated user id in
// the gin context.
const UserIDKey = "user_id"

type Validator interface {
	Validate(token string) (uuid.UUID, error)
}

type Middleware struct {
	validator Validator
	logger    *slog.Logger
}

type MiddlewareOption func(*Middleware)

func WithLogger(logger *slog.Logger) MiddlewareOption {
	return func(m *Middleware) {
		m.logger = logger
	}
}

func New(validator Validator, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{
		validator: validator,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Middleware) AuthRequired() gin.HandlerFunc {
	const prefix = "Bearer "
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		if !strings.HasPrefix(header, prefix) {
			ctx.JSON(http.StatusUnauthorized, http_common.ErrorResponse{
				Error: "missing bearer token",
				Code:  http.StatusUnauthorized,
			})
			ctx.Abort()
			return
		}

		userID, err := m.validator.Validate(strings.TrimPrefix(header, prefix))
		if err != nil {
			m.logger.Warn("rejected token", slog.String("error", err.Error()))
			ctx.JSON(http.StatusUnauthorized, http_common.ErrorResponse{
				Error: "invalid token",
				Code:  http.StatusUnauthorized,
			})
			ctx.Abort()
			return
		}

		ctx.Set(UserIDKey, userID)
		ctx.Next()
	}
}

// UserID reads the id the middleware stored; second return is false on
// unauthenticated routes.
func UserID(ctx *gin.Context) (uuid.UUID, bool) {
	v, ok := ctx.Get(UserIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// Package service_session_auth issues bearer tokens backed by the Redis
// session cache. Deliberately minimal: one shared access code, user
// identity derived from the login name. Password accounts are out of
// scope here.
package service_session_auth

import (
	"errors"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/FreerikH/popcorn/internal/model"
)

type Token = string

var (
	ErrInternal     = errors.New("internal error")
	ErrWrongCode    = errors.New("wrong code")
	ErrInvalidToken = errors.New("invalid token")
)

type SessionCache interface {
	Set(key string, value string, ttl time.Duration) error
	Get(key string) (string, error)
}

type Service struct {
	secret       string
	sessionCache SessionCache
	ttl          time.Duration
}

func New(
	secret *string,
	sessionCache SessionCache,
	ttl *time.Duration,
) *Service {
	if ttl == nil {
		defaultTTL := 24 * time.Hour
		ttl = &defaultTTL
	}

	if secret == nil {
		s := os.Getenv("ACCESS_CODE")
		if s == "" {
			s = "shared"
		}
		secret = &s
	}

	return &Service{
		secret:       *secret,
		sessionCache: sessionCache,
		ttl:          *ttl,
	}
}

// Login checks the access code and opens a session for name. The user id
// is derived deterministically from the name so the same person keeps
// their preferences across sessions.
func (s *Service) Login(code, name string) (Token, model.User, error) {
	if code != s.secret {
		return "", model.User{}, ErrWrongCode
	}

	user := model.User{
		ID:   uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)),
		Name: name,
	}

	t := s.genToken()
	if err := s.sessionCache.Set(t, user.ID.String(), s.ttl); err != nil {
		return "", model.User{}, errors.Join(ErrInternal, err)
	}

	return t, user, nil
}

// Validate resolves a bearer token to the user id it was issued for.
func (s *Service) Validate(t Token) (uuid.UUID, error) {
	v, err := s.sessionCache.Get(t)
	if err != nil {
		return uuid.Nil, errors.Join(ErrInternal, err)
	}
	if v == "" {
		return uuid.Nil, ErrInvalidToken
	}

	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, errors.Join(ErrInternal, err)
	}
	return id, nil
}

func (s *Service) genToken() Token {
	return uuid.New().String()
}

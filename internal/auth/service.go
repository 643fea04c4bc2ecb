package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pkgAuth "github.com/kalamart/storefront-api/pkg/auth"
	"github.com/kalamart/storefront-api/pkg/auth/session"
	"github.com/kalamart/storefront-api/pkg/commerce"
	"github.com/kalamart/storefront-api/pkg/config"
	pkgerrors "github.com/kalamart/storefront-api/pkg/errors"
	"github.com/kalamart/storefront-api/pkg/logger"
)

type commerceGateway interface {
	Login(ctx context.Context, email, password string) (*commerce.User, error)
	Register(ctx context.Context, req commerce.RegisterRequest) (*commerce.User, error)
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type profileStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	ProfileKey(userID string) string
}

// Service defines the behavior needed by the auth controller. Credentials
// are verified upstream; this layer only mints tokens and tracks sessions.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error)
	Refresh(ctx context.Context, accessID, refreshToken string) (*RefreshResponse, string, error)
	Logout(ctx context.Context, accessID string) error
}

type service struct {
	gateway  commerceGateway
	sessions sessionManager
	profiles profileStore
	jwtCfg   config.JWTConfig
	logger   *logger.Logger
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Gateway        commerceGateway
	SessionManager sessionManager
	ProfileStore   profileStore
	JWTConfig      config.JWTConfig
	Logger         *logger.Logger
}

// NewService constructs the auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Gateway == nil {
		return nil, fmt.Errorf("commerce gateway is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.ProfileStore == nil {
		return nil, fmt.Errorf("profile store is required")
	}
	return &service{
		gateway:  params.Gateway,
		sessions: params.SessionManager,
		profiles: params.ProfileStore,
		jwtCfg:   params.JWTConfig,
		logger:   params.Logger,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.gateway.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return s.establishSession(ctx, user)
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error) {
	user, err := s.gateway.Register(ctx, commerce.RegisterRequest{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		return nil, err
	}
	return s.establishSession(ctx, user)
}

// Refresh rotates the refresh token and returns the new access id so the
// controller can mint a fresh access token.
func (s *service) Refresh(ctx context.Context, accessID, refreshToken string) (*RefreshResponse, string, error) {
	newAccessID, newRefresh, err := s.sessions.Rotate(ctx, accessID, refreshToken)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid refresh token")
	}
	return &RefreshResponse{RefreshToken: newRefresh}, newAccessID, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoke session")
	}
	return nil
}

func (s *service) establishSession(ctx context.Context, user *commerce.User) (*LoginResponse, error) {
	accessID := session.NewAccessID()
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, time.Now().UTC(), pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	refreshToken, err := s.sessions.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store refresh token")
	}

	profile := UserProfile{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
	s.cacheProfile(ctx, profile)

	return &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         profile,
	}, nil
}

func (s *service) cacheProfile(ctx context.Context, profile UserProfile) {
	payload, err := json.Marshal(profile)
	if err != nil {
		return
	}
	if err := s.profiles.Set(ctx, s.profiles.ProfileKey(profile.ID), string(payload), s.jwtCfg.RefreshTokenTTL()); err != nil {
		if s.logger != nil {
			s.logger.Warn(ctx, "profile cache write failed")
		}
	}
}

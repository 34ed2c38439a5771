package app

import (
	"errors"

	"github.com/iho/banksaga/internal/adapter/http/middleware"
	"github.com/iho/banksaga/internal/adapter/httpclient"
	"github.com/iho/banksaga/internal/infrastructure/auth"
)

var errMissingAuthSecret = errors.New("SERVICE_AUTH_ENABLED requires SERVICE_AUTH_SECRET")

func (rt *Runtime) jwtManager() (*auth.JWTManager, error) {
	if !rt.Config.ServiceAuthEnabled {
		return nil, nil
	}
	if rt.Config.ServiceAuthSecret == "" {
		return nil, errMissingAuthSecret
	}
	return auth.NewJWTManager(rt.Config.ServiceAuthSecret, rt.Config.ServiceAuthTokenTTL), nil
}

// ServiceVerifier returns the verifier guarding internal endpoints, or nil
// when service authentication is disabled.
func (rt *Runtime) ServiceVerifier() (middleware.TokenVerifier, error) {
	m, err := rt.jwtManager()
	if err != nil || m == nil {
		return nil, err
	}
	return m, nil
}

// ServiceTokens returns the token source this service presents to internal
// endpoints, or nil when service authentication is disabled.
func (rt *Runtime) ServiceTokens() (httpclient.TokenSource, error) {
	m, err := rt.jwtManager()
	if err != nil || m == nil {
		return nil, err
	}
	return auth.NewTokenSource(m, rt.Service), nil
}

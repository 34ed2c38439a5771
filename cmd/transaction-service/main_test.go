package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/banksaga/internal/app"
	"github.com/iho/banksaga/internal/infrastructure/config"
)

func newRuntime(cfg *config.Config) *app.Runtime {
	cfg.LogLevel = "error"
	return app.New(serviceName, cfg)
}

func TestNewStatusClient(t *testing.T) {
	rt := newRuntime(&config.Config{
		AccountServiceURL:     "http://account-service:8081",
		AccountServiceTimeout: time.Second,
	})

	client, err := newStatusClient(rt)
	require.NoError(t, err)
	assert.Equal(t, "closed", client.State())
}

func TestNewStatusClient_RejectsRelativeURL(t *testing.T) {
	rt := newRuntime(&config.Config{AccountServiceURL: "account-service"})

	_, err := newStatusClient(rt)
	assert.Error(t, err)
}

func TestNewStatusClient_AuthWithoutSecret(t *testing.T) {
	rt := newRuntime(&config.Config{
		AccountServiceURL:  "http://account-service:8081",
		ServiceAuthEnabled: true,
	})

	_, err := newStatusClient(rt)
	assert.Error(t, err)
}

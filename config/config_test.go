package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseEnv() map[string]string {
	return map[string]string{
		"COMMUNE_MATRIX_HOST":        "https://matrix.example.com",
		"COMMUNE_MATRIX_SERVER_NAME": "example.com",
		"COMMUNE_MATRIX_ADMIN_TOKEN": "syt_admin",
	}
}

func TestLoadFromDefaults(t *testing.T) {
	cfg, err := LoadFrom(baseEnv())
	require.NoError(t, err)

	assert.Equal(t, "https://matrix.example.com", cfg.MatrixHost)
	assert.Equal(t, "example.com", cfg.ServerName)
	assert.Equal(t, ":8572", cfg.HTTPAddr)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.False(t, cfg.Debug)
	assert.Empty(t, cfg.SharedSecret)
}

func TestLoadFromOverrides(t *testing.T) {
	environ := baseEnv()
	environ["COMMUNE_REGISTRATION_SHARED_SECRET"] = "topsecret"
	environ["COMMUNE_HTTP_ADDR"] = "127.0.0.1:9000"
	environ["COMMUNE_HTTP_TIMEOUT"] = "3s"
	environ["COMMUNE_DEBUG"] = "true"

	cfg, err := LoadFrom(environ)
	require.NoError(t, err)

	assert.Equal(t, "topsecret", cfg.SharedSecret)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTPAddr)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.True(t, cfg.Debug)

	adminCfg := cfg.Admin()
	assert.Equal(t, "https://matrix.example.com", adminCfg.BaseURL)
	assert.Equal(t, "syt_admin", adminCfg.AccessToken)
	assert.Equal(t, "example.com", adminCfg.ServerName)
	require.NotNil(t, adminCfg.HTTPClient)
	assert.Equal(t, 3*time.Second, adminCfg.HTTPClient.Timeout)
}

func TestLoadFromErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(env map[string]string)
	}{
		{name: "missing host", mutate: func(env map[string]string) { delete(env, "COMMUNE_MATRIX_HOST") }},
		{name: "missing server name", mutate: func(env map[string]string) { delete(env, "COMMUNE_MATRIX_SERVER_NAME") }},
		{name: "missing token", mutate: func(env map[string]string) { delete(env, "COMMUNE_MATRIX_ADMIN_TOKEN") }},
		{name: "empty token", mutate: func(env map[string]string) { env["COMMUNE_MATRIX_ADMIN_TOKEN"] = "" }},
		{name: "host is not a url", mutate: func(env map[string]string) { env["COMMUNE_MATRIX_HOST"] = "not a url" }},
		{name: "bad timeout", mutate: func(env map[string]string) { env["COMMUNE_HTTP_TIMEOUT"] = "soon" }},
		{name: "timeout too short", mutate: func(env map[string]string) { env["COMMUNE_HTTP_TIMEOUT"] = "10ms" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			environ := baseEnv()
			tt.mutate(environ)

			_, err := LoadFrom(environ)
			assert.Error(t, err)
		})
	}
}

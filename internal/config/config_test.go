package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
llm:
  api_key: test-key
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 9090, cfg.Server.MetricsPort)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, 5*time.Minute, cfg.ConfirmTTL())
	assert.Equal(t, 15*time.Second, cfg.LLMTimeout())
	assert.False(t, cfg.Conversation.RequireExplicitCancel)
}

func TestLoadReadsValues(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
database:
  driver: postgres
  dsn: host=localhost dbname=groceries
llm:
  api_key: test-key
  model: gpt-4o
  temperature: 0.7
conversation:
  confirm_ttl_seconds: 60
  require_explicit_cancel: true
auth:
  jwt_secret: s3cret
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, 0.7, cfg.LLM.Temperature)
	assert.Equal(t, time.Minute, cfg.ConfirmTTL())
	assert.True(t, cfg.Conversation.RequireExplicitCancel)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, `
llm:
  api_key: file-key
auth:
  jwt_secret: file-secret
`)
	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("JWT_SECRET", "env-secret")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.LLM.APIKey)
	assert.Equal(t, "env-secret", cfg.Auth.JWTSecret)
}

func TestMissingAPIKeyFails(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
`)
	t.Setenv("OPENAI_API_KEY", "")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

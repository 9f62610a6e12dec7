package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfigFile(t, `
environment: PROD
dev_mode_bypass: false
db:
  host: db.internal
  port: 5432
  user: portfolio
  password: secret
  name: portfolio_cms
auth:
  okta_domain: https://example.okta.com/oauth2/default/
  client_id: cid
  client_secret: csecret
  redirect_url: https://cms.example.com/auth/callback
workflow:
  assignment_strategy: role_lookup
  default_window_days: 14
  role_directory:
    native_speaker: translator@example.com
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "PROD", cfg.Environment)
	assert.False(t, cfg.DevModeBypass)
	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, 5432, cfg.DB.Port)
	// default applied when unset
	assert.Equal(t, "disable", cfg.DB.SSLMode)

	// trailing slash stripped from the issuer
	assert.Equal(t, "https://example.okta.com/oauth2/default", cfg.Auth.OktaDomain)

	assert.Equal(t, "role_lookup", cfg.Workflow.AssignmentStrategy)
	assert.Equal(t, 14, cfg.Workflow.DefaultWindowDays)
	assert.Equal(t, "translator@example.com", cfg.Workflow.RoleDirectory["native_speaker"])
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfigFile(t, `
db:
  host: localhost
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "DEV", cfg.Environment)
	assert.Equal(t, "noop", cfg.Workflow.AssignmentStrategy)
	assert.Equal(t, 30, cfg.Workflow.DefaultWindowDays)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestNormalizeOktaIssuer(t *testing.T) {
	assert.Equal(t, "https://x.okta.com", normalizeOktaIssuer("https://x.okta.com/"))
	assert.Equal(t, "https://x.okta.com", normalizeOktaIssuer("  https://x.okta.com  "))
	assert.Equal(t, "", normalizeOktaIssuer(""))
}

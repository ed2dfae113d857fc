package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("AppliesDefaults", func(t *testing.T) {
		path := writeConfig(t, `
database:
  driver: memory
jwt:
  secret: `+testSecret+`
`)
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, int32(20), cfg.Server.DefaultPageSize)
		assert.Equal(t, "local", cfg.Auth.Provider)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, "0 0 3 * * *", cfg.Scheduler.ReconcileLedger)
		assert.Equal(t, "https://api.iamport.kr", cfg.PortOne.BaseURL)
		assert.Equal(t, float64(5), cfg.RateLimit.RequestsPerSecond)
	})

	t.Run("EnvOverrides", func(t *testing.T) {
		path := writeConfig(t, `
server:
  port: 9000
database:
  driver: postgres
  host: db
  user: saju
  database: saju
jwt:
  secret: `+testSecret+`
`)
		t.Setenv("SERVER_PORT", "9100")
		t.Setenv("DB_HOST", "db.internal")
		t.Setenv("LOG_LEVEL", "debug")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 9100, cfg.Server.Port)
		assert.Equal(t, "db.internal", cfg.Database.Host)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, "postgres://saju:@db.internal:5432/saju?sslmode=disable", cfg.GetDatabaseConnectionString())
	})

	t.Run("ShortSecret", func(t *testing.T) {
		path := writeConfig(t, "database:\n  driver: memory\njwt:\n  secret: short\n")
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("FirebaseNeedsProject", func(t *testing.T) {
		path := writeConfig(t, "database:\n  driver: memory\njwt:\n  secret: "+testSecret+"\nauth:\n  provider: firebase\n")
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("UnknownDriver", func(t *testing.T) {
		path := writeConfig(t, "database:\n  driver: mysql\njwt:\n  secret: "+testSecret+"\n")
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestGetRouteSecurity(t *testing.T) {
	assert.Equal(t, SecurityPublic, GetRouteSecurity("POST", "/api/v1/auth/login"))
	assert.Equal(t, SecurityRefresh, GetRouteSecurity("POST", "/api/v1/auth/refresh"))
	assert.Equal(t, SecurityAdmin, GetRouteSecurity("GET", "/api/v1/admin/stats"))
	assert.Equal(t, SecurityPublic, GetRouteSecurity("POST", "/api/v1/payments/webhook"))
	assert.Equal(t, SecurityAccess, GetRouteSecurity("DELETE", "/api/v1/unknown"))
}

package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("TOKEN_TTL", "")
	t.Setenv("ORDER_TOTAL_POLICY", "")
	t.Setenv("ORDER_TRANSITIONS", "")
	t.Setenv("IMAGE_STORE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "/api", cfg.APIPrefix)
	assert.Equal(t, DriverSQLite, cfg.DatabaseDriver)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, devJWTSecret, cfg.JWTSecret)
	assert.Equal(t, "recompute", cfg.OrderTotalPolicy)
	assert.Equal(t, "permissive", cfg.OrderTransitions)
	assert.Equal(t, int64(5*1024*1024), cfg.MaxUploadBytes)
	assert.True(t, cfg.IsTest())
}

func TestLoadAdminSignupCode(t *testing.T) {
	t.Setenv("GO_ENV", "test")

	t.Run("development fallback when unset", func(t *testing.T) {
		t.Setenv("ADMIN_SIGNUP_CODE", "placeholder")
		require.NoError(t, os.Unsetenv("ADMIN_SIGNUP_CODE"))

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, devAdminSignupCode, cfg.AdminSignupCode)
	})

	t.Run("explicit value wins", func(t *testing.T) {
		t.Setenv("ADMIN_SIGNUP_CODE", "open-sesame")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "open-sesame", cfg.AdminSignupCode)
	})

	t.Run("explicitly empty disables admin signup", func(t *testing.T) {
		t.Setenv("ADMIN_SIGNUP_CODE", "")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Empty(t, cfg.AdminSignupCode)
	})
}

func TestProductionRequiresSecret(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			JWTSecret:        "s",
			DatabaseDriver:   DriverSQLite,
			DatabaseURL:      ":memory:",
			TokenTTL:         time.Hour,
			ImageStore:       "local",
			OrderTotalPolicy: "recompute",
			OrderTransitions: "permissive",
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"unknown driver", func(c *Config) { c.DatabaseDriver = "oracle" }, "DB_DRIVER"},
		{"s3 without bucket", func(c *Config) { c.ImageStore = "s3" }, "AWS_S3_BUCKET"},
		{"unknown total policy", func(c *Config) { c.OrderTotalPolicy = "maybe" }, "ORDER_TOTAL_POLICY"},
		{"unknown transitions", func(c *Config) { c.OrderTransitions = "chaos" }, "ORDER_TRANSITIONS"},
		{"zero ttl", func(c *Config) { c.TokenTTL = 0 }, "TOKEN_TTL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"http://a", "http://b"}, splitList(" http://a , ,http://b"))
	assert.Nil(t, splitList(""))
}

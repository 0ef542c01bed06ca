package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Env:        "production",
			DBDriver:   "postgres",
			DBSSLMode:  "require",
			JWTSecret:  "secure-secret-at-least-32-chars-long",
			DBPassword: "secure-password",
			Port:       "8080",
		}
	}

	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"Production with TLS", func(*Config) {}, false},
		{"Production with empty SSL mode", func(c *Config) { c.DBSSLMode = "" }, true},
		{"Production with disable SSL mode", func(c *Config) { c.DBSSLMode = "disable" }, true},
		{"Production sqlite ignores SSL mode", func(c *Config) { c.DBDriver = "sqlite"; c.DBSSLMode = "" }, false},
		{"Production default secret", func(c *Config) { c.JWTSecret = defaultJWTSecret }, true},
		{"Production short secret", func(c *Config) { c.JWTSecret = "short" }, true},
		{"Production weak DB password", func(c *Config) { c.DBPassword = "password" }, true},
		{"Development with disable SSL mode", func(c *Config) { c.Env = "development"; c.DBSSLMode = "disable" }, false},
		{"Missing port", func(c *Config) { c.Port = "" }, true},
		{"Missing secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"Unknown driver", func(c *Config) { c.DBDriver = "mysql" }, true},
		{"Negative TTL", func(c *Config) { c.RequestTTLHours = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_TTLDefaults(t *testing.T) {
	c := &Config{}
	assert.Equal(t, 7*24*time.Hour, c.InvitationTTL())
	assert.Equal(t, 3*24*time.Hour, c.RequestTTL())
	assert.Equal(t, 7*24*time.Hour, c.ApprovalTTL())

	c.RequestTTLHours = 1
	assert.Equal(t, time.Hour, c.RequestTTL())
}

func TestLoadConfig_Normalization(t *testing.T) {
	defer os.Unsetenv("APP_ENV")
	defer os.Unsetenv("DB_SSLMODE")
	defer os.Unsetenv("DB_DRIVER")
	defer viper.Reset()

	os.Setenv("APP_ENV", "development")
	os.Setenv("DB_SSLMODE", "  DISABLE  ")
	os.Setenv("DB_DRIVER", " SQLite ")

	c, err := LoadConfig()
	assert.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, 5, c.MaxActivationAttempts)
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MemoryDefaults(t *testing.T) {
	t.Setenv("BACKEND_DRIVER", "memory")
	t.Setenv("PORT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, DriverMemory, cfg.Backend.Driver)
	assert.Equal(t, 7*24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTimeout)
	assert.Equal(t, 10, cfg.Session.AuthAttemptsPerMinute)
}

func TestLoad_ParsesValues(t *testing.T) {
	t.Setenv("BACKEND_DRIVER", "memory")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("SESSION_IDLE_TIMEOUT", "bogus")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("RESERVED_NUMBER", "000001")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTimeout)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, "000001", cfg.Chat.ReservedNumber)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: "8080"},
			Backend:  BackendConfig{Driver: DriverFirebase},
			Firebase: FirebaseConfig{APIKey: "key", CredentialsJSON: "{}"},
			Redis:    RedisConfig{Addr: "localhost:6379"},
			Session:  SessionConfig{TTL: time.Hour, IdleTimeout: time.Minute, AuthAttemptsPerMinute: 5},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Backend.Driver = "postgres" }},
		{"missing api key", func(c *Config) { c.Firebase.APIKey = "" }},
		{"missing credentials", func(c *Config) { c.Firebase.CredentialsJSON = "" }},
		{"missing redis", func(c *Config) { c.Redis.Addr = "" }},
		{"zero ttl", func(c *Config) { c.Session.TTL = 0 }},
		{"no auth attempts", func(c *Config) { c.Session.AuthAttemptsPerMinute = 0 }},
		{"bad reserved number", func(c *Config) { c.Chat.ReservedNumber = "12ab56" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

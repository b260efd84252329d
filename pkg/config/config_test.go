package config

import (
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", testSecret)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Tenancy.HeaderName != "tenant" || cfg.Tenancy.RootID != "root" {
		t.Fatalf("unexpected tenancy defaults %+v", cfg.Tenancy)
	}
	if cfg.JWT.AccessTokenDuration != time.Hour {
		t.Fatalf("access token duration = %v", cfg.JWT.AccessTokenDuration)
	}
	if cfg.Housekeeping.RefreshPurgeSpec != "@hourly" {
		t.Fatalf("purge spec = %q", cfg.Housekeeping.RefreshPurgeSpec)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", testSecret)
	t.Setenv("JWT_REFRESH_TOKEN_DURATION", "72h")
	t.Setenv("TENANT_HEADER", "x-tenant")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.test, ,https://b.test")
	t.Setenv("RATE_LIMIT_AUTH_PER_SECOND", "0.5")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.JWT.RefreshTokenDuration != 72*time.Hour {
		t.Fatalf("refresh duration = %v", cfg.JWT.RefreshTokenDuration)
	}
	if cfg.Tenancy.HeaderName != "x-tenant" {
		t.Fatalf("header = %q", cfg.Tenancy.HeaderName)
	}
	if len(cfg.CORS.AllowOrigins) != 2 || cfg.CORS.AllowOrigins[1] != "https://b.test" {
		t.Fatalf("origins = %v", cfg.CORS.AllowOrigins)
	}
	if cfg.RateLimit.AuthPerSecond != 0.5 || cfg.Redis.Enabled {
		t.Fatalf("unexpected overrides %+v %+v", cfg.RateLimit, cfg.Redis)
	}
	if cfg.Database.MaxOpenConns != 25 {
		t.Fatalf("bad integer should fall back to default, got %d", cfg.Database.MaxOpenConns)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		JWT:     JWTConfig{SecretKey: testSecret, AccessTokenDuration: time.Minute, RefreshTokenDuration: time.Hour},
		Tenancy: TenancyConfig{HeaderName: "tenant", RootID: "root"},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := map[string]func(*Config){
		"short secret":   func(c *Config) { c.JWT.SecretKey = "short" },
		"zero lifetime":  func(c *Config) { c.JWT.AccessTokenDuration = 0 },
		"no root tenant": func(c *Config) { c.Tenancy.RootID = "" },
		"no header name": func(c *Config) { c.Tenancy.HeaderName = "" },
	}
	for name, mutate := range cases {
		c := valid
		mutate(&c)
		if err := c.Validate(); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

package config

import "testing"

func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"IRC_SERVER_HOST", "IRC_SERVER_PORT", "PORT", "IRC_STATE_PATH",
		"IRC_ALLOWED_ORIGINS", "RETENTION_DAYS", "IRC_SNOWFLAKE_WORKER_ID",
		"IRC_JWT_SECRET", "IRC_REDIS_ADDR",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Host != "0.0.0.0" {
		t.Errorf("Host = %q, want 0.0.0.0", cfg.Host)
	}
	if cfg.Port != "7001" {
		t.Errorf("Port = %q, want 7001", cfg.Port)
	}
	if cfg.RetentionDays != 30 {
		t.Errorf("RetentionDays = %d, want 30", cfg.RetentionDays)
	}
	if !cfg.SelfContained {
		t.Error("SelfContained should default to true with no IRC_REDIS_ADDR set")
	}
}

func TestLoadSelfContainedFalseWhenRedisAddrSet(t *testing.T) {
	clearEnv(t)
	t.Setenv("IRC_REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SelfContained {
		t.Error("SelfContained should be false once IRC_REDIS_ADDR is set")
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("RedisAddr = %q", cfg.RedisAddr)
	}
}

func TestLoadParsesAllowedOriginsList(t *testing.T) {
	clearEnv(t)
	t.Setenv("IRC_ALLOWED_ORIGINS", "https://a.example, https://b.example ,,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[0] != "https://a.example" || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}

func TestLoadPortPrefersServerPortOverPlainPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9999")
	t.Setenv("IRC_SERVER_PORT", "7100")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "7100" {
		t.Errorf("Port = %q, want 7100", cfg.Port)
	}
}

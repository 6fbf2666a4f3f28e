package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_DSN", "host=localhost user=test password=test dbname=test port=5432 sslmode=disable")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("RESEND_API_KEY", "re_test_key")
	t.Setenv("SENDER_EMAIL", "noreply@example.com")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.APIPort != 8080 {
		t.Errorf("APIPort = %d, want 8080", cfg.APIPort)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %s, want info", cfg.LogLevel)
	}
	if cfg.MaxSendAttempts != 3 {
		t.Errorf("MaxSendAttempts = %d, want 3", cfg.MaxSendAttempts)
	}
	if cfg.MaxRecordAttempts != 5 {
		t.Errorf("MaxRecordAttempts = %d, want 5", cfg.MaxRecordAttempts)
	}
	if cfg.SendTimeout() != 10*time.Second {
		t.Errorf("SendTimeout() = %s, want 10s", cfg.SendTimeout())
	}
	if cfg.RetryBaseDelay() != time.Second {
		t.Errorf("RetryBaseDelay() = %s, want 1s", cfg.RetryBaseDelay())
	}
	if cfg.RetryMaxDelay() != 10*time.Second {
		t.Errorf("RetryMaxDelay() = %s, want 10s", cfg.RetryMaxDelay())
	}
}

func TestLoad_CustomValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("API_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("MAX_SEND_ATTEMPTS", "5")
	t.Setenv("RETRY_BASE_DELAY_MS", "500")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.APIPort != 9090 {
		t.Errorf("APIPort = %d, want 9090", cfg.APIPort)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
	}
	if cfg.MaxSendAttempts != 5 {
		t.Errorf("MaxSendAttempts = %d, want 5", cfg.MaxSendAttempts)
	}
	if cfg.RetryBaseDelay() != 500*time.Millisecond {
		t.Errorf("RetryBaseDelay() = %s, want 500ms", cfg.RetryBaseDelay())
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_DSN", "host=localhost")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing required env vars, got nil")
	}
}

func TestLoad_RequiredFields(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DatabaseDSN == "" {
		t.Error("DatabaseDSN should not be empty")
	}
	if cfg.RedisURL == "" {
		t.Error("RedisURL should not be empty")
	}
	if cfg.ResendAPIKey == "" {
		t.Error("ResendAPIKey should not be empty")
	}
	if cfg.SenderEmail == "" {
		t.Error("SenderEmail should not be empty")
	}
}

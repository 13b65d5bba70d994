// cliparse/cliparse_test.go
package cliparse

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseFlags_EnvVars(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_TYPE", "postgres")
	t.Setenv("DATABASE_URL", "postgres://test")
	t.Setenv("SCHEDULE_INTERVAL", "30m")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.DatabaseType != DatabasePostgres {
		t.Errorf("expected postgres, got %s", cfg.DatabaseType)
	}
	if cfg.ScheduleInterval != 30*time.Minute {
		t.Errorf("expected 30m interval, got %s", cfg.ScheduleInterval)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Errorf("unexpected brokers %v", cfg.KafkaBrokers)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DELIVERY_POLICY", "flag")

	cfg, err := ParseFlags([]string{"-p", "8080", "-d", "file:test.db", "--delivery-policy", "exclude", "--interval", "2h"})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if cfg.DeliveryPolicy != DeliveryPolicyExclude {
		t.Errorf("CLI should override env: expected exclude, got %s", cfg.DeliveryPolicy)
	}
	if cfg.ScheduleInterval != 2*time.Hour {
		t.Errorf("expected 2h interval, got %s", cfg.ScheduleInterval)
	}
}

func TestParseFlags_Defaults(t *testing.T) {
	cfg, err := ParseFlags([]string{"-t", "sqlite"})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.ScheduleInterval != time.Hour {
		t.Errorf("expected hourly default, got %s", cfg.ScheduleInterval)
	}
	if cfg.RetryAttempts != 3 {
		t.Errorf("expected 3 retries, got %d", cfg.RetryAttempts)
	}
	if cfg.RetryDelay != 10*time.Second {
		t.Errorf("expected 10s retry delay, got %s", cfg.RetryDelay)
	}
	if cfg.DeliveryPolicy != DeliveryPolicyFlag {
		t.Errorf("expected flag policy, got %s", cfg.DeliveryPolicy)
	}
	if cfg.DataDir == "" {
		t.Error("expected a default data dir")
	}
	if want := filepath.Join(os.TempDir(), "olist-etl.lock"); cfg.LockFile != want {
		t.Errorf("expected lock file %s, got %s", want, cfg.LockFile)
	}
}

func TestParseFlags_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{"unknown database type", []string{"-t", "oracle"}, nil},
		{"bad delivery policy", []string{"-t", "sqlite", "--delivery-policy", "drop"}, nil},
		{"interval too short", []string{"-t", "sqlite", "--interval", "10ms"}, nil},
		{"bad port env", []string{"-t", "sqlite"}, map[string]string{"PORT": "abc"}},
		{"postgres without credentials", []string{"-t", "postgres"}, map[string]string{"DATABASE_URL": "", "DB_USER": ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := ParseFlags(tt.args); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()

	// Missing file is fine
	if err := LoadEnvFile(filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("missing env file should be ignored: %v", err)
	}

	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("OLIST_TEST_VALUE=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OLIST_TEST_VALUE", "")
	os.Unsetenv("OLIST_TEST_VALUE")

	if err := LoadEnvFile(path); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("OLIST_TEST_VALUE"); got != "from-file" {
		t.Errorf("expected value from env file, got %q", got)
	}
}

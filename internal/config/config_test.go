package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfig = `
transfer-service:
  base_url: http://transfers.local
price-oracle:
  base_url: http://oracle.local
ledger:
  deposit_token: wrap.near
  admin_account: admin.near
  treasury_account: treasury.near
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "50051", cfg.GRPCServer.Port)
	assert.Equal(t, "8080", cfg.HTTPServer.Port)
	assert.Equal(t, "info", cfg.LogConfig.LogLevel)
	assert.Equal(t, "json", cfg.LogConfig.LogFormat)
	assert.Equal(t, uint16(100), cfg.Ledger.PlatformFeeBps)
	assert.Equal(t, 5, cfg.Ledger.MaxGoals)
	assert.Equal(t, time.Minute, cfg.Scheduler.EvaluateInterval)
	assert.Equal(t, 30*time.Second, cfg.RedisService.LockTTL)
	assert.Empty(t, cfg.KafkaService.Brokers)
	assert.Empty(t, cfg.KickstarterDB.Dsn)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LEDGER_PLATFORM_FEE_BPS", "250")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("SCHEDULER_EVALUATE_INTERVAL", "15s")

	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)
	assert.Equal(t, uint16(250), cfg.Ledger.PlatformFeeBps)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaService.Brokers)
	assert.Equal(t, 15*time.Second, cfg.Scheduler.EvaluateInterval)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing ledger accounts", `
transfer-service:
  base_url: http://transfers.local
price-oracle:
  base_url: http://oracle.local
`},
		{"fee above 100%", minimalConfig + "\n  platform_fee_bps: 10001\n"},
		{"unknown log format", minimalConfig + "log_config:\n  log_format: xml\n"},
		{"bad env", "env: staging\n" + minimalConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)

	_, err = Load("")
	assert.Error(t, err)
}

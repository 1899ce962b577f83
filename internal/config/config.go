package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gookit/validate"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const configPathEnv = "KICKSTARTER_CONFIG_PATH"

type KickstarterConfig struct {
	Env             string `yaml:"env" env:"KICKSTARTER_ENV" env-default:"local" validate:"required|in:local,dev,prod"`
	GRPCServer      `yaml:"grpc_server"`
	HTTPServer      `yaml:"http_server"`
	KickstarterDB   `yaml:"kickstarter_db"`
	LogConfig       `yaml:"log_config"`
	KafkaService    `yaml:"kafka-service"`
	RedisService    `yaml:"redis-service"`
	TransferService `yaml:"transfer-service"`
	PriceOracle     `yaml:"price-oracle"`
	Webhook         `yaml:"webhook"`
	Ledger          `yaml:"ledger"`
	Scheduler       `yaml:"scheduler"`
}

type GRPCServer struct {
	Host string `yaml:"host" env:"GRPC_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"GRPC_PORT" env-default:"50051"`
}

type HTTPServer struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	// CallbackToken authenticates the transfer service's webhooks. Empty
	// disables the check.
	CallbackToken string `yaml:"callback_token" env:"HTTP_CALLBACK_TOKEN"`
}

type KickstarterDB struct {
	// Empty runs the service on the in-memory store.
	Dsn            string `yaml:"dsn" env:"KICKSTARTER_DB_DSN"`
	MigrationsPath string `yaml:"migrations_path" env:"KICKSTARTER_MIGRATIONS_PATH" env-default:"migrations"`
}

type LogConfig struct {
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info" validate:"in:trace,debug,info,warn,error"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" env-default:"json" validate:"in:json,console"`
	LogOutput string `yaml:"log_output" env:"LOG_OUTPUT" env-default:"stdout"`
}

type KafkaService struct {
	// Empty disables event publishing and the transfer-result consumer.
	Brokers         []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	EventsTopic     string   `yaml:"events_topic" env:"KAFKA_EVENTS_TOPIC" env-default:"kickstarter-events"`
	TransfersTopic  string   `yaml:"transfers_topic" env:"KAFKA_TRANSFERS_TOPIC" env-default:"transfer-results"`
	ConsumerGroupID string   `yaml:"consumer_group_id" env:"KAFKA_GROUP_ID" env-default:"kickstarter-service"`
}

type RedisService struct {
	// Empty falls back to an in-process lock; only valid for a single replica.
	URL         string        `yaml:"url" env:"REDIS_URL"`
	LockTTL     time.Duration `yaml:"lock_ttl" env:"REDIS_LOCK_TTL" env-default:"30s"`
	LockMaxWait time.Duration `yaml:"lock_max_wait" env:"REDIS_LOCK_MAX_WAIT" env-default:"10s"`
}

type TransferService struct {
	BaseURL string        `yaml:"base_url" env:"TRANSFER_SERVICE_URL" validate:"required|fullUrl"`
	Timeout time.Duration `yaml:"timeout" env:"TRANSFER_SERVICE_TIMEOUT" env-default:"10s"`
}

type PriceOracle struct {
	BaseURL  string        `yaml:"base_url" env:"PRICE_ORACLE_URL" validate:"required|fullUrl"`
	Fallback []string      `yaml:"fallback" env:"PRICE_ORACLE_FALLBACK" env-separator:","`
	Timeout  time.Duration `yaml:"timeout" env:"PRICE_ORACLE_TIMEOUT" env-default:"5s"`
	CacheTTL time.Duration `yaml:"cache_ttl" env:"PRICE_ORACLE_CACHE_TTL" env-default:"0s"`
	// CacheSizeMB sizes the rate cache; zero disables it.
	CacheSizeMB int `yaml:"cache_size_mb" env:"PRICE_ORACLE_CACHE_MB" env-default:"0"`
}

type Webhook struct {
	// Empty disables event callbacks.
	URL    string `yaml:"url" env:"WEBHOOK_URL"`
	Secret string `yaml:"secret" env:"WEBHOOK_SECRET"`
}

type Ledger struct {
	DepositToken    string `yaml:"deposit_token" env:"LEDGER_DEPOSIT_TOKEN" validate:"required"`
	AdminAccount    string `yaml:"admin_account" env:"LEDGER_ADMIN_ACCOUNT" validate:"required"`
	TreasuryAccount string `yaml:"treasury_account" env:"LEDGER_TREASURY_ACCOUNT" validate:"required"`
	PlatformFeeBps  uint16 `yaml:"platform_fee_bps" env:"LEDGER_PLATFORM_FEE_BPS" env-default:"100" validate:"max:10000"`
	MaxGoals        int    `yaml:"max_goals" env:"LEDGER_MAX_GOALS" env-default:"5" validate:"min:1|max:255"`
}

type Scheduler struct {
	EvaluateInterval   time.Duration `yaml:"evaluate_interval" env:"SCHEDULER_EVALUATE_INTERVAL" env-default:"1m"`
	UnfreezeInterval   time.Duration `yaml:"unfreeze_interval" env:"SCHEDULER_UNFREEZE_INTERVAL" env-default:"5m"`
	StuckCheckInterval time.Duration `yaml:"stuck_check_interval" env:"SCHEDULER_STUCK_CHECK_INTERVAL" env-default:"5m"`
	StuckSettlementAge time.Duration `yaml:"stuck_settlement_age" env:"SCHEDULER_STUCK_SETTLEMENT_AGE" env-default:"30m"`
	BatchSize          int           `yaml:"batch_size" env:"SCHEDULER_BATCH_SIZE" env-default:"50"`
}

// Load reads the YAML file at path, applies environment overrides and
// validates the result.
func Load(path string) (*KickstarterConfig, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	var cfg KickstarterConfig
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	for _, section := range []any{&cfg, &cfg.LogConfig, &cfg.TransferService, &cfg.PriceOracle, &cfg.Ledger} {
		v := validate.Struct(section)
		if !v.Validate() {
			return nil, fmt.Errorf("invalid config: %s", v.Errors.One())
		}
	}
	return &cfg, nil
}

func MustLoad() *KickstarterConfig {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	configPath := os.Getenv(configPathEnv)
	if configPath == "" {
		log.Fatalf("%s was not found\n", configPathEnv)
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("%v\n", err)
	}
	return cfg
}

package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const configPathEnv = "LOCKDOWN_CONFIG_PATH"

type LockdownConfig struct {
	Env           string `yaml:"env" env:"LOCKDOWN_ENV" env-default:"local"`
	LocationID    string `yaml:"location_id" env:"LOCKDOWN_LOCATION_ID" env-required:"true"`
	Timezone      string `yaml:"timezone" env:"LOCKDOWN_TIMEZONE" env-default:"UTC"`
	GRPCServer    `yaml:"grpc_server"`
	MetricsServer `yaml:"metrics_server"`
	LockdownDB    `yaml:"lockdown_db"`
	Storage       `yaml:"storage"`
	Redis         `yaml:"redis"`
	KafkaService  `yaml:"kafka-service"`
	Notifier      `yaml:"notifier"`
	Rollover      `yaml:"rollover"`
	LogConfig     `yaml:"log_config"`
}

type GRPCServer struct {
	Host string `yaml:"host" env:"GRPC_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"GRPC_PORT" env-default:"50071"`
}

type MetricsServer struct {
	Host string `yaml:"host" env:"METRICS_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"METRICS_PORT" env-default:"9091"`
}

type LockdownDB struct {
	Dsn            string `yaml:"dsn" env:"LOCKDOWN_DB_DSN"`
	MigrationsPath string `yaml:"migrations_path" env:"LOCKDOWN_MIGRATIONS_PATH" env-default:"migrations"`
	AutoMigrate    bool   `yaml:"auto_migrate" env:"LOCKDOWN_DB_AUTO_MIGRATE" env-default:"false"`
}

// Storage selects the persistence backends. "memory" keeps state in-process only.
type Storage struct {
	CCPBackend   string `yaml:"ccp_backend" env:"STORAGE_CCP_BACKEND" env-default:"memory"`
	PhaseBackend string `yaml:"phase_backend" env:"STORAGE_PHASE_BACKEND" env-default:"memory"`
	AuditBackend string `yaml:"audit_backend" env:"STORAGE_AUDIT_BACKEND" env-default:"log"`
}

type Redis struct {
	Addr     string        `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	PhaseTTL time.Duration `yaml:"phase_ttl" env:"REDIS_PHASE_TTL" env-default:"48h"`
}

type KafkaService struct {
	Enabled      bool   `yaml:"enabled" env:"KAFKA_ENABLED" env-default:"false"`
	Host         string `yaml:"host" env:"KAFKA_HOST" env-default:"localhost"`
	Port         string `yaml:"port" env:"KAFKA_PORT" env-default:"9092"`
	Username     string `yaml:"username" env:"KAFKA_USERNAME"`
	Password     string `yaml:"password" env:"KAFKA_PASSWORD"`
	Mechanism    string `yaml:"mechanism" env:"KAFKA_MECHANISM" env-default:"PLAIN"`
	TLSEnabled   bool   `yaml:"tls_enabled" env:"KAFKA_TLS_ENABLED" env-default:"false"`
	EventsTopic  string `yaml:"events_topic" env:"KAFKA_EVENTS_TOPIC" env-default:"lockdown-events"`
	ChecksTopic  string `yaml:"checks_topic" env:"KAFKA_CHECKS_TOPIC" env-default:"ccp-checks"`
	ChecksGroup  string `yaml:"checks_group" env:"KAFKA_CHECKS_GROUP" env-default:"lockdown-service"`
	IngestChecks bool   `yaml:"ingest_checks" env:"KAFKA_INGEST_CHECKS" env-default:"false"`
}

type Notifier struct {
	CallbackURL string        `yaml:"callback_url" env:"NOTIFIER_CALLBACK_URL"`
	Timeout     time.Duration `yaml:"timeout" env:"NOTIFIER_TIMEOUT" env-default:"5s"`
	Retries     int           `yaml:"retries" env:"NOTIFIER_RETRIES" env-default:"2"`
}

type Rollover struct {
	CheckInterval time.Duration `yaml:"check_interval" env:"ROLLOVER_CHECK_INTERVAL" env-default:"1m"`
}

type LogConfig struct {
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" env-default:"json"`
	LogOutput string `yaml:"log_output" env:"LOG_OUTPUT" env-default:"stdout"`
}

func (c *LockdownConfig) GRPCAddr() string {
	return fmt.Sprintf("%s:%s", c.GRPCServer.Host, c.GRPCServer.Port)
}

func (c *LockdownConfig) MetricsAddr() string {
	return fmt.Sprintf("%s:%s", c.MetricsServer.Host, c.MetricsServer.Port)
}

func (c *LockdownConfig) KafkaBrokers() []string {
	return []string{fmt.Sprintf("%s:%s", c.KafkaService.Host, c.KafkaService.Port)}
}

func (c *LockdownConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

func (c *LockdownConfig) validate() error {
	switch c.Storage.CCPBackend {
	case "memory", "postgres":
	default:
		return fmt.Errorf("storage.ccp_backend: unknown backend %q", c.Storage.CCPBackend)
	}
	switch c.Storage.PhaseBackend {
	case "memory", "postgres", "redis":
	default:
		return fmt.Errorf("storage.phase_backend: unknown backend %q", c.Storage.PhaseBackend)
	}
	switch c.Storage.AuditBackend {
	case "log", "postgres":
	default:
		return fmt.Errorf("storage.audit_backend: unknown backend %q", c.Storage.AuditBackend)
	}
	if c.NeedsDB() && c.LockdownDB.Dsn == "" {
		return fmt.Errorf("lockdown_db.dsn is required for postgres storage")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	return nil
}

func (c *LockdownConfig) NeedsDB() bool {
	return c.Storage.CCPBackend == "postgres" ||
		c.Storage.PhaseBackend == "postgres" ||
		c.Storage.AuditBackend == "postgres"
}

// Load reads the YAML file at path, applies env overrides and defaults, and validates.
func Load(path string) (*LockdownConfig, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	var cfg LockdownConfig
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func MustLoad() *LockdownConfig {
	// Processing env config variable and file
	configPath := os.Getenv(configPathEnv)
	if configPath == "" {
		log.Fatalf("%s was not found\n", configPathEnv)
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	return cfg
}

package setup

import (
	"errors"
	"fmt"

	"github.com/LavaJover/shvark-lockdown-service/internal/config"
	"github.com/LavaJover/shvark-lockdown-service/internal/domain"
	publisher "github.com/LavaJover/shvark-lockdown-service/internal/infrastructure/kafka"
	"github.com/LavaJover/shvark-lockdown-service/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-lockdown-service/internal/infrastructure/memory"
	"github.com/LavaJover/shvark-lockdown-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-lockdown-service/internal/infrastructure/notifier"
	"github.com/LavaJover/shvark-lockdown-service/internal/infrastructure/postgres"
	"github.com/LavaJover/shvark-lockdown-service/internal/infrastructure/postgres/repository"
	redisrepo "github.com/LavaJover/shvark-lockdown-service/internal/infrastructure/redis"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Dependencies struct {
	Config         *config.LockdownConfig
	Logger         *zap.Logger
	DB             *gorm.DB
	Redis          *redis.Client
	EventPublisher *publisher.KafkaPublisher
	CheckSource    domain.SubscriberPort
	Notifier       *notifier.WebhookNotifier
	Metrics        *metrics.LockdownMetrics
	Repositories   *Repositories
}

type Repositories struct {
	CCPRepo   domain.CCPRepository
	PhaseRepo domain.DayPhaseRepository
	Audit     domain.AuditLogger
}

func InitializeDependencies(cfg *config.LockdownConfig, log *zap.Logger, reg prometheus.Registerer) (*Dependencies, error) {
	deps := &Dependencies{
		Config:  cfg,
		Logger:  log,
		Metrics: metrics.NewLockdownMetrics(reg),
	}

	if cfg.NeedsDB() {
		db, err := postgres.InitDB(cfg, log)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		deps.DB = db
	}

	if cfg.Storage.PhaseBackend == "redis" {
		deps.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	deps.Repositories = initRepositories(cfg, deps.DB, deps.Redis, log)

	if cfg.KafkaService.Enabled {
		pub, err := publisher.NewKafkaPublisher(kafkaConfig(cfg, cfg.KafkaService.EventsTopic))
		if err != nil {
			return nil, fmt.Errorf("lockdown event publisher: %w", err)
		}
		deps.EventPublisher = pub

		if cfg.KafkaService.IngestChecks {
			sub, err := publisher.NewDefaultKafkaSubscriber(kafkaConfig(cfg, cfg.KafkaService.ChecksTopic), log)
			if err != nil {
				return nil, fmt.Errorf("ccp check subscriber: %w", err)
			}
			deps.CheckSource = sub
		}
	}

	if cfg.Notifier.CallbackURL != "" {
		deps.Notifier = notifier.NewWebhookNotifier(cfg.Notifier.CallbackURL, cfg.Notifier.Timeout, cfg.Notifier.Retries, log)
	}

	return deps, nil
}

func initRepositories(cfg *config.LockdownConfig, db *gorm.DB, rdb *redis.Client, log *zap.Logger) *Repositories {
	repos := &Repositories{}

	// With the memory backend the registry itself is the store; a second in-process
	// copy would never be pruned.
	if cfg.Storage.CCPBackend == "postgres" {
		repos.CCPRepo = repository.NewDefaultCCPRepository(db)
	}

	switch cfg.Storage.PhaseBackend {
	case "postgres":
		repos.PhaseRepo = repository.NewDefaultDayPhaseRepository(db)
	case "redis":
		repos.PhaseRepo = redisrepo.NewDayPhaseRepository(rdb, cfg.Redis.PhaseTTL)
	default:
		repos.PhaseRepo = memory.NewDayPhaseRepository()
	}

	switch cfg.Storage.AuditBackend {
	case "postgres":
		repos.Audit = logger.NewPGAuditLogger(db)
	default:
		repos.Audit = logger.NewZapAuditLogger(log)
	}
	return repos
}

func kafkaConfig(cfg *config.LockdownConfig, topic string) publisher.KafkaConfig {
	return publisher.KafkaConfig{
		Brokers:    cfg.KafkaBrokers(),
		Topic:      topic,
		Username:   cfg.KafkaService.Username,
		Password:   cfg.KafkaService.Password,
		Mechanism:  cfg.KafkaService.Mechanism,
		TLSEnabled: cfg.KafkaService.TLSEnabled,
	}
}

// Close releases broker and storage connections.
func (d *Dependencies) Close() error {
	var errs []error
	if d.EventPublisher != nil {
		errs = append(errs, d.EventPublisher.Close())
	}
	if d.Redis != nil {
		errs = append(errs, d.Redis.Close())
	}
	if d.DB != nil {
		if sqlDB, err := d.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}
